// Package harness runs YAML-scripted graph scenarios for tests.
//
// A scenario is a sequence of operations (capture, challenge, link,
// endorse, evidence, deprecate, resolve) with scenario-chosen artifact
// ids, replayed through the real projector with deterministic event ids
// and timestamps. Assertions check the projected graph; golden files
// pin its canonical snapshot byte for byte.
//
// Scenarios live in testdata/ next to the tests that run them. They are
// the executable form of the system's lifecycle guarantees: the same
// scenario file must produce the same snapshot on every machine.
package harness
