// Package ident issues short, collision-resistant identifiers and
// resolves user-typed prefixes back to full ids.
//
// Ids are fixed-length tokens drawn from an alphabet with the visually
// confusable characters removed (no 0/O, 1/I/L, or U/V ambiguity), so
// an id read off a teammate's screen types back in correctly.
package ident

import (
	"crypto/rand"
	"fmt"
	"sort"
	"strings"

	"github.com/loamdev/loam/internal/apperr"
)

// Alphabet is the id character set: digits and uppercase letters minus
// the confusable ones (0, 1, I, L, O, U).
const Alphabet = "23456789ABCDEFGHJKMNPQRSTVWXYZ"

// IDLength is the fixed id length. 30^6 is roughly 7.3e8 ids, far past
// any plausible artifact count for a single store.
const IDLength = 6

// maxAttempts bounds collision retries before the allocator gives up.
const maxAttempts = 32

// ExistsFunc reports whether an id is already taken in the current
// scope set.
type ExistsFunc func(id string) bool

// Allocator generates ids checked against the live id set.
type Allocator struct {
	exists ExistsFunc
}

// NewAllocator creates an allocator that checks candidates with exists.
func NewAllocator(exists ExistsFunc) *Allocator {
	return &Allocator{exists: exists}
}

// Allocate produces a fresh id, retrying on collision a bounded number
// of times. Exhausting the retries is an operator-visible fatal error:
// it means the id space is effectively saturated or randomness is broken.
func (a *Allocator) Allocate() (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := randomID()
		if err != nil {
			return "", apperr.Wrap(apperr.CodeAllocatorExhausted, "", err, "read randomness")
		}
		if a.exists != nil && a.exists(id) {
			continue
		}
		return id, nil
	}
	return "", apperr.New(apperr.CodeAllocatorExhausted, "",
		"no free id after %d attempts", maxAttempts)
}

func randomID() (string, error) {
	buf := make([]byte, IDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	var b strings.Builder
	b.Grow(IDLength)
	for _, c := range buf {
		b.WriteByte(Alphabet[int(c)%len(Alphabet)])
	}
	return b.String(), nil
}

// Valid reports whether s is a well-formed id: correct length, alphabet
// characters only.
func Valid(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(Alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

// Resolve maps a prefix to a full id over the given id set.
//
// Rules, in order: an exact match wins immediately; a unique prefix
// match returns that id; two or more matches fail with the sorted
// candidate list so the caller can disambiguate; zero matches is
// NotFound. The engine never guesses.
func Resolve(prefix string, ids []string) (string, error) {
	if prefix == "" {
		return "", apperr.NotFound(prefix)
	}
	p := strings.ToUpper(prefix)

	var candidates []string
	for _, id := range ids {
		if id == p {
			return id, nil
		}
		if strings.HasPrefix(id, p) {
			candidates = append(candidates, id)
		}
	}

	switch len(candidates) {
	case 0:
		return "", apperr.NotFound(prefix)
	case 1:
		return candidates[0], nil
	default:
		sort.Strings(candidates)
		return "", apperr.Ambiguous(prefix, candidates)
	}
}
