package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loamdev/loam/internal/model"
)

func TestDeterministicClock(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, At(1), c.Now())
	assert.Equal(t, At(2), c.Now())

	c.Reset()
	assert.Equal(t, Epoch, c.Now())
}

func TestEventFactory_DeterministicIDsAndOrder(t *testing.T) {
	f := NewEventFactory(model.ScopeLocal)
	a := f.Capture("D2AAAA", model.KindDecision, "x")
	b := f.Endorse("D2AAAA")

	assert.Equal(t, "EV2001", a.ID)
	assert.Equal(t, "EV2002", b.ID)
	assert.True(t, a.Timestamp.Before(b.Timestamp))
	assert.Equal(t, model.ScopeLocal, a.Scope)
	assert.NoError(t, a.Validate())
	assert.NoError(t, b.Validate())
}

func TestEventFactory_ScopeSeriesNeverCollide(t *testing.T) {
	local := NewEventFactory(model.ScopeLocal)
	shared := NewEventFactory(model.ScopeShared)

	// One factory per scope is the common test setup; the two series
	// must never hand out the same event id.
	a := local.Capture("D2AAAA", model.KindDecision, "mine")
	b := shared.Capture("D2BBBB", model.KindDecision, "ours")
	assert.Equal(t, "EV2001", a.ID)
	assert.Equal(t, "EV8001", b.ID)
	assert.NoError(t, b.Validate())
}
