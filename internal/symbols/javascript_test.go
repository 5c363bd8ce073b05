package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsSource = `class EventLog {
  append(event) {
    return event;
  }
}

function sortForReplay(events) {
  return events;
}

const readAll = (scope) => [];
`

func TestJavaScriptParser_Declarations(t *testing.T) {
	p := NewJavaScriptParser()
	records, err := p.Parse("store/eventlog.js", []byte(jsSource))
	require.NoError(t, err)

	byName := map[string]Record{}
	for _, r := range records {
		byName[r.QualifiedName] = r
	}

	class, ok := byName["eventlog.EventLog"]
	require.True(t, ok, "class record missing, got %v", byName)
	assert.Equal(t, KindClass, class.Kind)

	method, ok := byName["eventlog.EventLog.append"]
	require.True(t, ok)
	assert.Equal(t, KindMethod, method.Kind)
	assert.Equal(t, "eventlog.EventLog", method.Parent)

	fn, ok := byName["eventlog.sortForReplay"]
	require.True(t, ok)
	assert.Equal(t, KindFunction, fn.Kind)

	arrow, ok := byName["eventlog.readAll"]
	require.True(t, ok)
	assert.Equal(t, KindFunction, arrow.Kind)
}
