package diagnostics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_WritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)
	s.Emitf(StageReconcile, "a.rs", "something %s", "happened")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var d Diagnostic
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &d))
	assert.Equal(t, "a.rs", d.Path)
	assert.Equal(t, StageReconcile, d.Stage)
	assert.Equal(t, "something happened", d.Message)
}

func TestEmit_NilStreamIsSafe(t *testing.T) {
	var s *Stream
	assert.NotPanics(t, func() {
		s.Emitf(StageExtract, "x", "no-op")
	})
}
