package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagError_UnwrapsUnderlying(t *testing.T) {
	underlying := errors.New("boom")
	err := NewIOError(CodeFileRead, "read failed", underlying).WithFile("a.rs")

	assert.Equal(t, CategoryIO, err.Category)
	assert.Contains(t, err.Error(), "a.rs")
	assert.Contains(t, err.Error(), "read failed")
	require.ErrorIs(t, err, underlying)
}

func TestMagError_Builders(t *testing.T) {
	err := NewValidationError(CodeOutsideRoot, "outside root", nil).WithRemediation("use a path under root")
	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, "use a path under root", err.Remediation)
}
