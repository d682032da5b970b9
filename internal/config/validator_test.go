package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := &Config{
		Project: Project{Root: "/test/root", Name: "test-project"},
		Index: Index{
			MaxFileSize:    1024 * 1024,
			MaxTotalSizeMB: 1000,
			MaxFileCount:   10000,
		},
		Backend: Backend{Kind: BackendSQLite, Path: "/test/root/.magellan/graph.db"},
	}

	validator := NewValidator()
	require.NoError(t, validator.ValidateAndSetDefaults(cfg))

	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.NotEmpty(t, cfg.Languages)
}

func TestValidateProject_EmptyRoot(t *testing.T) {
	validator := NewValidator()
	err := validator.validateProject(&Project{Root: ""})
	assert.Error(t, err)
}

func TestValidateProject_OK(t *testing.T) {
	validator := NewValidator()
	err := validator.validateProject(&Project{Root: "/some/root"})
	assert.NoError(t, err)
}

func TestValidateIndex_RejectsNonPositive(t *testing.T) {
	validator := NewValidator()

	cases := []Index{
		{MaxFileSize: 0, MaxTotalSizeMB: 1, MaxFileCount: 1},
		{MaxFileSize: 1, MaxTotalSizeMB: 0, MaxFileCount: 1},
		{MaxFileSize: 1, MaxTotalSizeMB: 1, MaxFileCount: 0},
	}
	for _, idx := range cases {
		idx := idx
		assert.Error(t, validator.validateIndex(&idx))
	}
}

func TestValidateBackend_RejectsUnknownKind(t *testing.T) {
	validator := NewValidator()
	err := validator.validateBackend(&Backend{Kind: "postgres"})
	assert.Error(t, err)
}

func TestValidateBackend_AcceptsKnownKinds(t *testing.T) {
	validator := NewValidator()
	assert.NoError(t, validator.validateBackend(&Backend{Kind: BackendSQLite}))
	assert.NoError(t, validator.validateBackend(&Backend{Kind: BackendKV}))
}

func TestValidateConfig_ConvenienceWrapper(t *testing.T) {
	cfg := Default("/test/root")
	assert.NoError(t, ValidateConfig(cfg))
}
