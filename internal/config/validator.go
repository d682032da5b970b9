package config

import (
	stderrors "errors"
	"fmt"

	magerrors "github.com/standardbeagle/magellan/internal/errors"
)

// Validator validates a loaded Config and applies smart defaults before
// an index run starts.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg and fills in any zero-valued
// fields with sane defaults. Returns a CONFIG-flavored VALIDATION error
// on failure.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProject(&cfg.Project); err != nil {
		return magerrors.NewValidationError(magerrors.CodeInputPathMissing, "project: "+err.Error(), err)
	}
	if err := v.validateIndex(&cfg.Index); err != nil {
		return magerrors.NewValidationError(magerrors.CodeInputPathMissing, "index: "+err.Error(), err)
	}
	if err := v.validateBackend(&cfg.Backend); err != nil {
		return magerrors.NewValidationError(magerrors.CodeInputPathMissing, "backend: "+err.Error(), err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProject(project *Project) error {
	if project.Root == "" {
		return stderrors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateIndex(index *Index) error {
	if index.MaxFileSize <= 0 {
		return fmt.Errorf("MaxFileSize must be positive, got %d", index.MaxFileSize)
	}
	if index.MaxTotalSizeMB <= 0 {
		return fmt.Errorf("MaxTotalSizeMB must be positive, got %d", index.MaxTotalSizeMB)
	}
	if index.MaxFileCount <= 0 {
		return fmt.Errorf("MaxFileCount must be positive, got %d", index.MaxFileCount)
	}
	return nil
}

func (v *Validator) validateBackend(backend *Backend) error {
	if backend.Kind != BackendSQLite && backend.Kind != BackendKV {
		return fmt.Errorf("backend.kind must be %q or %q, got %q", BackendSQLite, BackendKV, backend.Kind)
	}
	return nil
}

// setSmartDefaults fills in zero-valued tunables the same way the
// teacher's Validator backfills missing settings with sane defaults.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 500
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"rust", "python", "java", "javascript", "typescript", "c", "cpp"}
	}
}

// ValidateConfig is a convenience wrapper for one-shot validation.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
