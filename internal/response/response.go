// Package response implements magellan's JSON output contract (spec
// §6.1): every command prints exactly one schema-versioned envelope to
// stdout, correlated with the ExecutionLog by execution_id, with every
// array inside already sorted by its canonical key before it reaches
// this package. Diagnostics and human messages never go to stdout —
// that stream is JSON only.
package response

import (
	"encoding/json"
	"io"

	"github.com/standardbeagle/magellan/internal/errors"
)

// SchemaVersion is bumped in the minor position for additive changes
// only (spec §6.1).
const SchemaVersion = "1.0.0"

// Envelope is the shape every stdout response takes.
type Envelope struct {
	SchemaVersion string      `json:"schema_version"`
	ExecutionID   string      `json:"execution_id"`
	Data          interface{} `json:"data"`
	Partial       *bool       `json:"partial,omitempty"`
}

// ErrorBody is the command-specific payload of an error Envelope's Data
// field: a stable code, a human message, and optional location/remediation.
type ErrorBody struct {
	Code        errors.Code `json:"code"`
	Message     string      `json:"message"`
	FilePath    string      `json:"file,omitempty"`
	Remediation string      `json:"remediation,omitempty"`
}

// New wraps data in a success Envelope. partial is omitted (never
// serialized as false) unless the caller explicitly marks a response as
// partial.
func New(executionID string, data interface{}, partial bool) Envelope {
	env := Envelope{
		SchemaVersion: SchemaVersion,
		ExecutionID:   executionID,
		Data:          data,
	}
	if partial {
		env.Partial = &partial
	}
	return env
}

// FromError builds an ErrorResponse envelope from a MagError (or any
// error, wrapped into an internal-category MagError first).
func FromError(executionID string, err error) Envelope {
	var body ErrorBody
	if me, ok := err.(*errors.MagError); ok {
		body = ErrorBody{
			Code:        me.Code,
			Message:     me.Message,
			FilePath:    me.FilePath,
			Remediation: me.Remediation,
		}
	} else {
		body = ErrorBody{
			Code:    errors.CodeBackendError,
			Message: err.Error(),
		}
	}
	return Envelope{
		SchemaVersion: SchemaVersion,
		ExecutionID:   executionID,
		Data:          body,
	}
}

// Write marshals env with sorted, deterministic map keys (spec §6.1:
// "No map/record may be emitted with non-deterministic key order") and
// writes it followed by a newline. Go's encoding/json already sorts
// map[string]... keys lexicographically; struct fields serialize in
// declaration order, which every type in this module declares to match
// its canonical key, so no custom key-sorting pass is needed beyond
// using encoding/json consistently (never fmt.Sprintf-built JSON).
func Write(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}
