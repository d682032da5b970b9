package span

import (
	"encoding/hex"
	"os"
	"time"

	"lukechampine.com/blake3"
)

// SymbolID computes a stable 128-bit identifier for a symbol: BLAKE3 of
// "{language}:{canonical_fqn}:{span_id}", truncated to 32 hex characters
// (128 bits). Identical language, FQN and positional span always hash to
// the same value across runs and machines (spec §3.3, law L3).
func SymbolID(language, canonicalFQN, spanID string) string {
	h := blake3.New(16, nil)
	h.Write([]byte(language))
	h.Write([]byte{':'})
	h.Write([]byte(canonicalFQN))
	h.Write([]byte{':'})
	h.Write([]byte(spanID))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum) // 16 bytes = 32 hex chars
}

// ExecutionID builds the per-invocation execution_id: 8 hex chars of the
// Unix timestamp (seconds) followed by 8 hex chars of the process id.
func ExecutionID(now time.Time, pid int) string {
	return hex.EncodeToString(be32(uint32(now.Unix()))) + hex.EncodeToString(be32(uint32(pid)))
}

// NewExecutionID is a convenience wrapper for the common case of deriving
// an execution_id for the current process at the current time.
func NewExecutionID() string {
	return ExecutionID(time.Now(), os.Getpid())
}

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
