package extract

import (
	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

// Extractor parses one file's source and produces its facts. A parse
// failure must never propagate as an error — implementations emit a
// extract-stage diagnostic and return whatever partial result the grammar
// could still recover (spec §4.4, §9).
type Extractor interface {
	Language() string
	Extract(path string, source []byte, diag *diagnostics.Stream) model.ExtractResult
}

var registry = map[string]Extractor{}

func register(e Extractor) {
	registry[e.Language()] = e
}

func init() {
	register(newRustExtractor())
	register(newPythonExtractor())
	register(newJavaExtractor())
	register(newJavaScriptExtractor())
	register(newTypeScriptExtractor())
	register(newCExtractor())
	register(newCppExtractor())
}

// Dispatch looks up the registered Extractor for language, reporting
// false when the language has no extractor wired.
func Dispatch(language string) (Extractor, bool) {
	e, ok := registry[language]
	return e, ok
}

// packageNameFor derives the scope-chain root name from a file path: the
// file's base name without extension, matching the teacher's convention
// of naming single-file modules after the file itself.
func packageNameFor(path string) string {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			base = path[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}
