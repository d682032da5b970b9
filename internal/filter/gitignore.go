package filter

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Gitignore parses and matches .gitignore-style patterns, adapted from
// the teacher's GitignoreParser (internal/config/gitignore.go) with the
// same fast-path pattern classification (exact/prefix/suffix/regex)
// before falling back to filepath.Match.
type Gitignore struct {
	patterns   []gitignorePattern
	regexCache sync.Map
}

type gitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool

	kind     patternKind
	compiled *regexp.Regexp
	prefix   string
	suffix   string
}

type patternKind int

const (
	kindExact patternKind = iota
	kindPrefix
	kindSuffix
	kindWildcard
	kindRegex
)

// NewGitignore creates an empty pattern set.
func NewGitignore() *Gitignore {
	return &Gitignore{}
}

// LoadFile loads patterns from a .gitignore file at root. A missing file
// is not an error (spec §4.3: gitignore rules are "loaded from the
// root's ignore files" when present).
func (g *Gitignore) LoadFile(root string) error {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		g.Add(line)
	}
	return scanner.Err()
}

// Add registers a single gitignore-syntax pattern line.
func (g *Gitignore) Add(line string) {
	p := gitignorePattern{}

	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Absolute = true
		line = line[1:]
	}
	p.Pattern = line
	p.kind, p.prefix, p.suffix, p.compiled = g.classify(line)

	g.patterns = append(g.patterns, p)
}

func (g *Gitignore) classify(pattern string) (patternKind, string, string, *regexp.Regexp) {
	if !strings.ContainsAny(pattern, "*?[") {
		return kindExact, pattern, pattern, nil
	}
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "?") && !strings.Contains(pattern, "[") {
		if strings.HasPrefix(pattern, "*") && !strings.Contains(pattern[1:], "*") {
			return kindSuffix, "", pattern[1:], nil
		}
		if strings.HasSuffix(pattern, "*") && !strings.Contains(pattern[:len(pattern)-1], "*") {
			return kindPrefix, pattern[:len(pattern)-1], "", nil
		}
	}

	regexPattern := globToRegex(pattern)
	if cached, ok := g.regexCache.Load(regexPattern); ok {
		return kindRegex, "", "", cached.(*regexp.Regexp)
	}
	compiled, err := regexp.Compile(regexPattern)
	if err != nil {
		return kindWildcard, "", "", nil
	}
	g.regexCache.Store(regexPattern, compiled)
	return kindRegex, "", "", compiled
}

func globToRegex(pattern string) string {
	regex := regexp.QuoteMeta(pattern)
	regex = strings.ReplaceAll(regex, `\*`, `.*`)
	regex = strings.ReplaceAll(regex, `\?`, `.`)
	regex = strings.ReplaceAll(regex, `\[`, `[`)
	regex = strings.ReplaceAll(regex, `\]`, `]`)
	return "^" + regex + "$"
}

// Match reports whether path (relative to root, forward-slashed) is
// ignored, applying later rules over earlier ones and honoring negation,
// exactly as git does.
func (g *Gitignore) Match(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	ignored := false
	for _, p := range g.patterns {
		if matchesPattern(p, path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func matchesPattern(p gitignorePattern, path string, isDir bool) bool {
	if p.Directory {
		if isDir {
			return matchDirectory(p, path)
		}
		return matchInsideDirectory(p, path)
	}
	if p.Absolute {
		return fastMatch(p, path)
	}

	if fastMatch(p, path) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts); i++ {
		if fastMatch(p, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func fastMatch(p gitignorePattern, path string) bool {
	switch p.kind {
	case kindExact:
		return p.Pattern == path
	case kindPrefix:
		return strings.HasPrefix(path, p.prefix)
	case kindSuffix:
		return strings.HasSuffix(path, p.suffix)
	case kindRegex:
		return p.compiled.MatchString(path)
	case kindWildcard:
		matched, _ := filepath.Match(p.Pattern, path)
		return matched
	default:
		return p.Pattern == path
	}
}

func matchDirectory(p gitignorePattern, path string) bool {
	if fastMatch(p, path) {
		return true
	}
	if strings.HasSuffix(p.Pattern, "/**") {
		base := strings.TrimSuffix(p.Pattern, "/**")
		if path == base || strings.HasPrefix(path, base+"/") {
			return true
		}
	}
	return false
}

func matchInsideDirectory(p gitignorePattern, path string) bool {
	if strings.HasPrefix(path, p.Pattern+"/") {
		return true
	}
	return fastMatch(p, path)
}
