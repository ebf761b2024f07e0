package generator

import (
	"path"
	"path/filepath"
	"strings"
)

// ModuleName derives a dotted module name from an input-relative path:
// the extension is dropped, '/' becomes '.' and '-' becomes '_'.
func ModuleName(relPath string) string {
	name := strings.TrimSuffix(relPath, path.Ext(relPath))
	return strings.Map(func(r rune) rune {
		switch r {
		case '/':
			return '.'
		case '-':
			return '_'
		}
		return r
	}, name)
}

// ReplaceExt swaps the extension of a slash-separated path.
func ReplaceExt(p, ext string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ext
}

func importLine(module string, reexport bool) string {
	if reexport {
		return "export import " + module + ";\n"
	}
	return "import " + module + ";\n"
}

// relativeInclude returns target as seen from the directory of from. Both
// are slash-separated paths relative to the same root.
func relativeInclude(from, target string) string {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(from)), filepath.FromSlash(target))
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

// leadingCommentsEnd returns the offset just past the run of comments that
// opens src, including the rest of the last comment's line. It returns 0
// when src does not start with a comment.
func leadingCommentsEnd(src string) int {
	end := 0
	i := 0
	for {
		for i < len(src) && isBlank(src[i]) {
			i++
		}
		switch {
		case strings.HasPrefix(src[i:], "//"):
			n := strings.IndexByte(src[i:], '\n')
			if n < 0 {
				return len(src)
			}
			i += n + 1
			end = i
		case strings.HasPrefix(src[i:], "/*"):
			n := strings.Index(src[i+2:], "*/")
			if n < 0 {
				return end
			}
			i += 2 + n + 2
			end = i
			// Take the rest of the line when only blanks follow.
			j := i
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\r') {
				j++
			}
			if j < len(src) && src[j] == '\n' {
				i = j + 1
				end = i
			}
		default:
			return end
		}
	}
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
