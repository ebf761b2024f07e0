// Package resolver maps #include specs to files under the input root.
package resolver

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Resolver finds included files under the input root or the include paths.
type Resolver struct {
	fs           afero.Fs
	inDir        string
	includePaths []string
}

// New creates a new Resolver. includePaths are searched in order after the
// directory of the including file.
// Relative roots are made absolute so that candidates found through either
// can be related to the input root.
func New(fs afero.Fs, inDir string, includePaths []string) *Resolver {
	paths := make([]string, 0, len(includePaths))
	for _, p := range includePaths {
		paths = append(paths, absPath(p))
	}
	return &Resolver{
		fs:           fs,
		inDir:        absPath(inDir),
		includePaths: paths,
	}
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// Resolve returns the slash-separated path, relative to the input root, of
// the file named by spec. from is the input-relative path of the including
// file. Quoted includes are first looked up next to the including file.
// ok is false when no candidate exists under the input root.
func (r *Resolver) Resolve(spec string, angle bool, from string) (rel string, ok bool, err error) {
	if !angle {
		dir := filepath.Join(r.inDir, filepath.FromSlash(path.Dir(from)))
		rel, ok, err = r.try(filepath.Join(dir, filepath.FromSlash(spec)))
		if err != nil || ok {
			return rel, ok, err
		}
	}
	for _, p := range r.includePaths {
		rel, ok, err = r.try(filepath.Join(p, filepath.FromSlash(spec)))
		if err != nil || ok {
			return rel, ok, err
		}
	}
	return "", false, nil
}

// try accepts candidate when it exists and does not escape the input root.
func (r *Resolver) try(candidate string) (string, bool, error) {
	exists, err := afero.Exists(r.fs, candidate)
	if err != nil {
		return "", false, fmt.Errorf("checking %s: %w", candidate, err)
	}
	if !exists {
		return "", false, nil
	}
	rel, err := filepath.Rel(r.inDir, candidate)
	if err != nil {
		return "", false, nil
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false, nil
	}
	return rel, true, nil
}
