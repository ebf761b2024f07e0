// Package fileset discovers the headers and sources under the input root
// and moves file contents between the input and output trees.
package fileset

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"importizer/internal/config"
	"importizer/internal/model"
)

// Set is the result of walking the input root.
type Set struct {
	Files   []model.File // Files to convert, in lexical order, without content
	Ignored []string     // Input-relative paths of ignored headers
}

// Discover walks cfg.InDir and classifies every header and source.
// Other files are skipped, as is cfg.OutDir when it lies inside the input
// root.
func Discover(fs afero.Fs, cfg *config.Config) (*Set, error) {
	set := &Set{}
	inDir, outDir := filepath.Clean(cfg.InDir), filepath.Clean(cfg.OutDir)
	err := afero.Walk(fs, cfg.InDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p = filepath.Clean(p); p == outDir && p != inDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(cfg.InDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		var typ model.FileType
		switch path.Ext(rel) {
		case cfg.HdrExt:
			if cfg.IsIgnoredHdr(rel) {
				set.Ignored = append(set.Ignored, rel)
				return nil
			}
			typ = model.FileHeader
			if cfg.IsUmbrellaHdr(rel) {
				typ = model.FileUmbrellaHeader
			}
		case cfg.SrcExt:
			typ, err = classifySource(fs, cfg, p, rel)
			if err != nil {
				return err
			}
		default:
			return nil
		}
		set.Files = append(set.Files, model.File{Type: typ, Path: p, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", cfg.InDir, err)
	}
	return set, nil
}

func classifySource(fs afero.Fs, cfg *config.Config, p, rel string) (model.FileType, error) {
	hdr := replaceExt(p, cfg.HdrExt)
	paired, err := afero.Exists(fs, hdr)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", hdr, err)
	}
	switch {
	case !paired:
		return model.FileUnpairedSource, nil
	case cfg.IsIgnoredHdr(replaceExt(rel, cfg.HdrExt)):
		// Keeps including its header, which stays a header.
		return model.FileSourceWithMain, nil
	}
	return model.FilePairedSource, nil
}

func replaceExt(p, ext string) string {
	return p[:len(p)-len(filepath.Ext(p))] + ext
}

// Load reads the content of f.
func Load(fs afero.Fs, f *model.File) error {
	data, err := afero.ReadFile(fs, f.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.Path, err)
	}
	f.Content = string(data)
	return nil
}

// Write stores content at name, creating parent directories as needed.
func Write(fs afero.Fs, name, content string) error {
	if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Copy copies src to dst unchanged.
func Copy(fs afero.Fs, src, dst string) error {
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	return Write(fs, dst, string(data))
}
