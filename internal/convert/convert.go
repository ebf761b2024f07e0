// Package convert drives the per-file modularization pipeline.
package convert

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"importizer/internal/config"
	"importizer/internal/fileset"
	"importizer/internal/generator"
	"importizer/internal/model"
	"importizer/internal/parser"
	"importizer/internal/resolver"
)

// Converter rewrites the input tree into module units under the output root.
type Converter struct {
	fs     afero.Fs
	config *config.Config
	logger *log.Logger
	out    io.Writer // manual-export report
	parser *parser.Parser
	gen    *generator.Generator
}

// New creates a new Converter. cfg must have passed Validate.
func New(fs afero.Fs, cfg *config.Config, logger *log.Logger, out io.Writer) (*Converter, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	pattern, err := cfg.GuardPattern()
	if err != nil {
		return nil, err
	}
	opts := parser.Options{
		Transitional: cfg.Transitional != nil,
		Logger:       logger,
	}
	if pattern != nil {
		opts.Guard = pattern
	}
	return &Converter{
		fs:     fs,
		config: cfg,
		logger: logger,
		out:    out,
		parser: parser.New(opts),
		gen:    generator.New(cfg, resolver.New(fs, cfg.InDir, cfg.IncludePaths)),
	}, nil
}

// Stats summarizes a run.
type Stats struct {
	Converted int
	Copied    int
}

// Run converts every file under the input root. It stops at the first
// failing file; files already written are left in place.
func (c *Converter) Run(ctx context.Context) (*Stats, error) {
	set, err := fileset.Discover(c.fs, c.config)
	if err != nil {
		return nil, err
	}

	if t := c.config.Transitional; t != nil {
		if err := c.writeExportMacros(filepath.Join(c.config.OutDir, filepath.FromSlash(t.ExportMacrosPath))); err != nil {
			return nil, err
		}
	}

	stats := &Stats{}
	for _, rel := range set.Ignored {
		src := filepath.Join(c.config.InDir, filepath.FromSlash(rel))
		dst := filepath.Join(c.config.OutDir, filepath.FromSlash(rel))
		c.logger.Debug("copying ignored header", "file", rel)
		if err := fileset.Copy(c.fs, src, dst); err != nil {
			return stats, err
		}
		stats.Copied++
	}

	for _, f := range set.Files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := c.convertFile(f); err != nil {
			return stats, fmt.Errorf("converting %s: %w", f.RelPath, err)
		}
		stats.Converted++
	}
	c.logger.Debug("conversion finished", "converted", stats.Converted, "copied", stats.Copied)
	return stats, nil
}

func (c *Converter) writeExportMacros(name string) error {
	var b strings.Builder
	if err := c.gen.ExportMacros(&b); err != nil {
		return err
	}
	c.logger.Debug("writing export macros", "file", name)
	return fileset.Write(c.fs, name, b.String())
}

func (c *Converter) convertFile(f model.File) error {
	if c.config.LogCurrentFile {
		c.logger.Info("processing", "file", f.RelPath)
	}
	if err := fileset.Load(c.fs, &f); err != nil {
		return err
	}

	res, err := c.parser.Parse(f)
	if err != nil {
		return err
	}
	f.Type = res.Type

	pre, err := c.gen.Generate(f, res.Directives)
	if err != nil {
		return err
	}
	content := c.gen.Insert(res.Body, pre)

	rel := f.RelPath
	if f.Type.IsHeader() {
		rel = generator.ReplaceExt(rel, c.config.ModuleInterfaceExt)
	}
	if pre.ManualExport {
		fmt.Fprintln(c.out, rel)
	}
	if err := fileset.Write(c.fs, filepath.Join(c.config.OutDir, filepath.FromSlash(rel)), content); err != nil {
		return err
	}

	if f.Type.IsHeader() && c.config.Transitional != nil && c.config.Transitional.BackCompatHdrs {
		shim := fmt.Sprintf("#include \"%s\"\n", filepath.Base(filepath.FromSlash(rel)))
		if err := fileset.Write(c.fs, filepath.Join(c.config.OutDir, filepath.FromSlash(f.RelPath)), shim); err != nil {
			return err
		}
	}
	return nil
}
