package main

import (
	"fmt"
	"io/fs"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"importizer/internal/config"
	"importizer/internal/convert"
)

func newRootCmd(fsys afero.Fs) *cobra.Command {
	root := &cobra.Command{
		Use:   "importizer",
		Short: "Convert C++ headers and sources to C++20 modules",
		Long: `importizer walks an input tree of C++ headers and sources and writes
module interface and implementation units to an output tree.

Settings are read from importizer.toml (or the file given with --config)
and may be overridden with flags. Files that need their declarations
exported by hand are listed on stdout.`,
		Example: `  importizer -c importizer.toml
  importizer -i src -o modules --std-include-to-import
  importizer transitional --back-compat-hdrs`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, fsys, false)
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", config.DefaultPath, "config file (TOML, YAML or JSON)")
	pf.StringP("in-dir", "i", "", "input directory")
	pf.StringP("out-dir", "o", "", "output directory")
	pf.String("hdr-ext", config.DefaultHdrExt, "header file extension")
	pf.String("src-ext", config.DefaultSrcExt, "source file extension")
	pf.String("module-interface-ext", config.DefaultModuleInterfaceExt, "module interface unit extension")
	pf.String("include-guard", "", "regular expression matching include guard macros")
	pf.StringSlice("include-paths", nil, "additional include search paths")
	pf.StringSlice("ignored-hdrs", nil, "headers, relative to the input directory, to leave as headers")
	pf.StringSlice("umbrella-hdrs", nil, "headers, relative to the input directory, whose imports are re-exported")
	pf.BoolP("std-include-to-import", "s", false, "replace standard library includes with import std")
	pf.BoolP("log-current-file", "l", false, "log each file before it is processed")
	pf.BoolP("SOF-comments", "S", false, "keep leading comments above the preamble")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(newTransitionalCmd(fsys))
	return root
}

func newTransitionalCmd(fsys afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transitional",
		Short: "Emit both module and header forms gated by a control macro",
		Long: `transitional writes files that compile as modules when the control
macro is defined and as ordinary headers and sources otherwise, so a
code base can migrate incrementally. An export-macros header is written
to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, fsys, true)
		},
	}
	def := config.DefaultTransitional()
	f := cmd.Flags()
	f.BoolP("back-compat-hdrs", "b", false, "write header shims that include the module interface files")
	f.String("mi-control", def.Control, "macro selecting the module form")
	f.String("mi-export-keyword", def.ExportKeyword, "macro expanding to export")
	f.String("mi-export-block-begin", def.ExportBlockBegin, "macro opening an export block")
	f.String("mi-export-block-end", def.ExportBlockEnd, "macro closing an export block")
	f.String("export-macros-path", def.ExportMacrosPath, "export-macros header path, relative to the output directory")
	return cmd
}

func runConvert(cmd *cobra.Command, fsys afero.Fs, transitional bool) error {
	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "importizer"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig(fsys, flags)
	if err != nil {
		return err
	}
	if transitional {
		cfg.EnableTransitional()
		applyTransitionalOverrides(flags, cfg.Transitional)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	conv, err := convert.New(fsys, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if _, err := conv.Run(cmd.Context()); err != nil {
		return err
	}
	return nil
}

// loadConfig reads the config file and applies flag overrides. A missing
// default config file is not an error.
func loadConfig(fsys afero.Fs, flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.New()
	name, _ := flags.GetString("config")
	exists, err := afero.Exists(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	switch {
	case exists:
		if err := cfg.LoadFile(fsys, name); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	case flags.Changed("config"):
		return nil, fmt.Errorf("loading config: %s: %w", name, fs.ErrNotExist)
	}

	overrideString(flags, "in-dir", &cfg.InDir)
	overrideString(flags, "out-dir", &cfg.OutDir)
	overrideString(flags, "hdr-ext", &cfg.HdrExt)
	overrideString(flags, "src-ext", &cfg.SrcExt)
	overrideString(flags, "module-interface-ext", &cfg.ModuleInterfaceExt)
	overrideString(flags, "include-guard", &cfg.IncludeGuard)
	overrideSlice(flags, "include-paths", &cfg.IncludePaths)
	overrideSlice(flags, "ignored-hdrs", &cfg.IgnoredHdrs)
	overrideSlice(flags, "umbrella-hdrs", &cfg.UmbrellaHdrs)
	overrideBool(flags, "std-include-to-import", &cfg.StdIncludeToImport)
	overrideBool(flags, "log-current-file", &cfg.LogCurrentFile)
	overrideBool(flags, "SOF-comments", &cfg.SOFComments)
	return cfg, nil
}

func applyTransitionalOverrides(flags *pflag.FlagSet, t *config.Transitional) {
	overrideBool(flags, "back-compat-hdrs", &t.BackCompatHdrs)
	overrideString(flags, "mi-control", &t.Control)
	overrideString(flags, "mi-export-keyword", &t.ExportKeyword)
	overrideString(flags, "mi-export-block-begin", &t.ExportBlockBegin)
	overrideString(flags, "mi-export-block-end", &t.ExportBlockEnd)
	overrideString(flags, "export-macros-path", &t.ExportMacrosPath)
}

// Flags only override the config file when given explicitly.

func overrideString(flags *pflag.FlagSet, name string, dst *string) {
	if !flags.Changed(name) {
		return
	}
	if v, err := flags.GetString(name); err == nil {
		*dst = v
	}
}

func overrideBool(flags *pflag.FlagSet, name string, dst *bool) {
	if !flags.Changed(name) {
		return
	}
	if v, err := flags.GetBool(name); err == nil {
		*dst = v
	}
}

func overrideSlice(flags *pflag.FlagSet, name string, dst *[]string) {
	if !flags.Changed(name) {
		return
	}
	if v, err := flags.GetStringSlice(name); err == nil {
		*dst = v
	}
}
