package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration.
type Config struct {
	InDir              string        `toml:"inDir" yaml:"inDir" json:"inDir"`
	OutDir             string        `toml:"outDir" yaml:"outDir" json:"outDir"`
	HdrExt             string        `toml:"hdrExt" yaml:"hdrExt" json:"hdrExt"`
	SrcExt             string        `toml:"srcExt" yaml:"srcExt" json:"srcExt"`
	ModuleInterfaceExt string        `toml:"moduleInterfaceExt" yaml:"moduleInterfaceExt" json:"moduleInterfaceExt"`
	IncludeGuard       string        `toml:"includeGuard" yaml:"includeGuard" json:"includeGuard"`
	StdIncludeToImport bool          `toml:"stdIncludeToImport" yaml:"stdIncludeToImport" json:"stdIncludeToImport"`
	LogCurrentFile     bool          `toml:"logCurrentFile" yaml:"logCurrentFile" json:"logCurrentFile"`
	SOFComments        bool          `toml:"SOFComments" yaml:"SOFComments" json:"SOFComments"`
	IncludePaths       []string      `toml:"includePaths" yaml:"includePaths" json:"includePaths"`
	IgnoredHdrs        []string      `toml:"ignoredHdrs" yaml:"ignoredHdrs" json:"ignoredHdrs"`
	UmbrellaHdrs       []string      `toml:"umbrellaHdrs" yaml:"umbrellaHdrs" json:"umbrellaHdrs"`
	Transitional       *Transitional `toml:"transitional" yaml:"transitional" json:"transitional"`

	file string
}

// Transitional holds the settings of transitional mode. A nil
// *Transitional in Config means the mode is off.
type Transitional struct {
	BackCompatHdrs   bool   `toml:"backCompatHdrs" yaml:"backCompatHdrs" json:"backCompatHdrs"`
	Control          string `toml:"mi_control" yaml:"mi_control" json:"mi_control"`
	ExportKeyword    string `toml:"mi_exportKeyword" yaml:"mi_exportKeyword" json:"mi_exportKeyword"`
	ExportBlockBegin string `toml:"mi_exportBlockBegin" yaml:"mi_exportBlockBegin" json:"mi_exportBlockBegin"`
	ExportBlockEnd   string `toml:"mi_exportBlockEnd" yaml:"mi_exportBlockEnd" json:"mi_exportBlockEnd"`
	ExportMacrosPath string `toml:"exportMacrosPath" yaml:"exportMacrosPath" json:"exportMacrosPath"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		HdrExt:             DefaultHdrExt,
		SrcExt:             DefaultSrcExt,
		ModuleInterfaceExt: DefaultModuleInterfaceExt,
	}
}

// LoadFile loads configuration from a file (TOML, YAML or JSON based on
// extension). Relative directories in the file are taken relative to the
// file's own directory.
func (c *Config) LoadFile(fs afero.Fs, name string) error {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&loaded); err != nil && !errors.Is(err, io.EOF) {
			return yamlError(name, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&loaded); err != nil {
			return jsonError(name, data, err)
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&loaded); err != nil {
			return tomlError(name, err)
		}
	}

	loaded.resolvePaths(filepath.Dir(name))
	c.merge(&loaded)
	c.file = name
	return nil
}

// resolvePaths makes the directory keys absolute with respect to base.
func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.InDir = abs(c.InDir)
	c.OutDir = abs(c.OutDir)
	for i, p := range c.IncludePaths {
		c.IncludePaths[i] = abs(p)
	}
}

// merge merges the loaded config into the current config.
func (c *Config) merge(loaded *Config) {
	if loaded.InDir != "" {
		c.InDir = loaded.InDir
	}
	if loaded.OutDir != "" {
		c.OutDir = loaded.OutDir
	}
	if loaded.HdrExt != "" {
		c.HdrExt = loaded.HdrExt
	}
	if loaded.SrcExt != "" {
		c.SrcExt = loaded.SrcExt
	}
	if loaded.ModuleInterfaceExt != "" {
		c.ModuleInterfaceExt = loaded.ModuleInterfaceExt
	}
	if loaded.IncludeGuard != "" {
		c.IncludeGuard = loaded.IncludeGuard
	}
	// All switches default to false
	c.StdIncludeToImport = c.StdIncludeToImport || loaded.StdIncludeToImport
	c.LogCurrentFile = c.LogCurrentFile || loaded.LogCurrentFile
	c.SOFComments = c.SOFComments || loaded.SOFComments
	if loaded.IncludePaths != nil {
		c.IncludePaths = loaded.IncludePaths
	}
	if loaded.IgnoredHdrs != nil {
		c.IgnoredHdrs = loaded.IgnoredHdrs
	}
	if loaded.UmbrellaHdrs != nil {
		c.UmbrellaHdrs = loaded.UmbrellaHdrs
	}
	if loaded.Transitional != nil {
		c.EnableTransitional()
		c.Transitional.merge(loaded.Transitional)
	}
}

func (t *Transitional) merge(loaded *Transitional) {
	t.BackCompatHdrs = t.BackCompatHdrs || loaded.BackCompatHdrs
	if loaded.Control != "" {
		t.Control = loaded.Control
	}
	if loaded.ExportKeyword != "" {
		t.ExportKeyword = loaded.ExportKeyword
	}
	if loaded.ExportBlockBegin != "" {
		t.ExportBlockBegin = loaded.ExportBlockBegin
	}
	if loaded.ExportBlockEnd != "" {
		t.ExportBlockEnd = loaded.ExportBlockEnd
	}
	if loaded.ExportMacrosPath != "" {
		t.ExportMacrosPath = loaded.ExportMacrosPath
	}
}

// EnableTransitional turns transitional mode on with default settings
// unless it is already on.
func (c *Config) EnableTransitional() {
	if c.Transitional == nil {
		c.Transitional = DefaultTransitional()
	}
}

// File returns the config file the values were loaded from, if any.
func (c *Config) File() string {
	return c.file
}

// Validate checks that required keys are present and values are usable.
func (c *Config) Validate() error {
	if c.InDir == "" {
		return &KeyError{File: c.file, Key: "inDir", Err: ErrMissingKey}
	}
	if c.OutDir == "" {
		return &KeyError{File: c.file, Key: "outDir", Err: ErrMissingKey}
	}
	exts := []struct{ key, val string }{
		{"hdrExt", c.HdrExt},
		{"srcExt", c.SrcExt},
		{"moduleInterfaceExt", c.ModuleInterfaceExt},
	}
	for _, e := range exts {
		if !strings.HasPrefix(e.val, ".") || len(e.val) < 2 {
			return &KeyError{File: c.file, Key: e.key, Err: fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidValue, e.val)}
		}
	}
	if c.HdrExt == c.SrcExt {
		return &KeyError{File: c.file, Key: "srcExt", Err: fmt.Errorf("%w: same as hdrExt", ErrInvalidValue)}
	}
	if t := c.Transitional; t != nil {
		macros := []struct{ key, val string }{
			{"mi_control", t.Control},
			{"mi_exportKeyword", t.ExportKeyword},
			{"mi_exportBlockBegin", t.ExportBlockBegin},
			{"mi_exportBlockEnd", t.ExportBlockEnd},
			{"exportMacrosPath", t.ExportMacrosPath},
		}
		for _, m := range macros {
			if m.val == "" {
				return &KeyError{File: c.file, Key: "transitional." + m.key, Err: ErrMissingKey}
			}
		}
	}
	if _, err := c.GuardPattern(); err != nil {
		return err
	}
	return nil
}

// IsIgnoredHdr reports whether the input-relative path rel is listed in
// ignoredHdrs.
func (c *Config) IsIgnoredHdr(rel string) bool {
	return containsPath(c.IgnoredHdrs, rel)
}

// IsUmbrellaHdr reports whether the input-relative path rel is listed in
// umbrellaHdrs.
func (c *Config) IsUmbrellaHdr(rel string) bool {
	return containsPath(c.UmbrellaHdrs, rel)
}

func containsPath(list []string, rel string) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	return slices.ContainsFunc(list, func(p string) bool {
		return path.Clean(filepath.ToSlash(p)) == rel
	})
}

// GuardPattern matches include-guard identifiers against the configured
// includeGuard pattern. The whole identifier must match.
type GuardPattern struct {
	re *regexp2.Regexp
}

// GuardPattern compiles includeGuard. It returns nil when no pattern is set.
func (c *Config) GuardPattern() (*GuardPattern, error) {
	if c.IncludeGuard == "" {
		return nil, nil
	}
	re, err := regexp2.Compile("^(?:"+c.IncludeGuard+")$", regexp2.None)
	if err != nil {
		return nil, &KeyError{File: c.file, Key: "includeGuard", Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
	}
	return &GuardPattern{re: re}, nil
}

// Match reports whether ident is an include guard.
func (g *GuardPattern) Match(ident string) bool {
	ok, err := g.re.MatchString(ident)
	return err == nil && ok
}
