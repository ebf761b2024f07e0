package generator

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"importizer/internal/config"
	"importizer/internal/model"
	"importizer/internal/parser"
)

// mapResolver resolves include specs from a fixed table.
type mapResolver map[string]string

func (m mapResolver) Resolve(spec string, _ bool, _ string) (string, bool, error) {
	rel, ok := m[spec]
	return rel, ok, nil
}

func testConfig(mods ...func(*config.Config)) *config.Config {
	cfg := config.New()
	cfg.InDir = "/in"
	cfg.OutDir = "/out"
	for _, mod := range mods {
		mod(cfg)
	}
	return cfg
}

func transitional(backCompat bool) func(*config.Config) {
	return func(c *config.Config) {
		c.EnableTransitional()
		c.Transitional.BackCompatHdrs = backCompat
	}
}

// convert runs the scan and synthesis stages on one file.
func convert(t *testing.T, cfg *config.Config, r Resolver, file model.File) (string, *Preamble) {
	t.Helper()
	opts := parser.Options{Transitional: cfg.Transitional != nil}
	pattern, err := cfg.GuardPattern()
	require.NoError(t, err)
	if pattern != nil {
		opts.Guard = pattern
	}
	res, err := parser.New(opts).Parse(file)
	require.NoError(t, err)
	file.Type = res.Type

	g := New(cfg, r)
	pre, err := g.Generate(file, res.Directives)
	require.NoError(t, err)
	return g.Insert(res.Body, pre), pre
}

func assertText(t *testing.T, want, got string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateGuardedHeader(t *testing.T) {
	t.Parallel()

	cfg := testConfig(func(c *config.Config) { c.IncludeGuard = "[A-Z_]+_H" })
	got, pre := convert(t, cfg, mapResolver{"bar.hpp": "bar.hpp"}, model.File{
		Type:    model.FileHeader,
		RelPath: "foo.hpp",
		Content: "#ifndef FOO_H\n#define FOO_H\n#include \"bar.hpp\"\nvoid f();\n#endif\n",
	})

	assertText(t, "module;\nexport module foo;\nimport bar;\nvoid f();\n", got)
	assert.True(t, pre.ManualExport)
	assert.Equal(t, ImportUnused, pre.ImportLevel)
}

const minimizerInput = `// Should not be minimized away
#if __has_include(<iostream>)
#include <iostream>
#endif

// Should be eliminated away
#ifdef COND1
#include "LocalHdr.hpp"
#endif

// Should be removed completely
#ifdef COND2
#ifdef NESTED
#endif
#endif

// The elifdef should be removed
#ifdef COND3
#define A
#elifdef COND3
#ifdef NESTED
#endif
#endif

// The else should be removed
#ifdef COND4
#define B
#else
#endif

// Should be removed
#define C
#undef C`

func TestGenerateMinimizesModuleFragment(t *testing.T) {
	t.Parallel()

	cfg := testConfig(func(c *config.Config) { c.SrcExt = ".cc" })
	got, pre := convert(t, cfg, mapResolver{"LocalHdr.hpp": "LocalHdr.hpp"}, model.File{
		Type:    model.FileUnpairedSource,
		RelPath: "Test.cc",
		Content: minimizerInput,
	})

	wantPreamble := "module;\n" +
		"#if __has_include(<iostream>)\n" +
		"#include <iostream>\n" +
		"#endif\n" +
		"#ifdef COND3\n" +
		"#define A\n" +
		"#endif\n" +
		"#ifdef COND4\n" +
		"#define B\n" +
		"#endif\n" +
		"export module Test;\n" +
		"#ifdef COND1\n" +
		"import LocalHdr;\n" +
		"#endif\n"
	assertText(t, wantPreamble, pre.Text)

	body := strings.Replace(minimizerInput, "#include <iostream>\n", "", 1)
	body = strings.Replace(body, "#include \"LocalHdr.hpp\"\n", "", 1)
	assertText(t, wantPreamble+body, got)
	assert.True(t, pre.ManualExport)
}

func TestGenerateDefault(t *testing.T) {
	t.Parallel()

	resolver := mapResolver{
		"foo.hpp":     "foo.hpp",
		"bar.hpp":     "bar.hpp",
		"lib/a-b.hpp": "lib/a-b.hpp",
		"cfg.hpp":     "cfg.hpp",
		"../a.hpp":    "a.hpp",
		"../b.hpp":    "b.hpp",
		"win.hpp":     "win.hpp",
		"posix.hpp":   "posix.hpp",
	}
	stdImports := func(c *config.Config) { c.StdIncludeToImport = true }

	tests := []struct {
		name         string
		cfg          *config.Config
		file         model.File
		want         string
		manualExport bool
		level        ImportLevel
	}{
		{
			name: "paired source",
			cfg:  testConfig(stdImports),
			file: model.File{
				Type:    model.FilePairedSource,
				RelPath: "foo.cpp",
				Content: "#include \"foo.hpp\"\n#include \"bar.hpp\"\n#include <vector>\nvoid f() {}\n",
			},
			want:  "module;\nmodule foo;\nimport bar;\nimport std;\nvoid f() {}\n",
			level: ImportStd,
		},
		{
			name: "umbrella header re-exports",
			cfg:  testConfig(),
			file: model.File{
				Type:    model.FileUmbrellaHeader,
				RelPath: "all.hpp",
				Content: "#include \"foo.hpp\"\n#include \"lib/a-b.hpp\"\n",
			},
			want:         "module;\nexport module all;\nexport import foo;\nexport import lib.a_b;\n",
			manualExport: true,
		},
		{
			name: "std compat is never downgraded",
			cfg:  testConfig(stdImports),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "#include <stdio.h>\n#include <vector>\nint x;\n",
			},
			want:         "module;\nexport module x;\nimport std.compat;\nint x;\n",
			manualExport: true,
			level:        ImportStdCompat,
		},
		{
			name: "std includes kept without std imports",
			cfg:  testConfig(),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "#include <vector>\nint x;\n",
			},
			want:         "module;\n#include <vector>\nexport module x;\nint x;\n",
			manualExport: true,
		},
		{
			name: "ignored header stays an include",
			cfg:  testConfig(func(c *config.Config) { c.IgnoredHdrs = []string{"cfg.hpp"} }),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "#include \"cfg.hpp\"\n#include \"bar.hpp\"\nint x;\n",
			},
			want:         "module;\n#include \"cfg.hpp\"\nexport module x;\nimport bar;\nint x;\n",
			manualExport: true,
		},
		{
			name: "conditional includes",
			cfg:  testConfig(),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "#ifdef _WIN32\n#include <windows.h>\n#else\n#include \"bar.hpp\"\n#endif\nint x;\n",
			},
			want: "module;\n#ifdef _WIN32\n#include <windows.h>\n#endif\nexport module x;\n" +
				"#ifdef _WIN32\n#else\nimport bar;\n#endif\n" +
				"#ifdef _WIN32\n#else\n#endif\nint x;\n",
			manualExport: true,
		},
		{
			name: "imports keep their conditions",
			cfg:  testConfig(),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "#ifdef _WIN32\n#include \"win.hpp\"\n#else\n#include \"posix.hpp\"\n#endif\nint x;\n",
			},
			want: "module;\nexport module x;\n" +
				"#ifdef _WIN32\nimport win;\n#else\nimport posix;\n#endif\n" +
				"#ifdef _WIN32\n#else\n#endif\nint x;\n",
			manualExport: true,
		},
		{
			name: "pragma once and unknown directives are not carried",
			cfg:  testConfig(),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "#pragma once\n#error nope\nint x;\n",
			},
			want:         "module;\nexport module x;\n#error nope\nint x;\n",
			manualExport: true,
		},
		{
			name: "main source",
			cfg:  testConfig(stdImports),
			file: model.File{
				Type:    model.FileUnpairedSource,
				RelPath: "app/main.cpp",
				Content: "#include \"../a.hpp\"\n#include <x.h>\n#include <cstdio>\n#include \"../b.hpp\"\nint main() {}\n",
			},
			want:  "import a;\n#include <x.h>\nimport b;\nimport std;\nint main() {}\n",
			level: ImportStd,
		},
		{
			name: "paired source with main imports its header",
			cfg:  testConfig(),
			file: model.File{
				Type:    model.FilePairedSource,
				RelPath: "foo.cpp",
				Content: "#include \"foo.hpp\"\nint main() {}\n",
			},
			want: "import foo;\nint main() {}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, pre := convert(t, tt.cfg, resolver, tt.file)
			assertText(t, tt.want, got)
			assert.Equal(t, tt.manualExport, pre.ManualExport)
			assert.Equal(t, tt.level, pre.ImportLevel)
		})
	}
}

func TestGenerateMainWithoutIncludesIsUnchanged(t *testing.T) {
	t.Parallel()

	src := "#define X 1\n#ifdef X\nint y;\n#endif\nint main() { return 0; }\n"
	for _, cfg := range []*config.Config{testConfig(), testConfig(transitional(false))} {
		got, pre := convert(t, cfg, mapResolver{}, model.File{
			Type:    model.FilePairedSource,
			RelPath: "main.cpp",
			Content: src,
		})
		assert.Equal(t, src, got)
		assert.Empty(t, pre.Text)
		assert.False(t, pre.ManualExport)
	}
}

func TestGenerateTransitional(t *testing.T) {
	t.Parallel()

	resolver := mapResolver{
		"bar.hpp":  "lib/bar.hpp",
		"foo.hpp":  "foo.hpp",
		"a.hpp":    "a.hpp",
		"util.hpp": "util.hpp",
	}
	guard := func(c *config.Config) { c.IncludeGuard = "[A-Z_]+_H" }

	tests := []struct {
		name         string
		cfg          *config.Config
		file         model.File
		want         string
		manualExport bool
	}{
		{
			name: "guarded header",
			cfg:  testConfig(transitional(false), guard),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "lib/foo.hpp",
				Content: "#ifndef FOO_H\n#define FOO_H\n#include \"bar.hpp\"\n#include <vector>\nvoid f();\n#endif\n",
			},
			want: "#ifndef FOO_H\n#define FOO_H\n#include \"../Export.hpp\"\n" +
				"#ifdef CPP_MODULES\nmodule;\n#include <vector>\nexport module lib.foo;\nimport lib.bar;\n" +
				"#else\n#include \"bar.ixx\"\n#include <vector>\n#endif\n" +
				"void f();\n#endif\n",
			manualExport: true,
		},
		{
			name: "back-compat headers keep include names",
			cfg:  testConfig(transitional(true), guard),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "lib/foo.hpp",
				Content: "#ifndef FOO_H\n#define FOO_H\n#include \"bar.hpp\"\nvoid f();\n#endif\n",
			},
			want: "#ifndef FOO_H\n#define FOO_H\n#include \"../Export.hpp\"\n" +
				"#ifdef CPP_MODULES\nmodule;\nexport module lib.foo;\nimport lib.bar;\n" +
				"#else\n#include \"bar.hpp\"\n#endif\n" +
				"void f();\n#endif\n",
			manualExport: true,
		},
		{
			name: "pragma once",
			cfg:  testConfig(transitional(false)),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "#pragma once\n#include \"a.hpp\"\nint x;\n",
			},
			want: "#pragma once\n#include \"Export.hpp\"\n" +
				"#ifdef CPP_MODULES\nmodule;\nexport module x;\nimport a;\n" +
				"#else\n#include \"a.ixx\"\n#endif\nint x;\n",
			manualExport: true,
		},
		{
			name: "paired source keeps its header in the legacy branch",
			cfg:  testConfig(transitional(false)),
			file: model.File{
				Type:    model.FilePairedSource,
				RelPath: "foo.cpp",
				Content: "#include \"foo.hpp\"\nvoid f() {}\n",
			},
			want: "#include \"Export.hpp\"\n" +
				"#ifdef CPP_MODULES\nmodule;\nmodule foo;\n" +
				"#else\n#include \"foo.ixx\"\n#endif\nvoid f() {}\n",
		},
		{
			name: "main source",
			cfg: testConfig(transitional(false), func(c *config.Config) {
				c.StdIncludeToImport = true
			}),
			file: model.File{
				Type:    model.FileUnpairedSource,
				RelPath: "main.cpp",
				Content: "#include <fmt/base.h>\n#include <exception>\n#include \"a.hpp\"\n#include \"util.hpp\"\nint main() {}\n",
			},
			want: "#include <fmt/base.h>\n" +
				"#ifdef CPP_MODULES\nimport a;\nimport util;\nimport std;\n" +
				"#else\n#include <exception>\n#include \"a.ixx\"\n#include \"util.ixx\"\n#endif\n" +
				"int main() {}\n",
		},
		{
			name: "imports keep their conditions",
			cfg:  testConfig(transitional(false)),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "#ifdef _WIN32\n#include \"a.hpp\"\n#else\n#include \"util.hpp\"\n#endif\nint x;\n",
			},
			want: "#include \"Export.hpp\"\n" +
				"#ifdef CPP_MODULES\nmodule;\nexport module x;\n" +
				"#ifdef _WIN32\nimport a;\n#else\nimport util;\n#endif\n" +
				"#else\n#ifdef _WIN32\n#include \"a.ixx\"\n#else\n#include \"util.ixx\"\n#endif\n#endif\n" +
				"#ifdef _WIN32\n#else\n#endif\nint x;\n",
			manualExport: true,
		},
		{
			name: "custom control macro",
			cfg: testConfig(transitional(false), func(c *config.Config) {
				c.Transitional.Control = "USE_MODULES"
				c.Transitional.ExportMacrosPath = "inc/Macros.hpp"
			}),
			file: model.File{
				Type:    model.FileHeader,
				RelPath: "x.hpp",
				Content: "int x;\n",
			},
			want: "#include \"inc/Macros.hpp\"\n" +
				"#ifdef USE_MODULES\nmodule;\nexport module x;\n#else\n#endif\nint x;\n",
			manualExport: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, pre := convert(t, tt.cfg, resolver, tt.file)
			assertText(t, tt.want, got)
			assert.Equal(t, tt.manualExport, pre.ManualExport)
		})
	}
}

func TestExportMacros(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	require.NoError(t, New(testConfig(transitional(false)), mapResolver{}).ExportMacros(&b))
	want := "#ifdef CPP_MODULES\n" +
		"#define EXPORT export\n" +
		"#define BEGIN_EXPORT export {\n" +
		"#define END_EXPORT }\n" +
		"#else\n" +
		"#define EXPORT\n" +
		"#define BEGIN_EXPORT\n" +
		"#define END_EXPORT\n" +
		"#endif\n"
	assertText(t, want, b.String())

	assert.Error(t, New(testConfig(), mapResolver{}).ExportMacros(&b))
}

func TestInsert(t *testing.T) {
	t.Parallel()

	pre := &Preamble{Text: "module;\n"}
	tests := []struct {
		name string
		sof  bool
		body string
		want string
	}{
		{"top", false, "// c\nint x;\n", "module;\n// c\nint x;\n"},
		{"after line comments", true, "// a\n// b\nint x;\n", "// a\n// b\nmodule;\nint x;\n"},
		{"after block comment", true, "/* a\n b */\n\nint x;\n", "/* a\n b */\nmodule;\n\nint x;\n"},
		{"code after block comment", true, "/* a */ int x;\n", "/* a */\nmodule;\n int x;\n"},
		{"no comment", true, "int x;\n", "module;\nint x;\n"},
		{"only comment", true, "// a", "// a\nmodule;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := New(testConfig(func(c *config.Config) { c.SOFComments = tt.sof }), mapResolver{})
			assertText(t, tt.want, g.Insert(tt.body, pre))
		})
	}
}
