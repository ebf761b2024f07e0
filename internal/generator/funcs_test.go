package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"foo.hpp":            "foo",
		"lib/foo.hpp":        "lib.foo",
		"lib/sub-dir/a-b.cc": "lib.sub_dir.a_b",
		"noext":              "noext",
	}
	for in, want := range tests {
		assert.Equal(t, want, ModuleName(in), in)
	}
}

func TestReplaceExt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a/b.ixx", ReplaceExt("a/b.hpp", ".ixx"))
	assert.Equal(t, "a.b/c.cppm", ReplaceExt("a.b/c", ".cppm"))
	assert.Equal(t, "../x.ixx", ReplaceExt("../x.hpp", ".ixx"))
}

func TestRelativeInclude(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Export.hpp", relativeInclude("foo.hpp", "Export.hpp"))
	assert.Equal(t, "../../Export.hpp", relativeInclude("a/b/foo.hpp", "Export.hpp"))
	assert.Equal(t, "inc/Export.hpp", relativeInclude("a/foo.hpp", "a/inc/Export.hpp"))
}

func TestLeadingCommentsEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want int
	}{
		{"", 0},
		{"int x;", 0},
		{"// a\nint x;", 5},
		{"\n\n// a\nint x;", 7},
		{"/* a */\n/* b */ // c\nint x;", 21},
		{"/* open", 0},
		{"// a\n/* open", 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leadingCommentsEnd(tt.src), tt.src)
	}
}
