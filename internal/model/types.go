// Package model defines the intermediate representation shared by the
// scanning and synthesis stages.
package model

// FileType represents how a file takes part in modularization.
type FileType string

const (
	FileHeader         FileType = "header"
	FileUmbrellaHeader FileType = "umbrella-header"
	FileUnpairedSource FileType = "unpaired-source"
	FilePairedSource   FileType = "paired-source"
	FileSourceWithMain FileType = "source-with-main"
)

// IsHeader reports whether the file is converted to a module interface unit
// with the module interface extension.
func (t FileType) IsHeader() bool {
	return t == FileHeader || t == FileUmbrellaHeader
}

// MayHaveMain reports whether the scanner should look for an entry point.
func (t FileType) MayHaveMain() bool {
	return t == FileUnpairedSource || t == FilePairedSource
}

// ExportRequired reports whether the file becomes a module interface unit
// whose declarations must be exported explicitly.
func (t FileType) ExportRequired() bool {
	return t == FileHeader || t == FileUmbrellaHeader || t == FileUnpairedSource
}

// File represents one processable header or source.
type File struct {
	Type    FileType // Classification
	Path    string   // Path on the input filesystem
	RelPath string   // Slash-separated path relative to the input root
	Content string   // File content, loaded lazily
}

// DirectiveKind represents the keyword class of a preprocessor line.
type DirectiveKind string

const (
	KindDefine     DirectiveKind = "define"
	KindUndef      DirectiveKind = "undef"
	KindIfCond     DirectiveKind = "if"   // if, ifdef, ifndef
	KindElCond     DirectiveKind = "elif" // elif, elifdef, elifndef
	KindElse       DirectiveKind = "else"
	KindEndIf      DirectiveKind = "endif"
	KindInclude    DirectiveKind = "include"
	KindPragmaOnce DirectiveKind = "pragma-once"
	KindOther      DirectiveKind = "other"
)

// IsConditional reports whether the kind opens, continues or closes a
// conditional block.
func (k DirectiveKind) IsConditional() bool {
	switch k {
	case KindIfCond, KindElCond, KindElse, KindEndIf:
		return true
	}
	return false
}

// DirectiveInfo is the kind-specific payload of a Directive: nil,
// IncludeInfo or GuardMarker.
type DirectiveInfo interface {
	directiveInfo()
}

// IncludeInfo locates the include spec inside Directive.Text.
type IncludeInfo struct {
	Angle bool // <...> rather than "..."
	Start int  // Offset of the first spec byte
	End   int  // Offset one past the last spec byte
}

// GuardMarker tags the #ifndef/#define of a recognized include guard.
type GuardMarker struct{}

func (IncludeInfo) directiveInfo() {}
func (GuardMarker) directiveInfo() {}

// Directive represents one recognized preprocessor line.
type Directive struct {
	Kind DirectiveKind
	Text string // Verbatim line(s), always ending in exactly one '\n'
	Info DirectiveInfo
}

// Include returns the include payload, if any.
func (d Directive) Include() (IncludeInfo, bool) {
	info, ok := d.Info.(IncludeInfo)
	return info, ok
}

// IncludeSpec returns the text between the include delimiters, or "" when
// the directive carries no include payload.
func (d Directive) IncludeSpec() string {
	info, ok := d.Include()
	if !ok {
		return ""
	}
	return d.Text[info.Start:info.End]
}

// WithIncludeSpec returns a copy of an include directive whose spec is
// replaced by spec. Directives without an include payload are returned as is.
func (d Directive) WithIncludeSpec(spec string) Directive {
	info, ok := d.Include()
	if !ok {
		return d
	}
	d.Text = d.Text[:info.Start] + spec + d.Text[info.End:]
	info.End = info.Start + len(spec)
	d.Info = info
	return d
}

// IsGuard reports whether the directive is part of the include guard.
func (d Directive) IsGuard() bool {
	_, ok := d.Info.(GuardMarker)
	return ok
}

// Keyword returns the word following '#', e.g. "ifndef" or "include".
func (d Directive) Keyword() string {
	kw, _ := word(d.Text, 1)
	return kw
}

// Operand returns the first word after the keyword, which is the macro
// name for define, undef, ifdef and ifndef.
func (d Directive) Operand() string {
	_, end := word(d.Text, 1)
	op, _ := word(d.Text, end)
	return op
}

// word skips blanks from start and reads up to the next blank, newline,
// comment start, include delimiter, parenthesis or negation.
func word(s string, start int) (string, int) {
	if start > len(s) {
		return "", len(s)
	}
	for start < len(s) && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	end := start
	for end < len(s) {
		switch s[end] {
		case ' ', '\t', '\r', '\n', '/', '<', '"', '(', '!':
			return s[start:end], end
		}
		end++
	}
	return s[start:end], end
}
