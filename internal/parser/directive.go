package parser

import (
	"strings"

	"importizer/internal/model"
)

// GuardMatcher reports whether an identifier names an include guard macro.
type GuardMatcher interface {
	Match(ident string) bool
}

// Classify builds a Directive from one '#' line. The text is newline
// terminated if it is not already. state is the include guard state of the
// file at the point the line was met; guard may be nil.
func Classify(text string, state GuardState, guard GuardMatcher) model.Directive {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	d := model.Directive{Text: text}
	keyword := d.Keyword()

	switch {
	case keyword == "define":
		d.Kind = model.KindDefine
	case keyword == "undef":
		d.Kind = model.KindUndef
	case keyword == "include":
		d.Kind = model.KindInclude
		if info, ok := includeInfo(text, strings.Index(text, keyword)+len(keyword)); ok {
			d.Info = info
		}
	case keyword == "endif":
		d.Kind = model.KindEndIf
	case keyword == "if", keyword == "ifdef", keyword == "ifndef":
		d.Kind = model.KindIfCond
	case keyword == "else":
		d.Kind = model.KindElse
	case keyword == "elif", keyword == "elifdef", keyword == "elifndef":
		d.Kind = model.KindElCond
	case keyword == "pragma" && d.Operand() == "once":
		d.Kind = model.KindPragmaOnce
	default:
		d.Kind = model.KindOther
	}

	if guard == nil {
		return d
	}
	if (state == GuardLooking && keyword == "ifndef") ||
		(state == GuardGotIfndef && d.Kind == model.KindDefine) {
		if ident := d.Operand(); ident != "" && guard.Match(ident) {
			d.Info = model.GuardMarker{}
		}
	}
	return d
}

// includeInfo locates the <...> or "..." spec right after the include keyword.
func includeInfo(text string, from int) (model.IncludeInfo, bool) {
	i := from
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i >= len(text) {
		return model.IncludeInfo{}, false
	}

	var closing byte
	switch text[i] {
	case '<':
		closing = '>'
	case '"':
		closing = '"'
	default:
		return model.IncludeInfo{}, false
	}
	start := i + 1
	n := strings.IndexByte(text[start:], closing)
	if n < 0 {
		return model.IncludeInfo{}, false
	}
	return model.IncludeInfo{Angle: closing == '>', Start: start, End: start + n}, true
}
