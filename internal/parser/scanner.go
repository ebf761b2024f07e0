package parser

import (
	"strings"

	"importizer/internal/model"
)

// span is a half-open byte range of the source.
type span struct {
	start, end int
}

// pendingGuard holds a guard #ifndef until its #define confirms it.
type pendingGuard struct {
	dir  model.Directive
	span span
	act  action
}

// scanner walks one source buffer once, skipping comments and literals and
// collecting preprocessor directives.
type scanner struct {
	src         string
	pos         int
	atLineStart bool

	guard   *guardContext
	matcher GuardMatcher
	pending *pendingGuard

	watchMain bool
	foundMain bool

	directives []model.Directive
	cuts       []span
}

func newScanner(src string, guard *guardContext, matcher GuardMatcher, watchMain bool) *scanner {
	return &scanner{
		src:         src,
		atLineStart: true,
		guard:       guard,
		matcher:     matcher,
		watchMain:   watchMain,
	}
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) run() error {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '/' && s.peek(1) == '/':
			s.skipLineComment()
		case c == '/' && s.peek(1) == '*':
			if err := s.skipBlockComment(); err != nil {
				return err
			}
		case c == '\'' && !s.digitSeparator():
			if err := s.skipQuoted('\'', "character literal"); err != nil {
				return err
			}
			s.atLineStart = false
		case c == '"':
			var err error
			if s.rawStringPrefix() {
				err = s.skipRawString()
			} else {
				err = s.skipQuoted('"', "string literal")
			}
			if err != nil {
				return err
			}
			s.atLineStart = false
		case c == '#' && s.atLineStart:
			s.directive()
		case c == '\n':
			s.atLineStart = true
			s.pos++
		default:
			if s.watchMain && c == 'i' && s.atMain() {
				s.watchMain = false
				s.foundMain = true
			}
			s.atLineStart = s.atLineStart && isSpace(c)
			s.pos++
		}
	}
	if s.pending != nil {
		s.revertPending()
	}
	return nil
}

// skipLineComment stops at the newline so it still ends the line.
func (s *scanner) skipLineComment() {
	if i := strings.IndexByte(s.src[s.pos:], '\n'); i >= 0 {
		s.pos += i
		return
	}
	s.pos = len(s.src)
}

func (s *scanner) skipBlockComment() error {
	i := strings.Index(s.src[s.pos+2:], "*/")
	if i < 0 {
		return s.malformed("block comment")
	}
	s.pos += 2 + i + 2
	return nil
}

// skipQuoted skips a string or character literal. A bare newline ends the
// literal, only the end of input is an error.
func (s *scanner) skipQuoted(quote byte, what string) error {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case quote:
			s.pos++
			return nil
		case '\n':
			return nil
		}
		s.pos++
	}
	s.pos = start
	return s.malformed(what)
}

// digitSeparator reports whether the quote at pos sits inside a pp-number
// such as 1'000 or 0xFF'FF rather than opening a character literal.
func (s *scanner) digitSeparator() bool {
	start := s.pos
	for start > 0 && isPPNumberChar(s.src[start-1]) {
		start--
	}
	return start < s.pos && isDigit(s.src[start])
}

var rawPrefixes = map[string]bool{"R": true, "uR": true, "UR": true, "LR": true, "u8R": true}

func (s *scanner) rawStringPrefix() bool {
	if s.pos == 0 || s.src[s.pos-1] != 'R' {
		return false
	}
	start := s.pos - 1
	for start > 0 && isIdentChar(s.src[start-1]) {
		start--
	}
	return rawPrefixes[s.src[start:s.pos]]
}

// skipRawString skips R"delim(...)delim" by searching for the exact
// terminator; parentheses inside the body are not balanced.
func (s *scanner) skipRawString() error {
	open := strings.IndexByte(s.src[s.pos+1:], '(')
	if open < 0 || open > 16 {
		return s.malformed("raw string literal")
	}
	delim := s.src[s.pos+1 : s.pos+1+open]
	if strings.ContainsAny(delim, " \t\n\\)") {
		return s.malformed("raw string literal")
	}
	body := s.pos + 1 + open + 1
	term := ")" + delim + `"`
	end := strings.Index(s.src[body:], term)
	if end < 0 {
		return s.malformed("raw string literal")
	}
	s.pos = body + end + len(term)
	return nil
}

// directive reads a '#' line including backslash continuations.
func (s *scanner) directive() {
	start := s.pos
	end := start
	for end < len(s.src) && !(s.src[end] == '\n' && !continued(s.src, end)) {
		end++
	}
	if end < len(s.src) {
		end++
	}
	var state GuardState
	if s.guard != nil {
		state = s.guard.state
	}
	s.handle(Classify(s.src[start:end], state, s.matcher), span{start, end})
	s.pos = end
	s.atLineStart = true
}

// continued reports whether the newline at i is escaped.
func continued(src string, i int) bool {
	if i > 0 && src[i-1] == '\\' {
		return true
	}
	return i > 1 && src[i-1] == '\r' && src[i-2] == '\\'
}

func (s *scanner) handle(d model.Directive, sp span) {
	if s.pending != nil {
		if d.Kind == model.KindDefine && d.IsGuard() && d.Operand() == s.pending.dir.Operand() {
			s.apply(s.pending.dir, s.pending.span, s.pending.act)
			s.pending = nil
		} else {
			s.revertPending()
			d.Info = dropGuardMarker(d.Info)
		}
	}

	act := s.guard.step(d)
	if d.Kind == model.KindIfCond && d.IsGuard() {
		s.pending = &pendingGuard{dir: d, span: sp, act: act}
		return
	}
	s.apply(d, sp, act)
}

// revertPending turns a guard candidate back into an ordinary conditional.
func (s *scanner) revertPending() {
	p := s.pending
	s.pending = nil
	s.guard.abandon()
	p.dir.Info = nil
	s.apply(p.dir, p.span, actionKeep)
}

func dropGuardMarker(info model.DirectiveInfo) model.DirectiveInfo {
	if _, ok := info.(model.GuardMarker); ok {
		return nil
	}
	return info
}

func (s *scanner) apply(d model.Directive, sp span, act action) {
	switch act {
	case actionKeep:
		s.directives = append(s.directives, d)
	case actionExtract:
		s.directives = append(s.directives, d)
		s.cuts = append(s.cuts, sp)
	case actionDrop:
		s.cuts = append(s.cuts, sp)
	}
}

// atMain matches `int main (` with blanks or comments between the words.
func (s *scanner) atMain() bool {
	if s.pos > 0 && isIdentChar(s.src[s.pos-1]) {
		return false
	}
	i := s.pos
	if !hasWord(s.src, i, "int") {
		return false
	}
	i = skipBlanksAndComments(s.src, i+len("int"))
	if !hasWord(s.src, i, "main") {
		return false
	}
	i = skipBlanksAndComments(s.src, i+len("main"))
	return i < len(s.src) && s.src[i] == '('
}

func hasWord(src string, i int, w string) bool {
	if !strings.HasPrefix(src[i:], w) {
		return false
	}
	end := i + len(w)
	return end == len(src) || !isIdentChar(src[end])
}

func skipBlanksAndComments(src string, i int) int {
	for i < len(src) {
		switch {
		case isSpace(src[i]):
			i++
		case strings.HasPrefix(src[i:], "//"):
			n := strings.IndexByte(src[i:], '\n')
			if n < 0 {
				return len(src)
			}
			i += n
		case strings.HasPrefix(src[i:], "/*"):
			n := strings.Index(src[i+2:], "*/")
			if n < 0 {
				return len(src)
			}
			i += 2 + n + 2
		default:
			return i
		}
	}
	return i
}

// body returns the source with all cut spans removed.
func (s *scanner) body() string {
	if len(s.cuts) == 0 {
		return s.src
	}
	var b strings.Builder
	b.Grow(len(s.src))
	last := 0
	for _, c := range s.cuts {
		b.WriteString(s.src[last:c.start])
		last = c.end
	}
	b.WriteString(s.src[last:])
	return b.String()
}

func (s *scanner) malformed(what string) error {
	return &MalformedError{
		Line: strings.Count(s.src[:s.pos], "\n") + 1,
		What: what,
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isPPNumberChar(c byte) bool {
	return isIdentChar(c) || c == '\'' || c == '.'
}
