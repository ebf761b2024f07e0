// Package parser scans C++ sources for preprocessor directives, recognizes
// include guards and detects entry points.
package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"importizer/internal/model"
)

// ErrMalformedSource is returned when a comment or literal runs past the end
// of the input.
var ErrMalformedSource = errors.New("malformed source")

// MalformedError locates an unterminated comment or literal.
// It wraps ErrMalformedSource for errors.Is() compatibility.
type MalformedError struct {
	Line int
	What string
}

// Error returns the error message for MalformedError.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("line %d: unterminated %s", e.Line, e.What)
}

// Unwrap returns ErrMalformedSource.
func (e *MalformedError) Unwrap() error {
	return ErrMalformedSource
}

// Options configures a Parser.
type Options struct {
	Guard        GuardMatcher // nil disables include guard recognition
	Transitional bool         // keep guard lines for the legacy branch
	Logger       *log.Logger
}

// Parser extracts directives from C++ files.
type Parser struct {
	opts Options
}

// New creates a new Parser.
func New(opts Options) *Parser {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Parser{opts: opts}
}

// Result is the outcome of scanning one file.
type Result struct {
	Directives []model.Directive // Recorded directives in source order
	Body       string            // Content with extracted directives removed
	Type       model.FileType    // Classification, promoted when main was found
	GuardState GuardState        // Final include guard state
}

// Parse scans file.Content once. The file itself is not modified.
func (p *Parser) Parse(file model.File) (*Result, error) {
	guard := newGuardContext(file.Type, p.opts.Guard != nil, p.opts.Transitional)
	s := newScanner(file.Content, guard, p.opts.Guard, file.Type.MayHaveMain())
	if err := s.run(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", file.RelPath, err)
	}

	res := &Result{
		Directives: s.directives,
		Body:       s.body(),
		Type:       file.Type,
		GuardState: guard.state,
	}
	if s.foundMain {
		p.opts.Logger.Debug("found a main function", "file", file.RelPath)
		res.Type = model.FileSourceWithMain
	}
	if guard.state == GuardGotEndIf {
		p.opts.Logger.Debug("include guard recognized", "file", file.RelPath)
	}
	return res, nil
}
