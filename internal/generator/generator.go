// Package generator synthesizes the module preamble of a scanned file.
package generator

import (
	"fmt"
	"io"
	"path"
	"strings"
	"text/template"

	"importizer/internal/config"
	"importizer/internal/model"
	"importizer/internal/resolver"
)

// Resolver maps an include spec to an input-relative path.
type Resolver interface {
	Resolve(spec string, angle bool, from string) (string, bool, error)
}

// Generator builds preambles for scanned files.
type Generator struct {
	config   *config.Config
	resolver Resolver
	macros   *template.Template
}

// New creates a new Generator.
func New(cfg *config.Config, r Resolver) *Generator {
	return &Generator{
		config:   cfg,
		resolver: r,
		macros:   template.Must(template.New("export-macros").Parse(exportMacrosTemplate)),
	}
}

// ImportLevel tracks which standard library module a file needs. It only
// ever goes up: Unused < Std < StdCompat.
type ImportLevel uint8

const (
	ImportUnused ImportLevel = iota
	ImportStd
	ImportStdCompat
)

func (l *ImportLevel) raise(h resolver.StdHeader) {
	next := ImportStd
	if h == resolver.StdCCompat {
		next = ImportStdCompat
	}
	if next > *l {
		*l = next
	}
}

func (l ImportLevel) line() string {
	switch l {
	case ImportStd:
		return "import std;\n"
	case ImportStdCompat:
		return "import std.compat;\n"
	}
	return ""
}

// Preamble is the text inserted at the top of a file.
type Preamble struct {
	Text         string
	ManualExport bool // the module declaration carries `export`
	ImportLevel  ImportLevel
}

// Generate builds the preamble for file from its recorded directives.
// file.Type must already reflect main detection.
func (g *Generator) Generate(file model.File, directives []model.Directive) (*Preamble, error) {
	if g.config.Transitional != nil {
		return g.transitionalPreamble(file, directives)
	}
	return g.defaultPreamble(file, directives)
}

// Insert places the preamble in front of body, after the leading comment
// block when SOFComments is set.
func (g *Generator) Insert(body string, p *Preamble) string {
	if p.Text == "" {
		return body
	}
	at := 0
	if g.config.SOFComments {
		at = leadingCommentsEnd(body)
	}
	text := p.Text
	if at > 0 && body[at-1] != '\n' {
		text = "\n" + text
	}
	return body[:at] + text + body[at:]
}

const exportMacrosTemplate = `#ifdef {{.Control}}
#define {{.ExportKeyword}} export
#define {{.ExportBlockBegin}} export {
#define {{.ExportBlockEnd}} }
#else
#define {{.ExportKeyword}}
#define {{.ExportBlockBegin}}
#define {{.ExportBlockEnd}}
#endif
`

// ExportMacros writes the header that maps the export macros to `export`
// or to nothing depending on the control macro.
func (g *Generator) ExportMacros(w io.Writer) error {
	if g.config.Transitional == nil {
		return fmt.Errorf("export macros requested outside transitional mode")
	}
	if err := g.macros.Execute(w, g.config.Transitional); err != nil {
		return fmt.Errorf("executing export macros template: %w", err)
	}
	return nil
}

type includeOutcome uint8

const (
	includeKeep   includeOutcome = iota // stays an #include
	includeImport                       // becomes an import of a project module
	includeStd                          // covered by import std
	includeSkip                         // interface of this implementation unit
)

type includeResult struct {
	outcome  includeOutcome
	resolved string // input-relative path when found
}

func (g *Generator) handleInclude(file model.File, d model.Directive, lvl *ImportLevel) (includeResult, error) {
	info, ok := d.Include()
	if !ok {
		return includeResult{outcome: includeKeep}, nil
	}
	spec := d.IncludeSpec()
	rel, found, err := g.resolver.Resolve(spec, info.Angle, file.RelPath)
	if err != nil {
		return includeResult{}, fmt.Errorf("resolving %q: %w", spec, err)
	}
	if found {
		if file.Type == model.FilePairedSource && ReplaceExt(rel, g.config.SrcExt) == file.RelPath {
			return includeResult{outcome: includeSkip, resolved: rel}, nil
		}
		if g.config.IsIgnoredHdr(rel) {
			return includeResult{outcome: includeKeep, resolved: rel}, nil
		}
		return includeResult{outcome: includeImport, resolved: rel}, nil
	}
	if g.config.StdIncludeToImport {
		if h := resolver.LookupStd(spec); h != resolver.NotStd {
			lvl.raise(h)
			return includeResult{outcome: includeStd}, nil
		}
	}
	return includeResult{outcome: includeKeep}, nil
}

func (g *Generator) moduleDecl(file model.File, p *Preamble) string {
	var b strings.Builder
	if file.Type.ExportRequired() {
		p.ManualExport = true
		b.WriteString("export ")
	}
	b.WriteString("module ")
	b.WriteString(ModuleName(file.RelPath))
	b.WriteString(";\n")
	return b.String()
}

func (g *Generator) defaultPreamble(file model.File, directives []model.Directive) (*Preamble, error) {
	p := &Preamble{}
	var b strings.Builder

	// Only convert include to import for sources with a main()
	if file.Type == model.FileSourceWithMain {
		if !hasInclude(directives) {
			return p, nil
		}
		var items []item
		for _, d := range directives {
			if d.Kind != model.KindInclude {
				items = append(items, directiveItem(d))
				continue
			}
			res, err := g.handleInclude(file, d, &p.ImportLevel)
			if err != nil {
				return nil, err
			}
			switch res.outcome {
			case includeImport:
				items = append(items, textItem(importLine(ModuleName(res.resolved), false)))
			case includeKeep:
				items = append(items, directiveItem(d))
			}
		}
		b.WriteString(minimize(items))
		b.WriteString(p.ImportLevel.line())
		p.Text = b.String()
		return p, nil
	}

	// Convert to module interface/implementation unit
	var gmf, imports []item
	reexport := file.Type == model.FileUmbrellaHeader
	for _, d := range directives {
		switch d.Kind {
		case model.KindInclude:
			res, err := g.handleInclude(file, d, &p.ImportLevel)
			if err != nil {
				return nil, err
			}
			switch res.outcome {
			case includeImport:
				imports = append(imports, textItem(importLine(ModuleName(res.resolved), reexport)))
			case includeKeep:
				gmf = append(gmf, directiveItem(d))
			}
		case model.KindPragmaOnce, model.KindOther:
		default:
			if d.IsGuard() {
				continue
			}
			gmf = append(gmf, directiveItem(d))
			if isConditional(d.Kind) {
				imports = append(imports, directiveItem(d))
			}
		}
	}
	b.WriteString("module;\n")
	b.WriteString(minimize(gmf))
	b.WriteString(g.moduleDecl(file, p))
	b.WriteString(minimize(imports))
	b.WriteString(p.ImportLevel.line())
	p.Text = b.String()
	return p, nil
}

func (g *Generator) transitionalPreamble(file model.File, directives []model.Directive) (*Preamble, error) {
	t := g.config.Transitional
	p := &Preamble{}
	var b strings.Builder

	if file.Type == model.FileSourceWithMain {
		if !hasInclude(directives) {
			return p, nil
		}
		var shared, modular, legacy []item
		for _, d := range directives {
			switch d.Kind {
			case model.KindInclude:
				res, err := g.handleInclude(file, d, &p.ImportLevel)
				if err != nil {
					return nil, err
				}
				switch res.outcome {
				case includeKeep:
					shared = append(shared, directiveItem(d))
				case includeImport:
					modular = append(modular, textItem(importLine(ModuleName(res.resolved), false)))
					legacy = append(legacy, directiveItem(g.legacyInclude(d, res.resolved)))
				case includeStd, includeSkip:
					legacy = append(legacy, directiveItem(d))
				}
			case model.KindPragmaOnce:
				b.WriteString(d.Text)
			default:
				shared = append(shared, directiveItem(d))
				modular = append(modular, directiveItem(d))
				legacy = append(legacy, directiveItem(d))
			}
		}
		b.WriteString(minimize(shared))
		b.WriteString("#ifdef " + t.Control + "\n")
		b.WriteString(minimize(modular))
		b.WriteString(p.ImportLevel.line())
		b.WriteString("#else\n")
		b.WriteString(minimize(legacy))
		b.WriteString("#endif\n")
		p.Text = b.String()
		return p, nil
	}

	var head strings.Builder
	var gmf, imports, legacy []item
	macrosIncluded := false
	includeMacros := func() {
		if !macrosIncluded {
			head.WriteString(`#include "` + relativeInclude(file.RelPath, t.ExportMacrosPath) + "\"\n")
			macrosIncluded = true
		}
	}
	reexport := file.Type == model.FileUmbrellaHeader
	for _, d := range directives {
		switch {
		case d.IsGuard():
			head.WriteString(d.Text)
			if d.Kind == model.KindDefine {
				includeMacros()
			}
		case d.Kind == model.KindPragmaOnce:
			head.WriteString(d.Text)
			includeMacros()
		case d.Kind == model.KindInclude:
			res, err := g.handleInclude(file, d, &p.ImportLevel)
			if err != nil {
				return nil, err
			}
			switch res.outcome {
			case includeKeep:
				gmf = append(gmf, directiveItem(d))
				legacy = append(legacy, directiveItem(d))
			case includeImport:
				imports = append(imports, textItem(importLine(ModuleName(res.resolved), reexport)))
				legacy = append(legacy, directiveItem(g.legacyInclude(d, res.resolved)))
			case includeSkip:
				legacy = append(legacy, directiveItem(g.legacyInclude(d, res.resolved)))
			case includeStd:
				legacy = append(legacy, directiveItem(d))
			}
		case d.Kind == model.KindOther:
		default:
			gmf = append(gmf, directiveItem(d))
			legacy = append(legacy, directiveItem(d))
			if isConditional(d.Kind) {
				imports = append(imports, directiveItem(d))
			}
		}
	}
	includeMacros()

	b.WriteString(head.String())
	b.WriteString("#ifdef " + t.Control + "\n")
	b.WriteString("module;\n")
	b.WriteString(minimize(gmf))
	b.WriteString(g.moduleDecl(file, p))
	b.WriteString(minimize(imports))
	b.WriteString(p.ImportLevel.line())
	b.WriteString("#else\n")
	b.WriteString(minimize(legacy))
	b.WriteString("#endif\n")
	p.Text = b.String()
	return p, nil
}

// legacyInclude points an include of a converted header at its module
// interface file unless back-compat shims keep the old name alive.
func (g *Generator) legacyInclude(d model.Directive, resolved string) model.Directive {
	t := g.config.Transitional
	if t == nil || t.BackCompatHdrs || path.Ext(resolved) != g.config.HdrExt {
		return d
	}
	return d.WithIncludeSpec(ReplaceExt(d.IncludeSpec(), g.config.ModuleInterfaceExt))
}

// isConditional reports whether k opens, continues or closes a conditional
// block. Imports are gated by the same blocks as the includes they replace.
func isConditional(k model.DirectiveKind) bool {
	switch k {
	case model.KindIfCond, model.KindElCond, model.KindElse, model.KindEndIf:
		return true
	}
	return false
}

func hasInclude(directives []model.Directive) bool {
	for _, d := range directives {
		if d.Kind == model.KindInclude {
			return true
		}
	}
	return false
}
