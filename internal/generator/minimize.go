package generator

import (
	"strings"

	"importizer/internal/model"
)

// item is either a chunk of literal text or a directive.
type item struct {
	text string
	dir  *model.Directive
}

func textItem(s string) item {
	return item{text: s}
}

func directiveItem(d model.Directive) item {
	return item{dir: &d}
}

// minimize flattens items, dropping conditional blocks whose branches
// contain nothing but other conditional directives, empty #else branches and
// #define X directly followed by #undef X.
func minimize(items []item) string {
	var b strings.Builder
	for i := 0; i < len(items); i++ {
		cur := items[i].dir
		if cur == nil {
			b.WriteString(items[i].text)
			continue
		}
		if i+1 < len(items) && items[i+1].dir != nil {
			next := items[i+1].dir
			switch cur.Kind {
			case model.KindDefine:
				if next.Kind == model.KindUndef && next.Operand() == cur.Operand() {
					i++
					continue
				}
			case model.KindIfCond, model.KindElCond:
				if skip, ok := emptyBranchEnd(items, i); ok {
					i = skip
					continue
				}
			case model.KindElse:
				if next.Kind == model.KindEndIf {
					continue
				}
			}
		}
		b.WriteString(cur.Text)
	}
	return b.String()
}

// emptyBranchEnd looks for the #endif closing the block opened (or
// continued) at items[i] with only conditional directives in between. For an
// #if the whole block is skipped; for an #elif the #endif is kept.
func emptyBranchEnd(items []item, i int) (int, bool) {
	kind := items[i].dir.Kind
	nest := 1
	for j := i + 1; j < len(items); j++ {
		d := items[j].dir
		if d == nil {
			return 0, false
		}
		switch d.Kind {
		case model.KindIfCond:
			nest++
		case model.KindEndIf:
			nest--
			if nest == 0 {
				if kind == model.KindElCond {
					return j - 1, true
				}
				return j, true
			}
		case model.KindElCond, model.KindElse:
		default:
			return 0, false
		}
	}
	return 0, false
}
