package parser

import "importizer/internal/model"

// GuardState represents the include guard recognition state of one file.
type GuardState uint8

const (
	GuardNotLooking GuardState = iota // not a header, or no guard pattern configured
	GuardLooking                      // waiting for #ifndef GUARD
	GuardGotIfndef                    // waiting for #define GUARD
	GuardGotDefine                    // inside the guard, tracking #if nesting
	GuardGotEndIf                     // guard closed
)

// String returns the state name.
func (s GuardState) String() string {
	switch s {
	case GuardNotLooking:
		return "not-looking"
	case GuardLooking:
		return "looking"
	case GuardGotIfndef:
		return "got-ifndef"
	case GuardGotDefine:
		return "got-define"
	case GuardGotEndIf:
		return "got-endif"
	}
	return "unknown"
}

// action tells the scanner what to do with a directive line.
type action uint8

const (
	actionKeep    action = iota // record, leave in body
	actionExtract               // record, remove from body
	actionDrop                  // remove from body only
	actionIgnore                // leave in body only
)

// guardContext is the per-file include guard state machine.
type guardContext struct {
	state        GuardState
	counter      int
	transitional bool
}

func newGuardContext(fileType model.FileType, hasPattern, transitional bool) *guardContext {
	g := &guardContext{transitional: transitional}
	if hasPattern && fileType.IsHeader() {
		g.state = GuardLooking
	}
	return g
}

// removal is the action for lines that only make sense in the legacy header
// form: guard lines and #pragma once.
func (g *guardContext) removal() action {
	if g.transitional {
		return actionExtract
	}
	return actionDrop
}

// step advances the machine over d and decides the scanner action for it.
func (g *guardContext) step(d model.Directive) action {
	switch d.Kind {
	case model.KindIfCond:
		if d.IsGuard() {
			g.state = GuardGotIfndef
			g.counter = 1
			return g.removal()
		}
		switch g.state {
		case GuardLooking:
			// The guard has to enclose the whole file.
			g.state = GuardNotLooking
		case GuardGotDefine:
			g.counter++
		}
		return actionKeep
	case model.KindDefine:
		if d.IsGuard() {
			g.state = GuardGotDefine
			return g.removal()
		}
		return actionKeep
	case model.KindEndIf:
		if g.state == GuardGotDefine {
			g.counter--
			if g.counter == 0 {
				g.state = GuardGotEndIf
				if g.transitional {
					return actionIgnore
				}
				return actionDrop
			}
		}
		return actionKeep
	case model.KindElCond, model.KindElse, model.KindUndef:
		return actionKeep
	case model.KindPragmaOnce:
		return g.removal()
	case model.KindInclude:
		return actionExtract
	}
	return actionIgnore
}

// abandon gives up on a guard candidate that was not followed by its #define.
func (g *guardContext) abandon() {
	g.state = GuardNotLooking
	g.counter = 0
}
