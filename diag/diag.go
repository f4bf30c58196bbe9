// Package diag collects the error taxonomy and warning list shared by every
// reader and composition stage: ascii, crate, usdz, composition and usd all
// report through it instead of returning bare fmt.Errorf values.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Pos is a text position, used by LexError and ParseError.
type Pos struct {
	Row int
	Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Col)
}

// BinPos is a binary position, used by IntegrityError.
type BinPos struct {
	Section string
	Offset  int64
}

func (p BinPos) String() string {
	return fmt.Sprintf("%s+0x%x", p.Section, p.Offset)
}

// Kind distinguishes the error taxonomy of section 7.
type Kind int

const (
	KindInput Kind = iota
	KindFormat
	KindLex
	KindParse
	KindSchema
	KindResolution
	KindComposition
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "InputError"
	case KindFormat:
		return "FormatError"
	case KindLex:
		return "LexError"
	case KindParse:
		return "ParseError"
	case KindSchema:
		return "SchemaError"
	case KindResolution:
		return "ResolutionError"
	case KindComposition:
		return "CompositionError"
	case KindIntegrity:
		return "IntegrityError"
	default:
		return "Error"
	}
}

// Error is the single error type returned by every public entry point. It
// always carries a Kind and, when available, a text or binary position.
type Error struct {
	Kind    Kind
	Pos     *Pos
	BinPos  *BinPos
	Message string
	cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Pos != nil:
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Pos, e.Message)
	case e.BinPos != nil:
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.BinPos, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a positionless Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At builds a text-positioned Error.
func At(kind Kind, pos Pos, format string, args ...interface{}) *Error {
	p := pos
	return &Error{Kind: kind, Pos: &p, Message: fmt.Sprintf(format, args...)}
}

// AtBin builds a binary-positioned Error.
func AtBin(kind Kind, pos BinPos, format string, args ...interface{}) *Error {
	p := pos
	return &Error{Kind: kind, BinPos: &p, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an underlying cause, preserving the chain so
// errors.Cause/errors.Is keep working the way the rest of the corpus expects
// from github.com/pkg/errors.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// List accumulates warnings and non-fatal diagnostics alongside a possibly
// partial result, mirroring loader/obj.Decoder.Warnings in the teacher.
type List struct {
	items []string
}

// Add appends a formatted warning.
func (l *List) Add(format string, args ...interface{}) {
	l.items = append(l.items, fmt.Sprintf(format, args...))
}

// AddAt appends a formatted warning carrying a text position.
func (l *List) AddAt(pos Pos, format string, args ...interface{}) {
	l.items = append(l.items, fmt.Sprintf("%s: %s", pos, fmt.Sprintf(format, args...)))
}

// Items returns the accumulated warnings in insertion order.
func (l *List) Items() []string {
	return append([]string(nil), l.items...)
}

// Empty reports whether no warnings were recorded.
func (l *List) Empty() bool {
	return len(l.items) == 0
}

// Extend appends another list's items, used when a sub-load (a sublayer or
// a referenced layer) needs to surface its own warnings to the caller.
func (l *List) Extend(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}
