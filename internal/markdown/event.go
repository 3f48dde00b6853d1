// Package markdown defines the prose event dialect (CommonMark plus the GFM
// extensions) and the goldmark-backed tokenizer that produces it.
//
// Event and Tag are closed sum types: every variant is a struct in this
// package and the marker methods are unexported.
package markdown

import (
	"slices"

	"git.home.luguber.info/inful/booktypst/internal/foundation"
)

// Event is one atomic unit of tokenized prose.
type Event interface {
	isEvent()
}

// Start opens a tagged region. It is closed by an End carrying an equal tag.
type Start struct{ Tag Tag }

// End closes the innermost open tagged region.
type End struct{ Tag Tag }

// Text is literal text with escapes and entities already resolved.
type Text struct{ Text string }

// Code is an inline code span.
type Code struct{ Text string }

// HTML is a block of raw HTML.
type HTML struct{ Text string }

// InlineHTML is a raw HTML fragment inside a paragraph.
type InlineHTML struct{ Text string }

// SoftBreak is a line ending inside a paragraph.
type SoftBreak struct{}

// HardBreak is an explicit line break.
type HardBreak struct{}

// Rule is a thematic break.
type Rule struct{}

// TaskListMarker is the checkbox of a GFM task list item.
type TaskListMarker struct{ Checked bool }

func (Start) isEvent()          {}
func (End) isEvent()            {}
func (Text) isEvent()           {}
func (Code) isEvent()           {}
func (HTML) isEvent()           {}
func (InlineHTML) isEvent()     {}
func (SoftBreak) isEvent()      {}
func (HardBreak) isEvent()      {}
func (Rule) isEvent()           {}
func (TaskListMarker) isEvent() {}

// Tag describes the container a Start/End pair brackets.
type Tag interface {
	isTag()
}

type (
	Paragraph  struct{}
	BlockQuote struct{}
	Item       struct{}
	TableHead  struct{}
	TableRow   struct{}
	TableCell  struct{}

	Emphasis      struct{}
	Strong        struct{}
	Strikethrough struct{}
)

// Heading is an ATX or setext heading. Level is 1 through 6.
type Heading struct {
	Level int
	ID    foundation.Option[string]
}

// CodeBlockKind tells indented blocks from fenced ones.
type CodeBlockKind int

const (
	Indented CodeBlockKind = iota
	Fenced
)

// CodeBlock is a block of verbatim text. Info is the full info string of a
// fenced block and empty otherwise.
type CodeBlock struct {
	Kind CodeBlockKind
	Info string
}

// List is an ordered list when Start is set, a bullet list otherwise.
type List struct {
	Start foundation.Option[uint64]
}

// Alignment is the alignment of one table column.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Table holds one alignment per column. It is the only tag that is not
// comparable with ==; use TagEqual.
type Table struct {
	Alignments []Alignment
}

// LinkType is the syntactic form a link or image was written in.
type LinkType int

const (
	LinkInline LinkType = iota
	LinkReference
	LinkReferenceUnknown
	LinkCollapsed
	LinkCollapsedUnknown
	LinkShortcut
	LinkShortcutUnknown
	LinkAutolink
	LinkEmail
)

func (t LinkType) String() string {
	switch t {
	case LinkInline:
		return "inline"
	case LinkReference:
		return "reference"
	case LinkReferenceUnknown:
		return "reference_unknown"
	case LinkCollapsed:
		return "collapsed"
	case LinkCollapsedUnknown:
		return "collapsed_unknown"
	case LinkShortcut:
		return "shortcut"
	case LinkShortcutUnknown:
		return "shortcut_unknown"
	case LinkAutolink:
		return "autolink"
	case LinkEmail:
		return "email"
	default:
		return "unknown"
	}
}

type Link struct {
	Type  LinkType
	Dest  string
	Title string
}

type Image struct {
	Type  LinkType
	Dest  string
	Title string
}

func (Paragraph) isTag()     {}
func (Heading) isTag()       {}
func (BlockQuote) isTag()    {}
func (CodeBlock) isTag()     {}
func (List) isTag()          {}
func (Item) isTag()          {}
func (Table) isTag()         {}
func (TableHead) isTag()     {}
func (TableRow) isTag()      {}
func (TableCell) isTag()     {}
func (Emphasis) isTag()      {}
func (Strong) isTag()        {}
func (Strikethrough) isTag() {}
func (Link) isTag()          {}
func (Image) isTag()         {}

// TagEqual reports whether two tags are equal by value.
func TagEqual(a, b Tag) bool {
	if ta, ok := a.(Table); ok {
		tb, ok := b.(Table)
		return ok && slices.Equal(ta.Alignments, tb.Alignments)
	}
	if _, ok := b.(Table); ok {
		return false
	}
	return a == b
}
