// Package typst defines the Typst event dialect and renders it to markup.
package typst

import (
	"slices"

	"git.home.luguber.info/inful/booktypst/internal/foundation"
)

// MaxHeadingLevel is the deepest heading level rendered.
const MaxHeadingLevel = 6

// Event is one unit of Typst output.
type Event interface {
	isEvent()
}

type (
	// Start opens a tagged element.
	Start struct{ Tag Tag }
	// End closes the innermost open element.
	End struct{ Tag Tag }
	// Text is escaped unless it appears inside a code block.
	Text struct{ Text string }
	// Code is inline code.
	Code struct{ Text string }

	Linebreak struct{}
	Parbreak  struct{}
	PageBreak struct{}
)

// Point is a coordinate pair in Typst units, e.g. {"0pt", "1em"}.
type Point struct {
	X, Y string
}

// Line draws a line. Only the fields that are set are rendered.
type Line struct {
	Start  foundation.Option[Point]
	End    foundation.Option[Point]
	Length foundation.Option[string]
	Angle  foundation.Option[string]
	Stroke foundation.Option[string]
}

// Let is a let binding.
type Let struct {
	LHS, RHS string
}

// FunctionCall calls Name with Args, optionally as a method of Target.
type FunctionCall struct {
	Target foundation.Option[string]
	Name   string
	Args   []string
}

// DocumentFunctionCall calls document(). It must precede all content.
type DocumentFunctionCall struct {
	Args []string
}

// Set is a set rule.
type Set struct {
	Element, Key, Value string
}

// DocumentSet sets document metadata. It must precede all content.
type DocumentSet struct {
	Key, Value string
}

// Raw is passed through to the output untouched.
type Raw struct{ Text string }

func (Start) isEvent()                {}
func (End) isEvent()                  {}
func (Text) isEvent()                 {}
func (Code) isEvent()                 {}
func (Linebreak) isEvent()            {}
func (Parbreak) isEvent()             {}
func (PageBreak) isEvent()            {}
func (Line) isEvent()                 {}
func (Let) isEvent()                  {}
func (FunctionCall) isEvent()         {}
func (DocumentFunctionCall) isEvent() {}
func (Set) isEvent()                  {}
func (DocumentSet) isEvent()          {}
func (Raw) isEvent()                  {}

// Tag is an element that can contain other elements.
type Tag interface {
	isTag()
}

type (
	Paragraph     struct{}
	Item          struct{}
	Emphasis      struct{}
	Strong        struct{}
	Strikethrough struct{}
	TableHead     struct{}
	TableRow      struct{}
	TableCell     struct{}
)

// ShowType selects between the two show rule forms.
type ShowType int

const (
	// ShowSet renders `#show sel: set ele(k:v)`.
	ShowSet ShowType = iota
	// ShowFunction renders `#show sel:func`.
	ShowFunction
)

// ShowSetRule is the set rule of a ShowSet show rule.
type ShowSetRule struct {
	Element, Key, Value string
}

// Show is a show rule. Set is required for ShowSet and Func for ShowFunction.
type Show struct {
	Type     ShowType
	Selector string
	Set      foundation.Option[ShowSetRule]
	Func     foundation.Option[string]
}

// Inclusion controls whether a heading appears in the outline or bookmarks.
type Inclusion int

const (
	Include Inclusion = iota
	Exclude
)

// Heading is a section heading.
type Heading struct {
	Level     int
	TOC       Inclusion
	Bookmarks Inclusion
}

// CodeBlockDisplay is how a code block is displayed.
type CodeBlockDisplay int

const (
	DisplayBlock CodeBlockDisplay = iota
	DisplayInline
)

// CodeBlock is verbatim code. Fence is the language label.
type CodeBlock struct {
	Fence   foundation.Option[string]
	Display CodeBlockDisplay
}

// BulletList contains only Items.
type BulletList struct {
	Marker foundation.Option[string]
	Tight  bool
}

// NumberedList contains only Items.
type NumberedList struct {
	Start   uint64
	Pattern foundation.Option[string]
	Tight   bool
}

// QuoteType tells block quotes from inline ones.
type QuoteType int

const (
	QuoteBlock QuoteType = iota
	QuoteInline
)

// QuoteQuotes is the quotes parameter of a quote.
type QuoteQuotes int

const (
	QuotesWrap QuoteQuotes = iota
	QuotesNoWrap
	QuotesAuto
)

// Quote is a quotation.
type Quote struct {
	Type        QuoteType
	Quotes      QuoteQuotes
	Attribution foundation.Option[string]
}

// LinkType selects whether a link carries its own content.
type LinkType int

const (
	// LinkURL is `#link("url")`.
	LinkURL LinkType = iota
	// LinkContent is `#link("url")[content]`.
	LinkContent
	// LinkAutolink is a bare URL.
	LinkAutolink
)

// Link points at Dest.
type Link struct {
	Type LinkType
	Dest string
}

// Alignment is the alignment of a table column.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "none"
	}
}

// Table holds one alignment per column.
type Table struct {
	Alignments []Alignment
}

func (Paragraph) isTag()     {}
func (Show) isTag()          {}
func (Heading) isTag()       {}
func (CodeBlock) isTag()     {}
func (BulletList) isTag()    {}
func (NumberedList) isTag()  {}
func (Item) isTag()          {}
func (Quote) isTag()         {}
func (Emphasis) isTag()      {}
func (Strong) isTag()        {}
func (Strikethrough) isTag() {}
func (Link) isTag()          {}
func (Table) isTag()         {}
func (TableHead) isTag()     {}
func (TableRow) isTag()      {}
func (TableCell) isTag()     {}

// TagEqual reports whether two tags are equal by value.
func TagEqual(a, b Tag) bool {
	ta, aTable := a.(Table)
	tb, bTable := b.(Table)
	if aTable || bTable {
		return aTable && bTable && slices.Equal(ta.Alignments, tb.Alignments)
	}
	return a == b
}
