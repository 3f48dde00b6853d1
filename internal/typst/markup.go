package typst

import (
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/booktypst/internal/errors"
)

// Stream is a pull-based source of Typst events.
type Stream interface {
	Next() (Event, bool)
}

type sliceStream struct {
	events []Event
	pos    int
}

// FromSlice streams events in order.
func FromSlice(events []Event) Stream {
	return &sliceStream{events: events}
}

func (s *sliceStream) Next() (Event, bool) {
	if s.pos >= len(s.events) {
		return nil, false
	}
	e := s.events[s.pos]
	s.pos++
	return e, true
}

// Markup renders Typst events to markup, one fragment per event. A fragment
// may span several lines or be empty.
//
// Next panics with an internal fault when an End does not match the open
// element, when an Item appears outside a list or when a show rule lacks its
// payload. WriteMarkup and RenderString recover those into errors.
type Markup struct {
	events    Stream
	tags      []Tag
	codeDepth int
	midLine   bool
}

// NewMarkup returns a renderer pulling from events.
func NewMarkup(events Stream) *Markup {
	return &Markup{events: events}
}

// Next renders the next event.
func (m *Markup) Next() (string, bool) {
	e, ok := m.events.Next()
	if !ok {
		return "", false
	}
	s := m.render(e)
	if s != "" {
		m.midLine = !strings.HasSuffix(s, "\n")
	}
	return s, true
}

// Open reports how many elements are currently open.
func (m *Markup) Open() int {
	return len(m.tags)
}

// WriteMarkup renders events to w.
func WriteMarkup(w io.Writer, events Stream) (err error) {
	defer errors.RecoverFault(&err)

	m := NewMarkup(events)
	for s, ok := m.Next(); ok; s, ok = m.Next() {
		if s == "" {
			continue
		}
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}
	if n := m.Open(); n > 0 {
		errors.Faultf("%d element(s) left open, innermost %T", n, m.tags[n-1])
	}
	return nil
}

// RenderString renders events into a string.
func RenderString(events Stream) (string, error) {
	var b strings.Builder
	if err := WriteMarkup(&b, events); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (m *Markup) render(e Event) string {
	switch ev := e.(type) {
	case Start:
		s := m.start(ev.Tag)
		m.tags = append(m.tags, ev.Tag)
		return s
	case End:
		return m.end(ev.Tag)
	case Raw:
		return ev.Text
	case Text:
		if m.codeDepth > 0 {
			return ev.Text
		}
		return Escape(ev.Text)
	case Code:
		return renderCode(ev.Text)
	case Linebreak:
		return "#linebreak()\n"
	case Parbreak:
		return "#parbreak()\n"
	case PageBreak:
		return "#pagebreak()\n"
	case Line:
		return renderLine(ev)
	case Let:
		return fmt.Sprintf("#let %s = %s\n", ev.LHS, ev.RHS)
	case FunctionCall:
		args := strings.Join(ev.Args, ", ")
		if target, ok := ev.Target.Get(); ok {
			return fmt.Sprintf("#%s.%s(%s)\n", target, ev.Name, args)
		}
		return fmt.Sprintf("#%s(%s)\n", ev.Name, args)
	case DocumentFunctionCall:
		return fmt.Sprintf("#document(%s)\n", strings.Join(ev.Args, ", "))
	case Set:
		return fmt.Sprintf("#set %s(%s: %s)\n", ev.Element, ev.Key, ev.Value)
	case DocumentSet:
		return fmt.Sprintf("#set document(%s: %s)\n", ev.Key, ev.Value)
	}
	errors.Faultf("rendering %T is not supported", e)
	return ""
}

func (m *Markup) start(tag Tag) string {
	switch t := tag.(type) {
	case Paragraph:
		return "#par()["
	case Show:
		return renderShow(t)
	case Heading:
		if t.TOC == Include && t.Bookmarks == Include {
			return strings.Repeat("=", t.Level) + " "
		}
		return fmt.Sprintf("#heading(level: %d, outlined: %t, bookmarked: %t)[",
			t.Level, t.TOC == Include, t.Bookmarks == Include)
	case CodeBlock:
		fence := strings.Repeat("`", 6+m.codeDepth)
		m.codeDepth++
		return fence + t.Fence.UnwrapOr("") + "\n"
	case BulletList, NumberedList:
		if m.midLine && m.inItem() {
			return "\n"
		}
		return ""
	case Item:
		return m.itemMarker()
	case Emphasis:
		return "#emph["
	case Strong:
		return "#strong["
	case Strikethrough:
		return "#strike["
	case Link:
		if t.Type == LinkContent {
			return `#link("` + t.Dest + `")[`
		}
		return `#link("` + t.Dest + `")`
	case Quote:
		return renderQuote(t)
	case Table:
		names := make([]string, len(t.Alignments))
		for i, a := range t.Alignments {
			names[i] = a.String()
		}
		return fmt.Sprintf("#table(align: [%s])[\n", strings.Join(names, ", "))
	case TableHead, TableRow:
		return "#row[\n"
	case TableCell:
		return "#cell["
	}
	errors.Faultf("rendering Start(%T) is not supported", tag)
	return ""
}

func (m *Markup) end(tag Tag) string {
	if len(m.tags) == 0 {
		errors.Faultf("End(%T) without open element", tag)
	}
	open := m.tags[len(m.tags)-1]
	if !TagEqual(open, tag) {
		errors.Faultf("End(%#v) does not match open %#v", tag, open)
	}
	m.tags = m.tags[:len(m.tags)-1]

	switch t := tag.(type) {
	case Paragraph, Table:
		return "]\n"
	case Heading:
		if t.TOC == Include && t.Bookmarks == Include {
			return "\n"
		}
		return "]\n"
	case Item:
		if !m.midLine {
			return ""
		}
		return "\n"
	case Show:
		return "\n"
	case CodeBlock:
		m.codeDepth--
		return strings.Repeat("`", 6+m.codeDepth) + "\n"
	case BulletList, NumberedList:
		return ""
	case Emphasis, Strong, Strikethrough, TableCell:
		return "]"
	case Link:
		if t.Type == LinkContent {
			return "]"
		}
		return ""
	case Quote:
		if t.Type == QuoteInline {
			return "]"
		}
		return "]\n"
	case TableHead, TableRow:
		return "\n]\n"
	}
	errors.Faultf("rendering End(%T) is not supported", tag)
	return ""
}

// itemMarker picks the marker from the nearest enclosing list, indented two
// spaces per enclosing list beyond the first.
func (m *Markup) itemMarker() string {
	marker := ""
	depth := 0
	for i := len(m.tags) - 1; i >= 0; i-- {
		switch m.tags[i].(type) {
		case BulletList:
			if marker == "" {
				marker = "- "
			}
			depth++
		case NumberedList:
			if marker == "" {
				marker = "+ "
			}
			depth++
		}
	}
	if marker == "" {
		errors.Faultf("list item outside of a list")
	}
	return strings.Repeat("  ", depth-1) + marker
}

func (m *Markup) inItem() bool {
	for _, t := range m.tags {
		if _, ok := t.(Item); ok {
			return true
		}
	}
	return false
}

func renderShow(t Show) string {
	switch t.Type {
	case ShowSet:
		set, ok := t.Set.Get()
		if !ok {
			errors.Faultf("show-set rule for %q without set data", t.Selector)
		}
		return fmt.Sprintf("#show %s: set %s(%s:%s)", t.Selector, set.Element, set.Key, set.Value)
	case ShowFunction:
		fn, ok := t.Func.Get()
		if !ok {
			errors.Faultf("show rule for %q without function body", t.Selector)
		}
		return fmt.Sprintf("#show %s:%s", t.Selector, fn)
	}
	errors.Faultf("unknown show type %d", t.Type)
	return ""
}

func renderQuote(t Quote) string {
	block := "block: true,"
	if t.Type == QuoteInline {
		block = "block: false,"
	}
	var quotes string
	switch t.Quotes {
	case QuotesWrap:
		quotes = "quotes: true,"
	case QuotesNoWrap:
		quotes = "quotes: false,"
	default:
		quotes = "quotes: auto,"
	}
	if attribution, ok := t.Attribution.Get(); ok {
		return fmt.Sprintf("#quote(%s %s attribution: [%s])[", block, quotes, attribution)
	}
	return fmt.Sprintf("#quote(%s %s)[", block, quotes)
}

func renderCode(code string) string {
	if strings.Contains(code, "`") {
		return "#raw(" + StringLiteral(code) + ")"
	}
	return "`" + code + "`"
}

func renderLine(l Line) string {
	var parts []string
	if p, ok := l.Start.Get(); ok {
		parts = append(parts, fmt.Sprintf("start: (%s, %s)", p.X, p.Y))
	}
	if p, ok := l.End.Get(); ok {
		parts = append(parts, fmt.Sprintf("end: (%s, %s)", p.X, p.Y))
	}
	if v, ok := l.Length.Get(); ok {
		parts = append(parts, "length: "+v)
	}
	if v, ok := l.Angle.Get(); ok {
		parts = append(parts, "angle: "+v)
	}
	if v, ok := l.Stroke.Get(); ok {
		parts = append(parts, "stroke: "+v)
	}
	return "#line(" + strings.Join(parts, ", ") + ")\n"
}
