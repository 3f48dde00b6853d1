package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/booktypst/internal/foundation"
)

// Options controls how Markdown is tokenized.
type Options struct {
	// DisableGFM turns off tables, strikethrough, task lists and linkify.
	DisableGFM bool
}

// Parse tokenizes a Markdown body (frontmatter already removed) into prose
// events. Adjacent text is merged into one Text event. Text payloads are
// substrings of src unless escapes or entities had to be resolved.
func Parse(src string, opts Options) []Event {
	source := []byte(src)
	root := newGoldmark(opts).Parser().Parse(text.NewReader(source))

	w := &walker{src: src, source: source}
	_ = gmast.Walk(root, w.visit)
	w.flushText()
	return w.events
}

func newGoldmark(opts Options) goldmark.Markdown {
	options := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAttribute()),
	}
	if !opts.DisableGFM {
		options = append(options, goldmark.WithExtensions(extension.GFM))
	}
	return goldmark.New(options...)
}

type walker struct {
	src    string
	source []byte
	events []Event

	// pending text run; borrowed runs are src[start:stop]
	pending  bool
	borrowed bool
	start    int
	stop     int
	owned    strings.Builder
}

func (w *walker) emit(e Event) {
	w.flushText()
	w.events = append(w.events, e)
}

func (w *walker) flushText() {
	if !w.pending {
		return
	}
	if w.borrowed {
		w.events = append(w.events, Text{Text: w.src[w.start:w.stop]})
	} else {
		w.events = append(w.events, Text{Text: w.owned.String()})
	}
	w.pending = false
	w.owned.Reset()
}

// appendBorrowed queues src[start:stop], extending the pending run in place
// when it is contiguous with it.
func (w *walker) appendBorrowed(start, stop int) {
	if start >= stop {
		return
	}
	switch {
	case !w.pending:
		w.pending, w.borrowed, w.start, w.stop = true, true, start, stop
	case w.borrowed && w.stop == start:
		w.stop = stop
	default:
		w.materialize()
		w.owned.WriteString(w.src[start:stop])
	}
}

func (w *walker) appendOwned(s string) {
	if s == "" {
		return
	}
	if !w.pending {
		w.pending, w.borrowed = true, false
	} else {
		w.materialize()
	}
	w.owned.WriteString(s)
}

func (w *walker) materialize() {
	if w.borrowed {
		w.owned.WriteString(w.src[w.start:w.stop])
		w.borrowed = false
	}
}

func (w *walker) visit(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
	switch node := n.(type) {
	case *gmast.Text:
		if entering {
			w.text(node)
		}
		return gmast.WalkContinue, nil
	case *gmast.String:
		if entering {
			w.appendOwned(string(node.Value))
		}
		return gmast.WalkContinue, nil
	case *gmast.CodeSpan:
		if entering {
			w.emit(Code{Text: w.codeSpan(node)})
		}
		return gmast.WalkSkipChildren, nil
	case *gmast.RawHTML:
		if entering {
			w.emit(InlineHTML{Text: w.joinSegments(node.Segments)})
		}
		return gmast.WalkSkipChildren, nil
	case *gmast.HTMLBlock:
		if entering {
			html := w.joinSegments(node.Lines())
			if node.HasClosure() {
				html += string(node.ClosureLine.Value(w.source))
			}
			w.emit(HTML{Text: html})
		}
		return gmast.WalkSkipChildren, nil
	case *gmast.ThematicBreak:
		if entering {
			w.emit(Rule{})
		}
		return gmast.WalkSkipChildren, nil
	case *extast.TaskCheckBox:
		if entering {
			w.emit(TaskListMarker{Checked: node.IsChecked})
		}
		return gmast.WalkSkipChildren, nil
	case *gmast.AutoLink:
		if entering {
			tag := Link{Type: LinkAutolink, Dest: string(node.URL(w.source))}
			if node.AutoLinkType == gmast.AutoLinkEmail {
				tag.Type = LinkEmail
			}
			w.emit(Start{Tag: tag})
			w.appendOwned(string(node.Label(w.source)))
			w.emit(End{Tag: tag})
		}
		return gmast.WalkSkipChildren, nil
	}

	tag, ok := w.tagFor(n)
	if !ok {
		return gmast.WalkContinue, nil
	}
	if entering {
		w.emit(Start{Tag: tag})
		switch n.(type) {
		case *gmast.FencedCodeBlock, *gmast.CodeBlock:
			w.codeLines(n.Lines())
		}
	} else {
		w.emit(End{Tag: tag})
	}
	return gmast.WalkContinue, nil
}

func (w *walker) tagFor(n gmast.Node) (Tag, bool) {
	switch node := n.(type) {
	case *gmast.Paragraph:
		return Paragraph{}, true
	case *gmast.Heading:
		return Heading{Level: node.Level, ID: headingID(node)}, true
	case *gmast.Blockquote:
		return BlockQuote{}, true
	case *gmast.FencedCodeBlock:
		info := ""
		if node.Info != nil {
			info = string(node.Info.Segment.Value(w.source))
		}
		return CodeBlock{Kind: Fenced, Info: info}, true
	case *gmast.CodeBlock:
		return CodeBlock{Kind: Indented}, true
	case *gmast.List:
		if node.IsOrdered() {
			return List{Start: foundation.Some(uint64(node.Start))}, true
		}
		return List{}, true
	case *gmast.ListItem:
		return Item{}, true
	case *gmast.Emphasis:
		if node.Level >= 2 {
			return Strong{}, true
		}
		return Emphasis{}, true
	case *gmast.Link:
		return Link{Type: w.linkType(node), Dest: string(node.Destination), Title: string(node.Title)}, true
	case *gmast.Image:
		return Image{Type: w.linkType(node), Dest: string(node.Destination), Title: string(node.Title)}, true
	case *extast.Table:
		aligns := make([]Alignment, len(node.Alignments))
		for i, a := range node.Alignments {
			aligns[i] = alignment(a)
		}
		return Table{Alignments: aligns}, true
	case *extast.TableHeader:
		return TableHead{}, true
	case *extast.TableRow:
		return TableRow{}, true
	case *extast.TableCell:
		return TableCell{}, true
	case *extast.Strikethrough:
		return Strikethrough{}, true
	}
	return nil, false
}

func (w *walker) text(node *gmast.Text) {
	seg := node.Segment
	raw := seg.Value(w.source)
	switch {
	case node.IsRaw() || seg.Padding > 0:
		w.appendOwned(string(raw))
	case bytes.IndexByte(raw, '\\') >= 0 || bytes.IndexByte(raw, '&') >= 0:
		resolved := util.ResolveEntityNames(util.ResolveNumericReferences(util.UnescapePunctuations(raw)))
		if bytes.Equal(resolved, raw) {
			w.appendBorrowed(seg.Start, seg.Stop)
		} else {
			w.appendOwned(string(resolved))
		}
	default:
		w.appendBorrowed(seg.Start, seg.Stop)
	}

	if node.HardLineBreak() {
		w.emit(HardBreak{})
	} else if node.SoftLineBreak() {
		w.emit(SoftBreak{})
	}
}

func (w *walker) codeSpan(node *gmast.CodeSpan) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(w.source))
		case *gmast.String:
			b.Write(t.Value)
		}
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

func (w *walker) codeLines(lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if seg.Padding > 0 {
			w.appendOwned(string(seg.Value(w.source)))
			continue
		}
		w.appendBorrowed(seg.Start, seg.Stop)
	}
}

// joinSegments returns the text covered by segs, borrowing from src when
// the segments are contiguous.
func (w *walker) joinSegments(segs *text.Segments) string {
	if segs == nil || segs.Len() == 0 {
		return ""
	}
	first, last := segs.At(0), segs.At(segs.Len()-1)
	contiguous := true
	for i := 1; i < segs.Len(); i++ {
		if segs.At(i).Start != segs.At(i-1).Stop || segs.At(i).Padding > 0 {
			contiguous = false
			break
		}
	}
	if contiguous && first.Padding == 0 {
		return w.src[first.Start:last.Stop]
	}
	var b strings.Builder
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(w.source))
	}
	return b.String()
}

// linkType recovers the syntactic link form, which goldmark resolves away,
// from the characters following the link label. Images nested in the label
// close before it, so their brackets and destinations are skipped first.
func (w *walker) linkType(n gmast.Node) LinkType {
	var last *gmast.Text
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if t, ok := c.(*gmast.Text); ok && entering && (last == nil || t.Segment.Stop > last.Segment.Stop) {
			last = t
		}
		return gmast.WalkContinue, nil
	})
	if last == nil || last.Segment.Stop > len(w.src) {
		return LinkInline
	}
	pos := last.Segment.Stop
	for p := last.Parent(); p != nil && p != n; p = p.Parent() {
		switch p.(type) {
		case *gmast.Image, *gmast.Link:
			pos = w.skipLinkTail(pos)
		}
	}

	i := strings.IndexByte(w.src[pos:], ']')
	if i < 0 {
		return LinkInline
	}
	rest := w.src[pos+i+1:]
	switch {
	case strings.HasPrefix(rest, "("):
		return LinkInline
	case strings.HasPrefix(rest, "[]"):
		return LinkCollapsed
	case strings.HasPrefix(rest, "["):
		return LinkReference
	default:
		return LinkShortcut
	}
}

// skipLinkTail returns the offset just past the first `]` at or after pos
// and the destination or reference label following it.
func (w *walker) skipLinkTail(pos int) int {
	i := strings.IndexByte(w.src[pos:], ']')
	if i < 0 {
		return len(w.src)
	}
	pos += i + 1
	rest := w.src[pos:]
	switch {
	case strings.HasPrefix(rest, "("):
		depth := 0
		for j := 0; j < len(rest); j++ {
			switch rest[j] {
			case '\\':
				j++
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return pos + j + 1
				}
			}
		}
		return len(w.src)
	case strings.HasPrefix(rest, "["):
		if j := strings.IndexByte(rest, ']'); j >= 0 {
			return pos + j + 1
		}
	}
	return pos
}

func headingID(node *gmast.Heading) foundation.Option[string] {
	v, ok := node.AttributeString("id")
	if !ok {
		return foundation.None[string]()
	}
	switch id := v.(type) {
	case []byte:
		return foundation.Some(string(id))
	case string:
		return foundation.Some(id)
	}
	return foundation.None[string]()
}

func alignment(a extast.Alignment) Alignment {
	switch a {
	case extast.AlignLeft:
		return AlignLeft
	case extast.AlignCenter:
		return AlignCenter
	case extast.AlignRight:
		return AlignRight
	default:
		return AlignNone
	}
}
