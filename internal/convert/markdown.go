package convert

import (
	"strings"

	"git.home.luguber.info/inful/booktypst/internal/foundation"
	"git.home.luguber.info/inful/booktypst/internal/markdown"
	"git.home.luguber.info/inful/booktypst/internal/typst"
)

// tagRewrite builds a rewrite that maps the Start and End of prose tags
// accepted by fn to the returned Typst tag.
func tagRewrite(fn func(markdown.Tag) (typst.Tag, bool)) rewrite {
	return func(e Event) (Event, bool) {
		m, ok := e.(Markdown)
		if !ok {
			return e, true
		}
		switch ev := m.Event.(type) {
		case markdown.Start:
			if tag, ok := fn(ev.Tag); ok {
				return Typst{Event: typst.Start{Tag: tag}}, true
			}
		case markdown.End:
			if tag, ok := fn(ev.Tag); ok {
				return Typst{Event: typst.End{Tag: tag}}, true
			}
		}
		return e, true
	}
}

// leafRewrite maps prose leaf events accepted by fn.
func leafRewrite(fn func(markdown.Event) (typst.Event, bool)) rewrite {
	return func(e Event) (Event, bool) {
		if m, ok := e.(Markdown); ok {
			if out, ok := fn(m.Event); ok {
				return Typst{Event: out}, true
			}
		}
		return e, true
	}
}

// StripHTML drops raw HTML blocks and inline HTML.
func StripHTML(src Stream) Stream {
	return newMapStage(src, func(e Event) (Event, bool) {
		if m, ok := e.(Markdown); ok {
			switch m.Event.(type) {
			case markdown.HTML, markdown.InlineHTML:
				return nil, false
			}
		}
		return e, true
	})
}

// ConvertHeadings maps prose headings to outlined, bookmarked Typst headings.
func ConvertHeadings(src Stream) Stream {
	return newMapStage(src, tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		h, ok := t.(markdown.Heading)
		if !ok {
			return nil, false
		}
		return typst.Heading{
			Level:     min(max(h.Level, 1), typst.MaxHeadingLevel),
			TOC:       typst.Include,
			Bookmarks: typst.Include,
		}, true
	}))
}

// ConvertParagraphs maps prose paragraphs to Typst paragraphs.
func ConvertParagraphs(src Stream) Stream {
	return newMapStage(src, tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		if _, ok := t.(markdown.Paragraph); ok {
			return typst.Paragraph{}, true
		}
		return nil, false
	}))
}

// ConvertSoftBreaks turns soft line breaks into a space.
func ConvertSoftBreaks(src Stream) Stream {
	return newMapStage(src, leafRewrite(func(e markdown.Event) (typst.Event, bool) {
		if _, ok := e.(markdown.SoftBreak); ok {
			return typst.Text{Text: " "}, true
		}
		return nil, false
	}))
}

// ConvertHardBreaks turns hard line breaks into paragraph breaks.
func ConvertHardBreaks(src Stream) Stream {
	return newMapStage(src, leafRewrite(func(e markdown.Event) (typst.Event, bool) {
		if _, ok := e.(markdown.HardBreak); ok {
			return typst.Parbreak{}, true
		}
		return nil, false
	}))
}

type textStage struct {
	src       Stream
	codeDepth int
}

// ConvertText converts prose text. Outside code blocks, text delimited by
// \[ and \] is MathJax meant for the HTML renderer and is dropped.
func ConvertText(src Stream) Stream {
	return &textStage{src: src}
}

func (s *textStage) Next() (Event, bool) {
	for {
		e, ok := s.src.Next()
		if !ok {
			return nil, false
		}
		switch ev := e.(type) {
		case Markdown:
			switch inner := ev.Event.(type) {
			case markdown.Start:
				if _, ok := inner.Tag.(markdown.CodeBlock); ok {
					s.codeDepth++
				}
			case markdown.End:
				if _, ok := inner.Tag.(markdown.CodeBlock); ok {
					s.codeDepth--
				}
			case markdown.Text:
				if s.codeDepth == 0 && isMathJax(inner.Text) {
					continue
				}
				return Typst{Event: typst.Text{Text: inner.Text}}, true
			}
		case Typst:
			switch inner := ev.Event.(type) {
			case typst.Start:
				if _, ok := inner.Tag.(typst.CodeBlock); ok {
					s.codeDepth++
				}
			case typst.End:
				if _, ok := inner.Tag.(typst.CodeBlock); ok {
					s.codeDepth--
				}
			}
		}
		return e, true
	}
}

func isMathJax(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, `\[`) && strings.HasSuffix(t, `\]`)
}

// ConvertStrong maps strong emphasis to #strong.
func ConvertStrong(src Stream) Stream {
	return newMapStage(src, tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		if _, ok := t.(markdown.Strong); ok {
			return typst.Strong{}, true
		}
		return nil, false
	}))
}

// ConvertEmphasis maps emphasis to #emph.
func ConvertEmphasis(src Stream) Stream {
	return newMapStage(src, tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		if _, ok := t.(markdown.Emphasis); ok {
			return typst.Emphasis{}, true
		}
		return nil, false
	}))
}

// ConvertStrikethrough maps strikethrough to #strike.
func ConvertStrikethrough(src Stream) Stream {
	return newMapStage(src, tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		if _, ok := t.(markdown.Strikethrough); ok {
			return typst.Strikethrough{}, true
		}
		return nil, false
	}))
}

// ConvertBlockQuotes turns block quotes into block Typst quotes.
func ConvertBlockQuotes(src Stream) Stream {
	return newMapStage(src, tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		if _, ok := t.(markdown.BlockQuote); ok {
			return typst.Quote{Type: typst.QuoteBlock, Quotes: typst.QuotesAuto}, true
		}
		return nil, false
	}))
}

// ConvertLists converts ordered lists to numbered lists and the rest to
// bullet lists. Task list markers become ballot box characters.
func ConvertLists(src Stream) Stream {
	tags := tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		switch tag := t.(type) {
		case markdown.List:
			if start, ok := tag.Start.Get(); ok {
				return typst.NumberedList{Start: start}, true
			}
			return typst.BulletList{}, true
		case markdown.Item:
			return typst.Item{}, true
		}
		return nil, false
	})
	return newMapStage(src, func(e Event) (Event, bool) {
		if m, ok := e.(Markdown); ok {
			if marker, ok := m.Event.(markdown.TaskListMarker); ok {
				if marker.Checked {
					return Typst{Event: typst.Text{Text: "☑ "}}, true
				}
				return Typst{Event: typst.Text{Text: "☐ "}}, true
			}
		}
		return tags(e)
	})
}

// ConvertCode converts inline code and code blocks. A fenced block is
// labelled with the first word of its info string.
func ConvertCode(src Stream) Stream {
	tags := tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		cb, ok := t.(markdown.CodeBlock)
		if !ok {
			return nil, false
		}
		return typst.CodeBlock{Fence: fenceLabel(cb), Display: typst.DisplayBlock}, true
	})
	return newMapStage(src, func(e Event) (Event, bool) {
		if m, ok := e.(Markdown); ok {
			if code, ok := m.Event.(markdown.Code); ok {
				return Typst{Event: typst.Code{Text: code.Text}}, true
			}
		}
		return tags(e)
	})
}

func fenceLabel(cb markdown.CodeBlock) foundation.Option[string] {
	if cb.Kind != markdown.Fenced {
		return foundation.None[string]()
	}
	fields := strings.FieldsFunc(cb.Info, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) == 0 {
		return foundation.None[string]()
	}
	return foundation.Some(fields[0])
}

type linkStage struct {
	src     Stream
	pending queue
}

// ConvertLinks converts inline links to content links. Autolinks and email
// links become bare links; their text is consumed. Other link forms lose
// their link and keep their text.
func ConvertLinks(src Stream) Stream {
	return &linkStage{src: src}
}

func (s *linkStage) Next() (Event, bool) {
	if e, ok := s.pending.pop(); ok {
		return e, true
	}
	for {
		e, ok := s.src.Next()
		if !ok {
			return nil, false
		}
		m, ok := e.(Markdown)
		if !ok {
			return e, true
		}

		var link markdown.Link
		isLink, start := false, false
		switch ev := m.Event.(type) {
		case markdown.Start:
			link, isLink = ev.Tag.(markdown.Link)
			start = true
		case markdown.End:
			link, isLink = ev.Tag.(markdown.Link)
		}
		if !isLink {
			return e, true
		}

		switch link.Type {
		case markdown.LinkInline:
			tag := typst.Link{Type: typst.LinkContent, Dest: link.Dest}
			if start {
				return Typst{Event: typst.Start{Tag: tag}}, true
			}
			return Typst{Event: typst.End{Tag: tag}}, true
		case markdown.LinkAutolink, markdown.LinkEmail:
			if !start {
				continue
			}
			tag := typst.Link{Type: typst.LinkAutolink, Dest: link.Dest}
			if link.Type == markdown.LinkEmail {
				tag = typst.Link{Type: typst.LinkURL, Dest: "mailto:" + link.Dest}
			}
			s.skipLinkBody()
			s.pending.push(Typst{Event: typst.End{Tag: tag}})
			return Typst{Event: typst.Start{Tag: tag}}, true
		default:
			continue
		}
	}
}

// skipLinkBody consumes events up to and including the End of the link
// whose Start was just read.
func (s *linkStage) skipLinkBody() {
	depth := 1
	for depth > 0 {
		e, ok := s.src.Next()
		if !ok {
			return
		}
		m, ok := e.(Markdown)
		if !ok {
			continue
		}
		switch ev := m.Event.(type) {
		case markdown.Start:
			if _, ok := ev.Tag.(markdown.Link); ok {
				depth++
			}
		case markdown.End:
			if _, ok := ev.Tag.(markdown.Link); ok {
				depth--
			}
		}
	}
}

// ConvertTables maps tables, header rows, rows and cells.
func ConvertTables(src Stream) Stream {
	return newMapStage(src, tagRewrite(func(t markdown.Tag) (typst.Tag, bool) {
		switch tag := t.(type) {
		case markdown.Table:
			aligns := make([]typst.Alignment, len(tag.Alignments))
			for i, a := range tag.Alignments {
				aligns[i] = tableAlignment(a)
			}
			return typst.Table{Alignments: aligns}, true
		case markdown.TableHead:
			return typst.TableHead{}, true
		case markdown.TableRow:
			return typst.TableRow{}, true
		case markdown.TableCell:
			return typst.TableCell{}, true
		}
		return nil, false
	}))
}

func tableAlignment(a markdown.Alignment) typst.Alignment {
	switch a {
	case markdown.AlignLeft:
		return typst.AlignLeft
	case markdown.AlignCenter:
		return typst.AlignCenter
	case markdown.AlignRight:
		return typst.AlignRight
	default:
		return typst.AlignNone
	}
}

// ConvertRules turns thematic breaks into full-width lines.
func ConvertRules(src Stream) Stream {
	return newMapStage(src, leafRewrite(func(e markdown.Event) (typst.Event, bool) {
		if _, ok := e.(markdown.Rule); ok {
			return typst.Line{Length: foundation.Some("100%")}, true
		}
		return nil, false
	}))
}
