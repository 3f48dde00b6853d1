package convert

import (
	"strings"

	"git.home.luguber.info/inful/booktypst/internal/foundation"
	"git.home.luguber.info/inful/booktypst/internal/markdown"
	"git.home.luguber.info/inful/booktypst/internal/mdbook"
	"git.home.luguber.info/inful/booktypst/internal/typst"
)

// ConvertTitle turns the book title into a document title.
func ConvertTitle(src Stream) Stream {
	return newMapStage(src, func(e Event) (Event, bool) {
		if m, ok := e.(Mdbook); ok {
			if title, ok := m.Event.(mdbook.Title); ok {
				return Typst{Event: typst.DocumentSet{Key: "title", Value: typst.StringLiteral(title.Text)}}, true
			}
		}
		return e, true
	})
}

type authorsStage struct {
	src     Stream
	authors []string
}

// ConvertAuthors collects an author list into one document author array.
// An empty list produces nothing.
func ConvertAuthors(src Stream) Stream {
	return &authorsStage{src: src}
}

func (s *authorsStage) Next() (Event, bool) {
	for {
		e, ok := s.src.Next()
		if !ok {
			return nil, false
		}
		m, ok := e.(Mdbook)
		if !ok {
			return e, true
		}
		switch ev := m.Event.(type) {
		case mdbook.Start:
			if _, ok := ev.Tag.(mdbook.AuthorList); ok {
				s.authors = s.authors[:0]
				continue
			}
		case mdbook.Author:
			s.authors = append(s.authors, ev.Name)
			continue
		case mdbook.End:
			if _, ok := ev.Tag.(mdbook.AuthorList); ok {
				if len(s.authors) == 0 {
					continue
				}
				return Typst{Event: typst.DocumentSet{Key: "author", Value: authorArray(s.authors)}}, true
			}
		}
		return e, true
	}
}

func authorArray(authors []string) string {
	quoted := make([]string, len(authors))
	for i, a := range authors {
		quoted[i] = typst.StringLiteral(a)
	}
	return "(" + strings.Join(quoted, ",") + ")"
}

type chapterStage struct {
	src     Stream
	pending queue
	depth   int
}

// ConvertChapter turns each chapter into a heading carrying its name,
// followed by a weak page break once the chapter ends. Prose headings inside
// a chapter are shifted down by the chapter's nesting depth.
func ConvertChapter(src Stream) Stream {
	return &chapterStage{src: src}
}

func (s *chapterStage) Next() (Event, bool) {
	if e, ok := s.pending.pop(); ok {
		return e, true
	}
	e, ok := s.src.Next()
	if !ok {
		return nil, false
	}
	m, ok := e.(Mdbook)
	if !ok {
		return e, true
	}

	switch ev := m.Event.(type) {
	case mdbook.Start:
		if ch, ok := ev.Tag.(mdbook.Chapter); ok {
			heading := typst.Heading{
				Level:     min(1+s.depth, typst.MaxHeadingLevel),
				TOC:       typst.Include,
				Bookmarks: typst.Include,
			}
			s.pending.push(
				Typst{Event: typst.Text{Text: ch.Name}},
				Typst{Event: typst.End{Tag: heading}},
			)
			s.depth++
			return Typst{Event: typst.Start{Tag: heading}}, true
		}
	case mdbook.End:
		if _, ok := ev.Tag.(mdbook.Chapter); ok {
			s.depth--
			return Typst{Event: typst.FunctionCall{
				Target: foundation.None[string](),
				Name:   "pagebreak",
				Args:   []string{"weak: true"},
			}}, true
		}
	case mdbook.MarkdownContent:
		if s.depth > 1 {
			if shifted, ok := s.shiftHeading(ev.Event); ok {
				return Mdbook{Event: mdbook.MarkdownContent{Event: shifted}}, true
			}
		}
	}
	return e, true
}

// shiftHeading moves a prose heading inside a chapter nested at depth d
// (0 for top-level chapters) from level L to min(L+d, MaxHeadingLevel).
func (s *chapterStage) shiftHeading(e markdown.Event) (markdown.Event, bool) {
	shift := func(h markdown.Heading) markdown.Heading {
		h.Level = min(h.Level+s.depth-1, typst.MaxHeadingLevel)
		return h
	}
	switch ev := e.(type) {
	case markdown.Start:
		if h, ok := ev.Tag.(markdown.Heading); ok {
			return markdown.Start{Tag: shift(h)}, true
		}
	case markdown.End:
		if h, ok := ev.Tag.(markdown.Heading); ok {
			return markdown.End{Tag: shift(h)}, true
		}
	}
	return nil, false
}

// UnwrapContent exposes chapter prose as Markdown events.
func UnwrapContent(src Stream) Stream {
	return newMapStage(src, func(e Event) (Event, bool) {
		if m, ok := e.(Mdbook); ok {
			if mc, ok := m.Event.(mdbook.MarkdownContent); ok {
				return Markdown{Event: mc.Event}, true
			}
		}
		return e, true
	})
}
