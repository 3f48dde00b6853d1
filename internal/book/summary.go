package book

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/booktypst/internal/foundation"
	"git.home.luguber.info/inful/booktypst/internal/mdbook"
)

// ParseSummary builds the item tree from SUMMARY.md. Chapter content is not
// read.
//
// A heading before anything else is the summary title and is skipped. Later
// headings start parts, thematic breaks are separators, links in paragraphs
// are unnumbered prefix or suffix chapters and list items are numbered
// chapters. A link with an empty destination is a draft chapter.
func ParseSummary(source []byte) ([]mdbook.Item, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	p := &summaryParser{source: source}

	var items []mdbook.Item
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if n == doc.FirstChild() {
				continue
			}
			items = append(items, mdbook.PartTitleItem{Title: p.text(node)})
		case *ast.ThematicBreak:
			items = append(items, mdbook.SeparatorItem{})
		case *ast.Paragraph:
			chapters, err := p.links(node)
			if err != nil {
				return nil, err
			}
			items = append(items, chapters...)
		case *ast.List:
			chapters, err := p.list(node, &p.topLevel)
			if err != nil {
				return nil, err
			}
			items = append(items, chapters...)
		case *ast.HTMLBlock:
			// comments and other markup are ignored
		default:
			return nil, fmt.Errorf("line %d: unexpected %s in summary", p.line(n), n.Kind())
		}
	}
	return items, nil
}

type summaryParser struct {
	source   []byte
	topLevel uint64
}

// links turns every link of a paragraph into an unnumbered chapter.
func (p *summaryParser) links(para *ast.Paragraph) ([]mdbook.Item, error) {
	var items []mdbook.Item
	for c := para.FirstChild(); c != nil; c = c.NextSibling() {
		link, ok := c.(*ast.Link)
		if !ok {
			continue
		}
		ch, err := p.chapter(link)
		if err != nil {
			return nil, err
		}
		items = append(items, ch)
	}
	return items, nil
}

// list turns list items into numbered chapters. counter carries numbering
// across lists at the same level.
func (p *summaryParser) list(list *ast.List, counter *uint64) ([]mdbook.Item, error) {
	var items []mdbook.Item
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		var ch mdbook.ChapterItem
		found := false
		var sub uint64

		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.TextBlock, *ast.Paragraph:
				link := firstLink(node)
				if link == nil {
					return nil, fmt.Errorf("line %d: summary list item without a link", p.line(node))
				}
				var err error
				if ch, err = p.chapter(link); err != nil {
					return nil, err
				}
				found = true
			case *ast.List:
				if !found {
					return nil, fmt.Errorf("line %d: nested list without a parent chapter", p.line(node))
				}
				subItems, err := p.list(node, &sub)
				if err != nil {
					return nil, err
				}
				ch.SubItems = append(ch.SubItems, subItems...)
			}
		}
		if !found {
			continue
		}
		*counter++
		ch.Number = foundation.Some(*counter)
		items = append(items, ch)
	}
	return items, nil
}

func (p *summaryParser) chapter(link *ast.Link) (mdbook.ChapterItem, error) {
	ch := mdbook.ChapterItem{Name: p.text(link)}
	dest := strings.TrimSpace(string(link.Destination))
	if dest == "" {
		return ch, nil
	}

	if u, err := url.Parse(dest); err == nil && u.Scheme != "" {
		ch.Source = foundation.Some(mdbook.ChapterSource{Kind: mdbook.SourceURL, Location: dest})
		return ch, nil
	}
	path, err := url.PathUnescape(dest)
	if err != nil {
		return ch, fmt.Errorf("chapter %q: invalid path %q: %w", ch.Name, dest, err)
	}
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	ch.Source = foundation.Some(mdbook.ChapterSource{Kind: mdbook.SourcePath, Location: path})
	return ch, nil
}

func firstLink(n ast.Node) *ast.Link {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if link, ok := c.(*ast.Link); ok {
			return link
		}
	}
	return nil
}

// text concatenates the literal text below n.
func (p *summaryParser) text(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(p.source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func (p *summaryParser) line(n ast.Node) int {
	var offset int
	switch {
	case n.Type() == ast.TypeBlock && n.Lines().Len() > 0:
		offset = n.Lines().At(0).Start
	case n.FirstChild() != nil:
		return p.line(n.FirstChild())
	default:
		return 0
	}
	return strings.Count(string(p.source[:offset]), "\n") + 1
}
