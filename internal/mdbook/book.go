package mdbook

import (
	"git.home.luguber.info/inful/booktypst/internal/foundation"
	"git.home.luguber.info/inful/booktypst/internal/markdown"
)

// Book is a fully loaded book: metadata plus the ordered item tree from
// SUMMARY.md with chapter bodies already read.
type Book struct {
	Root   string
	Config BookConfig
	Items  []Item
}

// BookConfig is the subset of book.toml the conversion uses.
type BookConfig struct {
	Title    foundation.Option[string]
	Authors  []string
	Language string
	Src      string
}

// Item is one entry of the summary tree.
type Item interface {
	isItem()
}

// ChapterItem is a chapter with its body and nested chapters.
type ChapterItem struct {
	Name    string
	Source  foundation.Option[ChapterSource]
	Number  foundation.Option[uint64]
	Draft   bool
	Content string
	// Fingerprint of the chapter file, empty for drafts.
	Fingerprint string
	SubItems    []Item
}

// SeparatorItem is a horizontal rule in the summary.
type SeparatorItem struct{}

// PartTitleItem starts a new titled part.
type PartTitleItem struct {
	Title string
}

func (ChapterItem) isItem()   {}
func (SeparatorItem) isItem() {}
func (PartTitleItem) isItem() {}

// Status reports Draft for chapters without a source or explicitly marked
// as drafts.
func (c ChapterItem) Status() ChapterStatus {
	if c.Draft || c.Source.IsNone() {
		return Draft
	}
	return Active
}

// Tokenizer turns a chapter body into prose events.
type Tokenizer func(content string) []markdown.Event

// DefaultTokenizer tokenizes with the goldmark adapter and GFM enabled.
func DefaultTokenizer(content string) []markdown.Event {
	return markdown.Parse(content, markdown.Options{})
}

// Chapters walks the item tree depth first.
func (b *Book) Chapters() []ChapterItem {
	var out []ChapterItem
	var walk func(items []Item)
	walk = func(items []Item) {
		for _, it := range items {
			if ch, ok := it.(ChapterItem); ok {
				out = append(out, ch)
				walk(ch.SubItems)
			}
		}
	}
	walk(b.Items)
	return out
}
