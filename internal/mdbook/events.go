package mdbook

import (
	"git.home.luguber.info/inful/booktypst/internal/foundation"
)

// EventsFromItems flattens the summary tree into structural events and
// normalizes the part structure. A nil tokenizer falls back to
// DefaultTokenizer.
func EventsFromItems(items []Item, tokenize Tokenizer) []Event {
	if tokenize == nil {
		tokenize = DefaultTokenizer
	}
	return NormalizeParts(itemEvents(items, tokenize))
}

func itemEvents(items []Item, tokenize Tokenizer) []Event {
	var events []Event
	open := foundation.None[string]()

	for _, item := range items {
		switch it := item.(type) {
		case ChapterItem:
			events = appendChapter(events, it, tokenize)
		case SeparatorItem:
			events = append(events, Separator{})
		case PartTitleItem:
			if title, ok := open.Get(); ok {
				events = append(events, End{Tag: Part{Title: foundation.Some(title)}})
			}
			events = append(events, Start{Tag: Part{Title: foundation.Some(it.Title)}})
			open = foundation.Some(it.Title)
		}
	}
	return events
}

func appendChapter(events []Event, ch ChapterItem, tokenize Tokenizer) []Event {
	tag := Chapter{
		Status: ch.Status(),
		Name:   ch.Name,
		Source: ch.Source,
		Number: ch.Number,
	}
	events = append(events, Start{Tag: tag})

	if ch.Content != "" {
		content := Content{Type: ContentMarkdown}
		events = append(events, Start{Tag: content})
		for _, e := range tokenize(ch.Content) {
			events = append(events, MarkdownContent{Event: e})
		}
		events = append(events, End{Tag: content})
	}

	// Sub-chapters never carry part titles, so they are not normalized.
	events = append(events, itemEvents(ch.SubItems, tokenize)...)
	return append(events, End{Tag: tag})
}

// ConfigEvents emits the book metadata: the title if set, then the author
// list if there are any authors.
func ConfigEvents(cfg BookConfig) []Event {
	var events []Event
	if title, ok := cfg.Title.Get(); ok {
		events = append(events, Title{Text: title})
	}
	if len(cfg.Authors) > 0 {
		events = append(events, Start{Tag: AuthorList{}})
		for _, name := range cfg.Authors {
			events = append(events, Author{Name: name})
		}
		events = append(events, End{Tag: AuthorList{}})
	}
	return events
}
