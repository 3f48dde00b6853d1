package mdbook

// Stream is a pull-based source of structural events.
type Stream interface {
	// Next returns the next event, or false once the stream is exhausted.
	Next() (Event, bool)
}

// Parser emits a book as structural events: Root, then the metadata, then the
// normalized item events.
type Parser struct {
	events []Event
	pos    int
}

// NewParser materializes the event sequence of book. A nil tokenizer falls
// back to DefaultTokenizer.
func NewParser(book *Book, tokenize Tokenizer) *Parser {
	events := []Event{Root{Path: book.Root}}
	events = append(events, ConfigEvents(book.Config)...)
	events = append(events, EventsFromItems(book.Items, tokenize)...)
	return &Parser{events: events}
}

// NewEventStream streams an already built sequence.
func NewEventStream(events []Event) *Parser {
	return &Parser{events: events}
}

// Next implements Stream.
func (p *Parser) Next() (Event, bool) {
	if p.pos >= len(p.events) {
		return nil, false
	}
	e := p.events[p.pos]
	p.pos++
	return e, true
}

// Events returns the complete sequence regardless of how much was consumed.
func (p *Parser) Events() []Event {
	return p.events
}

// Len is the total number of events.
func (p *Parser) Len() int {
	return len(p.events)
}
