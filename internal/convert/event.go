// Package convert rewrites structural mdBook events and their prose into
// Typst events. Every rewriter is a pull-based Stream wrapping the previous
// one; Build chains them in their fixed order.
package convert

import (
	"fmt"
	"iter"

	"git.home.luguber.info/inful/booktypst/internal/errors"
	"git.home.luguber.info/inful/booktypst/internal/markdown"
	"git.home.luguber.info/inful/booktypst/internal/mdbook"
	"git.home.luguber.info/inful/booktypst/internal/typst"
)

// Event wraps exactly one event of one of the three dialects.
type Event interface {
	isEvent()
}

type (
	// Mdbook carries a structural event.
	Mdbook struct{ Event mdbook.Event }
	// Markdown carries a prose event.
	Markdown struct{ Event markdown.Event }
	// Typst carries an event of the output dialect.
	Typst struct{ Event typst.Event }
)

func (Mdbook) isEvent()   {}
func (Markdown) isEvent() {}
func (Typst) isEvent()    {}

// Stream is a pull-based event source.
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

type mdbookSource struct {
	src mdbook.Stream
}

// FromMdbook lifts a structural stream into the union.
func FromMdbook(src mdbook.Stream) Stream {
	return &mdbookSource{src: src}
}

func (s *mdbookSource) Next() (Event, bool) {
	e, ok := s.src.Next()
	if !ok {
		return nil, false
	}
	return Mdbook{Event: e}, true
}

// Collect drains s.
func Collect(s Stream) []Event {
	var out []Event
	for e, ok := s.Next(); ok; e, ok = s.Next() {
		out = append(out, e)
	}
	return out
}

// All adapts s for range loops.
func All(s Stream) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for e, ok := s.Next(); ok; e, ok = s.Next() {
			if !yield(e) {
				return
			}
		}
	}
}

type typstFilter struct {
	src Stream
}

// TypstFilter keeps the Typst events of s and drops everything that was not
// converted.
func TypstFilter(s Stream) typst.Stream {
	return &typstFilter{src: s}
}

func (f *typstFilter) Next() (typst.Event, bool) {
	for {
		e, ok := f.src.Next()
		if !ok {
			return nil, false
		}
		if t, ok := e.(Typst); ok {
			return t.Event, true
		}
	}
}

type typstAssert struct {
	src Stream
}

// AssertTypst yields the Typst events of s and faults on any other event.
func AssertTypst(s Stream) typst.Stream {
	return &typstAssert{src: s}
}

func (a *typstAssert) Next() (typst.Event, bool) {
	e, ok := a.src.Next()
	if !ok {
		return nil, false
	}
	t, ok := e.(Typst)
	if !ok {
		errors.Faultf("expected a Typst event, got %s", Describe(e))
	}
	return t.Event, true
}

// Describe formats an event for logs and the events command.
func Describe(e Event) string {
	switch ev := e.(type) {
	case Mdbook:
		if mc, ok := ev.Event.(mdbook.MarkdownContent); ok {
			return fmt.Sprintf("mdbook content %#v", mc.Event)
		}
		return fmt.Sprintf("mdbook %#v", ev.Event)
	case Markdown:
		return fmt.Sprintf("markdown %#v", ev.Event)
	case Typst:
		return fmt.Sprintf("typst %#v", ev.Event)
	}
	return fmt.Sprintf("%#v", e)
}
