package mdbook

import (
	"fmt"

	"git.home.luguber.info/inful/booktypst/internal/markdown"
)

// CheckBalance verifies that every Start has a matching End with an equal tag
// and that regions nest. Wrapped prose events are checked the same way.
func CheckBalance(events []Event) error {
	var stack []Tag
	var prose []markdown.Tag

	for i, e := range events {
		switch ev := e.(type) {
		case Start:
			stack = append(stack, ev.Tag)
		case End:
			if len(stack) == 0 {
				return fmt.Errorf("event %d: End(%T) without open region", i, ev.Tag)
			}
			top := stack[len(stack)-1]
			if !TagEqual(top, ev.Tag) {
				return fmt.Errorf("event %d: End(%#v) closes Start(%#v)", i, ev.Tag, top)
			}
			stack = stack[:len(stack)-1]
		case MarkdownContent:
			switch inner := ev.Event.(type) {
			case markdown.Start:
				prose = append(prose, inner.Tag)
			case markdown.End:
				if len(prose) == 0 {
					return fmt.Errorf("event %d: markdown End(%T) without open region", i, inner.Tag)
				}
				if !markdown.TagEqual(prose[len(prose)-1], inner.Tag) {
					return fmt.Errorf("event %d: markdown End(%#v) closes Start(%#v)", i, inner.Tag, prose[len(prose)-1])
				}
				prose = prose[:len(prose)-1]
			}
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%d unclosed region(s), innermost %#v", len(stack), stack[len(stack)-1])
	}
	if len(prose) > 0 {
		return fmt.Errorf("%d unclosed markdown region(s), innermost %#v", len(prose), prose[len(prose)-1])
	}
	return nil
}

// CheckPartCoverage verifies that every event of an item sequence other than
// the Part markers lies inside a Part.
func CheckPartCoverage(events []Event) error {
	depth := 0
	for i, e := range events {
		switch {
		case isPartStart(e):
			depth++
		case isPartEnd(e):
			depth--
			if depth < 0 {
				return fmt.Errorf("event %d: Part closed without being opened", i)
			}
		case depth == 0:
			return fmt.Errorf("event %d: %T outside of any Part", i, e)
		}
	}
	return nil
}
