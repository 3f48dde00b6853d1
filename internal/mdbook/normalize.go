package mdbook

import (
	"slices"

	"git.home.luguber.info/inful/booktypst/internal/errors"
)

// NormalizeParts repairs the part structure of an item event sequence so that
// every chapter lies inside exactly one Part:
//
//   - no Part markers: everything, even nothing, is wrapped in one untitled Part
//   - only Part ends: a Start built from the first End is prepended
//   - only Part starts: an End built from the last Start is appended
//   - both: a missing leading Start or trailing End is added as above
//
// Content before the first Start or after the last End that is not covered
// by those repairs is wrapped in an untitled Part. Applying NormalizeParts
// to its own output returns it unchanged.
func NormalizeParts(events []Event) []Event {
	firstStart := slices.IndexFunc(events, isPartStart)
	lastStart := lastIndexFunc(events, isPartStart)
	firstEnd := slices.IndexFunc(events, isPartEnd)
	lastEnd := lastIndexFunc(events, isPartEnd)

	hasStarts := firstStart >= 0 && lastStart >= 0
	hasEnds := firstEnd >= 0 && lastEnd >= 0
	noStarts := firstStart < 0 && lastStart < 0
	noEnds := firstEnd < 0 && lastEnd < 0

	switch {
	case noStarts && noEnds:
		out := make([]Event, 0, len(events)+2)
		out = append(out, Start{Tag: Part{}})
		out = append(out, events...)
		return append(out, End{Tag: Part{}})

	case noStarts && hasEnds:
		out := make([]Event, 0, len(events)+3)
		out = append(out, Start{Tag: events[firstEnd].(End).Tag})
		out = append(out, events[:lastEnd+1]...)
		return append(out, wrapUntitled(events[lastEnd+1:])...)

	case hasStarts && noEnds:
		out := make([]Event, 0, len(events)+3)
		out = append(out, wrapUntitled(events[:firstStart])...)
		out = append(out, events[firstStart:]...)
		return append(out, End{Tag: events[lastStart].(Start).Tag})

	case hasStarts && hasEnds:
		out := make([]Event, 0, len(events)+4)
		if firstEnd < firstStart {
			out = append(out, Start{Tag: events[firstEnd].(End).Tag})
			out = append(out, events...)
		} else {
			out = append(out, wrapUntitled(events[:firstStart])...)
			out = append(out, events[firstStart:]...)
		}
		if lastStart > lastEnd {
			return append(out, End{Tag: events[lastStart].(Start).Tag})
		}
		tail := events[lastEnd+1:]
		if len(tail) == 0 {
			return out
		}
		out = out[:len(out)-len(tail)]
		return append(out, wrapUntitled(tail)...)

	default:
		errors.Faultf("part markers found scanning forward but not backward (starts %d/%d, ends %d/%d)",
			firstStart, lastStart, firstEnd, lastEnd)
		return nil
	}
}

// wrapUntitled returns events inside an untitled Part, or nothing when
// events is empty.
func wrapUntitled(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]Event, 0, len(events)+2)
	out = append(out, Start{Tag: Part{}})
	out = append(out, events...)
	return append(out, End{Tag: Part{}})
}

func lastIndexFunc(events []Event, f func(Event) bool) int {
	for i := len(events) - 1; i >= 0; i-- {
		if f(events[i]) {
			return i
		}
	}
	return -1
}
