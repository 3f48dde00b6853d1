// Package mdbook models an mdBook as a flat, balanced sequence of structural
// events: parts, chapters, their Markdown content and the book metadata.
//
// Event and Tag are closed sum types. All tags are comparable with ==.
package mdbook

import (
	"git.home.luguber.info/inful/booktypst/internal/foundation"
	"git.home.luguber.info/inful/booktypst/internal/markdown"
)

// Event is one structural event.
type Event interface {
	isEvent()
}

// Start opens a tagged region.
type Start struct{ Tag Tag }

// End closes the innermost open tagged region. Its tag equals the Start's.
type End struct{ Tag Tag }

// Root carries the book's root directory.
type Root struct{ Path string }

// Title is the book title.
type Title struct{ Text string }

// Author is one entry of the author list.
type Author struct{ Name string }

// Separator may appear before, between and after any other element.
type Separator struct{}

// MarkdownContent wraps one prose event of a chapter body.
type MarkdownContent struct{ Event markdown.Event }

func (Start) isEvent()           {}
func (End) isEvent()             {}
func (Root) isEvent()            {}
func (Title) isEvent()           {}
func (Author) isEvent()          {}
func (Separator) isEvent()       {}
func (MarkdownContent) isEvent() {}

// Tag is a structural container.
type Tag interface {
	isTag()
}

// Part groups chapters. Untitled parts are synthesized by NormalizeParts.
type Part struct {
	Title  foundation.Option[string]
	Number foundation.Option[uint64]
}

// ChapterStatus tells written chapters from placeholders.
type ChapterStatus int

const (
	Active ChapterStatus = iota
	Draft
)

func (s ChapterStatus) String() string {
	if s == Draft {
		return "draft"
	}
	return "active"
}

// SourceKind is the kind of location a chapter was read from.
type SourceKind int

const (
	SourcePath SourceKind = iota
	SourceURL
)

// ChapterSource locates a chapter's Markdown.
type ChapterSource struct {
	Kind     SourceKind
	Location string
}

// Chapter is a unit of book content. Chapters nest.
type Chapter struct {
	Status ChapterStatus
	Name   string
	Source foundation.Option[ChapterSource]
	Number foundation.Option[uint64]
}

// ContentType is the markup language of chapter content.
type ContentType int

const (
	ContentMarkdown ContentType = iota
)

// Content brackets the MarkdownContent events of one chapter.
type Content struct {
	Type ContentType
}

// AuthorList contains only Author events.
type AuthorList struct{}

func (Part) isTag()       {}
func (Chapter) isTag()    {}
func (Content) isTag()    {}
func (AuthorList) isTag() {}

// TagEqual reports whether two tags are equal by value.
func TagEqual(a, b Tag) bool {
	return a == b
}

func isPartStart(e Event) bool {
	s, ok := e.(Start)
	if !ok {
		return false
	}
	_, ok = s.Tag.(Part)
	return ok
}

func isPartEnd(e Event) bool {
	en, ok := e.(End)
	if !ok {
		return false
	}
	_, ok = en.Tag.(Part)
	return ok
}
