package typst

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/booktypst/internal/errors"
	"git.home.luguber.info/inful/booktypst/internal/foundation"
)

func render(t *testing.T, events ...Event) string {
	t.Helper()
	out, err := RenderString(FromSlice(events))
	require.NoError(t, err)
	return out
}

func TestRenderMarkup(t *testing.T) {
	table := Table{Alignments: []Alignment{AlignLeft, AlignCenter}}
	codeBlock := CodeBlock{Display: DisplayBlock}
	contentLink := Link{Type: LinkContent, Dest: "http://example.com"}
	quote := Quote{Type: QuoteBlock, Quotes: QuotesAuto}
	attributed := Quote{Type: QuoteBlock, Quotes: QuotesAuto, Attribution: foundation.Some("some dude")}

	tests := []struct {
		name   string
		events []Event
		want   string
	}{
		{
			name:   "emphasis",
			events: []Event{Start{Tag: Emphasis{}}, Text{Text: "foo bar baz"}, End{Tag: Emphasis{}}},
			want:   "#emph[foo bar baz]",
		},
		{
			name:   "emphasis containing underscores",
			events: []Event{Start{Tag: Emphasis{}}, Text{Text: "_whatever_"}, End{Tag: Emphasis{}}},
			want:   `#emph[ \_whatever \_]`,
		},
		{
			name: "nested emphasis and strong",
			events: []Event{
				Start{Tag: Emphasis{}}, Start{Tag: Strong{}}, Text{Text: "blah"},
				End{Tag: Strong{}}, End{Tag: Emphasis{}},
			},
			want: "#emph[#strong[blah]]",
		},
		{
			name:   "strikethrough",
			events: []Event{Start{Tag: Strikethrough{}}, Text{Text: "gone"}, End{Tag: Strikethrough{}}},
			want:   "#strike[gone]",
		},
		{
			name:   "paragraph escapes text",
			events: []Event{Start{Tag: Paragraph{}}, Text{Text: "*blah*"}, End{Tag: Paragraph{}}},
			want:   "#par()[\\*blah\\*]\n",
		},
		{
			name:   "code block keeps text verbatim",
			events: []Event{Start{Tag: codeBlock}, Text{Text: "*blah*"}, End{Tag: codeBlock}},
			want:   "``````\n*blah*``````\n",
		},
		{
			name: "code block with label",
			events: []Event{
				Start{Tag: CodeBlock{Fence: foundation.Some("rust")}},
				Text{Text: "fn main() {}\n"},
				End{Tag: CodeBlock{Fence: foundation.Some("rust")}},
			},
			want: "``````rust\nfn main() {}\n``````\n",
		},
		{
			name: "nested code blocks widen the fence",
			events: []Event{
				Start{Tag: codeBlock}, Start{Tag: codeBlock}, Text{Text: "x"},
				End{Tag: codeBlock}, End{Tag: codeBlock},
			},
			want: "``````\n```````\nx```````\n``````\n",
		},
		{
			name:   "inline code without backtick",
			events: []Event{Code{Text: "*foo*"}},
			want:   "`*foo*`",
		},
		{
			name:   "inline code with backtick",
			events: []Event{Code{Text: "a`b\\\"c"}},
			want:   `#raw("a` + "`" + `b\\\"c")`,
		},
		{
			name: "inline code inside paragraph",
			events: []Event{
				Start{Tag: Paragraph{}}, Text{Text: "before "}, Code{Text: "x`y"},
				Text{Text: " after"}, End{Tag: Paragraph{}},
			},
			want: "#par()[before #raw(\"x`y\") after]\n",
		},
		{
			name:   "content link escapes content only",
			events: []Event{Start{Tag: contentLink}, Text{Text: "*blah*"}, End{Tag: contentLink}},
			want:   `#link("http://example.com")[\*blah\*]`,
		},
		{
			name: "url link has no content region",
			events: []Event{
				Start{Tag: Link{Type: LinkURL, Dest: "mailto:a@b.c"}},
				End{Tag: Link{Type: LinkURL, Dest: "mailto:a@b.c"}},
			},
			want: `#link("mailto:a@b.c")`,
		},
		{
			name:   "block quote",
			events: []Event{Start{Tag: quote}, Text{Text: "to be or not to be"}, End{Tag: quote}},
			want:   "#quote(block: true, quotes: auto,)[to be or not to be]\n",
		},
		{
			name:   "quote with attribution",
			events: []Event{Start{Tag: attributed}, Text{Text: "to be or not to be"}, End{Tag: attributed}},
			want:   "#quote(block: true, quotes: auto, attribution: [some dude])[to be or not to be]\n",
		},
		{
			name: "inline quote",
			events: []Event{
				Start{Tag: Quote{Type: QuoteInline, Quotes: QuotesNoWrap}},
				Text{Text: "whatever"},
				End{Tag: Quote{Type: QuoteInline, Quotes: QuotesNoWrap}},
			},
			want: "#quote(block: false, quotes: false,)[whatever]",
		},
		{
			name: "headings",
			events: []Event{
				Start{Tag: Heading{Level: 2}}, Text{Text: "Intro"}, End{Tag: Heading{Level: 2}},
				Start{Tag: Heading{Level: 1, TOC: Exclude, Bookmarks: Include}},
				Text{Text: "Hidden"},
				End{Tag: Heading{Level: 1, TOC: Exclude, Bookmarks: Include}},
			},
			want: "== Intro\n#heading(level: 1, outlined: false, bookmarked: true)[Hidden]\n",
		},
		{
			name: "bullet and numbered lists",
			events: []Event{
				Start{Tag: BulletList{}},
				Start{Tag: Item{}}, Text{Text: "a"}, End{Tag: Item{}},
				Start{Tag: Item{}},
				Start{Tag: NumberedList{Start: 1}},
				Start{Tag: Item{}}, Text{Text: "b"}, End{Tag: Item{}},
				End{Tag: NumberedList{Start: 1}},
				End{Tag: Item{}},
				End{Tag: BulletList{}},
			},
			want: "- a\n- \n  + b\n",
		},
		{
			name: "nested list in tight item",
			events: []Event{
				Start{Tag: BulletList{}},
				Start{Tag: Item{}}, Text{Text: "a"},
				Start{Tag: BulletList{}},
				Start{Tag: Item{}}, Text{Text: "b"}, End{Tag: Item{}},
				End{Tag: BulletList{}},
				End{Tag: Item{}},
				Start{Tag: Item{}}, Text{Text: "c"}, End{Tag: Item{}},
				End{Tag: BulletList{}},
			},
			want: "- a\n  - b\n- c\n",
		},
		{
			name: "paragraph in loose item",
			events: []Event{
				Start{Tag: NumberedList{Start: 1}},
				Start{Tag: Item{}}, Start{Tag: Paragraph{}}, Text{Text: "a"}, End{Tag: Paragraph{}}, End{Tag: Item{}},
				End{Tag: NumberedList{Start: 1}},
			},
			want: "+ #par()[a]\n",
		},
		{
			name: "table",
			events: []Event{
				Start{Tag: table},
				Start{Tag: TableRow{}},
				Start{Tag: TableCell{}}, Text{Text: "Header 1"}, End{Tag: TableCell{}},
				Start{Tag: TableCell{}}, Text{Text: "Header 2"}, End{Tag: TableCell{}},
				End{Tag: TableRow{}},
				End{Tag: Table{Alignments: []Alignment{AlignLeft, AlignCenter}}},
			},
			want: "#table(align: [left, center])[\n#row[\n#cell[Header 1]#cell[Header 2]\n]\n]\n",
		},
		{
			name: "show rules",
			events: []Event{
				Start{Tag: Show{Type: ShowSet, Selector: "heading", Set: foundation.Some(ShowSetRule{Element: "text", Key: "fill", Value: "red"})}},
				End{Tag: Show{Type: ShowSet, Selector: "heading", Set: foundation.Some(ShowSetRule{Element: "text", Key: "fill", Value: "red"})}},
				Start{Tag: Show{Type: ShowFunction, Selector: "link", Func: foundation.Some("underline")}},
				End{Tag: Show{Type: ShowFunction, Selector: "link", Func: foundation.Some("underline")}},
			},
			want: "#show heading: set text(fill:red)\n#show link:underline\n",
		},
		{
			name: "leaves",
			events: []Event{
				Linebreak{}, Parbreak{}, PageBreak{},
				Let{LHS: "a", RHS: "b"},
				FunctionCall{Name: "pagebreak", Args: []string{"weak: true"}},
				FunctionCall{Target: foundation.Some("v"), Name: "f", Args: []string{"1", "2"}},
				DocumentFunctionCall{Args: []string{"title: \"x\""}},
				Set{Element: "text", Key: "size", Value: "11pt"},
				DocumentSet{Key: "author", Value: `("a","b")`},
				Raw{Text: "#raw stuff*"},
			},
			want: "#linebreak()\n#parbreak()\n#pagebreak()\n#let a = b\n#pagebreak(weak: true)\n" +
				"#v.f(1, 2)\n#document(title: \"x\")\n#set text(size: 11pt)\n" +
				"#set document(author: (\"a\",\"b\"))\n#raw stuff*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, render(t, tt.events...)); diff != "" {
				t.Errorf("markup mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderLine(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want string
	}{
		{name: "basic", line: Line{}, want: "#line()\n"},
		{name: "start", line: Line{Start: foundation.Some(Point{"1", "2"})}, want: "#line(start: (1, 2))\n"},
		{name: "end", line: Line{End: foundation.Some(Point{"3", "4"})}, want: "#line(end: (3, 4))\n"},
		{name: "length", line: Line{Length: foundation.Some("5")}, want: "#line(length: 5)\n"},
		{name: "angle", line: Line{Angle: foundation.Some("6")}, want: "#line(angle: 6)\n"},
		{name: "stroke", line: Line{Stroke: foundation.Some("7")}, want: "#line(stroke: 7)\n"},
		{
			name: "all",
			line: Line{
				Start:  foundation.Some(Point{"1", "2"}),
				End:    foundation.Some(Point{"3", "4"}),
				Length: foundation.Some("5"),
				Angle:  foundation.Some("6"),
				Stroke: foundation.Some("7"),
			},
			want: "#line(start: (1, 2), end: (3, 4), length: 5, angle: 6, stroke: 7)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.line))
		})
	}
}

func TestRenderFaults(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
	}{
		{name: "mismatched end", events: []Event{Start{Tag: Emphasis{}}, End{Tag: Strong{}}}},
		{name: "end without start", events: []Event{End{Tag: Paragraph{}}}},
		{name: "item outside list", events: []Event{Start{Tag: Item{}}}},
		{name: "show-set without set", events: []Event{Start{Tag: Show{Type: ShowSet, Selector: "x"}}}},
		{name: "unclosed element", events: []Event{Start{Tag: Paragraph{}}, Text{Text: "x"}}},
		{
			name: "table alignment mismatch",
			events: []Event{
				Start{Tag: Table{Alignments: []Alignment{AlignLeft}}},
				End{Tag: Table{Alignments: []Alignment{AlignRight}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderString(FromSlice(tt.events))
			require.Error(t, err)
			assert.True(t, errors.IsFault(err))
			assert.True(t, errors.IsCategory(err, errors.CategoryInternal))
		})
	}
}

func TestMarkupNextYieldsOneFragmentPerEvent(t *testing.T) {
	m := NewMarkup(FromSlice([]Event{
		Start{Tag: BulletList{}},
		Start{Tag: Item{}}, Text{Text: "a"}, End{Tag: Item{}},
		End{Tag: BulletList{}},
	}))

	var fragments []string
	for s, ok := m.Next(); ok; s, ok = m.Next() {
		fragments = append(fragments, s)
	}
	assert.Equal(t, []string{"", "- ", "a", "\n", ""}, fragments)
	assert.Equal(t, 0, m.Open())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestWriteMarkup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkup(&buf, FromSlice([]Event{Text{Text: "a@b"}})))
	assert.Equal(t, `a\@b`, buf.String())

	err := WriteMarkup(failingWriter{}, FromSlice([]Event{Text{Text: "x"}}))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"plain",
		"$ # < > * _ ` @",
		"_whatever_",
		"a \\_ b",
		"\\$x",
		"  _",
		"email@example.com costs $5 #tag <b>*bold*</b>",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			escaped := Escape(in)
			for _, c := range "$#<>*`@" {
				assert.NotContains(t, strings.ReplaceAll(escaped, `\`+string(c), ""), string(c))
			}
			assert.Equal(t, in, Unescape(escaped))
		})
	}
}

func TestStringLiteral(t *testing.T) {
	assert.Equal(t, `"plain"`, StringLiteral("plain"))
	assert.Equal(t, `"say \"hi\" \\o/"`, StringLiteral(`say "hi" \o/`))
}

func TestTagEqual(t *testing.T) {
	assert.True(t, TagEqual(Table{Alignments: []Alignment{AlignLeft}}, Table{Alignments: []Alignment{AlignLeft}}))
	assert.False(t, TagEqual(Table{}, Paragraph{}))
	assert.False(t, TagEqual(Paragraph{}, Table{}))
	assert.True(t, TagEqual(Heading{Level: 1}, Heading{Level: 1}))
	assert.False(t, TagEqual(Link{Type: LinkURL, Dest: "a"}, Link{Type: LinkContent, Dest: "a"}))
}
