package convert

import (
	"fmt"
	"slices"
	"strings"

	"git.home.luguber.info/inful/booktypst/internal/mdbook"
)

// Options enables or disables each conversion stage. Content gates every
// prose stage regardless of its own setting.
type Options struct {
	Title         bool
	Authors       bool
	Chapters      bool
	Content       bool
	StripHTML     bool
	Headings      bool
	Paragraphs    bool
	SoftBreaks    bool
	HardBreaks    bool
	Text          bool
	Strong        bool
	Emphasis      bool
	Strikethrough bool
	BlockQuotes   bool
	Lists         bool
	Code          bool
	Links         bool
	Tables        bool
	Rules         bool
}

// DefaultOptions enables every stage.
func DefaultOptions() Options {
	var o Options
	for _, s := range stages {
		*s.field(&o) = true
	}
	return o
}

type stage struct {
	name  string
	prose bool
	field func(*Options) *bool
	wrap  func(Stream) Stream
}

// stages in the order they wrap the source. Later stages see the output of
// earlier ones: prose headings must be shifted by chapters before content
// is unwrapped, and text must be converted before code blocks are.
var stages = []stage{
	{name: "title", field: func(o *Options) *bool { return &o.Title }, wrap: ConvertTitle},
	{name: "authors", field: func(o *Options) *bool { return &o.Authors }, wrap: ConvertAuthors},
	{name: "chapters", field: func(o *Options) *bool { return &o.Chapters }, wrap: ConvertChapter},
	{name: "content", prose: true, field: func(o *Options) *bool { return &o.Content }, wrap: UnwrapContent},
	{name: "strip-html", prose: true, field: func(o *Options) *bool { return &o.StripHTML }, wrap: StripHTML},
	{name: "headings", prose: true, field: func(o *Options) *bool { return &o.Headings }, wrap: ConvertHeadings},
	{name: "paragraphs", prose: true, field: func(o *Options) *bool { return &o.Paragraphs }, wrap: ConvertParagraphs},
	{name: "soft-breaks", prose: true, field: func(o *Options) *bool { return &o.SoftBreaks }, wrap: ConvertSoftBreaks},
	{name: "hard-breaks", prose: true, field: func(o *Options) *bool { return &o.HardBreaks }, wrap: ConvertHardBreaks},
	{name: "text", prose: true, field: func(o *Options) *bool { return &o.Text }, wrap: ConvertText},
	{name: "strong", prose: true, field: func(o *Options) *bool { return &o.Strong }, wrap: ConvertStrong},
	{name: "emphasis", prose: true, field: func(o *Options) *bool { return &o.Emphasis }, wrap: ConvertEmphasis},
	{name: "strikethrough", prose: true, field: func(o *Options) *bool { return &o.Strikethrough }, wrap: ConvertStrikethrough},
	{name: "blockquotes", prose: true, field: func(o *Options) *bool { return &o.BlockQuotes }, wrap: ConvertBlockQuotes},
	{name: "lists", prose: true, field: func(o *Options) *bool { return &o.Lists }, wrap: ConvertLists},
	{name: "code", prose: true, field: func(o *Options) *bool { return &o.Code }, wrap: ConvertCode},
	{name: "links", prose: true, field: func(o *Options) *bool { return &o.Links }, wrap: ConvertLinks},
	{name: "tables", prose: true, field: func(o *Options) *bool { return &o.Tables }, wrap: ConvertTables},
	{name: "rules", prose: true, field: func(o *Options) *bool { return &o.Rules }, wrap: ConvertRules},
}

// StageNames lists the stage names in pipeline order.
func StageNames() []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.name
	}
	return names
}

func lookupStage(name string) (stage, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	i := slices.IndexFunc(stages, func(s stage) bool { return s.name == key })
	if i < 0 {
		return stage{}, false
	}
	return stages[i], true
}

// Set toggles the named stage.
func (o *Options) Set(name string, enabled bool) error {
	s, ok := lookupStage(name)
	if !ok {
		return fmt.Errorf("unknown stage %q (valid: %s)", name, strings.Join(StageNames(), ", "))
	}
	*s.field(o) = enabled
	return nil
}

// Enabled reports whether the named stage would run. Unknown names are
// never enabled.
func (o Options) Enabled(name string) bool {
	s, ok := lookupStage(name)
	if !ok {
		return false
	}
	if s.prose && !o.Content {
		return false
	}
	return *s.field(&o)
}

// EnabledStages lists the stages Build would chain, in order.
func (o Options) EnabledStages() []string {
	var names []string
	for _, s := range stages {
		if o.Enabled(s.name) {
			names = append(names, s.name)
		}
	}
	return names
}

// Build chains the enabled stages over events. Nothing is pulled until the
// returned stream is.
func Build(events mdbook.Stream, opts Options) Stream {
	out := FromMdbook(events)
	for _, s := range stages {
		if opts.Enabled(s.name) {
			out = s.wrap(out)
		}
	}
	return out
}
