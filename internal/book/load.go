package book

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/booktypst/internal/errors"
	"git.home.luguber.info/inful/booktypst/internal/frontmatter"
	"git.home.luguber.info/inful/booktypst/internal/logfields"
	"git.home.luguber.info/inful/booktypst/internal/mdbook"
)

// Load reads the book rooted at root. Chapters are read relative to the
// source directory; a referenced chapter file that does not exist is an
// error. Drafts and URL chapters have no content.
func Load(root string) (*mdbook.Book, error) {
	cfg, err := LoadConfig(root)
	if err != nil {
		return nil, err
	}

	src := filepath.Join(root, cfg.Src)
	summaryPath := filepath.Join(src, SummaryFile)
	summary, err := os.ReadFile(summaryPath)
	if err != nil {
		return nil, errors.BookLoadFailed(root, err).WithContext("file", summaryPath)
	}

	items, err := ParseSummary(summary)
	if err != nil {
		return nil, errors.SummaryParseFailed(summaryPath, err)
	}

	l := &loader{src: src}
	if items, err = l.items(items); err != nil {
		return nil, err
	}

	slog.Debug("Loaded book",
		logfields.Book(root),
		slog.Int("chapters", l.chapters),
		slog.Int("drafts", l.drafts))

	return &mdbook.Book{Root: root, Config: cfg, Items: items}, nil
}

type loader struct {
	src      string
	chapters int
	drafts   int
}

func (l *loader) items(items []mdbook.Item) ([]mdbook.Item, error) {
	out := make([]mdbook.Item, 0, len(items))
	for _, it := range items {
		ch, ok := it.(mdbook.ChapterItem)
		if !ok {
			out = append(out, it)
			continue
		}
		if err := l.chapter(&ch); err != nil {
			return nil, err
		}
		sub, err := l.items(ch.SubItems)
		if err != nil {
			return nil, err
		}
		ch.SubItems = sub
		out = append(out, ch)
	}
	return out, nil
}

func (l *loader) chapter(ch *mdbook.ChapterItem) error {
	l.chapters++
	source, ok := ch.Source.Get()
	if !ok || source.Kind != mdbook.SourcePath {
		if !ok {
			l.drafts++
		}
		return nil
	}

	path := filepath.Join(l.src, filepath.FromSlash(source.Location))
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.ChapterReadFailed(path, err).WithContext("chapter", ch.Name)
	}

	fm, body, _, err := frontmatter.Split(raw)
	if err != nil {
		return errors.ChapterReadFailed(path, err).WithContext("chapter", ch.Name)
	}
	fields, err := frontmatter.Parse(fm)
	if err != nil {
		return errors.ChapterReadFailed(path, fmt.Errorf("frontmatter: %w", err)).WithContext("chapter", ch.Name)
	}

	if fields.Draft {
		ch.Draft = true
		l.drafts++
	}
	ch.Content = string(body)
	ch.Fingerprint = chapterFingerprint(fm, body)
	slog.Debug("Loaded chapter",
		logfields.Chapter(ch.Name),
		logfields.Path(path),
		logfields.Fingerprint(ch.Fingerprint))
	return nil
}

func chapterFingerprint(fm, body []byte) string {
	return mdfp.CalculateFingerprintFromParts(trimSingleTrailingNewline(string(fm)), string(body))
}

// Fingerprint identifies the converted content of b: book metadata plus the
// name, status and fingerprint of every chapter in order. Two books with the
// same fingerprint produce the same output.
func Fingerprint(b *mdbook.Book) string {
	meta := map[string]any{
		"authors":  b.Config.Authors,
		"language": b.Config.Language,
	}
	if title, ok := b.Config.Title.Get(); ok {
		meta["title"] = title
	}
	serialized, err := yaml.Marshal(meta)
	if err != nil {
		serialized = nil
	}

	var parts strings.Builder
	var walk func(items []mdbook.Item)
	walk = func(items []mdbook.Item) {
		for _, it := range items {
			switch it := it.(type) {
			case mdbook.ChapterItem:
				fmt.Fprintf(&parts, "chapter\t%s\t%s\t%s\n", it.Name, it.Status(), it.Fingerprint)
				walk(it.SubItems)
				parts.WriteString("end\n")
			case mdbook.PartTitleItem:
				fmt.Fprintf(&parts, "part\t%s\n", it.Title)
			case mdbook.SeparatorItem:
				parts.WriteString("separator\n")
			}
		}
	}
	walk(b.Items)

	return mdfp.CalculateFingerprintFromParts(trimSingleTrailingNewline(string(serialized)), parts.String())
}

func trimSingleTrailingNewline(s string) string {
	if before, ok := strings.CutSuffix(s, "\r\n"); ok {
		return before
	}
	if before, ok := strings.CutSuffix(s, "\n"); ok {
		return before
	}
	return s
}
