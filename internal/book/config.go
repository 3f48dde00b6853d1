// Package book loads an mdBook from disk: book.toml, SUMMARY.md and the
// chapter files it references.
package book

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"git.home.luguber.info/inful/booktypst/internal/errors"
	"git.home.luguber.info/inful/booktypst/internal/foundation"
	"git.home.luguber.info/inful/booktypst/internal/mdbook"
)

const (
	// ConfigFile is the mdBook configuration file name.
	ConfigFile = "book.toml"
	// SummaryFile is the table of contents inside the source directory.
	SummaryFile = "SUMMARY.md"
	// DefaultSrc is the source directory when book.toml does not set one.
	DefaultSrc = "src"
)

type bookTOML struct {
	Book struct {
		Title       string   `toml:"title"`
		Authors     []string `toml:"authors"`
		Description string   `toml:"description"`
		Language    string   `toml:"language"`
		Src         string   `toml:"src"`
	} `toml:"book"`
}

// LoadConfig reads root/book.toml. A missing file yields the defaults.
func LoadConfig(root string) (mdbook.BookConfig, error) {
	cfg := mdbook.BookConfig{Src: DefaultSrc}

	path := filepath.Join(root, ConfigFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	var raw bookTOML
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return cfg, errors.BookLoadFailed(root, err).WithContext("file", path)
	}

	if title := strings.TrimSpace(raw.Book.Title); title != "" {
		cfg.Title = foundation.Some(title)
	}
	for _, a := range raw.Book.Authors {
		if a = strings.TrimSpace(a); a != "" {
			cfg.Authors = append(cfg.Authors, a)
		}
	}
	cfg.Language = raw.Book.Language
	if src := strings.TrimSpace(raw.Book.Src); src != "" {
		cfg.Src = src
	}
	return cfg, nil
}
