// Package frontmatter separates YAML frontmatter from chapter Markdown.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Fields are the frontmatter keys the converter understands. Anything else
// is kept in Extra.
type Fields struct {
	Title string         `yaml:"title"`
	Draft bool           `yaml:"draft"`
	Extra map[string]any `yaml:",inline"`
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
// Both results share memory with content.
//
// If the document does not start with a delimiter line, had is false and
// body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// a closing delimiter on the last line without a trailing newline
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse decodes raw frontmatter (without delimiters).
func Parse(frontmatter []byte) (Fields, error) {
	var f Fields
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return f, nil
	}
	if err := yaml.Unmarshal(frontmatter, &f); err != nil {
		return Fields{}, err
	}
	return f, nil
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
