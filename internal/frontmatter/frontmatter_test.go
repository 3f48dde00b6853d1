package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		fm     string
		body   string
		had    bool
		hasErr bool
	}{
		{name: "no frontmatter", input: "# Title\n\nHello\n", body: "# Title\n\nHello\n"},
		{name: "yaml", input: "---\ndraft: true\n---\n# Title\n", fm: "draft: true\n", body: "# Title\n", had: true},
		{name: "empty", input: "---\n---\nbody\n", body: "body\n", had: true},
		{name: "crlf", input: "---\r\nkey: value\r\n---\r\n# Title\r\n", fm: "key: value\r\n", body: "# Title\r\n", had: true},
		{name: "closing delimiter at eof", input: "---\nkey: value\n---", fm: "key: value\n", had: true},
		{name: "missing closing delimiter", input: "---\nkey: value\n# Title\n", hasErr: true},
		{name: "rule later in document", input: "text\n---\nmore\n", body: "text\n---\nmore\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, had, err := Split([]byte(tt.input))
			if tt.hasErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMissingClosingDelimiter))
				assert.False(t, had)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.had, had)
			assert.Equal(t, tt.fm, string(fm))
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte("title: Intro\ndraft: true\nweight: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "Intro", f.Title)
	assert.True(t, f.Draft)
	assert.Equal(t, 3, f.Extra["weight"])

	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.False(t, empty.Draft)

	_, err = Parse([]byte("title: [unclosed\n"))
	require.Error(t, err)
}
