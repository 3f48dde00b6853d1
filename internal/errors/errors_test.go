package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookTypstError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BookTypstError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryBook, SeverityFatal, "failed to load book"),
			expected: "book (fatal): failed to load book: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestBookTypstError_WithContext(t *testing.T) {
	err := New(CategoryBook, SeverityWarning, "chapter missing").
		WithContext("chapter", "intro.md").
		WithContext("line", 3)

	require.NotNil(t, err.Context)
	assert.Equal(t, "intro.md", err.Context["chapter"])
	assert.Equal(t, 3, err.Context["line"])
}

func TestCategoryHelpers(t *testing.T) {
	configErr := ConfigNotFound("booktypst.yaml")
	wrapped := fmt.Errorf("load: %w", ChapterReadFailed("src/a.md", stderrors.New("boom")))
	plain := stderrors.New("plain")

	assert.True(t, IsCategory(configErr, CategoryConfig))
	assert.True(t, IsCategory(wrapped, CategoryFileSystem))
	assert.False(t, IsCategory(plain, CategoryConfig))

	assert.Equal(t, CategoryFileSystem, GetCategory(wrapped))
	assert.Equal(t, CategoryInternal, GetCategory(plain))

	assert.True(t, IsRetryable(OutputWriteFailed("book.typ", plain)))
	assert.False(t, IsRetryable(configErr))
}

func TestRecoverFault(t *testing.T) {
	run := func() (err error) {
		defer RecoverFault(&err)
		Faultf("end tag %s does not match %s", "Strong", "Emphasis")
		return nil
	}

	err := run()
	require.Error(t, err)
	assert.True(t, IsFault(err))
	assert.True(t, IsCategory(err, CategoryInternal))
	assert.Contains(t, err.Error(), "end tag Strong does not match Emphasis")
}

func TestRecoverFault_RepanicsForeignValues(t *testing.T) {
	run := func() (err error) {
		defer RecoverFault(&err)
		panic("not ours")
	}
	assert.PanicsWithValue(t, "not ours", func() { _ = run() })
}

func TestRecoverFault_NoPanic(t *testing.T) {
	run := func() (err error) {
		defer RecoverFault(&err)
		return nil
	}
	assert.NoError(t, run())
}

func TestCLIErrorAdapter(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	assert.Equal(t, 0, a.ExitCodeFor(nil))
	assert.Equal(t, 1, a.ExitCodeFor(stderrors.New("x")))
	assert.Equal(t, 7, a.ExitCodeFor(ConfigNotFound("c.yaml")))
	assert.Equal(t, 2, a.ExitCodeFor(ValidationFailed("book.root", "empty")))
	assert.Equal(t, 11, a.ExitCodeFor(BookLoadFailed("/b", stderrors.New("x"))))
	assert.Equal(t, 10, a.ExitCodeFor(InternalError("bad", nil)))

	assert.Equal(t, "configuration file not found", a.FormatError(ConfigNotFound("c.yaml")))
	assert.Equal(t, "book: book could not be loaded: x", a.FormatError(BookLoadFailed("/b", stderrors.New("x"))))
	assert.Equal(t, "Error: x", a.FormatError(stderrors.New("x")))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, "config (fatal): configuration file not found", verbose.FormatError(ConfigNotFound("c.yaml")))
}
