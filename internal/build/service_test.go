package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/booktypst/internal/convert"
	"git.home.luguber.info/inful/booktypst/internal/errors"
	"git.home.luguber.info/inful/booktypst/internal/mdbook"
	"git.home.luguber.info/inful/booktypst/internal/metrics"
	"git.home.luguber.info/inful/booktypst/internal/retry"
)

const wantMarkup = "#set document(title: \"Demo\")\n" +
	"#set document(author: (\"Ann\",\"Bo\"))\n" +
	"= Intro\n" +
	"#par()[Hello #emph[world].]\n" +
	"#pagebreak(weak: true)\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func writeBook(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "book.toml"), "[book]\ntitle = \"Demo\"\nauthors = [\"Ann\", \"Bo\"]\n")
	writeFile(t, filepath.Join(root, "src", "SUMMARY.md"), "# Summary\n\n- [Intro](intro.md)\n")
	writeFile(t, filepath.Join(root, "src", "intro.md"), "---\ntitle: Intro\n---\nHello *world*.\n")
	return root
}

type testRecorder struct {
	metrics.NoopRecorder
	stageResults map[string]metrics.ResultLabel
	outcomes     []metrics.OutcomeLabel
	events       int
	chapters     int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stageResults: map[string]metrics.ResultLabel{}}
}

func (r *testRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.stageResults[stage] = result
}
func (r *testRecorder) IncConversionOutcome(o metrics.OutcomeLabel) { r.outcomes = append(r.outcomes, o) }
func (r *testRecorder) AddEvents(n int)                             { r.events += n }
func (r *testRecorder) SetChapters(n int)                           { r.chapters = n }

func TestStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusSuccess, true},
		{StatusSkipped, true},
		{StatusFailed, false},
		{StatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsSuccess())
		})
	}
}

func TestRun_WritesOutput(t *testing.T) {
	root := writeBook(t)
	out := filepath.Join(t.TempDir(), "nested", "book.typ")
	rec := newTestRecorder()

	res, err := NewService().WithRecorder(rec).Run(context.Background(), Request{
		BookRoot: root,
		Output:   out,
		Options:  convert.DefaultOptions(),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	if diff := cmp.Diff(wantMarkup, string(data)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, StatusSuccess, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, res.Chapters)
	assert.Equal(t, len(wantMarkup), res.Bytes)
	assert.Positive(t, res.Events)
	assert.NotEmpty(t, res.Fingerprint)
	assert.False(t, res.EndTime.Before(res.StartTime))

	for _, phase := range []string{PhaseLoad, PhaseParse, PhaseRender, PhaseWrite} {
		assert.Equal(t, metrics.ResultSuccess, rec.stageResults[phase], phase)
	}
	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeSuccess}, rec.outcomes)
	assert.Equal(t, res.Events, rec.events)
	assert.Equal(t, 1, rec.chapters)

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRun_DryRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "book.typ")
	res, err := NewService().Run(context.Background(), Request{
		BookRoot: writeBook(t),
		Output:   out,
		Options:  convert.DefaultOptions(),
		DryRun:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, len(wantMarkup), res.Bytes)
	assert.NoFileExists(t, out)
}

func TestRun_SkipIfUnchanged(t *testing.T) {
	root := writeBook(t)
	out := filepath.Join(t.TempDir(), "book.typ")
	svc := NewService()

	first, err := svc.Run(context.Background(), Request{BookRoot: root, Output: out, Options: convert.DefaultOptions()})
	require.NoError(t, err)
	require.NoError(t, os.Remove(out))

	second, err := svc.Run(context.Background(), Request{
		BookRoot:            root,
		Output:              out,
		Options:             convert.DefaultOptions(),
		SkipIfUnchanged:     true,
		PreviousFingerprint: first.Fingerprint,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.True(t, second.Skipped)
	assert.Equal(t, "no_changes", second.SkipReason)
	assert.NoFileExists(t, out)

	writeFile(t, filepath.Join(root, "src", "intro.md"), "Changed.\n")
	third, err := svc.Run(context.Background(), Request{
		BookRoot:            root,
		Output:              out,
		Options:             convert.DefaultOptions(),
		SkipIfUnchanged:     true,
		PreviousFingerprint: first.Fingerprint,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, third.Status)
	assert.FileExists(t, out)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) Request
		category errors.ErrorCategory
	}{
		{
			name:     "missing book root",
			req:      func(*testing.T) Request { return Request{Output: "x.typ"} },
			category: errors.CategoryValidation,
		},
		{
			name:     "missing output",
			req:      func(t *testing.T) Request { return Request{BookRoot: writeBook(t)} },
			category: errors.CategoryValidation,
		},
		{
			name: "missing summary",
			req: func(t *testing.T) Request {
				return Request{BookRoot: t.TempDir(), Output: filepath.Join(t.TempDir(), "b.typ")}
			},
			category: errors.CategoryBook,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewService().Run(context.Background(), tt.req(t))
			require.Error(t, err)
			assert.Equal(t, tt.category, errors.GetCategory(err))
			assert.Equal(t, StatusFailed, res.Status)
		})
	}
}

func TestRun_WriteFailureIsRetryable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	rec := newTestRecorder()

	res, err := NewService().
		WithRecorder(rec).
		WithRetryPolicy(retry.NewPolicy("", time.Millisecond, time.Millisecond, 2)).
		Run(context.Background(), Request{
			BookRoot: writeBook(t),
			Output:   filepath.Join(blocker, "book.typ"),
			Options:  convert.DefaultOptions(),
		})
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, metrics.ResultFailed, rec.stageResults[PhaseWrite])
}

func TestWithRetryPolicyIgnoresInvalidPolicy(t *testing.T) {
	svc := NewService().WithRetryPolicy(retry.Policy{Initial: time.Second, Max: time.Second, MaxRetries: 5})
	assert.Equal(t, 5, svc.retry.MaxRetries)

	svc.WithRetryPolicy(retry.Policy{Max: time.Second, MaxRetries: 9})
	assert.Equal(t, 5, svc.retry.MaxRetries)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := newTestRecorder()

	res, err := NewService().WithRecorder(rec).Run(ctx, Request{BookRoot: writeBook(t), Output: "unused.typ"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, metrics.ResultCanceled, rec.stageResults[PhaseLoad])
	assert.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeCanceled}, rec.outcomes)
}

func TestRun_RecoversFaults(t *testing.T) {
	svc := NewService().WithLoader(func(string) (*mdbook.Book, error) {
		errors.Faultf("loader invariant broken")
		return nil, nil
	})

	res, err := svc.Run(context.Background(), Request{BookRoot: "book", DryRun: true})
	require.Error(t, err)
	assert.True(t, errors.IsFault(err))
	assert.Equal(t, StatusFailed, res.Status)
	assert.GreaterOrEqual(t, res.Duration, time.Duration(0))
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.typ")
	require.NoError(t, writeAtomic(path, []byte("first")))
	require.NoError(t, writeAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	err = writeAtomic(filepath.Join(blocker, "out.typ"), []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileSystem))
}
