package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyBook        = "book"
	KeyChapter     = "chapter"
	KeyStage       = "stage"
	KeyOutput      = "output"
	KeyEvents      = "events"
	KeyBytes       = "bytes"
	KeyFingerprint = "fingerprint"
	KeyPath        = "path"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Book(root string) slog.Attr       { return slog.String(KeyBook, root) }
func Chapter(name string) slog.Attr    { return slog.String(KeyChapter, name) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Output(path string) slog.Attr     { return slog.String(KeyOutput, path) }
func Events(n int) slog.Attr           { return slog.Int(KeyEvents, n) }
func Bytes(n int) slog.Attr            { return slog.Int(KeyBytes, n) }
func Fingerprint(fp string) slog.Attr  { return slog.String(KeyFingerprint, fp) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
