package config

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/booktypst/internal/convert"
	"git.home.luguber.info/inful/booktypst/internal/errors"
)

// Normalize case-folds enumerations and stage names in place and returns
// a warning for every value it had to change.
func Normalize(cfg *Config) []string {
	var warnings []string

	if raw := string(cfg.Logging.Level); raw != "" {
		if logLevelNormalizer.Changed(raw) {
			warnings = append(warnings, fmt.Sprintf("logging.level %q normalized", raw))
		}
		if v, err := logLevelNormalizer.NormalizeWithError(raw); err == nil {
			cfg.Logging.Level = v
		}
	} else {
		cfg.Logging.Level = LogLevelInfo
	}

	if raw := string(cfg.Logging.Format); raw != "" {
		if logFormatNormalizer.Changed(raw) {
			warnings = append(warnings, fmt.Sprintf("logging.format %q normalized", raw))
		}
		if v, err := logFormatNormalizer.NormalizeWithError(raw); err == nil {
			cfg.Logging.Format = v
		}
	} else {
		cfg.Logging.Format = LogFormatText
	}

	if len(cfg.Stages) > 0 {
		stages := make(map[string]bool, len(cfg.Stages))
		for name, enabled := range cfg.Stages {
			folded := strings.ToLower(strings.TrimSpace(name))
			if folded != name {
				warnings = append(warnings, fmt.Sprintf("stage %q normalized to %q", name, folded))
			}
			stages[folded] = enabled
		}
		cfg.Stages = stages
	}

	if mode, err := retryBackoffNormalizer.NormalizeWithError(string(cfg.Retry.Backoff)); err == nil {
		cfg.Retry.Backoff = mode
	}
	cfg.Book.Root = strings.TrimSpace(cfg.Book.Root)
	cfg.Book.Output = strings.TrimSpace(cfg.Book.Output)
	return warnings
}

// Validate checks a normalized configuration.
func Validate(cfg *Config) error {
	if cfg.Book.Root == "" {
		return errors.ValidationFailed("book.root", "must not be empty")
	}
	if cfg.Book.Output == "" {
		return errors.ValidationFailed("book.output", "must not be empty")
	}

	for name := range cfg.Stages {
		if err := (&convert.Options{}).Set(name, true); err != nil {
			return errors.ValidationFailed("stages", err.Error())
		}
	}

	if _, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level)); err != nil {
		return errors.ValidationFailed("logging.level", err.Error())
	}
	if _, err := logFormatNormalizer.NormalizeWithError(string(cfg.Logging.Format)); err != nil {
		return errors.ValidationFailed("logging.format", err.Error())
	}

	m := cfg.Monitoring.Metrics
	if m.Enabled {
		if m.Listen == "" {
			return errors.ValidationFailed("monitoring.metrics.listen", "must not be empty when metrics are enabled")
		}
		if !strings.HasPrefix(m.Path, "/") {
			return errors.ValidationFailed("monitoring.metrics.path", "must start with /")
		}
	}

	d, err := time.ParseDuration(cfg.Watch.Debounce)
	if err != nil {
		return errors.ValidationFailed("watch.debounce", err.Error())
	}
	if d < 0 {
		return errors.ValidationFailed("watch.debounce", "must not be negative")
	}
	return validateRetry(cfg.Retry)
}

func validateRetry(r RetryConfig) error {
	if _, err := retryBackoffNormalizer.NormalizeWithError(string(r.Backoff)); err != nil {
		return errors.ValidationFailed("retry.backoff", err.Error())
	}
	for field, raw := range map[string]string{"retry.initial": r.Initial, "retry.max": r.Max} {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.ValidationFailed(field, err.Error())
		}
		if d <= 0 {
			return errors.ValidationFailed(field, "must be positive")
		}
	}
	if r.MaxRetries < 0 {
		return errors.ValidationFailed("retry.max_retries", "must not be negative")
	}
	return nil
}
