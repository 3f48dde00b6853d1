package config

import (
	"time"

	"git.home.luguber.info/inful/booktypst/internal/foundation/normalization"
)

// RetryBackoffMode selects how the delay between write retries grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, RetryBackoffLinear)

// RetryConfig controls retries of transient output write failures.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    string           `yaml:"initial"`
	Max        string           `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// Durations parses Initial and Max. Validate guarantees both parse.
func (r RetryConfig) Durations() (initial, maxDelay time.Duration) {
	initial, _ = time.ParseDuration(r.Initial)
	maxDelay, _ = time.ParseDuration(r.Max)
	return initial, maxDelay
}
