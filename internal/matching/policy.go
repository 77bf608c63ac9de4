package matching

import (
	"fmt"

	"animethreads/internal/config"
)

// Default thresholds.
const (
	DefaultMinTokenMatch     = 2
	DefaultFuzzyThreshold    = 80.0
	DefaultHighFuzzyOverride = 85.0
)

// Policy holds the immutable gating and acceptance thresholds.
type Policy struct {
	MinTokenMatch     int
	FuzzyThreshold    float64
	HighFuzzyOverride float64
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinTokenMatch:     DefaultMinTokenMatch,
		FuzzyThreshold:    DefaultFuzzyThreshold,
		HighFuzzyOverride: DefaultHighFuzzyOverride,
	}
}

// PolicyFromConfig builds a policy from the matching config section.
func PolicyFromConfig(cfg config.Matching) Policy {
	return Policy{
		MinTokenMatch:     cfg.MinTokenMatch,
		FuzzyThreshold:    cfg.FuzzyThreshold,
		HighFuzzyOverride: cfg.HighFuzzyOverride,
	}
}

// Validate rejects thresholds outside 0-100 and non-positive token counts.
func (p Policy) Validate() error {
	if p.MinTokenMatch < 1 {
		return fmt.Errorf("min token match must be positive, got %d", p.MinTokenMatch)
	}
	if p.FuzzyThreshold < 0 || p.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold out of range: %v", p.FuzzyThreshold)
	}
	if p.HighFuzzyOverride < 0 || p.HighFuzzyOverride > 100 {
		return fmt.Errorf("high fuzzy override out of range: %v", p.HighFuzzyOverride)
	}
	return nil
}
