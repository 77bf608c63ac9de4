package config

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// MinRequestIntervalMillis is the smallest pause allowed between upstream
	// calls; Reddit and AniList both throttle clients that go faster.
	MinRequestIntervalMillis = 1000

	MinTokenLengthFloor   = 3
	MinTokenLengthCeiling = 4
)

var validListings = map[string]struct{}{"hot": {}, "new": {}, "top": {}, "rising": {}}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateRefresh(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if m.MinTokenLength < MinTokenLengthFloor || m.MinTokenLength > MinTokenLengthCeiling {
		return fmt.Errorf("matching.min_token_length must be between %d and %d", MinTokenLengthFloor, MinTokenLengthCeiling)
	}
	if m.FuzzyThreshold <= 0 || m.FuzzyThreshold > 100 {
		return errors.New("matching.fuzzy_threshold must be between 0 and 100")
	}
	if m.HighFuzzyOverride <= 0 || m.HighFuzzyOverride > 100 {
		return errors.New("matching.high_fuzzy_override must be between 0 and 100")
	}
	if m.HighFuzzyOverride < m.FuzzyThreshold {
		return errors.New("matching.high_fuzzy_override must be >= matching.fuzzy_threshold")
	}
	return nil
}

func (c *Config) validateRefresh() error {
	if err := ensurePositiveMap(map[string]int{
		"refresh.season_count":              c.Refresh.SeasonCount,
		"refresh.episode_count":             c.Refresh.EpisodeCount,
		"refresh.max_consecutive_throttles": c.Refresh.MaxConsecutiveThrottles,
	}); err != nil {
		return err
	}
	if c.Refresh.RequestIntervalMillis < MinRequestIntervalMillis {
		return fmt.Errorf("refresh.request_interval_ms must be >= %d", MinRequestIntervalMillis)
	}
	if c.Refresh.ThrottleCooldownSeconds < 0 {
		return errors.New("refresh.throttle_cooldown_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateSources() error {
	if len(c.AniList.Formats) == 0 {
		return errors.New("anilist.formats must include at least one media format")
	}
	if len(c.Reddit.Listings) == 0 {
		return errors.New("reddit.listings must include at least one listing")
	}
	for _, listing := range c.Reddit.Listings {
		if _, ok := validListings[listing]; !ok {
			return fmt.Errorf("reddit.listings: unknown listing %q", listing)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
