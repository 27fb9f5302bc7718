package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses value as a time.Duration, substituting defaultValue
// when value is blank. Timeouts are kept as strings in the config file so the
// YAML stays readable ("45s", "2m"); this is the single place they turn into
// durations.
func DurationOrDefault(value string, defaultValue string) (time.Duration, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		raw = strings.TrimSpace(defaultValue)
	}
	if raw == "" {
		return 0, fmt.Errorf("no duration configured and no default given")
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return d, nil
}
