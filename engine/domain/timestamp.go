// Package domain defines core value types, timestamp handling, and validation
// for the Vidquest engine. It acts as the validation gate at pipeline entry
// points; timestamps stay textual (HH:MM:SS.mmm) end to end and are only
// converted to seconds for validation and ordering.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimestamp converts "HH:MM:SS", "MM:SS" or "HH:MM:SS.mmm" to seconds.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return 0, fmt.Errorf("parse timestamp: %w", ErrBadTimestamp)
	}

	var frac float64
	base := ts
	if i := strings.IndexByte(ts, '.'); i >= 0 {
		base = ts[:i]
		f, err := strconv.ParseFloat("0"+ts[i:], 64)
		if err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", ts, ErrBadTimestamp)
		}
		frac = f
	}

	parts := strings.Split(base, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("parse timestamp %q: %w", ts, ErrBadTimestamp)
	}
	var secs float64
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("parse timestamp %q: %w", ts, ErrBadTimestamp)
		}
		secs = secs*60 + float64(n)
	}
	return secs + frac, nil
}

// SanitizeTimestamp makes a timestamp safe for use in a file name by
// replacing the ':' and '.' separators with '-'.
func SanitizeTimestamp(ts string) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts)
}

// ValidateQuery checks that a user query is non-empty after trimming.
// This is a hard precondition: nothing downstream runs for an empty query.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return E(KindValidation, "validate query", ErrEmptyQuery)
	}
	return nil
}

// ValidateSearchParams checks limit and minScore bounds.
func ValidateSearchParams(limit int, minScore float32) error {
	if limit < 1 {
		return E(KindValidation, "validate limit", ErrInvalidLimit)
	}
	if minScore < 0 || minScore > 1 {
		return E(KindValidation, "validate min score", ErrInvalidScore)
	}
	return nil
}
