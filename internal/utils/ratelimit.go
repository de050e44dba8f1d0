package utils

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ParseRate parses a "N/unit" rate-limit spec (e.g. "100/minute") into a
// token-bucket limiter, matching the reference service's rate-limit config
// format exactly.
func ParseRate(spec string) (*rate.Limiter, error) {
	var numericPart, unitPart string
	reached := false
	for _, r := range spec {
		if r == '/' {
			reached = true
			continue
		}
		if !reached {
			numericPart += string(r)
		} else {
			unitPart += string(r)
		}
	}

	num, err := strconv.Atoi(numericPart)
	if err != nil {
		return nil, fmt.Errorf("parseRate: invalid numeric part in %q: %w", spec, err)
	}
	if num <= 0 {
		return nil, fmt.Errorf("parseRate: numeric part of %q must be positive", spec)
	}

	var duration time.Duration
	switch unitPart {
	case "s", "sec", "second":
		duration = time.Second
	case "m", "min", "minute":
		duration = time.Minute
	case "h", "hour":
		duration = time.Hour
	default:
		return nil, fmt.Errorf("parseRate: unsupported unit %q in %q", unitPart, spec)
	}

	every := duration / time.Duration(num)
	return rate.NewLimiter(rate.Every(every), num), nil
}
