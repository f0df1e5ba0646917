package utilities

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDurationSeconds converts a human-entered duration into whole seconds.
// Accepted forms: "512" (seconds), "8:32" (minutes:seconds), "1:05:07"
// (hours:minutes:seconds). Fractional parts truncate toward zero. Empty
// strings, extra colons and non-numeric parts all yield 0; durations never
// parse negative.
func ParseDurationSeconds(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return 0
			}
			n = int(f)
		}
		nums = append(nums, n)
	}

	var total int
	switch len(nums) {
	case 1:
		total = nums[0]
	case 2:
		total = nums[0]*60 + nums[1]
	case 3:
		total = nums[0]*3600 + nums[1]*60 + nums[2]
	default:
		return 0
	}

	if total < 0 {
		return 0
	}
	return total
}

// FormatSeconds renders whole seconds as "HH:MM:SS" for display payloads.
func FormatSeconds(sec int) string {
	if sec <= 0 {
		return "00:00:00"
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
