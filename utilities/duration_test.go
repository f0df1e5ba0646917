package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationSeconds(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   ", 0},
		{"bare seconds", "512", 512},
		{"minutes seconds", "8:32", 512},
		{"hours minutes seconds", "1:05:07", 3907},
		{"zero", "0", 0},
		{"padded parts", " 1 : 05 : 07 ", 3907},
		{"fractional seconds truncate", "12.5", 12},
		{"fractional minute part", "1.9:30", 90},
		{"non numeric", "abc", 0},
		{"not a number literal", "NaN", 0},
		{"partially numeric", "1:xx", 0},
		{"too many parts", "1:2:3:4", 0},
		{"negative total", "-30", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDurationSeconds(tc.raw))
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatSeconds(0))
	assert.Equal(t, "00:00:00", FormatSeconds(-5))
	assert.Equal(t, "00:08:32", FormatSeconds(512))
	assert.Equal(t, "01:05:07", FormatSeconds(3907))
	assert.Equal(t, "27:46:39", FormatSeconds(99999))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, raw := range []string{"512", "8:32", "1:05:07"} {
		sec := ParseDurationSeconds(raw)
		assert.Equal(t, sec, ParseDurationSeconds(FormatSeconds(sec)), "round trip for %q", raw)
	}
}
