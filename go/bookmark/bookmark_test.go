package bookmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCases(t *testing.T) {
	for _, tc := range []struct {
		name   string
		input  string
		expect time.Time
		valid  bool
	}{
		{
			name:   "well-formed",
			input:  "20250321T135900.0000000Z",
			expect: time.Date(2025, 3, 21, 13, 59, 0, 0, time.UTC),
			valid:  true,
		},
		{
			name:   "fractional seconds",
			input:  "20250321T135900.1234567Z",
			expect: time.Date(2025, 3, 21, 13, 59, 0, 123456700, time.UTC),
			valid:  true,
		},
		{
			name:   "trailing comma tail is truncated",
			input:  "20250321T135900.0000000Z,journal=RECALL/TICKET/HISTORY",
			expect: time.Date(2025, 3, 21, 13, 59, 0, 0, time.UTC),
			valid:  true,
		},
		{name: "empty means no filter", input: "", valid: false},
		{name: "comma only", input: ",tail", valid: false},
		{name: "malformed downgrades to no filter", input: "2025-03-21T13:59:00Z", valid: false},
		{name: "truncated fraction", input: "20250321T135900.00Z", valid: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var parsed, ok = Parse(tc.input)
			require.Equal(t, tc.valid, ok)
			if tc.valid {
				require.True(t, parsed.Equal(tc.expect))
			}
		})
	}
}

func TestBookmarkExcludes(t *testing.T) {
	var at, ok = Parse("20250321T135900.0000000Z")
	require.True(t, ok)
	var b = Bookmark{Time: at, Valid: true}

	// Strictly-after is excluded; at or before is kept.
	require.True(t, b.Excludes(at.Add(time.Nanosecond)))
	require.True(t, b.Excludes(at.Add(time.Minute)))
	require.False(t, b.Excludes(at))
	require.False(t, b.Excludes(at.Add(-time.Minute)))

	// A no-filter bookmark excludes nothing.
	require.False(t, Bookmark{}.Excludes(at.Add(time.Hour)))
}
