package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("9:00")
	require.NoError(t, err)
	assert.Equal(t, 540, c.Minutes())

	c, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23*60+59, c.Minutes())

	c, err = ParseClock(" 14:30 ")
	require.NoError(t, err)
	assert.Equal(t, "14:30", c.String())

	for _, bad := range []string{"", "900", "9:0", "9:000", "25:00", "9:60", "-1:00", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestClockString(t *testing.T) {
	c, err := ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, "9:05", c.String())
}

func TestDurationMinutes(t *testing.T) {
	assert.Equal(t, 90, DurationMinutes("9:00", "10:30"))
	assert.Equal(t, 0, DurationMinutes("9:00", "9:00"))

	// malformed inputs degrade to zero instead of failing the whole view
	assert.Equal(t, 0, DurationMinutes("nine", "10:30"))
	assert.Equal(t, 0, DurationMinutes("9:00", ""))

	// end before start clamps to zero
	assert.Equal(t, 0, DurationMinutes("22:00", "1:00"))
}

func TestSortDistinctTimes(t *testing.T) {
	got := SortDistinctTimes([]string{"14:00", "9:00", "14:00", "10:30", "9:00"})
	assert.Equal(t, []string{"9:00", "10:30", "14:00"}, got)
}

func TestSortDistinctTimesLexicalFallback(t *testing.T) {
	// one unparseable element forces the legacy lexical ordering
	got := SortDistinctTimes([]string{"9:00", "oops", "10:30"})
	assert.Equal(t, []string{"10:30", "9:00", "oops"}, got)
}

func TestSortDistinctTimesEmpty(t *testing.T) {
	assert.Empty(t, SortDistinctTimes(nil))
}
