package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSlots(t *testing.T) {
	slots := DecodeSlots("월 9:00-10:30, 수 9:00-10:30")
	require.Len(t, slots, 2)
	assert.Equal(t, Slot{Day: "월", Start: "9:00", End: "10:30"}, slots[0])
	assert.Equal(t, Slot{Day: "수", Start: "9:00", End: "10:30"}, slots[1])
}

func TestDecodeSlotsDropsMalformedTokens(t *testing.T) {
	slots := DecodeSlots("월 9:00-10:30, garbage, 수 14:00, 금 16:00-17:30")
	require.Len(t, slots, 2)
	assert.Equal(t, "월", slots[0].Day)
	assert.Equal(t, "금", slots[1].Day)
}

func TestDecodeSlotsLastDayWins(t *testing.T) {
	slots := DecodeSlots("월 9:00-10:30, 월 14:00-15:30")
	require.Len(t, slots, 1)
	assert.Equal(t, Slot{Day: "월", Start: "14:00", End: "15:30"}, slots[0])
}

func TestDecodeSlotsEmpty(t *testing.T) {
	assert.Empty(t, DecodeSlots(""))
	assert.Empty(t, DecodeSlots("  ,  ,  "))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []Slot{
		{Day: "월", Start: "9:00", End: "10:30"},
		{Day: "수", Start: "14:00", End: "15:30"},
		{Day: "금", Start: "16:00", End: "17:30"},
	}
	encoded := EncodeSlots(in)
	assert.Equal(t, "월 9:00-10:30, 수 14:00-15:30, 금 16:00-17:30", encoded)
	assert.Equal(t, in, DecodeSlots(encoded))
}

func TestParseScheduleStrict(t *testing.T) {
	slots, err := ParseSchedule("화 13:00-14:30, 목 13:00-14:30")
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	cases := map[string]string{
		"empty":         "",
		"missing range": "월 9:00",
		"unknown day":   "foo 9:00-10:30",
		"duplicate day": "월 9:00-10:30, 월 14:00-15:00",
		"bad clock":     "월 9:00-25:00",
		"inverted":      "월 10:30-9:00",
		"zero length":   "월 9:00-9:00",
	}
	for name, input := range cases {
		_, err := ParseSchedule(input)
		assert.Error(t, err, name)
	}
}
