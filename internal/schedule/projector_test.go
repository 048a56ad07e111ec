package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleClasses() []ClassSlots {
	return []ClassSlots{
		{
			ClassID:      "c1",
			ClassName:    "중3 수학A",
			TeacherLabel: "김민수 (수학)",
			Subject:      "수학",
			Room:         "101호",
			Slots: []Slot{
				{Day: "월", Start: "9:00", End: "10:30"},
				{Day: "수", Start: "9:00", End: "10:30"},
			},
		},
		{
			ClassID:      "c2",
			ClassName:    "고1 영어",
			TeacherLabel: "이서연 (영어)",
			Subject:      "영어",
			Room:         "102호",
			Slots: []Slot{
				{Day: "월", Start: "9:00", End: "11:00"},
			},
		},
		{
			ClassID:      "c3",
			ClassName:    "중3 수학B",
			TeacherLabel: "김민수 (수학)",
			Subject:      "수학",
			Room:         "과학실",
			Slots: []Slot{
				{Day: "월", Start: "14:00", End: "15:30"},
			},
		},
	}
}

func TestProjectWeekShape(t *testing.T) {
	grid := ProjectWeek(sampleClasses(), "")

	assert.Equal(t, Days, grid.Columns)
	require.Len(t, grid.Rows, 2)
	assert.Equal(t, "9:00", grid.Rows[0].Start)
	assert.Equal(t, "14:00", grid.Rows[1].Start)

	// every row is rectangular: one cell per weekday column
	for _, row := range grid.Rows {
		assert.Len(t, row.Cells, len(Days))
	}
}

func TestProjectWeekFanOut(t *testing.T) {
	grid := ProjectWeek(sampleClasses(), "")

	// two classes share Monday 9:00
	monday := grid.Rows[0].Cells[0]
	require.Len(t, monday.Entries, 2)
	assert.Equal(t, "c1", monday.Entries[0].ClassID)
	assert.Equal(t, "c2", monday.Entries[1].ClassID)
	assert.Equal(t, 90, monday.Entries[0].DurationMin)
	assert.Equal(t, 120, monday.Entries[1].DurationMin)

	// Wednesday cell holds the second slot of c1
	wednesday := grid.Rows[0].Cells[2]
	require.Len(t, wednesday.Entries, 1)
	assert.Equal(t, "c1", wednesday.Entries[0].ClassID)

	// Tuesday cell is present but empty
	assert.Empty(t, grid.Rows[0].Cells[1].Entries)
}

func TestProjectWeekMaxEnd(t *testing.T) {
	grid := ProjectWeek(sampleClasses(), "")

	// 9:00 row spans to the latest end among its entries, 11:00 from c2
	assert.Equal(t, "11:00", grid.Rows[0].MaxEnd)
	assert.Equal(t, "15:30", grid.Rows[1].MaxEnd)
}

func TestProjectWeekTeacherFilter(t *testing.T) {
	grid := ProjectWeek(sampleClasses(), "김민수")

	require.Len(t, grid.Rows, 2)
	monday := grid.Rows[0].Cells[0]
	require.Len(t, monday.Entries, 1)
	assert.Equal(t, "c1", monday.Entries[0].ClassID)

	// substring match works on partial names too
	partial := ProjectWeek(sampleClasses(), "민수")
	assert.Len(t, partial.Rows, 2)

	none := ProjectWeek(sampleClasses(), "없는선생")
	assert.Empty(t, none.Rows)
}

func TestProjectWeekSkipsUnknownDays(t *testing.T) {
	classes := []ClassSlots{{
		ClassID: "c9",
		Slots:   []Slot{{Day: "fun", Start: "9:00", End: "10:00"}},
	}}
	grid := ProjectWeek(classes, "")
	assert.Empty(t, grid.Rows)
}

func TestProjectDay(t *testing.T) {
	rooms := []string{"기타", "101호", "102호"}
	grid := ProjectDay(sampleClasses(), "월", rooms)

	assert.Equal(t, rooms, grid.Columns)
	require.Len(t, grid.Rows, 2)

	// c1 lands in its own room
	require.Len(t, grid.Rows[0].Cells[1].Entries, 1)
	assert.Equal(t, "c1", grid.Rows[0].Cells[1].Entries[0].ClassID)

	// c3's room is not configured, so it collapses into the catch-all
	require.Len(t, grid.Rows[1].Cells[0].Entries, 1)
	assert.Equal(t, "c3", grid.Rows[1].Cells[0].Entries[0].ClassID)
}

func TestProjectDayOtherWeekday(t *testing.T) {
	grid := ProjectDay(sampleClasses(), "금", []string{"기타", "101호"})
	assert.Empty(t, grid.Rows)
}
