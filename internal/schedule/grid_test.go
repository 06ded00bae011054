package schedule

import (
	"testing"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGrid_Reasons(t *testing.T) {
	everyDay := model.Member{ID: uuid.New()}
	mondays := model.Member{ID: uuid.New(), WorkingDays: model.NewWeekdaySet(model.Monday)}

	busy := scheduledDemand(model.DemandStatusInProgress, everyDay.ID, "2025-10-20", "09:00")
	idx, _ := BuildConflictIndex([]model.Demand{busy}, model.DefaultStatusPolicy())

	dates, err := GenerateDateRange("2025-10-20", 2) // понедельник, вторник
	require.NoError(t, err)
	slots, err := GenerateTimeSlots(9, 10, 30)
	require.NoError(t, err)

	grid := ComputeGrid([]model.Member{everyDay, mondays}, dates, slots, idx)

	require.Len(t, grid.Members, 2)
	assert.Equal(t, everyDay.ID, grid.Members[0].MemberID)
	assert.Equal(t, 2*2*3, grid.Cells())

	entry, ok := grid.At(everyDay.ID, dates[0], model.MustParseClockTime("09:00"))
	require.True(t, ok)
	assert.Equal(t, model.ReasonConflict, entry.Reason)
	require.NotNil(t, entry.ConflictingDemandID)
	assert.Equal(t, busy.ID, *entry.ConflictingDemandID)
	assert.False(t, entry.Available())

	entry, _ = grid.At(everyDay.ID, dates[0], model.MustParseClockTime("09:30"))
	assert.Equal(t, model.ReasonAvailable, entry.Reason)
	assert.Nil(t, entry.ConflictingDemandID)

	entry, _ = grid.At(mondays.ID, dates[0], model.MustParseClockTime("10:00"))
	assert.True(t, entry.Available())

	entry, _ = grid.At(mondays.ID, dates[1], model.MustParseClockTime("10:00"))
	assert.Equal(t, model.ReasonNotWorkingDay, entry.Reason)

	_, ok = grid.At(uuid.New(), dates[0], model.MustParseClockTime("09:00"))
	assert.False(t, ok)
}

func TestComputeGrid_NotWorkingDayWinsOverConflict(t *testing.T) {
	member := model.Member{ID: uuid.New(), WorkingDays: model.NewWeekdaySet(model.Monday)}
	// Заявка во вторник на участника, который по вторникам не работает
	busy := scheduledDemand(model.DemandStatusInProgress, member.ID, "2025-10-21", "09:00")
	idx, _ := BuildConflictIndex([]model.Demand{busy}, model.DefaultStatusPolicy())

	dates, _ := GenerateDateRange("2025-10-20", 7)
	slots, _ := GenerateTimeSlots(8, 12, 60)
	grid := ComputeGrid([]model.Member{member}, dates, slots, idx)

	for d, date := range dates {
		for s := range slots {
			entry := grid.Members[0].Entries[d][s]
			if !IsWorkingDay(member.WorkingDays, date) {
				assert.Equal(t, model.ReasonNotWorkingDay, entry.Reason)
				assert.Nil(t, entry.ConflictingDemandID)
			}
			assert.NotEqual(t, model.ReasonConflict, entry.Reason)
		}
	}
}

func TestComputeGrid_Deterministic(t *testing.T) {
	members := []model.Member{
		{ID: uuid.New(), WorkingDays: model.NewWeekdaySet(model.Monday, model.Wednesday)},
		{ID: uuid.New()},
	}
	demands := []model.Demand{
		scheduledDemand(model.DemandStatusPending, members[1].ID, "2025-10-22", "14:00"),
	}
	dates, _ := GenerateDateRange("2025-10-20", 5)
	slots, _ := GenerateTimeSlots(8, 18, 60)

	idx1, _ := BuildConflictIndex(demands, model.DefaultStatusPolicy())
	idx2, _ := BuildConflictIndex(demands, model.DefaultStatusPolicy())

	first := ComputeGrid(members, dates, slots, idx1)
	second := ComputeGrid(members, dates, slots, idx2)
	assert.Equal(t, first.Members, second.Members)
}

func TestComputeGrid_FreeMembers(t *testing.T) {
	a := model.Member{ID: uuid.New()}
	b := model.Member{ID: uuid.New()}
	c := model.Member{ID: uuid.New(), WorkingDays: model.NewWeekdaySet(model.Friday)}

	busy := scheduledDemand(model.DemandStatusInProgress, a.ID, "2025-10-20", "09:00")
	idx, _ := BuildConflictIndex([]model.Demand{busy}, model.DefaultStatusPolicy())

	dates, _ := GenerateDateRange("2025-10-20", 1)
	slots, _ := GenerateTimeSlots(9, 10, 60)
	grid := ComputeGrid([]model.Member{a, b, c}, dates, slots, idx)

	assert.Equal(t, []uuid.UUID{b.ID}, grid.FreeMembers(dates[0], model.MustParseClockTime("09:00")))
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, grid.FreeMembers(dates[0], model.MustParseClockTime("10:00")))
	assert.Nil(t, grid.FreeMembers(dates[0], model.MustParseClockTime("11:00")))
}

func TestComputeGrid_EmptyMembers(t *testing.T) {
	dates, _ := GenerateDateRange("2025-10-20", 3)
	slots, _ := GenerateTimeSlots(9, 10, 60)

	grid := ComputeGrid(nil, dates, slots, ConflictIndex{})
	assert.Empty(t, grid.Members)
	assert.Equal(t, 0, grid.Cells())
}
