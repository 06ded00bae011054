package schedule

import (
	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/google/uuid"
)

// ComputeGrid заполняет сетку участники × даты × слоты.
// Порядок проверки фиксирован: нерабочий день важнее конфликта, конфликт важнее "свободно"
func ComputeGrid(members []model.Member, dates []model.Date, slots []model.ClockTime, index ConflictIndex) *model.AvailabilityGrid {
	ids := make([]uuid.UUID, len(members))
	for i := range members {
		ids[i] = members[i].ID
	}

	grid := model.NewAvailabilityGrid(ids, dates, slots)

	for m := range members {
		member := &members[m]
		row := grid.Members[m].Entries

		for d, date := range dates {
			working := IsWorkingDay(member.WorkingDays, date)

			for s, slot := range slots {
				row[d][s] = evaluate(member.ID, date, slot, working, index)
			}
		}
	}

	return grid
}

func evaluate(memberID uuid.UUID, date model.Date, slot model.ClockTime, working bool, index ConflictIndex) model.AvailabilityEntry {
	if !working {
		return model.AvailabilityEntry{Reason: model.ReasonNotWorkingDay}
	}

	key := model.SlotKey{MemberID: memberID, Date: date, Time: slot}
	if demandID, busy := index.Lookup(key); busy {
		return model.AvailabilityEntry{Reason: model.ReasonConflict, ConflictingDemandID: &demandID}
	}

	return model.AvailabilityEntry{Reason: model.ReasonAvailable}
}
