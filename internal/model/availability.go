package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// AvailabilityReason причина состояния ячейки сетки
type AvailabilityReason string

const (
	ReasonAvailable     AvailabilityReason = "available"
	ReasonNotWorkingDay AvailabilityReason = "not-working-day"
	ReasonConflict      AvailabilityReason = "conflict"
)

// AvailabilityEntry состояние одной тройки (участник, дата, время)
type AvailabilityEntry struct {
	Reason              AvailabilityReason `json:"reason"`
	ConflictingDemandID *uuid.UUID         `json:"conflicting_demand_id,omitempty"`
}

func (e AvailabilityEntry) Available() bool {
	return e.Reason == ReasonAvailable
}

// MarshalJSON добавляет вычисляемый флаг available
func (e AvailabilityEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Available           bool               `json:"available"`
		Reason              AvailabilityReason `json:"reason"`
		ConflictingDemandID *uuid.UUID         `json:"conflicting_demand_id,omitempty"`
	}{
		Available:           e.Available(),
		Reason:              e.Reason,
		ConflictingDemandID: e.ConflictingDemandID,
	})
}

// SlotCheck результат проверки одного слота валидатором
type SlotCheck struct {
	Available           bool           `json:"available"`
	Reason              ConflictReason `json:"reason,omitempty"`
	ConflictingDemandID *uuid.UUID     `json:"conflicting_demand_id,omitempty"`
}

// MemberAvailability строка сетки: Entries[dateIdx][slotIdx]
type MemberAvailability struct {
	MemberID uuid.UUID             `json:"member_id"`
	Entries  [][]AvailabilityEntry `json:"entries"`
}

// AvailabilityGrid матрица участники × даты × слоты фиксированной формы
type AvailabilityGrid struct {
	Dates   []Date               `json:"dates"`
	Slots   []ClockTime          `json:"slots"`
	Members []MemberAvailability `json:"members"`

	dateIdx   map[Date]int
	slotIdx   map[ClockTime]int
	memberIdx map[uuid.UUID]int
}

// NewAvailabilityGrid выделяет сетку нужной формы; все ячейки пустые до заполнения
func NewAvailabilityGrid(memberIDs []uuid.UUID, dates []Date, slots []ClockTime) *AvailabilityGrid {
	g := &AvailabilityGrid{
		Dates:     dates,
		Slots:     slots,
		Members:   make([]MemberAvailability, len(memberIDs)),
		dateIdx:   make(map[Date]int, len(dates)),
		slotIdx:   make(map[ClockTime]int, len(slots)),
		memberIdx: make(map[uuid.UUID]int, len(memberIDs)),
	}

	for i, d := range dates {
		g.dateIdx[d] = i
	}
	for i, s := range slots {
		g.slotIdx[s] = i
	}

	for i, id := range memberIDs {
		g.memberIdx[id] = i
		entries := make([][]AvailabilityEntry, len(dates))
		for d := range entries {
			entries[d] = make([]AvailabilityEntry, len(slots))
		}
		g.Members[i] = MemberAvailability{MemberID: id, Entries: entries}
	}

	return g
}

// At возвращает ячейку; ok=false если координата вне сетки
func (g *AvailabilityGrid) At(memberID uuid.UUID, date Date, t ClockTime) (AvailabilityEntry, bool) {
	m, ok := g.memberIdx[memberID]
	if !ok {
		return AvailabilityEntry{}, false
	}
	d, ok := g.dateIdx[date]
	if !ok {
		return AvailabilityEntry{}, false
	}
	s, ok := g.slotIdx[t]
	if !ok {
		return AvailabilityEntry{}, false
	}
	return g.Members[m].Entries[d][s], true
}

// FreeMembers участники, свободные в слоте, в порядке строк сетки
func (g *AvailabilityGrid) FreeMembers(date Date, t ClockTime) []uuid.UUID {
	d, ok := g.dateIdx[date]
	if !ok {
		return nil
	}
	s, ok := g.slotIdx[t]
	if !ok {
		return nil
	}

	var free []uuid.UUID
	for _, row := range g.Members {
		if row.Entries[d][s].Available() {
			free = append(free, row.MemberID)
		}
	}
	return free
}

// Cells общее количество ячеек
func (g *AvailabilityGrid) Cells() int {
	return len(g.Members) * len(g.Dates) * len(g.Slots)
}
