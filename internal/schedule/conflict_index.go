package schedule

import (
	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/google/uuid"
)

// ConflictIndex занятые слоты: (участник, дата, время) -> id заявки
type ConflictIndex struct {
	byKey map[model.SlotKey]uuid.UUID
}

// BuildConflictIndex учитывает только заявки в блокирующих статусах, у которых есть исполнитель и расписание.
// При совпадении ключей остаётся первая заявка, а дубликат возвращается как DataInconsistency
func BuildConflictIndex(demands []model.Demand, policy model.StatusPolicy) (ConflictIndex, []model.DataInconsistency) {
	idx := ConflictIndex{byKey: make(map[model.SlotKey]uuid.UUID, len(demands))}
	var anomalies []model.DataInconsistency

	for i := range demands {
		demand := &demands[i]
		if !policy.IsBlocking(demand.Status) {
			continue
		}

		key, ok := demand.SlotKey()
		if !ok {
			continue
		}

		if kept, exists := idx.byKey[key]; exists {
			anomalies = append(anomalies, model.DataInconsistency{
				Key:         key,
				KeptID:      kept,
				DuplicateID: demand.ID,
			})
			continue
		}

		idx.byKey[key] = demand.ID
	}

	return idx, anomalies
}

// Lookup возвращает заявку, занимающую слот
func (c ConflictIndex) Lookup(key model.SlotKey) (uuid.UUID, bool) {
	id, ok := c.byKey[key]
	return id, ok
}

func (c ConflictIndex) Len() int {
	return len(c.byKey)
}
