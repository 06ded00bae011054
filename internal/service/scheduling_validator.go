package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/Freeeeeet/demand_scheduler/internal/schedule"
	"github.com/google/uuid"
)

// SchedulingValidator проверка одного слота. Использует те же правила, что и сетка доступности
type SchedulingValidator struct {
	demands BookingReader
	policy  model.StatusPolicy
}

func NewSchedulingValidator(demands BookingReader, policy model.StatusPolicy) *SchedulingValidator {
	return &SchedulingValidator{
		demands: demands,
		policy:  policy,
	}
}

// Validate сначала проверяет рабочий день (без обращения к БД), затем ищет активную заявку на слоте,
// не считая excludeDemandID
func (v *SchedulingValidator) Validate(ctx context.Context, member *model.Member, date model.Date, clock model.ClockTime, excludeDemandID *uuid.UUID) (model.SlotCheck, error) {
	if !schedule.IsWorkingDay(member.WorkingDays, date) {
		return model.SlotCheck{Reason: model.ConflictReasonNotWorkingDay}, nil
	}

	atSlot, err := v.demands.ListAt(ctx, member.ID, date, clock)
	if err != nil {
		return model.SlotCheck{}, fmt.Errorf("read demands at slot: %w", err)
	}

	others := atSlot[:0:0]
	for _, demand := range atSlot {
		if excludeDemandID != nil && demand.ID == *excludeDemandID {
			continue
		}
		others = append(others, demand)
	}

	index, _ := schedule.BuildConflictIndex(others, v.policy)
	key := model.SlotKey{MemberID: member.ID, Date: date, Time: clock}
	if conflictID, busy := index.Lookup(key); busy {
		return model.SlotCheck{
			Reason:              model.ConflictReasonScheduleConflict,
			ConflictingDemandID: &conflictID,
		}, nil
	}

	return model.SlotCheck{Available: true}, nil
}
