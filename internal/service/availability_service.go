package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/demand_scheduler/internal/metrics"
	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/Freeeeeet/demand_scheduler/internal/schedule"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GridRequest параметры сетки доступности подразделения
type GridRequest struct {
	UnitID          uuid.UUID   `json:"unit_id" validate:"required"`
	StartDate       string      `json:"start_date" validate:"required"`
	Days            int         `json:"days" validate:"required"`
	StartHour       int         `json:"start_hour"`
	EndHour         int         `json:"end_hour" validate:"required"`
	IntervalMinutes int         `json:"interval_minutes" validate:"required"`
	MemberIDs       []uuid.UUID `json:"member_ids,omitempty"`
}

// AvailabilityService строит сетку доступности. Каждый вызов читает хранилище заново, кэша нет
type AvailabilityService struct {
	members  MemberReader
	demands  BookingReader
	policy   model.StatusPolicy
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAvailabilityService(members MemberReader, demands BookingReader, policy model.StatusPolicy, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		members:  members,
		demands:  demands,
		policy:   policy,
		validate: validator.New(),
		logger:   logger,
	}
}

// GetUnitGrid сетка участники × даты × слоты для подразделения
func (s *AvailabilityService) GetUnitGrid(ctx context.Context, req GridRequest) (*model.AvailabilityGrid, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(model.ErrInvalidInput, err.Error())
	}

	dates, err := schedule.GenerateDateRange(req.StartDate, req.Days)
	if err != nil {
		return nil, err
	}

	slots, err := schedule.GenerateTimeSlots(req.StartHour, req.EndHour, req.IntervalMinutes)
	if err != nil {
		return nil, err
	}

	grid, _, err := s.compute(ctx, req.UnitID, req.MemberIDs, dates, slots)
	return grid, err
}

// FreeMembersAt участники подразделения, свободные в указанный слот
func (s *AvailabilityService) FreeMembersAt(ctx context.Context, unitID uuid.UUID, date model.Date, clock model.ClockTime) ([]model.Member, error) {
	grid, members, err := s.compute(ctx, unitID, nil, []model.Date{date}, []model.ClockTime{clock})
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]model.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	var free []model.Member
	for _, id := range grid.FreeMembers(date, clock) {
		free = append(free, byID[id])
	}
	return free, nil
}

func (s *AvailabilityService) compute(ctx context.Context, unitID uuid.UUID, memberIDs []uuid.UUID, dates []model.Date, slots []model.ClockTime) (*model.AvailabilityGrid, []model.Member, error) {
	members, err := s.members.ListByUnit(ctx, unitID, memberIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}

	demands, err := s.demands.ListScheduled(ctx, model.DemandFilter{
		UnitID:    unitID,
		MemberIDs: memberIDs,
		DateFrom:  dates[0],
		DateTo:    dates[len(dates)-1].AddDays(1),
		Policy:    s.policy,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list scheduled demands: %w", err)
	}

	index, anomalies := schedule.BuildConflictIndex(demands, s.policy)
	for _, anomaly := range anomalies {
		s.logger.Warn("Duplicate active demand on one slot",
			zap.String("unit_id", unitID.String()),
			zap.String("slot", anomaly.Key.String()),
			zap.String("kept_demand_id", anomaly.KeptID.String()),
			zap.String("duplicate_demand_id", anomaly.DuplicateID.String()),
		)
	}

	grid := schedule.ComputeGrid(members, dates, slots, index)
	metrics.GridCells.Observe(float64(grid.Cells()))

	s.logger.Debug("Availability grid computed",
		zap.String("unit_id", unitID.String()),
		zap.Int("members", len(members)),
		zap.Int("dates", len(dates)),
		zap.Int("slots", len(slots)),
		zap.Int("busy_slots", index.Len()),
	)

	return grid, members, nil
}
