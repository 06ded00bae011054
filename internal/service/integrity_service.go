package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/demand_scheduler/internal/metrics"
	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/Freeeeeet/demand_scheduler/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntegrityService ищет дубликаты активных заявок на одном слоте по всем подразделениям.
// Уникальный индекс не даёт им появиться, но записи, созданные до миграции или вручную, возможны
type IntegrityService struct {
	demands BookingReader
	policy  model.StatusPolicy
	logger  *zap.Logger
}

func NewIntegrityService(demands BookingReader, policy model.StatusPolicy, logger *zap.Logger) *IntegrityService {
	return &IntegrityService{
		demands: demands,
		policy:  policy,
		logger:  logger,
	}
}

// Audit проверяет days дней начиная с from и возвращает найденные нарушения
func (s *IntegrityService) Audit(ctx context.Context, from model.Date, days int) ([]model.DataInconsistency, error) {
	dates, err := schedule.DatesFrom(from, days)
	if err != nil {
		return nil, err
	}

	demands, err := s.demands.ListScheduled(ctx, model.DemandFilter{
		UnitID:   uuid.Nil,
		DateFrom: dates[0],
		DateTo:   dates[len(dates)-1].AddDays(1),
		Policy:   s.policy,
	})
	if err != nil {
		return nil, fmt.Errorf("list scheduled demands: %w", err)
	}

	_, anomalies := schedule.BuildConflictIndex(demands, s.policy)
	for _, anomaly := range anomalies {
		s.logger.Warn("Data inconsistency",
			zap.String("slot", anomaly.Key.String()),
			zap.String("kept_demand_id", anomaly.KeptID.String()),
			zap.String("duplicate_demand_id", anomaly.DuplicateID.String()),
		)
	}

	metrics.DataInconsistencies.Set(float64(len(anomalies)))

	s.logger.Info("Integrity audit completed",
		zap.String("from", from.String()),
		zap.Int("days", days),
		zap.Int("scheduled_demands", len(demands)),
		zap.Int("inconsistencies", len(anomalies)),
	)

	return anomalies, nil
}
