package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/demand_scheduler/internal/metrics"
	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/Freeeeeet/demand_scheduler/internal/repository"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentService назначает специалиста на заявку: проверка, затем атомарная запись
type AssignmentService struct {
	members   MemberReader
	demands   BookingReader
	writer    BookingWriter
	validator *SchedulingValidator
	locker    SlotLocker
	logger    *zap.Logger
}

// NewAssignmentService locker может быть nil, тогда защищает только уникальный индекс
func NewAssignmentService(
	members MemberReader,
	demands BookingReader,
	writer BookingWriter,
	validator *SchedulingValidator,
	locker SlotLocker,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		members:   members,
		demands:   demands,
		writer:    writer,
		validator: validator,
		locker:    locker,
		logger:    logger,
	}
}

// load загружает заявку и участника и проверяет, что назначение вообще допустимо
func (s *AssignmentService) load(ctx context.Context, demandID, memberID uuid.UUID) (*model.Demand, *model.Member, error) {
	demand, err := s.demands.GetByID(ctx, demandID)
	if err != nil {
		return nil, nil, fmt.Errorf("get demand: %w", err)
	}
	if demand == nil {
		return nil, nil, errors.Wrapf(model.ErrDemandNotFound, "demand %s", demandID)
	}

	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, nil, fmt.Errorf("get member: %w", err)
	}
	if member == nil {
		return nil, nil, errors.Wrapf(model.ErrMemberNotFound, "member %s", memberID)
	}

	if member.UnitID != demand.UnitID {
		return nil, nil, errors.Wrapf(model.ErrMemberOutsideUnit, "member %s, demand %s", memberID, demandID)
	}

	if demand.Status.IsTerminal() {
		return nil, nil, errors.Wrapf(model.ErrDemandTerminal, "demand %s is %s", demandID, demand.Status)
	}

	return demand, member, nil
}

// CheckSlot проверяет назначение без записи
func (s *AssignmentService) CheckSlot(ctx context.Context, demandID, memberID uuid.UUID, date model.Date, clock model.ClockTime) (model.SlotCheck, error) {
	_, member, err := s.load(ctx, demandID, memberID)
	if err != nil {
		return model.SlotCheck{}, err
	}
	return s.validator.Validate(ctx, member, date, clock, &demandID)
}

// Assign назначает специалиста на дату и время.
// Конфликт (в том числе проигранная гонка на уровне БД) возвращается как *model.SchedulingConflictError
func (s *AssignmentService) Assign(ctx context.Context, demandID, memberID uuid.UUID, date model.Date, clock model.ClockTime) (*model.Demand, error) {
	demand, member, err := s.load(ctx, demandID, memberID)
	if err != nil {
		s.observe(err)
		return nil, err
	}

	check, err := s.validator.Validate(ctx, member, date, clock, &demandID)
	if err != nil {
		s.observe(err)
		return nil, err
	}
	if !check.Available {
		conflict := model.NewSchedulingConflict(check)
		s.logger.Info("Assignment rejected",
			zap.String("demand_id", demandID.String()),
			zap.String("member_id", memberID.String()),
			zap.String("date", date.String()),
			zap.String("time", clock.String()),
			zap.String("reason", string(check.Reason)),
		)
		s.observe(conflict)
		return nil, conflict
	}

	assignment := model.Assignment{
		DemandID: demandID,
		MemberID: memberID,
		Date:     date,
		Time:     clock,
	}

	if s.locker != nil {
		release, acquired, err := s.locker.Acquire(ctx, assignment.SlotKey())
		if err != nil {
			// Блокировка только сужает окно гонки, уникальный индекс всё равно сработает
			s.logger.Warn("Slot lock unavailable, relying on unique index",
				zap.String("slot", assignment.SlotKey().String()),
				zap.Error(err),
			)
		} else if !acquired {
			conflict := &model.SchedulingConflictError{Reason: model.ConflictReasonScheduleConflict}
			metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeRaceLost).Inc()
			return nil, conflict
		} else {
			defer release(context.WithoutCancel(ctx))
		}
	}

	updated, err := s.writer.AssignSchedule(ctx, assignment)
	if err != nil {
		return nil, s.commitError(ctx, member, assignment, err)
	}

	s.logger.Info("Demand assigned",
		zap.String("demand_id", demandID.String()),
		zap.String("member_id", memberID.String()),
		zap.String("date", date.String()),
		zap.String("time", clock.String()),
		zap.String("previous_status", string(demand.Status)),
		zap.String("status", string(updated.Status)),
	)
	metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeAssigned).Inc()

	return updated, nil
}

// commitError переводит отказ хранилища в ошибки движка; сырая ошибка уникальности наружу не выходит
func (s *AssignmentService) commitError(ctx context.Context, member *model.Member, a model.Assignment, err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		conflict := &model.SchedulingConflictError{Reason: model.ConflictReasonScheduleConflict}

		// Победившая заявка уже записана, пробуем найти её id для пользователя
		check, lookupErr := s.validator.Validate(ctx, member, a.Date, a.Time, &a.DemandID)
		if lookupErr == nil && check.ConflictingDemandID != nil {
			conflict.ConflictingDemandID = check.ConflictingDemandID
		}

		s.logger.Warn("Assignment lost race at commit",
			zap.String("demand_id", a.DemandID.String()),
			zap.String("slot", a.SlotKey().String()),
		)
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeRaceLost).Inc()
		return conflict

	case errors.Is(err, repository.ErrNotAssignable):
		// Статус стал терминальным между чтением и записью
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return errors.Wrapf(model.ErrDemandTerminal, "demand %s", a.DemandID)

	default:
		s.logger.Error("Failed to assign demand",
			zap.String("demand_id", a.DemandID.String()),
			zap.Error(err),
		)
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("assign demand: %w", err)
	}
}

func (s *AssignmentService) observe(err error) {
	if conflict, ok := model.AsSchedulingConflict(err); ok {
		if conflict.Reason == model.ConflictReasonNotWorkingDay {
			metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeNotWorkingDay).Inc()
			return
		}
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeConflict).Inc()
		return
	}

	if errors.Is(err, model.ErrInvalidInput) || errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrInvalidState) {
		metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return
	}

	metrics.AssignmentsTotal.WithLabelValues(metrics.OutcomeError).Inc()
}
