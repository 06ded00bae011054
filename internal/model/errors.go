package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Базовые ошибки движка расписания
var (
	// ErrInvalidInput некорректные дата/время/час/интервал или параметры запроса
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound участник или заявка не найдены
	ErrNotFound = errors.New("not found")

	// ErrInvalidState операция над заявкой в терминальном статусе
	ErrInvalidState = errors.New("invalid state")

	// ErrSchedulingConflict ожидаемый результат: слот недоступен
	ErrSchedulingConflict = errors.New("scheduling conflict")

	// ErrDataInconsistency две активные заявки на одном слоте; не фатально
	ErrDataInconsistency = errors.New("data inconsistency")
)

var (
	ErrDemandNotFound    = errors.Wrap(ErrNotFound, "demand not found")
	ErrMemberNotFound    = errors.Wrap(ErrNotFound, "member not found")
	ErrDemandTerminal    = errors.Wrap(ErrInvalidState, "demand is in a terminal status")
	ErrMemberOutsideUnit = errors.Wrap(ErrInvalidInput, "member does not belong to the demand unit")
	ErrInvalidDateCount  = errors.Wrap(ErrInvalidInput, "date count must be between 1 and 366")
	ErrInvalidHourRange  = errors.Wrap(ErrInvalidInput, "hours must satisfy 0 <= start < end <= 24")
	ErrInvalidInterval   = errors.Wrap(ErrInvalidInput, "interval must be between 15 and 120 minutes")
)

// ConflictReason причина отказа при проверке одного слота
type ConflictReason string

const (
	ConflictReasonNone             ConflictReason = ""
	ConflictReasonNotWorkingDay    ConflictReason = "not-working-day"
	ConflictReasonScheduleConflict ConflictReason = "schedule-conflict"
)

// SchedulingConflictError несёт точную причину, чтобы вызывающий мог показать её пользователю
type SchedulingConflictError struct {
	Reason              ConflictReason
	ConflictingDemandID *uuid.UUID
}

func (e *SchedulingConflictError) Error() string {
	if e.ConflictingDemandID != nil {
		return fmt.Sprintf("scheduling conflict: %s with demand %s", e.Reason, e.ConflictingDemandID)
	}
	return fmt.Sprintf("scheduling conflict: %s", e.Reason)
}

func (e *SchedulingConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

// NewSchedulingConflict строит ошибку из результата проверки слота
func NewSchedulingConflict(check SlotCheck) *SchedulingConflictError {
	return &SchedulingConflictError{
		Reason:              check.Reason,
		ConflictingDemandID: check.ConflictingDemandID,
	}
}

// AsSchedulingConflict достаёт типизированный конфликт из цепочки ошибок
func AsSchedulingConflict(err error) (*SchedulingConflictError, bool) {
	var conflict *SchedulingConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

// DataInconsistency дубликат активной заявки на одном ключе (участник, дата, время)
type DataInconsistency struct {
	Key         SlotKey
	KeptID      uuid.UUID
	DuplicateID uuid.UUID
}

func (d DataInconsistency) Error() string {
	return fmt.Sprintf("%s: demands %s and %s both hold %s", ErrDataInconsistency, d.KeptID, d.DuplicateID, d.Key)
}

func (d DataInconsistency) Unwrap() error {
	return ErrDataInconsistency
}
