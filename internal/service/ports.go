package service

import (
	"context"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/google/uuid"
)

// Порты хранилища. Реализации возвращают (nil, nil), если запись не найдена

// MemberReader справочник участников подразделения
type MemberReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error)
	ListByUnit(ctx context.Context, unitID uuid.UUID, ids []uuid.UUID) ([]model.Member, error)
}

// BookingReader чтение заявок
type BookingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Demand, error)
	ListScheduled(ctx context.Context, filter model.DemandFilter) ([]model.Demand, error)
	ListAt(ctx context.Context, memberID uuid.UUID, date model.Date, clock model.ClockTime) ([]model.Demand, error)
}

// BookingWriter атомарная условная запись назначения.
// Нарушение уникальности слота возвращается как repository.ErrSlotTaken, терминальный статус как repository.ErrNotAssignable
type BookingWriter interface {
	AssignSchedule(ctx context.Context, a model.Assignment) (*model.Demand, error)
}

// SlotLocker необязательная распределённая блокировка слота
type SlotLocker interface {
	Acquire(ctx context.Context, slot model.SlotKey) (release func(context.Context), acquired bool, err error)
}
