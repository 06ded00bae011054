package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrSlotTaken уникальный индекс активных заявок отклонил запись
	ErrSlotTaken = errors.New("slot already taken by an active demand")

	// ErrNotAssignable заявка не найдена или уже в терминальном статусе на момент записи
	ErrNotAssignable = errors.New("demand is not assignable")
)

// ActiveSlotIndex имя частичного уникального индекса из миграции
const ActiveSlotIndex = "demands_active_slot_uniq"

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsActiveSlotViolation нарушение именно инварианта "одна активная заявка на слот"
func IsActiveSlotViolation(err error) bool {
	if !IsUniqueViolation(err) {
		return false
	}
	var pgErr *pgconn.PgError
	errors.As(err, &pgErr)
	return pgErr.ConstraintName == ActiveSlotIndex
}
