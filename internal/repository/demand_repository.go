package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/Freeeeeet/demand_scheduler/internal/repository/base"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/jackc/pgx/v5"
)

var demandColumns = []string{
	"id",
	"unit_id",
	"applicant_id",
	"title",
	"responsible_member_id",
	"scheduled_date",
	"scheduled_time",
	"status",
	"created_at",
	"updated_at",
}

const demandColumnList = `id, unit_id, applicant_id, title, responsible_member_id, scheduled_date, scheduled_time, status, created_at, updated_at`

type DemandRepository struct {
	*base.Repository
}

func NewDemandRepository(db base.DB) *DemandRepository {
	return &DemandRepository{Repository: base.NewRepository(db)}
}

type demandRow struct {
	ID                  uuid.UUID
	UnitID              uuid.UUID
	ApplicantID         uuid.NullUUID
	Title               string
	ResponsibleMemberID uuid.NullUUID
	ScheduledDate       null.Time
	ScheduledTime       null.String
	Status              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (row *demandRow) scan(s pgx.Row) error {
	return s.Scan(
		&row.ID,
		&row.UnitID,
		&row.ApplicantID,
		&row.Title,
		&row.ResponsibleMemberID,
		&row.ScheduledDate,
		&row.ScheduledTime,
		&row.Status,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
}

func (row *demandRow) toModel() (*model.Demand, error) {
	status, err := model.ParseDemandStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("demand %s: %w", row.ID, err)
	}

	demand := &model.Demand{
		ID:        row.ID,
		UnitID:    row.UnitID,
		Title:     row.Title,
		Status:    status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if row.ApplicantID.Valid {
		applicantID := row.ApplicantID.UUID
		demand.ApplicantID = &applicantID
	}
	if row.ResponsibleMemberID.Valid {
		memberID := row.ResponsibleMemberID.UUID
		demand.ResponsibleMemberID = &memberID
	}
	if row.ScheduledDate.Valid {
		date := model.DateOf(row.ScheduledDate.Time)
		demand.ScheduledDate = &date
	}
	if row.ScheduledTime.Valid {
		clock, err := model.ParseClockTime(row.ScheduledTime.String)
		if err != nil {
			return nil, fmt.Errorf("demand %s scheduled time: %w", row.ID, err)
		}
		demand.ScheduledTime = &clock
	}

	return demand, nil
}

func (r *DemandRepository) collect(rows pgx.Rows) ([]model.Demand, error) {
	defer rows.Close()

	var demands []model.Demand
	for rows.Next() {
		var row demandRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("scan demand: %w", err)
		}
		demand, err := row.toModel()
		if err != nil {
			return nil, err
		}
		demands = append(demands, *demand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read demands: %w", err)
	}

	return demands, nil
}

// GetByID получает заявку по ID
func (r *DemandRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Demand, error) {
	query := `SELECT ` + demandColumnList + ` FROM demands WHERE id = $1`

	var row demandRow
	if err := row.scan(r.QueryRow(ctx, query, id)); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get demand by id: %w", err)
	}

	return row.toModel()
}

// ListScheduled получает запланированные заявки подразделения в диапазоне дат, кроме освобождающих статусов.
// Порядок стабильный (по времени создания), чтобы при дубликатах "первой" всегда была одна и та же заявка
func (r *DemandRepository) ListScheduled(ctx context.Context, filter model.DemandFilter) ([]model.Demand, error) {
	builder := base.NewQueryBuilder().
		Select(demandColumns...).
		From("demands").
		Where(squirrel.NotEq{"responsible_member_id": nil}).
		Where(squirrel.NotEq{"scheduled_date": nil}).
		Where(squirrel.NotEq{"scheduled_time": nil}).
		Where(squirrel.NotEq{"status": filter.Policy.Releasing()}).
		OrderBy("created_at", "id")

	// uuid.Nil означает выборку по всем подразделениям (фоновая проверка целостности)
	if filter.UnitID != uuid.Nil {
		builder = builder.Where(squirrel.Eq{"unit_id": filter.UnitID.String()})
	}
	if !filter.DateFrom.IsZero() {
		builder = builder.Where(squirrel.GtOrEq{"scheduled_date": filter.DateFrom.Time()})
	}
	if !filter.DateTo.IsZero() {
		builder = builder.Where(squirrel.Lt{"scheduled_date": filter.DateTo.Time()})
	}
	if len(filter.MemberIDs) > 0 {
		ids := make([]string, len(filter.MemberIDs))
		for i, id := range filter.MemberIDs {
			ids[i] = id.String()
		}
		builder = builder.Where(squirrel.Eq{"responsible_member_id": ids})
	}

	rows, err := r.QueryBuilder(ctx, builder)
	if err != nil {
		return nil, fmt.Errorf("list scheduled demands: %w", err)
	}

	return r.collect(rows)
}

// ListAt получает все заявки специалиста на конкретный слот, в любом статусе
func (r *DemandRepository) ListAt(ctx context.Context, memberID uuid.UUID, date model.Date, clock model.ClockTime) ([]model.Demand, error) {
	query := `
		SELECT ` + demandColumnList + `
		FROM demands
		WHERE responsible_member_id = $1
		  AND scheduled_date = $2
		  AND scheduled_time = $3
		ORDER BY created_at, id
	`

	rows, err := r.Query(ctx, query, memberID, date.Time(), clock.String())
	if err != nil {
		return nil, fmt.Errorf("list demands at slot: %w", err)
	}

	return r.collect(rows)
}

// AssignSchedule атомарно записывает исполнителя, дату и время; PENDING переходит в IN_PROGRESS.
// Заявки в терминальных статусах не обновляются (ErrNotAssignable), занятый слот даёт ErrSlotTaken
func (r *DemandRepository) AssignSchedule(ctx context.Context, a model.Assignment) (*model.Demand, error) {
	query := `
		UPDATE demands
		SET responsible_member_id = $1,
		    scheduled_date = $2,
		    scheduled_time = $3,
		    status = CASE WHEN status = 'PENDING' THEN 'IN_PROGRESS' ELSE status END,
		    updated_at = NOW()
		WHERE id = $4
		  AND status <> ALL($5)
		RETURNING ` + demandColumnList

	var row demandRow
	err := row.scan(r.QueryRow(ctx, query,
		a.MemberID,
		a.Date.Time(),
		a.Time.String(),
		a.DemandID,
		model.TerminalStatuses(),
	))

	if err != nil {
		if base.IsNotFound(err) {
			return nil, ErrNotAssignable
		}
		if IsActiveSlotViolation(err) {
			return nil, fmt.Errorf("assign demand %s to %s: %w", a.DemandID, a.SlotKey(), ErrSlotTaken)
		}
		return nil, fmt.Errorf("assign demand: %w", err)
	}

	return row.toModel()
}
