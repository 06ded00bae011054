package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/Freeeeeet/demand_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const memberColumns = `id, unit_id, name, working_days, job_title_id, created_at, updated_at`

type MemberRepository struct {
	*base.Repository
}

func NewMemberRepository(db base.DB) *MemberRepository {
	return &MemberRepository{Repository: base.NewRepository(db)}
}

type memberRow struct {
	ID          uuid.UUID
	UnitID      uuid.UUID
	Name        string
	WorkingDays []string
	JobTitleID  uuid.NullUUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (row *memberRow) scan(s pgx.Row) error {
	return s.Scan(
		&row.ID,
		&row.UnitID,
		&row.Name,
		&row.WorkingDays,
		&row.JobTitleID,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
}

func (row *memberRow) toModel() (*model.Member, error) {
	days, err := model.ParseWeekdaySet(row.WorkingDays)
	if err != nil {
		return nil, fmt.Errorf("member %s working days: %w", row.ID, err)
	}

	member := &model.Member{
		ID:          row.ID,
		UnitID:      row.UnitID,
		Name:        row.Name,
		WorkingDays: days,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.JobTitleID.Valid {
		jobTitleID := row.JobTitleID.UUID
		member.JobTitleID = &jobTitleID
	}
	return member, nil
}

// GetByID получает участника по ID
func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	var row memberRow
	if err := row.scan(r.QueryRow(ctx, query, id)); err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member by id: %w", err)
	}

	return row.toModel()
}

// ListByUnit получает участников подразделения; если ids не пусты, только их
func (r *MemberRepository) ListByUnit(ctx context.Context, unitID uuid.UUID, ids []uuid.UUID) ([]model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE unit_id = $1 ORDER BY name, id`
	args := []any{unitID}

	if len(ids) > 0 {
		query = `SELECT ` + memberColumns + ` FROM members WHERE unit_id = $1 AND id = ANY($2) ORDER BY name, id`
		args = append(args, ids)
	}

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members by unit: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var row memberRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		member, err := row.toModel()
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members by unit: %w", err)
	}

	return members, nil
}

// UpdateWorkingDays обновляет рабочие дни участника
func (r *MemberRepository) UpdateWorkingDays(ctx context.Context, id uuid.UUID, days model.WeekdaySet) error {
	query := `
		UPDATE members
		SET working_days = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, days.Symbols(), id)
	if err != nil {
		return fmt.Errorf("update member working days: %w", err)
	}

	if affected == 0 {
		return model.ErrMemberNotFound
	}

	return nil
}
