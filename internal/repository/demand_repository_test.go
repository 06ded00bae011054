package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDemandID = uuid.MustParse("00000000-0000-0000-0000-0000000000d1")
	testUnitID   = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	testMemberID = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
	testCreated  = time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
)

func scheduledRow(status string) []any {
	return []any{
		testDemandID,
		testUnitID,
		nil,
		"Замена счётчика",
		uuid.NullUUID{UUID: testMemberID, Valid: true},
		null.TimeFrom(time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)),
		null.StringFrom("09:00"),
		status,
		testCreated,
		testCreated,
	}
}

func TestDemandRepository_GetByID(t *testing.T) {
	t.Run("scheduled", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM demands WHERE id = $1")).
			WithArgs(testDemandID).
			WillReturnRows(pgxmock.NewRows(demandColumns).AddRow(scheduledRow("IN_PROGRESS")...))

		demand, err := NewDemandRepository(mock).GetByID(context.Background(), testDemandID)
		require.NoError(t, err)
		require.NotNil(t, demand)

		assert.Equal(t, model.DemandStatusInProgress, demand.Status)
		assert.Nil(t, demand.ApplicantID)
		key, ok := demand.SlotKey()
		require.True(t, ok)
		assert.Equal(t, testMemberID, key.MemberID)
		assert.Equal(t, "2025-10-20", key.Date.String())
		assert.Equal(t, "09:00", key.Time.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unscheduled", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM demands WHERE id = $1")).
			WithArgs(testDemandID).
			WillReturnRows(pgxmock.NewRows(demandColumns).AddRow(
				testDemandID, testUnitID, nil, "", nil, nil, nil, "PENDING", testCreated, testCreated,
			))

		demand, err := NewDemandRepository(mock).GetByID(context.Background(), testDemandID)
		require.NoError(t, err)
		assert.False(t, demand.IsScheduled())
		assert.Equal(t, model.DemandStatusPending, demand.Status)
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM demands WHERE id = $1")).
			WithArgs(testDemandID).
			WillReturnRows(pgxmock.NewRows(demandColumns))

		demand, err := NewDemandRepository(mock).GetByID(context.Background(), testDemandID)
		assert.NoError(t, err)
		assert.Nil(t, demand)
	})

	t.Run("unknown status in storage", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM demands WHERE id = $1")).
			WithArgs(testDemandID).
			WillReturnRows(pgxmock.NewRows(demandColumns).AddRow(scheduledRow("ARCHIVED")...))

		_, err = NewDemandRepository(mock).GetByID(context.Background(), testDemandID)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestDemandRepository_ListScheduled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from := model.MustParseDate("2025-10-20")
	to := from.AddDays(7)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM demands WHERE responsible_member_id IS NOT NULL AND scheduled_date IS NOT NULL AND scheduled_time IS NOT NULL "+
			"AND status NOT IN ($1,$2) AND unit_id = $3 AND scheduled_date >= $4 AND scheduled_date < $5 "+
			"AND responsible_member_id IN ($6) ORDER BY created_at, id")).
		WithArgs("REJECTED", "CANCELLED", testUnitID.String(), from.Time(), to.Time(), testMemberID.String()).
		WillReturnRows(pgxmock.NewRows(demandColumns).
			AddRow(scheduledRow("PENDING")...).
			AddRow(scheduledRow("RESOLVED")...))

	demands, err := NewDemandRepository(mock).ListScheduled(context.Background(), model.DemandFilter{
		UnitID:    testUnitID,
		MemberIDs: []uuid.UUID{testMemberID},
		DateFrom:  from,
		DateTo:    to,
		Policy:    model.DefaultStatusPolicy(),
	})
	require.NoError(t, err)
	require.Len(t, demands, 2)
	assert.Equal(t, model.DemandStatusResolved, demands[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepository_ListScheduled_AllUnits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	from := model.MustParseDate("2025-10-20")

	mock.ExpectQuery(regexp.QuoteMeta("AND status NOT IN ($1) AND scheduled_date >= $2 AND scheduled_date < $3 ORDER BY")).
		WithArgs("CANCELLED", from.Time(), from.AddDays(1).Time()).
		WillReturnRows(pgxmock.NewRows(demandColumns))

	demands, err := NewDemandRepository(mock).ListScheduled(context.Background(), model.DemandFilter{
		DateFrom: from,
		DateTo:   from.AddDays(1),
		Policy:   model.NewStatusPolicy(model.DemandStatusCancelled),
	})
	require.NoError(t, err)
	assert.Empty(t, demands)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepository_ListAt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	date := model.MustParseDate("2025-10-20")
	mock.ExpectQuery("FROM demands\\s+WHERE responsible_member_id = \\$1").
		WithArgs(testMemberID, date.Time(), "09:00").
		WillReturnRows(pgxmock.NewRows(demandColumns).AddRow(scheduledRow("CANCELLED")...))

	demands, err := NewDemandRepository(mock).ListAt(context.Background(), testMemberID, date, model.MustParseClockTime("09:00"))
	require.NoError(t, err)
	require.Len(t, demands, 1)
	assert.Equal(t, model.DemandStatusCancelled, demands[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepository_AssignSchedule(t *testing.T) {
	assignment := model.Assignment{
		DemandID: testDemandID,
		MemberID: testMemberID,
		Date:     model.MustParseDate("2025-10-20"),
		Time:     model.MustParseClockTime("09:00"),
	}
	args := []any{testMemberID, assignment.Date.Time(), "09:00", testDemandID, []string{"RESOLVED", "REJECTED", "BILLED", "CANCELLED"}}

	t.Run("assigned", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("UPDATE demands").
			WithArgs(args...).
			WillReturnRows(pgxmock.NewRows(demandColumns).AddRow(scheduledRow("IN_PROGRESS")...))

		demand, err := NewDemandRepository(mock).AssignSchedule(context.Background(), assignment)
		require.NoError(t, err)
		assert.Equal(t, model.DemandStatusInProgress, demand.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("terminal or missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("UPDATE demands").
			WithArgs(args...).
			WillReturnRows(pgxmock.NewRows(demandColumns))

		_, err = NewDemandRepository(mock).AssignSchedule(context.Background(), assignment)
		assert.ErrorIs(t, err, ErrNotAssignable)
	})

	t.Run("slot taken", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("UPDATE demands").
			WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: ActiveSlotIndex})

		_, err = NewDemandRepository(mock).AssignSchedule(context.Background(), assignment)
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("other unique violation", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("UPDATE demands").
			WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "demands_pkey"})

		_, err = NewDemandRepository(mock).AssignSchedule(context.Background(), assignment)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrSlotTaken)
		assert.True(t, IsUniqueViolation(err))
	})
}
