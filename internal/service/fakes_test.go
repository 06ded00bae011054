package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"github.com/Freeeeeet/demand_scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var (
	testUnit = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	// 2025-10-20 понедельник
	monday  = model.MustParseDate("2025-10-20")
	tuesday = model.MustParseDate("2025-10-21")
	nine    = model.MustParseClockTime("09:00")
)

type memberStore struct {
	members []model.Member
	err     error
}

func (s *memberStore) GetByID(_ context.Context, id uuid.UUID) (*model.Member, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.members {
		if s.members[i].ID == id {
			m := s.members[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (s *memberStore) ListByUnit(_ context.Context, unitID uuid.UUID, ids []uuid.UUID) ([]model.Member, error) {
	if s.err != nil {
		return nil, s.err
	}
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var out []model.Member
	for _, m := range s.members {
		if m.UnitID != unitID {
			continue
		}
		if len(ids) > 0 && !wanted[m.ID] {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// demandStore хранилище заявок в памяти с тем же условием уникальности, что и индекс в БД
type demandStore struct {
	mu           sync.Mutex
	demands      map[uuid.UUID]*model.Demand
	policy       model.StatusPolicy
	clock        time.Time
	beforeAssign func(s *demandStore)
	assignErr    error
	assignCalls  int
}

func newDemandStore() *demandStore {
	return &demandStore{
		demands: map[uuid.UUID]*model.Demand{},
		policy:  model.DefaultStatusPolicy(),
		clock:   time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *demandStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *demandStore) add(status model.DemandStatus) *model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	d := &model.Demand{
		ID:        uuid.New(),
		UnitID:    testUnit,
		Title:     "demand",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.demands[d.ID] = d
	return d
}

// addScheduled пишет заявку напрямую, минуя проверку уникальности
func (s *demandStore) addScheduled(status model.DemandStatus, memberID uuid.UUID, date model.Date, clock model.ClockTime) *model.Demand {
	d := s.add(status)

	s.mu.Lock()
	defer s.mu.Unlock()
	d.ResponsibleMemberID = &memberID
	d.ScheduledDate = &date
	d.ScheduledTime = &clock
	return d
}

func (s *demandStore) get(id uuid.UUID) model.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.demands[id]
}

func (s *demandStore) sorted() []model.Demand {
	out := make([]model.Demand, 0, len(s.demands))
	for _, d := range s.demands {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *demandStore) GetByID(_ context.Context, id uuid.UUID) (*model.Demand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.demands[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (s *demandStore) ListScheduled(_ context.Context, filter model.DemandFilter) ([]model.Demand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make(map[uuid.UUID]bool, len(filter.MemberIDs))
	for _, id := range filter.MemberIDs {
		members[id] = true
	}

	var out []model.Demand
	for _, d := range s.sorted() {
		if !d.IsScheduled() || !filter.Policy.IsBlocking(d.Status) {
			continue
		}
		if filter.UnitID != uuid.Nil && d.UnitID != filter.UnitID {
			continue
		}
		if d.ScheduledDate.Before(filter.DateFrom) || !d.ScheduledDate.Before(filter.DateTo) {
			continue
		}
		if len(members) > 0 && !members[*d.ResponsibleMemberID] {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *demandStore) ListAt(_ context.Context, memberID uuid.UUID, date model.Date, clock model.ClockTime) ([]model.Demand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.SlotKey{MemberID: memberID, Date: date, Time: clock}
	var out []model.Demand
	for _, d := range s.sorted() {
		if k, ok := d.SlotKey(); ok && k == key {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *demandStore) AssignSchedule(_ context.Context, a model.Assignment) (*model.Demand, error) {
	if s.beforeAssign != nil {
		s.beforeAssign(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignCalls++

	if s.assignErr != nil {
		return nil, s.assignErr
	}

	d, ok := s.demands[a.DemandID]
	if !ok || d.Status.IsTerminal() {
		return nil, repository.ErrNotAssignable
	}

	key := a.SlotKey()
	for _, other := range s.demands {
		if other.ID == d.ID || !s.policy.IsBlocking(other.Status) {
			continue
		}
		if k, ok := other.SlotKey(); ok && k == key {
			return nil, repository.ErrSlotTaken
		}
	}

	d.ResponsibleMemberID = &a.MemberID
	d.ScheduledDate = &a.Date
	d.ScheduledTime = &a.Time
	d.Status = d.NextStatusOnAssign()
	d.UpdatedAt = s.tick()

	copied := *d
	return &copied, nil
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Acquire(ctx context.Context, slot model.SlotKey) (func(context.Context), bool, error) {
	args := m.Called(ctx, slot)
	release, _ := args.Get(0).(func(context.Context))
	return release, args.Bool(1), args.Error(2)
}
