package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v2"
)

type DemandStatus string

const (
	DemandStatusPending    DemandStatus = "PENDING"     // Создана, исполнитель не назначен
	DemandStatusInProgress DemandStatus = "IN_PROGRESS" // Назначена специалисту
	DemandStatusResolved   DemandStatus = "RESOLVED"    // Выполнена
	DemandStatusRejected   DemandStatus = "REJECTED"    // Отклонена
	DemandStatusBilled     DemandStatus = "BILLED"      // Выставлен счёт
	DemandStatusCancelled  DemandStatus = "CANCELLED"   // Отменена заявителем
)

var knownStatuses = []DemandStatus{
	DemandStatusPending,
	DemandStatusInProgress,
	DemandStatusResolved,
	DemandStatusRejected,
	DemandStatusBilled,
	DemandStatusCancelled,
}

func ParseDemandStatus(s string) (DemandStatus, error) {
	status := DemandStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range knownStatuses {
		if known == status {
			return status, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidInput, "unknown demand status %q", s)
}

// IsTerminal заявку в этом статусе больше нельзя назначать
func (s DemandStatus) IsTerminal() bool {
	switch s {
	case DemandStatusResolved, DemandStatusRejected, DemandStatusBilled, DemandStatusCancelled:
		return true
	}
	return false
}

// DefaultReleasingStatuses статусы, которые освобождают слот. Совпадает с частичным уникальным индексом в миграции
var DefaultReleasingStatuses = []DemandStatus{DemandStatusRejected, DemandStatusCancelled}

// StatusPolicy определяет, какие заявки занимают слот.
// Один и тот же экземпляр используют сетка и проверка одного слота, чтобы их ответы не расходились
type StatusPolicy struct {
	releasing *set.Set[DemandStatus]
}

func NewStatusPolicy(releasing ...DemandStatus) StatusPolicy {
	return StatusPolicy{releasing: set.From(releasing)}
}

func DefaultStatusPolicy() StatusPolicy {
	return NewStatusPolicy(DefaultReleasingStatuses...)
}

// ParseStatusPolicy читает список освобождающих статусов из конфигурации ("REJECTED,CANCELLED")
func ParseStatusPolicy(csv string) (StatusPolicy, error) {
	if strings.TrimSpace(csv) == "" {
		return DefaultStatusPolicy(), nil
	}

	var releasing []DemandStatus
	for _, part := range strings.Split(csv, ",") {
		status, err := ParseDemandStatus(part)
		if err != nil {
			return StatusPolicy{}, err
		}
		releasing = append(releasing, status)
	}
	return NewStatusPolicy(releasing...), nil
}

// IsBlocking заявка в этом статусе участвует в инварианте "не более одной заявки на слот"
func (p StatusPolicy) IsBlocking(status DemandStatus) bool {
	if p.releasing == nil {
		return !DefaultStatusPolicy().releasing.Contains(status)
	}
	return !p.releasing.Contains(status)
}

// Releasing возвращает освобождающие статусы в стабильном порядке (для SQL фильтров)
func (p StatusPolicy) Releasing() []string {
	if p.releasing == nil {
		p = DefaultStatusPolicy()
	}
	out := make([]string, 0, p.releasing.Size())
	for _, status := range knownStatuses {
		if p.releasing.Contains(status) {
			out = append(out, string(status))
		}
	}
	return out
}

// TerminalStatuses статусы, в которых назначение запрещено
func TerminalStatuses() []string {
	var out []string
	for _, status := range knownStatuses {
		if status.IsTerminal() {
			out = append(out, string(status))
		}
	}
	return out
}

// Demand заявка (booking), которую можно назначить специалисту на дату и время
type Demand struct {
	ID                  uuid.UUID    `json:"id"`
	UnitID              uuid.UUID    `json:"unit_id"`
	ApplicantID         *uuid.UUID   `json:"applicant_id,omitempty"`
	Title               string       `json:"title"`
	ResponsibleMemberID *uuid.UUID   `json:"responsible_member_id,omitempty"`
	ScheduledDate       *Date        `json:"scheduled_date,omitempty"`
	ScheduledTime       *ClockTime   `json:"scheduled_time,omitempty"`
	Status              DemandStatus `json:"status"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// IsScheduled назначены и исполнитель, и дата со временем
func (d Demand) IsScheduled() bool {
	return d.ResponsibleMemberID != nil && d.ScheduledDate != nil && d.ScheduledTime != nil
}

// SlotKey ключ заявки в индексе конфликтов; ok=false если заявка не запланирована
func (d Demand) SlotKey() (SlotKey, bool) {
	if !d.IsScheduled() {
		return SlotKey{}, false
	}
	return SlotKey{
		MemberID: *d.ResponsibleMemberID,
		Date:     *d.ScheduledDate,
		Time:     *d.ScheduledTime,
	}, true
}

// NextStatusOnAssign PENDING переходит в IN_PROGRESS, остальные нетерминальные статусы не меняются
func (d Demand) NextStatusOnAssign() DemandStatus {
	if d.Status == DemandStatusPending {
		return DemandStatusInProgress
	}
	return d.Status
}

// SlotKey тройка (участник, дата, время)
type SlotKey struct {
	MemberID uuid.UUID
	Date     Date
	Time     ClockTime
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s@%s %s", k.MemberID, k.Date, k.Time)
}

// DemandFilter выборка заявок подразделения для построения индекса конфликтов
type DemandFilter struct {
	UnitID    uuid.UUID
	MemberIDs []uuid.UUID
	DateFrom  Date // включительно
	DateTo    Date // не включительно
	Policy    StatusPolicy
}

// Assignment атомарная запись исполнителя и расписания
type Assignment struct {
	DemandID uuid.UUID
	MemberID uuid.UUID
	Date     Date
	Time     ClockTime
}

func (a Assignment) SlotKey() SlotKey {
	return SlotKey{MemberID: a.MemberID, Date: a.Date, Time: a.Time}
}
