package model

import (
	"time"

	"github.com/google/uuid"
)

// Member специалист подразделения, которому назначаются заявки
type Member struct {
	ID          uuid.UUID  `json:"id"`
	UnitID      uuid.UUID  `json:"unit_id"`
	Name        string     `json:"name"`
	WorkingDays WeekdaySet `json:"working_days"`
	JobTitleID  *uuid.UUID `json:"job_title_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// WorksEveryDay рабочие дни не заданы
func (m *Member) WorksEveryDay() bool {
	return m.WorkingDays.IsEmpty()
}
