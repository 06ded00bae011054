package schedule

import "github.com/Freeeeeet/demand_scheduler/internal/model"

// IsWorkingDay пустой набор рабочих дней означает, что участник работает всегда
func IsWorkingDay(workingDays model.WeekdaySet, date model.Date) bool {
	if workingDays.IsEmpty() {
		return true
	}
	return workingDays.Contains(date.Weekday())
}
