package schedule

import (
	"github.com/Freeeeeet/demand_scheduler/internal/model"
)

const (
	// MaxDateRange ограничивает сетку одним годом
	MaxDateRange = 366

	MinIntervalMinutes = 15
	MaxIntervalMinutes = 120
)

// GenerateDateRange возвращает count подряд идущих дат начиная со start (включительно)
func GenerateDateRange(start string, count int) ([]model.Date, error) {
	first, err := model.ParseDate(start)
	if err != nil {
		return nil, err
	}
	return DatesFrom(first, count)
}

// DatesFrom то же, что GenerateDateRange, для уже разобранной даты
func DatesFrom(start model.Date, count int) ([]model.Date, error) {
	if count < 1 || count > MaxDateRange {
		return nil, model.ErrInvalidDateCount
	}

	dates := make([]model.Date, count)
	for i := range dates {
		dates[i] = start.AddDays(i)
	}
	return dates, nil
}

// GenerateTimeSlots шагает от startHour:00 с интервалом intervalMinutes, не выходя за endHour:00.
// endHour:00 попадает в результат только если шаг приходит в него ровно; 24:00 не выдаётся
func GenerateTimeSlots(startHour, endHour, intervalMinutes int) ([]model.ClockTime, error) {
	if startHour < 0 || startHour >= endHour || endHour > 24 {
		return nil, model.ErrInvalidHourRange
	}
	if intervalMinutes < MinIntervalMinutes || intervalMinutes > MaxIntervalMinutes {
		return nil, model.ErrInvalidInterval
	}

	limit := endHour * 60
	if endHour == 24 {
		// Последний слот суток должен начинаться до полуночи
		limit = 24*60 - 1
	}

	var slots []model.ClockTime
	for minutes := startHour * 60; minutes <= limit; minutes += intervalMinutes {
		slots = append(slots, model.ClockFromMinutes(minutes))
	}
	return slots, nil
}
