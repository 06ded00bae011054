package model

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"
)

// Weekday день недели, Sunday=0 ... Saturday=6 (как time.Weekday)
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdaySymbols = [...]string{
	"SUNDAY",
	"MONDAY",
	"TUESDAY",
	"WEDNESDAY",
	"THURSDAY",
	"FRIDAY",
	"SATURDAY",
}

func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

// String возвращает каноническое имя дня (MONDAY, TUESDAY, ...)
func (w Weekday) String() string {
	if !w.Valid() {
		return "UNKNOWN"
	}
	return weekdaySymbols[w]
}

// ParseWeekday принимает каноническое имя в любом регистре
func ParseWeekday(s string) (Weekday, error) {
	symbol := strings.ToUpper(strings.TrimSpace(s))
	for i, candidate := range weekdaySymbols {
		if candidate == symbol {
			return Weekday(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidInput, "unknown weekday %q", s)
}

// WeekdaySet рабочие дни участника. Пустой набор означает "работает каждый день"
type WeekdaySet struct {
	days *set.Set[Weekday]
}

func NewWeekdaySet(days ...Weekday) WeekdaySet {
	return WeekdaySet{days: set.From(days)}
}

// ParseWeekdaySet собирает набор из символов, как они хранятся в БД
func ParseWeekdaySet(symbols []string) (WeekdaySet, error) {
	days := make([]Weekday, 0, len(symbols))
	for _, symbol := range symbols {
		day, err := ParseWeekday(symbol)
		if err != nil {
			return WeekdaySet{}, err
		}
		days = append(days, day)
	}
	return NewWeekdaySet(days...), nil
}

func (s WeekdaySet) IsEmpty() bool {
	return s.days == nil || s.days.Empty()
}

func (s WeekdaySet) Contains(day Weekday) bool {
	return s.days != nil && s.days.Contains(day)
}

func (s WeekdaySet) Len() int {
	if s.days == nil {
		return 0
	}
	return s.days.Size()
}

// Days возвращает дни по порядку от воскресенья
func (s WeekdaySet) Days() []Weekday {
	if s.days == nil {
		return nil
	}
	days := s.days.Slice()
	slices.Sort(days)
	return days
}

// Symbols возвращает канонические имена для записи в БД
func (s WeekdaySet) Symbols() []string {
	days := s.Days()
	symbols := make([]string, 0, len(days))
	for _, day := range days {
		symbols = append(symbols, day.String())
	}
	return symbols
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Symbols())
}

func (s *WeekdaySet) UnmarshalJSON(b []byte) error {
	var symbols []string
	if err := json.Unmarshal(b, &symbols); err != nil {
		return errors.Wrap(ErrInvalidInput, "working days must be a list of weekday names")
	}
	parsed, err := ParseWeekdaySet(symbols)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
