package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Date гражданская дата без часового пояса (YYYY-MM-DD)
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate разбирает строку формата YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, errors.Wrapf(ErrInvalidInput, "malformed date %q", s)
	}
	return DateOf(t), nil
}

// MustParseDate используется в тестах и для констант
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf берёт календарную часть из time.Time, игнорируя часовой пояс значения
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// anchor переводит дату в полдень UTC, чтобы арифметика не зависела от локальной зоны и DST
func (d Date) anchor() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

// Time возвращает полночь UTC для этой даты (для записи в колонку DATE)
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.anchor().AddDate(0, 0, n))
}

// Weekday день недели, Sunday=0 ... Saturday=6
func (d Date) Weekday() Weekday {
	return Weekday(d.anchor().Weekday())
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Before(other Date) bool {
	return d.anchor().Before(other.anchor())
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime время суток в 24-часовом формате HH:MM
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime разбирает строку формата HH:MM
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return ClockTime{}, errors.Wrapf(ErrInvalidInput, "malformed time %q", s)
	}

	// Atoi допускает знак, поэтому цифры проверяем сами
	if !isDigits(hh) || !isDigits(mm) {
		return ClockTime{}, errors.Wrapf(ErrInvalidInput, "malformed time %q", s)
	}

	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, errors.Wrapf(ErrInvalidInput, "time out of range %q", s)
	}

	return ClockTime{Hour: hour, Minute: minute}, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func MustParseClockTime(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockFromMinutes собирает время из минут от начала суток
func ClockFromMinutes(total int) ClockTime {
	return ClockTime{Hour: total / 60, Minute: total % 60}
}

// Minutes количество минут от начала суток
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimeSlot координата (дата, время); нигде не хранится
type TimeSlot struct {
	Date Date
	Time ClockTime
}

func (s TimeSlot) String() string {
	return s.Date.String() + " " + s.Time.String()
}
