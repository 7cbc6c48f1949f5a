package model

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date представляет календарную дату без времени суток.
// На проводе сериализуется в формате 2006-01-02.
type Date struct {
	time.Time
}

// NewDate создаёт дату из года, месяца и дня.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate разбирает дату из строки формата 2006-01-02.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date: %w", err)
	}
	return Date{t}, nil
}

// AddDays возвращает дату, сдвинутую на указанное количество дней.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// Before сообщает, предшествует ли дата указанной.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// Equal сообщает, совпадают ли даты.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// String возвращает дату в формате 2006-01-02.
func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

// MarshalJSON сериализует дату в строку формата 2006-01-02.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON разбирает дату из строки формата 2006-01-02.
func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
