package models

import (
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// NewDate truncates t to its UTC calendar day
func NewDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return NewDate(t), nil
}

// FormatDate renders d as YYYY-MM-DD
func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}
