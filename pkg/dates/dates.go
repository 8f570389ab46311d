// Package dates keeps calendar dates as midnight UTC so that "date" columns
// compare the same way in postgres and sqlite.
package dates

import (
	"fmt"
	"time"
)

// Day strips the clock from t, keeping t's calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last day of month/year.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// DaysIn returns the number of days in month/year.
func DaysIn(year int, month time.Month) int {
	_, last := MonthRange(year, month)
	return last.Day()
}

// SameMonth reports whether a and b fall in the same calendar month and year.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// FormatBR renders dd/mm/yyyy.
func FormatBR(t time.Time) string {
	return t.Format("02/01/2006")
}

// ClockHHMM renders the wall clock as HH:MM.
func ClockHHMM(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the pt-BR name of m, e.g. "Março".
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}
