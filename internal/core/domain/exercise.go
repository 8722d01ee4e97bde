package domain

import "time"

// ExerciseState is the lifecycle state of a fiscal exercise.
type ExerciseState string

const (
	ExerciseOpen   ExerciseState = "ABIERTO"
	ExerciseClosed ExerciseState = "CERRADO"
)

// DefaultSubaccountLength is the sub-account code length used when an exercise does not define one.
const DefaultSubaccountLength = 10

// Exercise is a fiscal year: the scope of a chart of accounts and its journal entries.
type Exercise struct {
	Code              string        `json:"code"`
	CompanyID         int           `json:"companyID"`
	Name              string        `json:"name"`
	StartDate         time.Time     `json:"startDate"`
	EndDate           time.Time     `json:"endDate"`
	State             ExerciseState `json:"state"`
	SubaccountLength  int           `json:"subaccountLength"`
	HasAccountingPlan bool          `json:"hasAccountingPlan"`
}

// IsOpen reports whether entries may still be created in the exercise.
func (e Exercise) IsOpen() bool {
	return e.State == ExerciseOpen
}

// Contains reports whether date falls inside the exercise, both ends included.
func (e Exercise) Contains(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(e.StartDate)) && !d.After(truncateDay(e.EndDate))
}

// Overlaps reports whether both exercises belong to the same company and share at least one day.
func (e Exercise) Overlaps(other Exercise) bool {
	return e.CompanyID == other.CompanyID &&
		!truncateDay(e.StartDate).After(truncateDay(other.EndDate)) &&
		!truncateDay(other.StartDate).After(truncateDay(e.EndDate))
}

// SuccessorDates returns the start and end date of the exercise that follows this one.
func (e Exercise) SuccessorDates() (time.Time, time.Time) {
	start := truncateDay(e.EndDate).AddDate(0, 0, 1)
	days := truncateDay(e.EndDate).Sub(truncateDay(e.StartDate))
	end := start.Add(days)
	// keep calendar years aligned
	if e.StartDate.Month() == time.January && e.StartDate.Day() == 1 {
		end = time.Date(start.Year(), time.December, 31, 0, 0, 0, 0, start.Location())
	}
	return start, end
}

// SubaccountLen returns the configured sub-account code length, falling back to the default.
func (e Exercise) SubaccountLen() int {
	if e.SubaccountLength <= 0 {
		return DefaultSubaccountLength
	}
	return e.SubaccountLength
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
