package dto

import (
	"time"
)

// ReportRequest selects the posted lines a report aggregates.
type ReportRequest struct {
	ExerciseCode string    `json:"exerciseCode" validate:"required"`
	DateFrom     time.Time `json:"dateFrom"`
	DateTo       time.Time `json:"dateTo" validate:"omitempty,gtefield=DateFrom"`
	Channel      *int      `json:"channel,omitempty"`
	CodeFrom     string    `json:"codeFrom" validate:"omitempty,numeric"`
	CodeTo       string    `json:"codeTo" validate:"omitempty,numeric"`
	// Level limits the balance amounts report to accounts up to this depth, 0 lists everything.
	Level int `json:"level" validate:"gte=0"`
	// ExcludeRegularization and ExcludeClosing drop the entries of those closing stages.
	ExcludeRegularization bool `json:"excludeRegularization"`
	ExcludeClosing        bool `json:"excludeClosing"`
}

// LedgerRequest pages through the ledger report.
type LedgerRequest struct {
	ReportRequest
	Limit     int    `json:"limit" validate:"gte=0,lte=1000"`
	NextToken string `json:"nextToken,omitempty"`
}
