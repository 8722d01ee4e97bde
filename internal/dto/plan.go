package dto

// PlanRow is one line of a chart of accounts file: code;description;parent;special.
type PlanRow struct {
	Code        string `validate:"required,numeric,max=15"`
	Description string `validate:"max=255"`
	Parent      string `validate:"omitempty,numeric,max=15"`
	Special     string `validate:"omitempty,specialaccount"`
}

// PlanImportResult counts what an import changed.
type PlanImportResult struct {
	Accounts    int `json:"accounts"`
	Subaccounts int `json:"subaccounts"`
	Skipped     int `json:"skipped"`
}
