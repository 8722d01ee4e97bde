package dto

// ClosingOptions tunes a period closing run.
type ClosingOptions struct {
	// CopySubaccounts clones the whole chart of accounts into the successor exercise
	// instead of only the sub-accounts carried by the opening entry.
	CopySubaccounts bool `json:"copySubaccounts"`
	// SuccessorCode names the exercise created when none follows the closed one.
	SuccessorCode string `json:"successorCode" validate:"omitempty,alphanum,max=4"`
	// JournalID tags the generated entries.
	JournalID *int `json:"journalID,omitempty" validate:"omitempty,gt=0"`
}
