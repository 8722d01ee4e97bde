package repositories

import (
	"context"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
)

// EntryReader defines read operations for journal entries.
type EntryReader interface {
	// FindEntry retrieves an entry header. Returns apperrors.ErrNotFound when missing.
	FindEntry(ctx context.Context, id int64) (*domain.JournalEntry, error)

	// FindEntryLines retrieves the lines of an entry ordered by sort position and ID.
	FindEntryLines(ctx context.Context, entryID int64) ([]domain.JournalLine, error)

	// FindEntriesByOperation lists the entries of an exercise tagged with op, ordered by channel and ID.
	FindEntriesByOperation(ctx context.Context, exerciseCode string, op domain.Operation) ([]domain.JournalEntry, error)
}

// EntryWriter defines write operations for journal entries.
type EntryWriter interface {
	// SaveEntry inserts (ID == 0, a number is assigned) or updates an entry header.
	SaveEntry(ctx context.Context, entry *domain.JournalEntry) error

	// SaveLine inserts (ID == 0) or updates a line and refreshes its sub-account totals.
	SaveLine(ctx context.Context, line *domain.JournalLine) error

	// DeleteEntry removes an entry and all its lines. Deleting a missing entry is not an error.
	DeleteEntry(ctx context.Context, id int64) error
}

// EntryRepository combines entry reads and writes.
type EntryRepository interface {
	EntryReader
	EntryWriter
}

// DocumentRepository stores the journal entry back-reference of business documents.
type DocumentRepository interface {
	SetInvoiceEntry(ctx context.Context, invoice *domain.Invoice) error
	SetPaymentEntry(ctx context.Context, payment *domain.Payment) error
	SetVatRegularizationEntry(ctx context.Context, reg *domain.VatRegularization) error

	// FindVatRegularization loads a regularization period.
	FindVatRegularization(ctx context.Context, id int64) (*domain.VatRegularization, error)
}
