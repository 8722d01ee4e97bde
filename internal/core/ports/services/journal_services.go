package services

import (
	"context"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/dto"
)

// InvoicePosterSvc turns invoices into journal entries.
type InvoicePosterSvc interface {
	// Post creates the entry of an invoice and sets invoice.JournalEntryID. On failure
	// nothing is persisted and JournalEntryID is left untouched.
	Post(ctx context.Context, invoice *domain.Invoice) error
}

// PaymentPosterSvc turns receipts and supplier payments into journal entries.
type PaymentPosterSvc interface {
	Post(ctx context.Context, payment *domain.Payment) error
}

// VatRegularizationPosterSvc settles the tax sub-accounts of a period.
type VatRegularizationPosterSvc interface {
	Post(ctx context.Context, reg *domain.VatRegularization) error
}

// ClosingSvc runs the period closing pipeline of an exercise.
type ClosingSvc interface {
	// Exec runs regularization, closing and opening in one transaction and closes the exercise.
	Exec(ctx context.Context, exerciseCode string, opts dto.ClosingOptions) error

	Regularize(ctx context.Context, exerciseCode string) error
	Close(ctx context.Context, exerciseCode string) error
	Open(ctx context.Context, exerciseCode string, opts dto.ClosingOptions) error

	// Delete undoes a closing: successor opening entries first, then closing and
	// regularization entries, and reopens the exercise.
	Delete(ctx context.Context, exerciseCode string) error
}
