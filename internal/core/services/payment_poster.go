package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

// PaymentPoster creates the journal entry of a customer receipt or a supplier payment.
type PaymentPoster struct {
	poster
}

// NewPaymentPoster creates a PaymentPoster.
func NewPaymentPoster(repos portsrepo.RepositoryProvider, resolver portssvc.SubaccountResolverSvc, messages logging.MessageLog, options ...PostingOption) *PaymentPoster {
	return &PaymentPoster{poster: newPoster("payment", repos, resolver, messages, options)}
}

var _ portssvc.PaymentPosterSvc = (*PaymentPoster)(nil)

func (s *PaymentPoster) Post(ctx context.Context, payment *domain.Payment) error {
	ctx, _ = logging.WithOperation(ctx, "post_payment",
		slog.String("invoice", payment.InvoiceCode),
		slog.String("kind", string(payment.Kind)))

	if err := s.checkDocument(ctx, payment, payment.JournalEntryID); err != nil {
		return err
	}
	if payment.Amount.IsZero() {
		return s.fail(ctx, logging.KeyZeroTotal, fmt.Errorf("payment of %s: %w", payment.InvoiceCode, apperrors.ErrZeroTotal))
	}
	exercise, err := s.exercises.FindExerciseForDate(ctx, payment.CompanyID, payment.Date)
	if err != nil {
		return s.fail(ctx, logging.KeyExerciseNotFound, err)
	}
	if err := s.checkExercise(ctx, exercise); err != nil {
		return err
	}

	// receipts credit the customer, payments debit the supplier
	sales := payment.Kind == domain.SalesDocument
	entry, err := s.run(ctx, func(ctx context.Context, b *entryBuilder) error {
		if err := b.begin(ctx, domain.JournalEntry{
			ExerciseCode: exercise.Code,
			CompanyID:    payment.CompanyID,
			Date:         payment.Date,
			Concept:      paymentConcept(payment),
			Document:     payment.InvoiceCode,
			Amount:       payment.Amount,
			Channel:      channelOf(payment.Channel),
		}); err != nil {
			return err
		}

		party, err := s.parties.FindParty(ctx, payment.Kind, payment.PartyCode)
		if err != nil {
			return keyed(logging.KeyPartySubaccountNotFound, fmt.Errorf("loading party %s: %w", payment.PartyCode, err))
		}
		partySub, err := s.resolver.ResolveForParty(ctx, *exercise, party, true)
		if errors.Is(err, apperrors.ErrAllocationExhausted) {
			return keyed(logging.KeyNoFreeSubaccountCode, err)
		}
		if err != nil {
			return missingSpecial(string(party.Role()), err)
		}
		bank, err := s.resolver.ResolvePaymentMethod(ctx, *exercise, payment.PaymentMethodCode)
		if err != nil {
			return keyed(logging.KeyPaymentMethodNotFound, fmt.Errorf("%w: %w", apperrors.ErrMissingSpecialAccount, err))
		}

		if err := b.addLine(ctx, partySub, payment.Amount, !sales, nil); err != nil {
			return err
		}
		if err := b.addLine(ctx, bank, payment.Amount, sales, nil); err != nil {
			return err
		}

		if payment.BankExpense.IsZero() {
			return nil
		}
		expense, err := s.resolver.ResolveBankExpense(ctx, *exercise, payment.PaymentMethodCode)
		if err != nil {
			return missingSpecial(string(domain.RoleBankExpenses), err)
		}
		if err := b.addLine(ctx, expense, payment.BankExpense, true, nil); err != nil {
			return err
		}
		return b.addLine(ctx, bank, payment.BankExpense, false, nil)
	}, func(ctx context.Context, entry *domain.JournalEntry) error {
		payment.JournalEntryID = &entry.ID
		if err := s.documents.SetPaymentEntry(ctx, payment); err != nil {
			payment.JournalEntryID = nil
			return keyed(logging.KeyEntrySaveError, fmt.Errorf("linking payment of %s: %w", payment.InvoiceCode, err))
		}
		return nil
	})
	if err != nil {
		payment.JournalEntryID = nil
		return err
	}
	payment.JournalEntryID = &entry.ID
	return nil
}

func paymentConcept(payment *domain.Payment) string {
	label := "Payment"
	if payment.Kind == domain.SalesDocument {
		label = "Receipt"
	}
	if payment.Amount.IsNegative() {
		label = "Refund"
	}
	return fmt.Sprintf("%s of invoice %s - %s", label, payment.InvoiceCode, payment.PartyName)
}
