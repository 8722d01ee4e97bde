package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/shopspring/decimal"
)

// VatRegularizationPoster moves the balance of the tax sub-accounts of a period to the
// tax payable or receivable sub-account.
type VatRegularizationPoster struct {
	poster
}

// NewVatRegularizationPoster creates a VatRegularizationPoster.
func NewVatRegularizationPoster(repos portsrepo.RepositoryProvider, resolver portssvc.SubaccountResolverSvc, messages logging.MessageLog, options ...PostingOption) *VatRegularizationPoster {
	return &VatRegularizationPoster{poster: newPoster("vat_regularization", repos, resolver, messages, options)}
}

var _ portssvc.VatRegularizationPosterSvc = (*VatRegularizationPoster)(nil)

func (s *VatRegularizationPoster) periodQuery(reg *domain.VatRegularization, roles []domain.SpecialAccountRole) portsrepo.BalanceQuery {
	return portsrepo.BalanceQuery{
		ExerciseCode:    reg.ExerciseCode,
		DateFrom:        reg.StartDate,
		DateTo:          reg.EndDate,
		SpecialAccounts: roles,
		ExcludeOperations: []domain.Operation{
			domain.OperationRegularization, domain.OperationClosing, domain.OperationOpening,
		},
	}
}

func (s *VatRegularizationPoster) Post(ctx context.Context, reg *domain.VatRegularization) error {
	ctx, _ = logging.WithOperation(ctx, "post_vat_regularization",
		slog.String("exercise", reg.ExerciseCode),
		slog.String("period", reg.Period))

	if err := s.checkDocument(ctx, reg, reg.JournalEntryID); err != nil {
		return err
	}
	exercise, err := s.loadExercise(ctx, reg.ExerciseCode)
	if err != nil {
		return err
	}
	if err := s.checkDates(ctx, exercise, reg.StartDate, reg.EndDate); err != nil {
		return err
	}

	entry, err := s.run(ctx, func(ctx context.Context, b *entryBuilder) error {
		// read inside the transaction so the balances match what is settled
		output, err := s.balances.SubaccountBalances(ctx, s.periodQuery(reg, domain.OutputTaxRoles))
		if err != nil {
			return keyed(logging.KeyReportDataError, fmt.Errorf("reading output tax balances: %w", err))
		}
		input, err := s.balances.SubaccountBalances(ctx, s.periodQuery(reg, domain.InputTaxRoles))
		if err != nil {
			return keyed(logging.KeyReportDataError, fmt.Errorf("reading input tax balances: %w", err))
		}
		output, input = settleable(output), settleable(input)
		if len(output) == 0 && len(input) == 0 {
			return keyed(logging.KeyZeroTotal, fmt.Errorf("no tax movements between %s and %s: %w",
				reg.StartDate.Format("2006-01-02"), reg.EndDate.Format("2006-01-02"), apperrors.ErrZeroTotal))
		}

		if err := b.begin(ctx, domain.JournalEntry{
			ExerciseCode: exercise.Code,
			CompanyID:    exercise.CompanyID,
			Date:         reg.EndDate,
			Concept:      fmt.Sprintf("VAT regularization %s %s", exercise.Code, reg.Period),
		}); err != nil {
			return err
		}

		result := decimal.Zero
		for _, row := range output {
			sub := &domain.Subaccount{ID: row.SubaccountID, Code: row.SubaccountCode}
			balance := row.Credit.Sub(row.Debit)
			if err := b.addLine(ctx, sub, balance, true, nil); err != nil {
				return err
			}
			result = result.Add(balance)
		}
		for _, row := range input {
			sub := &domain.Subaccount{ID: row.SubaccountID, Code: row.SubaccountCode}
			balance := row.Debit.Sub(row.Credit)
			if err := b.addLine(ctx, sub, balance, false, nil); err != nil {
				return err
			}
			result = result.Sub(balance)
		}

		if result.IsZero() {
			return nil
		}
		role := domain.RoleTaxPayable
		if result.IsNegative() {
			role = domain.RoleTaxReceivable
		}
		target, err := s.resolver.ResolveSpecial(ctx, *exercise, role)
		if err != nil {
			return missingSpecial(string(role), err)
		}
		// payable is credited, receivable debited
		return b.addLine(ctx, target, result, false, nil)
	}, func(ctx context.Context, entry *domain.JournalEntry) error {
		reg.JournalEntryID = &entry.ID
		if err := s.documents.SetVatRegularizationEntry(ctx, reg); err != nil {
			reg.JournalEntryID = nil
			return keyed(logging.KeyEntrySaveError, fmt.Errorf("linking regularization %d: %w", reg.ID, err))
		}
		return nil
	})
	if err != nil {
		reg.JournalEntryID = nil
		return err
	}
	reg.JournalEntryID = &entry.ID
	return nil
}

// settleable drops the rows already settled by a previous regularization.
func settleable(rows []domain.SubaccountBalance) []domain.SubaccountBalance {
	out := rows[:0]
	for _, row := range rows {
		if !row.Net().IsZero() {
			out = append(out, row)
		}
	}
	return out
}
