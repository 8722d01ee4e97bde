package services

import (
	"context"
	"io"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/dto"
	"github.com/shopspring/decimal"
)

// SubaccountResolverSvc resolves the sub-account a posting goes to. Every method
// returns an error wrapping apperrors.ErrNotFound when nothing can be resolved.
type SubaccountResolverSvc interface {
	// ResolveForParty tries the party sub-account, then its group sub-account, and finally
	// creates one under the special account of the party role when create is true.
	ResolveForParty(ctx context.Context, exercise domain.Exercise, party domain.LedgerAccountHolder, create bool) (*domain.Subaccount, error)

	// ResolveSpecial returns the first sub-account tagged with role, or the first
	// sub-account of the first account tagged with it.
	ResolveSpecial(ctx context.Context, exercise domain.Exercise, role domain.SpecialAccountRole) (*domain.Subaccount, error)

	// ResolveSpecialAccount returns the first account tagged with role.
	ResolveSpecialAccount(ctx context.Context, exercise domain.Exercise, role domain.SpecialAccountRole) (*domain.Account, error)

	ResolveByCode(ctx context.Context, exercise domain.Exercise, code string) (*domain.Subaccount, error)

	// ResolveTax returns the sub-account of a tax for one of the tax roles. tax may be nil.
	ResolveTax(ctx context.Context, exercise domain.Exercise, tax *domain.Tax, role domain.SpecialAccountRole) (*domain.Subaccount, error)

	ResolveWithholding(ctx context.Context, exercise domain.Exercise, percentage decimal.Decimal, sales bool) (*domain.Subaccount, error)
	ResolvePaymentMethod(ctx context.Context, exercise domain.Exercise, methodCode string) (*domain.Subaccount, error)
	ResolveBankExpense(ctx context.Context, exercise domain.Exercise, methodCode string) (*domain.Subaccount, error)

	// ResolveGoods returns the sales or purchases sub-account of an invoice line.
	ResolveGoods(ctx context.Context, exercise domain.Exercise, line domain.InvoiceLine, kind domain.DocumentKind, rectification bool) (*domain.Subaccount, error)
}

// AccountCreatorSvc creates accounts and sub-accounts inside an exercise.
type AccountCreatorSvc interface {
	CreateUnder(ctx context.Context, exercise domain.Exercise, parent domain.Account, code, description string) (*domain.Subaccount, error)
	CopyAccountToExercise(ctx context.Context, account domain.Account, targetExercise string) (*domain.Account, error)
	CopySubaccountToExercise(ctx context.Context, subaccount domain.Subaccount, targetExercise string) (*domain.Subaccount, error)

	// AllocateFreeCode returns a sub-account code under parent not used by any sub-account
	// or other party. It returns "" and apperrors.ErrAllocationExhausted when none is found.
	AllocateFreeCode(ctx context.Context, exercise domain.Exercise, party domain.LedgerAccountHolder, parent domain.Account) (string, error)
}

// PlanSvc imports and exports the chart of accounts of an exercise.
type PlanSvc interface {
	Import(ctx context.Context, exerciseCode string, r io.Reader) (*dto.PlanImportResult, error)
	Export(ctx context.Context, exerciseCode string, w io.Writer) error
	InstallDefault(ctx context.Context, exerciseCode string) (*dto.PlanImportResult, error)
}
