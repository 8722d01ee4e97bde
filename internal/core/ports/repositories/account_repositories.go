package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExerciseRepository defines persistence operations for fiscal exercises.
type ExerciseRepository interface {
	// FindExercise retrieves an exercise by code. Returns apperrors.ErrNotFound when missing.
	FindExercise(ctx context.Context, code string) (*domain.Exercise, error)

	// FindExerciseForDate retrieves the exercise of a company containing date, open ones first.
	FindExerciseForDate(ctx context.Context, companyID int, date time.Time) (*domain.Exercise, error)

	// SaveExercise inserts or updates an exercise. Saving an open exercise whose dates overlap
	// another open exercise of the same company returns apperrors.ErrDuplicate.
	SaveExercise(ctx context.Context, exercise domain.Exercise) error
}

// AccountReader defines read operations for accounts.
type AccountReader interface {
	// FindAccountByCode retrieves an account of an exercise. Returns apperrors.ErrNotFound when missing.
	FindAccountByCode(ctx context.Context, exerciseCode, code string) (*domain.Account, error)

	// FindAccountByID retrieves an account by its identifier.
	FindAccountByID(ctx context.Context, id int64) (*domain.Account, error)

	// FindAccountsBySpecial lists the accounts tagged with role, ordered by code.
	FindAccountsBySpecial(ctx context.Context, exerciseCode string, role domain.SpecialAccountRole) ([]domain.Account, error)

	// ListAccounts lists every account of an exercise ordered by code.
	ListAccounts(ctx context.Context, exerciseCode string) ([]domain.Account, error)
}

// AccountWriter defines write operations for accounts.
type AccountWriter interface {
	// SaveAccount inserts (ID == 0) or updates an account. Inserted IDs are written back.
	SaveAccount(ctx context.Context, account *domain.Account) error
}

// AccountRepository combines account reads and writes.
type AccountRepository interface {
	AccountReader
	AccountWriter
}

// SubaccountReader defines read operations for sub-accounts.
type SubaccountReader interface {
	// FindSubaccountByCode retrieves a sub-account of an exercise. Returns apperrors.ErrNotFound when missing.
	FindSubaccountByCode(ctx context.Context, exerciseCode, code string) (*domain.Subaccount, error)

	// FindSubaccountsBySpecial lists the sub-accounts tagged with role, ordered by code.
	FindSubaccountsBySpecial(ctx context.Context, exerciseCode string, role domain.SpecialAccountRole) ([]domain.Subaccount, error)

	// FindFirstSubaccountOfAccount returns the child with the lowest ID. Returns apperrors.ErrNotFound when the account has none.
	FindFirstSubaccountOfAccount(ctx context.Context, accountID int64) (*domain.Subaccount, error)

	// CountSubaccountsOfAccount counts the children of an account.
	CountSubaccountsOfAccount(ctx context.Context, accountID int64) (int, error)

	// ListSubaccounts lists every sub-account of an exercise ordered by code.
	ListSubaccounts(ctx context.Context, exerciseCode string) ([]domain.Subaccount, error)
}

// SubaccountWriter defines write operations for sub-accounts.
type SubaccountWriter interface {
	// SaveSubaccount inserts (ID == 0) or updates a sub-account. Inserted IDs are written back.
	SaveSubaccount(ctx context.Context, subaccount *domain.Subaccount) error
}

// SubaccountRepository combines sub-account reads and writes.
type SubaccountRepository interface {
	SubaccountReader
	SubaccountWriter
}

// PartyRepository persists the sub-account codes of business parties.
type PartyRepository interface {
	// FindParty loads a customer (RoleCustomer) or a supplier (RoleSupplier/RoleCreditor).
	FindParty(ctx context.Context, kind domain.DocumentKind, code string) (domain.LedgerAccountHolder, error)

	// FindCustomerGroup loads a customer group.
	FindCustomerGroup(ctx context.Context, code string) (*domain.CustomerGroup, error)

	// IsSubaccountCodeAssigned reports whether a party other than except uses code.
	IsSubaccountCodeAssigned(ctx context.Context, code string, except domain.LedgerAccountHolder) (bool, error)

	// SavePartySubaccount stores the sub-account code currently set on party.
	SavePartySubaccount(ctx context.Context, party domain.LedgerAccountHolder) error
}

// MasterDataRepository gives access to the configuration entities used while posting.
type MasterDataRepository interface {
	FindTax(ctx context.Context, code string) (*domain.Tax, error)
	FindRetentionByPercentage(ctx context.Context, percentage decimal.Decimal) (*domain.Retention, error)
	FindPaymentMethod(ctx context.Context, code string) (*domain.PaymentMethod, error)
	FindFamily(ctx context.Context, code string) (*domain.Family, error)
}
