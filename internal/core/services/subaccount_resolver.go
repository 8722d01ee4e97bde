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
	"github.com/shopspring/decimal"
)

// SubaccountResolver finds the sub-account a posting goes to, following a fixed
// fallback chain per business role.
type SubaccountResolver struct {
	BaseService
	accounts portsrepo.AccountReader
	subs     portsrepo.SubaccountReader
	parties  portsrepo.PartyRepository
	master   portsrepo.MasterDataRepository
	creator  portssvc.AccountCreatorSvc
}

// NewSubaccountResolver creates a resolver. creator may be nil, in which case party
// sub-accounts are never created on demand.
func NewSubaccountResolver(repos portsrepo.RepositoryProvider, creator portssvc.AccountCreatorSvc, messages logging.MessageLog) *SubaccountResolver {
	return &SubaccountResolver{
		BaseService: newBaseService(messages),
		accounts:    repos.AccountRepo,
		subs:        repos.SubRepo,
		parties:     repos.PartyRepo,
		master:      repos.MasterRepo,
		creator:     creator,
	}
}

var _ portssvc.SubaccountResolverSvc = (*SubaccountResolver)(nil)

func (s *SubaccountResolver) ResolveByCode(ctx context.Context, exercise domain.Exercise, code string) (*domain.Subaccount, error) {
	if code == "" {
		return nil, fmt.Errorf("empty subaccount code: %w", apperrors.ErrNotFound)
	}
	return s.subs.FindSubaccountByCode(ctx, exercise.Code, code)
}

func (s *SubaccountResolver) ResolveSpecial(ctx context.Context, exercise domain.Exercise, role domain.SpecialAccountRole) (*domain.Subaccount, error) {
	subs, err := s.subs.FindSubaccountsBySpecial(ctx, exercise.Code, role)
	if err != nil {
		return nil, fmt.Errorf("finding subaccounts tagged %s: %w", role, err)
	}
	if len(subs) > 0 {
		return &subs[0], nil
	}

	account, err := s.ResolveSpecialAccount(ctx, exercise, role)
	if err != nil {
		return nil, err
	}
	sub, err := s.subs.FindFirstSubaccountOfAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("special account %s has no subaccounts: %w", role, err)
	}
	return sub, nil
}

func (s *SubaccountResolver) ResolveSpecialAccount(ctx context.Context, exercise domain.Exercise, role domain.SpecialAccountRole) (*domain.Account, error) {
	accounts, err := s.accounts.FindAccountsBySpecial(ctx, exercise.Code, role)
	if err != nil {
		return nil, fmt.Errorf("finding accounts tagged %s: %w", role, err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("special account %s in exercise %s: %w", role, exercise.Code, apperrors.ErrNotFound)
	}
	return &accounts[0], nil
}

func (s *SubaccountResolver) ResolveForParty(ctx context.Context, exercise domain.Exercise, party domain.LedgerAccountHolder, create bool) (*domain.Subaccount, error) {
	if sub, err := s.findOptional(ctx, exercise, party.SubaccountCode()); sub != nil || err != nil {
		return sub, err
	}

	if groupCode := party.GroupCode(); groupCode != "" {
		group, err := s.parties.FindCustomerGroup(ctx, groupCode)
		switch {
		case err == nil:
			if sub, err := s.findOptional(ctx, exercise, group.SubaccountCode()); sub != nil || err != nil {
				return sub, err
			}
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, fmt.Errorf("loading group %s: %w", groupCode, err)
		}
	}

	parent, err := s.ResolveSpecialAccount(ctx, exercise, party.Role())
	if err != nil {
		return nil, err
	}
	if !create || s.creator == nil {
		return nil, fmt.Errorf("party %s has no subaccount: %w", party.PartyCode(), apperrors.ErrNotFound)
	}

	code, err := s.creator.AllocateFreeCode(ctx, exercise, party, *parent)
	if err != nil {
		return nil, err
	}
	sub, err := s.creator.CreateUnder(ctx, exercise, *parent, code, party.PartyName())
	if err != nil {
		return nil, err
	}

	party.SetSubaccountCode(sub.Code)
	if err := s.parties.SavePartySubaccount(ctx, party); err != nil {
		return nil, fmt.Errorf("saving subaccount code of party %s: %w", party.PartyCode(), err)
	}
	s.LogDebug(ctx, "Created party subaccount",
		slog.String("party", party.PartyCode()),
		slog.String("subaccount", sub.Code))
	return sub, nil
}

// findOptional looks up code, returning (nil, nil) when it is empty or missing.
func (s *SubaccountResolver) findOptional(ctx context.Context, exercise domain.Exercise, code string) (*domain.Subaccount, error) {
	if code == "" {
		return nil, nil
	}
	sub, err := s.subs.FindSubaccountByCode(ctx, exercise.Code, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

// codeOrSpecial resolves code when set and present, falling back to the role.
func (s *SubaccountResolver) codeOrSpecial(ctx context.Context, exercise domain.Exercise, code string, role domain.SpecialAccountRole) (*domain.Subaccount, error) {
	if sub, err := s.findOptional(ctx, exercise, code); sub != nil || err != nil {
		return sub, err
	}
	return s.ResolveSpecial(ctx, exercise, role)
}

func (s *SubaccountResolver) ResolveTax(ctx context.Context, exercise domain.Exercise, tax *domain.Tax, role domain.SpecialAccountRole) (*domain.Subaccount, error) {
	code := ""
	if tax != nil {
		switch role {
		case domain.RoleTaxOutput, domain.RoleTaxOutputIntra:
			code = tax.OutputSubaccount
		case domain.RoleTaxInput, domain.RoleTaxInputIntra:
			code = tax.InputSubaccount
		case domain.RoleSurchargeOutput:
			code = tax.SurchargeOutputSubaccount
		case domain.RoleSurchargeInput:
			code = tax.SurchargeInputSubaccount
		default:
			return nil, fmt.Errorf("role %s is not a tax role: %w", role, apperrors.ErrValidation)
		}
	}
	// intra-community operations always use their own special sub-accounts
	if role == domain.RoleTaxOutputIntra || role == domain.RoleTaxInputIntra {
		code = ""
	}
	return s.codeOrSpecial(ctx, exercise, code, role)
}

func (s *SubaccountResolver) ResolveWithholding(ctx context.Context, exercise domain.Exercise, percentage decimal.Decimal, sales bool) (*domain.Subaccount, error) {
	role := domain.RoleWithholdingPurchases
	if sales {
		role = domain.RoleWithholdingSales
	}

	code := ""
	retention, err := s.master.FindRetentionByPercentage(ctx, percentage)
	switch {
	case err == nil && sales:
		code = retention.SalesSubaccount
	case err == nil:
		code = retention.PurchaseSubaccount
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("loading retention %s%%: %w", percentage, err)
	}
	return s.codeOrSpecial(ctx, exercise, code, role)
}

func (s *SubaccountResolver) paymentMethod(ctx context.Context, methodCode string) (*domain.PaymentMethod, error) {
	if methodCode == "" {
		return &domain.PaymentMethod{}, nil
	}
	method, err := s.master.FindPaymentMethod(ctx, methodCode)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &domain.PaymentMethod{Code: methodCode}, nil
	}
	return method, err
}

func (s *SubaccountResolver) ResolvePaymentMethod(ctx context.Context, exercise domain.Exercise, methodCode string) (*domain.Subaccount, error) {
	method, err := s.paymentMethod(ctx, methodCode)
	if err != nil {
		return nil, fmt.Errorf("loading payment method %s: %w", methodCode, err)
	}
	return s.codeOrSpecial(ctx, exercise, method.Subaccount, domain.RoleCash)
}

func (s *SubaccountResolver) ResolveBankExpense(ctx context.Context, exercise domain.Exercise, methodCode string) (*domain.Subaccount, error) {
	method, err := s.paymentMethod(ctx, methodCode)
	if err != nil {
		return nil, fmt.Errorf("loading payment method %s: %w", methodCode, err)
	}
	return s.codeOrSpecial(ctx, exercise, method.ExpenseSubaccount, domain.RoleBankExpenses)
}

func (s *SubaccountResolver) ResolveGoods(ctx context.Context, exercise domain.Exercise, line domain.InvoiceLine, kind domain.DocumentKind, rectification bool) (*domain.Subaccount, error) {
	var role domain.SpecialAccountRole
	switch {
	case kind == domain.SalesDocument && rectification:
		role = domain.RoleSalesReturns
	case kind == domain.SalesDocument:
		role = domain.RoleSales
	case rectification:
		role = domain.RolePurchaseReturns
	default:
		role = domain.RolePurchases
	}

	if sub, err := s.findOptional(ctx, exercise, line.SubaccountCode); sub != nil || err != nil {
		return sub, err
	}
	if line.FamilyCode != "" {
		family, err := s.master.FindFamily(ctx, line.FamilyCode)
		switch {
		case err == nil:
			code := family.PurchaseSubaccount
			if kind == domain.SalesDocument {
				code = family.SalesSubaccount
			}
			if sub, err := s.findOptional(ctx, exercise, code); sub != nil || err != nil {
				return sub, err
			}
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, fmt.Errorf("loading family %s: %w", line.FamilyCode, err)
		}
	}
	return s.ResolveSpecial(ctx, exercise, role)
}
