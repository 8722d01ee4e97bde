package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

// randomRanges are the widening ranges random allocation candidates are drawn from.
var randomRanges = [][2]int{{50, 99}, {50, 999}, {100, 9999}, {100, 99999}, {1000, 999999}}

// sequentialThreshold is the sub-account count above which the next sequential numbers are tried.
const sequentialThreshold = 99

// AccountCreator creates accounts and sub-accounts, and finds free sub-account codes for parties.
type AccountCreator struct {
	BaseService
	exercises portsrepo.ExerciseRepository
	accounts  portsrepo.AccountRepository
	subs      portsrepo.SubaccountRepository
	parties   portsrepo.PartyRepository
	rnd       *rand.Rand
}

// CreatorOption is a functional option for configuring the account creator
type CreatorOption func(*AccountCreator)

// WithRandSource sets the source random allocation candidates are drawn from.
func WithRandSource(src rand.Source) CreatorOption {
	return func(c *AccountCreator) {
		c.rnd = rand.New(src)
	}
}

// NewAccountCreator creates an AccountCreator with the provided options
func NewAccountCreator(repos portsrepo.RepositoryProvider, messages logging.MessageLog, options ...CreatorOption) *AccountCreator {
	c := &AccountCreator{
		BaseService: newBaseService(messages),
		exercises:   repos.ExerciseRepo,
		accounts:    repos.AccountRepo,
		subs:        repos.SubRepo,
		parties:     repos.PartyRepo,
		rnd:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

var _ portssvc.AccountCreatorSvc = (*AccountCreator)(nil)

func (c *AccountCreator) checkOpen(ctx context.Context, exercise domain.Exercise) error {
	if exercise.IsOpen() {
		return nil
	}
	return c.warn(ctx, logging.KeyClosedExercise,
		fmt.Errorf("exercise %s: %w", exercise.Code, apperrors.ErrExerciseClosed),
		slog.String("exercise", exercise.Code))
}

func (c *AccountCreator) CreateUnder(ctx context.Context, exercise domain.Exercise, parent domain.Account, code, description string) (*domain.Subaccount, error) {
	if err := c.checkOpen(ctx, exercise); err != nil {
		return nil, err
	}
	if parent.ExerciseCode != exercise.Code {
		return nil, fmt.Errorf("account %s belongs to exercise %s, not %s: %w", parent.Code, parent.ExerciseCode, exercise.Code, apperrors.ErrValidation)
	}
	if len(code) != exercise.SubaccountLen() || !strings.HasPrefix(code, parent.Code) || !isDigits(code) {
		return nil, fmt.Errorf("subaccount code %q does not fit under %s with length %d: %w", code, parent.Code, exercise.SubaccountLen(), apperrors.ErrValidation)
	}

	existing, err := c.subs.FindSubaccountByCode(ctx, exercise.Code, code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if description == "" {
		description = parent.Description
	}
	sub := &domain.Subaccount{
		Code:         code,
		ExerciseCode: exercise.Code,
		AccountID:    parent.ID,
		AccountCode:  parent.Code,
		Description:  description,
	}
	if err := c.subs.SaveSubaccount(ctx, sub); err != nil {
		c.Messages.Error(ctx, logging.KeyAccountCreationError, slog.String("subaccount", code), slog.String("error", err.Error()))
		return nil, fmt.Errorf("saving subaccount %s: %w", code, err)
	}
	return sub, nil
}

func (c *AccountCreator) targetExercise(ctx context.Context, code string) (*domain.Exercise, error) {
	target, err := c.exercises.FindExercise(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("loading target exercise %s: %w", code, err)
	}
	if err := c.checkOpen(ctx, *target); err != nil {
		return nil, err
	}
	return target, nil
}

func (c *AccountCreator) CopyAccountToExercise(ctx context.Context, account domain.Account, targetExercise string) (*domain.Account, error) {
	if _, err := c.targetExercise(ctx, targetExercise); err != nil {
		return nil, err
	}
	return c.copyAccount(ctx, account, targetExercise)
}

func (c *AccountCreator) copyAccount(ctx context.Context, account domain.Account, target string) (*domain.Account, error) {
	existing, err := c.accounts.FindAccountByCode(ctx, target, account.Code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	copied := &domain.Account{
		Code:           account.Code,
		ExerciseCode:   target,
		Description:    account.Description,
		SpecialAccount: account.SpecialAccount,
	}
	if account.ParentID != nil {
		parent, err := c.accounts.FindAccountByID(ctx, *account.ParentID)
		if err != nil {
			return nil, fmt.Errorf("loading parent of account %s: %w", account.Code, err)
		}
		copiedParent, err := c.copyAccount(ctx, *parent, target)
		if err != nil {
			return nil, err
		}
		copied.ParentID = &copiedParent.ID
		copied.ParentCode = copiedParent.Code
	}

	if err := c.accounts.SaveAccount(ctx, copied); err != nil {
		c.Messages.Error(ctx, logging.KeyAccountCreationError, slog.String("account", account.Code), slog.String("error", err.Error()))
		return nil, fmt.Errorf("saving account %s in %s: %w", account.Code, target, err)
	}
	return copied, nil
}

func (c *AccountCreator) CopySubaccountToExercise(ctx context.Context, subaccount domain.Subaccount, targetExercise string) (*domain.Subaccount, error) {
	if _, err := c.targetExercise(ctx, targetExercise); err != nil {
		return nil, err
	}

	existing, err := c.subs.FindSubaccountByCode(ctx, targetExercise, subaccount.Code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	account, err := c.accounts.FindAccountByID(ctx, subaccount.AccountID)
	if err != nil {
		return nil, fmt.Errorf("loading account of subaccount %s: %w", subaccount.Code, err)
	}
	copiedAccount, err := c.copyAccount(ctx, *account, targetExercise)
	if err != nil {
		return nil, err
	}

	copied := &domain.Subaccount{
		Code:           subaccount.Code,
		ExerciseCode:   targetExercise,
		AccountID:      copiedAccount.ID,
		AccountCode:    copiedAccount.Code,
		Description:    subaccount.Description,
		SpecialAccount: subaccount.SpecialAccount,
	}
	if err := c.subs.SaveSubaccount(ctx, copied); err != nil {
		c.Messages.Error(ctx, logging.KeyAccountCreationError, slog.String("subaccount", subaccount.Code), slog.String("error", err.Error()))
		return nil, fmt.Errorf("saving subaccount %s in %s: %w", subaccount.Code, targetExercise, err)
	}
	return copied, nil
}

func (c *AccountCreator) AllocateFreeCode(ctx context.Context, exercise domain.Exercise, party domain.LedgerAccountHolder, parent domain.Account) (string, error) {
	length := exercise.SubaccountLen()
	numeric := digitsOf(party.PartyCode())

	if len(numeric) == length && strings.HasPrefix(numeric, parent.Code) {
		free, err := c.isFree(ctx, exercise, party, numeric)
		if err != nil {
			return "", err
		}
		if free {
			return numeric, nil
		}
	}

	candidates, err := c.candidates(ctx, numeric, parent)
	if err != nil {
		return "", err
	}
	for _, candidate := range candidates {
		code, ok := padCode(parent.Code, candidate, length)
		if !ok {
			continue
		}
		free, err := c.isFree(ctx, exercise, party, code)
		if err != nil {
			return "", err
		}
		if free {
			return code, nil
		}
	}

	c.Messages.Error(ctx, logging.KeyNoFreeSubaccountCode,
		slog.String("party", party.PartyCode()),
		slog.String("account", parent.Code))
	return "", fmt.Errorf("party %s under %s: %w", party.PartyCode(), parent.Code, apperrors.ErrAllocationExhausted)
}

// candidates lists the numbers tried, in order, when allocating a party sub-account code.
func (c *AccountCreator) candidates(ctx context.Context, numeric string, parent domain.Account) ([]string, error) {
	out := make([]string, 0, 1+49+len(randomRanges)+100)
	if numeric != "" {
		out = append(out, numeric)
	}
	for i := 1; i < 50; i++ {
		out = append(out, strconv.Itoa(i))
	}
	for _, r := range randomRanges {
		out = append(out, strconv.Itoa(r[0]+c.rnd.IntN(r[1]-r[0]+1)))
	}

	count, err := c.subs.CountSubaccountsOfAccount(ctx, parent.ID)
	if err != nil {
		return nil, fmt.Errorf("counting subaccounts of %s: %w", parent.Code, err)
	}
	if count > sequentialThreshold {
		for i := count + 1; i <= count+100; i++ {
			out = append(out, strconv.Itoa(i))
		}
	}
	return out, nil
}

// isFree reports whether code is neither an existing sub-account nor assigned to another party.
func (c *AccountCreator) isFree(ctx context.Context, exercise domain.Exercise, party domain.LedgerAccountHolder, code string) (bool, error) {
	assigned, err := c.parties.IsSubaccountCodeAssigned(ctx, code, party)
	if err != nil {
		return false, fmt.Errorf("checking party subaccount %s: %w", code, err)
	}
	if assigned {
		return false, nil
	}
	_, err = c.subs.FindSubaccountByCode(ctx, exercise.Code, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// padCode left-pads candidate with zeros after prefix up to length. It fails when the candidate is too wide.
func padCode(prefix, candidate string, length int) (string, bool) {
	width := length - len(prefix)
	candidate = strings.TrimLeft(candidate, "0")
	if candidate == "" || len(candidate) > width {
		return "", false
	}
	return prefix + strings.Repeat("0", width-len(candidate)) + candidate, true
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	return s != "" && digitsOf(s) == s
}
