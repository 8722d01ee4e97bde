package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExerciseRepository implementation ---------------------------------------------

func (m *Store) FindExercise(_ context.Context, code string) (*domain.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ex, ok := m.st.exercises[code]
	if !ok {
		return nil, fmt.Errorf("exercise %s: %w", code, apperrors.ErrNotFound)
	}
	return &ex, nil
}

func (m *Store) FindExerciseForDate(_ context.Context, companyID int, date time.Time) (*domain.Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *domain.Exercise
	for _, ex := range m.st.exercises {
		if ex.CompanyID != companyID || !ex.Contains(date) {
			continue
		}
		if found == nil || (ex.IsOpen() && !found.IsOpen()) || (ex.IsOpen() == found.IsOpen() && ex.Code < found.Code) {
			found = &ex
		}
	}
	if found == nil {
		return nil, fmt.Errorf("exercise for %s: %w", date.Format(time.DateOnly), apperrors.ErrNotFound)
	}
	return found, nil
}

func (m *Store) SaveExercise(_ context.Context, exercise domain.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exercise.IsOpen() {
		for code, ex := range m.st.exercises {
			if code != exercise.Code && ex.IsOpen() && ex.Overlaps(exercise) {
				return fmt.Errorf("exercise %s overlaps open exercise %s: %w", exercise.Code, code, apperrors.ErrDuplicate)
			}
		}
	}
	m.st.exercises[exercise.Code] = exercise
	return nil
}

// AccountRepository implementation ----------------------------------------------

func (m *Store) FindAccountByCode(_ context.Context, exerciseCode, code string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.st.accounts {
		if a.ExerciseCode == exerciseCode && a.Code == code {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("account %s/%s: %w", exerciseCode, code, apperrors.ErrNotFound)
}

func (m *Store) FindAccountByID(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.st.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, apperrors.ErrNotFound)
	}
	return &a, nil
}

func (m *Store) FindAccountsBySpecial(_ context.Context, exerciseCode string, role domain.SpecialAccountRole) ([]domain.Account, error) {
	return m.listAccounts(exerciseCode, func(a domain.Account) bool { return a.SpecialAccount == role }), nil
}

func (m *Store) ListAccounts(_ context.Context, exerciseCode string) ([]domain.Account, error) {
	return m.listAccounts(exerciseCode, func(domain.Account) bool { return true }), nil
}

func (m *Store) listAccounts(exerciseCode string, keep func(domain.Account) bool) []domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Account
	for _, a := range m.st.accounts {
		if a.ExerciseCode == exerciseCode && keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (m *Store) SaveAccount(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, a := range m.st.accounts {
		if id != account.ID && a.ExerciseCode == account.ExerciseCode && a.Code == account.Code {
			return fmt.Errorf("account %s/%s: %w", account.ExerciseCode, account.Code, apperrors.ErrDuplicate)
		}
	}
	if account.ParentID != nil {
		parent, ok := m.st.accounts[*account.ParentID]
		if !ok {
			return fmt.Errorf("parent account %d: %w", *account.ParentID, apperrors.ErrNotFound)
		}
		account.ParentCode = parent.Code
	}
	if account.ID == 0 {
		account.ID = m.nextIDLocked()
	} else if _, ok := m.st.accounts[account.ID]; !ok {
		return fmt.Errorf("account %d: %w", account.ID, apperrors.ErrNotFound)
	}
	m.st.accounts[account.ID] = *account
	return nil
}

// SubaccountRepository implementation -------------------------------------------

func (m *Store) FindSubaccountByCode(_ context.Context, exerciseCode, code string) (*domain.Subaccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.st.subaccounts {
		if s.ExerciseCode == exerciseCode && s.Code == code {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("subaccount %s/%s: %w", exerciseCode, code, apperrors.ErrNotFound)
}

func (m *Store) FindSubaccountsBySpecial(_ context.Context, exerciseCode string, role domain.SpecialAccountRole) ([]domain.Subaccount, error) {
	return m.listSubaccounts(func(s domain.Subaccount) bool {
		return s.ExerciseCode == exerciseCode && s.SpecialAccount == role
	}, byCode), nil
}

func (m *Store) FindFirstSubaccountOfAccount(_ context.Context, accountID int64) (*domain.Subaccount, error) {
	subs := m.listSubaccounts(func(s domain.Subaccount) bool { return s.AccountID == accountID }, byID)
	if len(subs) == 0 {
		return nil, fmt.Errorf("first subaccount of account %d: %w", accountID, apperrors.ErrNotFound)
	}
	return &subs[0], nil
}

func (m *Store) CountSubaccountsOfAccount(_ context.Context, accountID int64) (int, error) {
	return len(m.listSubaccounts(func(s domain.Subaccount) bool { return s.AccountID == accountID }, nil)), nil
}

func (m *Store) ListSubaccounts(_ context.Context, exerciseCode string) ([]domain.Subaccount, error) {
	return m.listSubaccounts(func(s domain.Subaccount) bool { return s.ExerciseCode == exerciseCode }, byCode), nil
}

func byCode(a, b domain.Subaccount) bool { return a.Code < b.Code }
func byID(a, b domain.Subaccount) bool   { return a.ID < b.ID }

func (m *Store) listSubaccounts(keep func(domain.Subaccount) bool, less func(a, b domain.Subaccount) bool) []domain.Subaccount {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Subaccount
	for _, s := range m.st.subaccounts {
		if keep(s) {
			out = append(out, s)
		}
	}
	if less != nil {
		sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

func (m *Store) SaveSubaccount(_ context.Context, sub *domain.Subaccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.st.subaccounts {
		if id != sub.ID && s.ExerciseCode == sub.ExerciseCode && s.Code == sub.Code {
			return fmt.Errorf("subaccount %s/%s: %w", sub.ExerciseCode, sub.Code, apperrors.ErrDuplicate)
		}
	}
	account, ok := m.st.accounts[sub.AccountID]
	if !ok || account.ExerciseCode != sub.ExerciseCode {
		return fmt.Errorf("account %d of subaccount %s: %w", sub.AccountID, sub.Code, apperrors.ErrNotFound)
	}
	sub.AccountCode = account.Code

	if sub.ID == 0 {
		sub.ID = m.nextIDLocked()
		sub.Debit, sub.Credit, sub.Balance = decimal.Zero, decimal.Zero, decimal.Zero
	} else if old, ok := m.st.subaccounts[sub.ID]; ok {
		// totals are owned by the posted lines
		sub.Debit, sub.Credit, sub.Balance = old.Debit, old.Credit, old.Balance
	} else {
		return fmt.Errorf("subaccount %d: %w", sub.ID, apperrors.ErrNotFound)
	}
	m.st.subaccounts[sub.ID] = *sub
	return nil
}
