package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
)

type txKey struct{}

type documentKey struct {
	Kind domain.DocumentKind
	ID   int64
}

// state is everything a transaction snapshots and restores.
type state struct {
	nextID         int64
	exercises      map[string]domain.Exercise
	accounts       map[int64]domain.Account
	subaccounts    map[int64]domain.Subaccount
	entries        map[int64]domain.JournalEntry
	lines          map[int64]domain.JournalLine
	entryNumbers   map[string]int64
	customers      map[string]domain.Customer
	suppliers      map[string]domain.Supplier
	groups         map[string]domain.CustomerGroup
	taxes          map[string]domain.Tax
	retentions     map[string]domain.Retention
	paymentMethods map[string]domain.PaymentMethod
	families       map[string]domain.Family
	invoices       map[documentKey]domain.Invoice
	payments       map[documentKey]domain.Payment
	vatRegs        map[int64]domain.VatRegularization
}

func newState() *state {
	return &state{
		nextID:         1,
		exercises:      make(map[string]domain.Exercise),
		accounts:       make(map[int64]domain.Account),
		subaccounts:    make(map[int64]domain.Subaccount),
		entries:        make(map[int64]domain.JournalEntry),
		lines:          make(map[int64]domain.JournalLine),
		entryNumbers:   make(map[string]int64),
		customers:      make(map[string]domain.Customer),
		suppliers:      make(map[string]domain.Supplier),
		groups:         make(map[string]domain.CustomerGroup),
		taxes:          make(map[string]domain.Tax),
		retentions:     make(map[string]domain.Retention),
		paymentMethods: make(map[string]domain.PaymentMethod),
		families:       make(map[string]domain.Family),
		invoices:       make(map[documentKey]domain.Invoice),
		payments:       make(map[documentKey]domain.Payment),
		vatRegs:        make(map[int64]domain.VatRegularization),
	}
}

// clone copies every map. Stored values hold no shared slices, entry lines are kept apart.
func (s *state) clone() *state {
	return &state{
		nextID:         s.nextID,
		exercises:      maps.Clone(s.exercises),
		accounts:       maps.Clone(s.accounts),
		subaccounts:    maps.Clone(s.subaccounts),
		entries:        maps.Clone(s.entries),
		lines:          maps.Clone(s.lines),
		entryNumbers:   maps.Clone(s.entryNumbers),
		customers:      maps.Clone(s.customers),
		suppliers:      maps.Clone(s.suppliers),
		groups:         maps.Clone(s.groups),
		taxes:          maps.Clone(s.taxes),
		retentions:     maps.Clone(s.retentions),
		paymentMethods: maps.Clone(s.paymentMethods),
		families:       maps.Clone(s.families),
		invoices:       maps.Clone(s.invoices),
		payments:       maps.Clone(s.payments),
		vatRegs:        maps.Clone(s.vatRegs),
	}
}

// LineFault lets tests fail the save of a given journal line.
type LineFault func(line domain.JournalLine) error

// Store is a thread-safe in-memory implementation of every persistence port. It is
// intended for tests and prototyping. Transactions snapshot the whole store and
// restore it on rollback; writers are assumed to be serialized by the caller.
type Store struct {
	mu        sync.RWMutex
	st        *state
	lineFault LineFault
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Provider returns a RepositoryProvider backed by the store.
func (m *Store) Provider() repositories.RepositoryProvider {
	return repositories.RepositoryProvider{
		Tx:            m,
		ExerciseRepo:  m,
		AccountRepo:   m,
		SubRepo:       m,
		EntryRepo:     m,
		PartyRepo:     m,
		MasterRepo:    m,
		DocumentRepo:  m,
		BalanceReader: m,
		ReportReader:  m,
	}
}

// SetLineFault installs (or clears, with nil) a hook called before every line save.
func (m *Store) SetLineFault(fault LineFault) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lineFault = fault
}

func (m *Store) nextIDLocked() int64 {
	id := m.st.nextID
	m.st.nextID++
	return id
}

// TransactionManager implementation -------------------------------------------

func (m *Store) InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*Store)
	return ok
}

func (m *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.InTransaction(ctx) {
		return fn(ctx)
	}

	m.mu.RLock()
	snapshot := m.st.clone()
	m.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			m.restore(snapshot)
			err = fmt.Errorf("transaction panicked: %v", p)
			return
		}
		if err != nil {
			m.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, m))
}

func (m *Store) restore(snapshot *state) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = snapshot
}

var (
	_ repositories.TransactionManager   = (*Store)(nil)
	_ repositories.ExerciseRepository   = (*Store)(nil)
	_ repositories.AccountRepository    = (*Store)(nil)
	_ repositories.SubaccountRepository = (*Store)(nil)
	_ repositories.EntryRepository      = (*Store)(nil)
	_ repositories.PartyRepository      = (*Store)(nil)
	_ repositories.MasterDataRepository = (*Store)(nil)
	_ repositories.DocumentRepository   = (*Store)(nil)
	_ repositories.BalanceReader        = (*Store)(nil)
)
