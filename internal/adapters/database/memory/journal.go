package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryRepository implementation ------------------------------------------------

func (m *Store) FindEntry(_ context.Context, id int64) (*domain.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.st.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %d: %w", id, apperrors.ErrNotFound)
	}
	return &e, nil
}

func (m *Store) FindEntryLines(_ context.Context, entryID int64) ([]domain.JournalLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entryLinesLocked(entryID), nil
}

func (m *Store) entryLinesLocked(entryID int64) []domain.JournalLine {
	var out []domain.JournalLine
	for _, l := range m.st.lines {
		if l.EntryID == entryID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sort != out[j].Sort {
			return out[i].Sort < out[j].Sort
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Store) FindEntriesByOperation(_ context.Context, exerciseCode string, op domain.Operation) ([]domain.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.JournalEntry
	for _, e := range m.st.entries {
		if e.ExerciseCode == exerciseCode && e.Operation == op {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChannelKey() != out[j].ChannelKey() {
			return out[i].ChannelKey() < out[j].ChannelKey()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Store) SaveEntry(_ context.Context, entry *domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.st.exercises[entry.ExerciseCode]; !ok {
		return fmt.Errorf("exercise %s of entry: %w", entry.ExerciseCode, apperrors.ErrNotFound)
	}
	if entry.ID == 0 {
		entry.ID = m.nextIDLocked()
		m.st.entryNumbers[entry.ExerciseCode]++
		entry.Number = m.st.entryNumbers[entry.ExerciseCode]
	} else if _, ok := m.st.entries[entry.ID]; !ok {
		return fmt.Errorf("entry %d: %w", entry.ID, apperrors.ErrNotFound)
	}

	stored := *entry
	stored.Lines = nil
	m.st.entries[entry.ID] = stored
	return nil
}

func (m *Store) SaveLine(_ context.Context, line *domain.JournalLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lineFault != nil {
		if err := m.lineFault(*line); err != nil {
			return err
		}
	}
	if _, ok := m.st.entries[line.EntryID]; !ok {
		return fmt.Errorf("entry %d of line: %w", line.EntryID, apperrors.ErrNotFound)
	}
	sub, ok := m.st.subaccounts[line.SubaccountID]
	if !ok {
		return fmt.Errorf("subaccount %d of line: %w", line.SubaccountID, apperrors.ErrNotFound)
	}
	line.SubaccountCode = sub.Code

	var previousSub int64
	if line.ID == 0 {
		line.ID = m.nextIDLocked()
	} else if old, ok := m.st.lines[line.ID]; ok {
		previousSub = old.SubaccountID
	} else {
		return fmt.Errorf("line %d: %w", line.ID, apperrors.ErrNotFound)
	}

	m.st.lines[line.ID] = *line
	m.refreshSubaccountLocked(line.SubaccountID)
	if previousSub != 0 && previousSub != line.SubaccountID {
		m.refreshSubaccountLocked(previousSub)
	}
	return nil
}

func (m *Store) DeleteEntry(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	touched := make(map[int64]struct{})
	for lineID, l := range m.st.lines {
		if l.EntryID == id {
			touched[l.SubaccountID] = struct{}{}
			delete(m.st.lines, lineID)
		}
	}
	delete(m.st.entries, id)
	for subID := range touched {
		m.refreshSubaccountLocked(subID)
	}
	return nil
}

func (m *Store) refreshSubaccountLocked(subID int64) {
	sub, ok := m.st.subaccounts[subID]
	if !ok {
		return
	}
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range m.st.lines {
		if l.SubaccountID == subID {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
	}
	sub.Debit, sub.Credit, sub.Balance = debit, credit, debit.Sub(credit)
	m.st.subaccounts[subID] = sub
}

// LineCount returns the number of persisted journal lines.
func (m *Store) LineCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.st.lines)
}

// EntryCount returns the number of persisted journal entries.
func (m *Store) EntryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.st.entries)
}
