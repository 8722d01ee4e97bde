package memory

import (
	"context"
	"sort"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	"github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
)

type balanceKey struct {
	channel int
	subID   int64
}

// postedLine is a line joined with its entry header and sub-account.
type postedLine struct {
	line  domain.JournalLine
	entry domain.JournalEntry
	sub   domain.Subaccount
}

func (m *Store) selectLinesLocked(q repositories.BalanceQuery) []postedLine {
	var out []postedLine
	for _, l := range m.st.lines {
		entry, ok := m.st.entries[l.EntryID]
		if !ok {
			continue
		}
		sub, ok := m.st.subaccounts[l.SubaccountID]
		if !ok {
			continue
		}
		if q.ExerciseCode != "" && entry.ExerciseCode != q.ExerciseCode {
			continue
		}
		if !q.InDateRange(entry.Date) || q.Excludes(entry.Operation) {
			continue
		}
		if q.Channel != nil && entry.ChannelKey() != *q.Channel {
			continue
		}
		if !q.InCodeRange(sub.Code) || !q.AcceptsRole(sub.SpecialAccount) {
			continue
		}
		out = append(out, postedLine{line: l, entry: entry, sub: sub})
	}
	return out
}

func (m *Store) SubaccountBalances(_ context.Context, q repositories.BalanceQuery) ([]domain.SubaccountBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make(map[balanceKey]*domain.SubaccountBalance)
	for _, p := range m.selectLinesLocked(q) {
		key := balanceKey{subID: p.sub.ID}
		if q.GroupByChannel {
			key.channel = p.entry.ChannelKey()
		}
		row, ok := rows[key]
		if !ok {
			account := m.st.accounts[p.sub.AccountID]
			row = &domain.SubaccountBalance{
				Channel:        key.channel,
				SubaccountID:   p.sub.ID,
				SubaccountCode: p.sub.Code,
				AccountID:      account.ID,
				AccountCode:    account.Code,
				Description:    p.sub.Description,
			}
			rows[key] = row
		}
		row.Debit = row.Debit.Add(p.line.Debit)
		row.Credit = row.Credit.Add(p.line.Credit)
	}

	out := make([]domain.SubaccountBalance, 0, len(rows))
	for _, row := range rows {
		if row.Debit.IsZero() && row.Credit.IsZero() {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Channel != out[j].Channel {
			return out[i].Channel < out[j].Channel
		}
		return out[i].SubaccountCode < out[j].SubaccountCode
	})
	return out, nil
}

func (m *Store) LedgerLines(_ context.Context, q repositories.LedgerQuery) ([]domain.LedgerLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.LedgerLine
	for _, p := range m.selectLinesLocked(q.BalanceQuery) {
		if !q.IsAfter(p.sub.Code, p.entry.Date, p.line.ID) {
			continue
		}
		out = append(out, domain.LedgerLine{
			LineID:          p.line.ID,
			EntryID:         p.entry.ID,
			EntryNumber:     p.entry.Number,
			Date:            p.entry.Date,
			Concept:         p.line.Concept,
			Document:        p.line.Document,
			SubaccountCode:  p.sub.Code,
			CounterpartCode: p.line.CounterpartCode,
			Debit:           p.line.Debit,
			Credit:          p.line.Credit,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubaccountCode != out[j].SubaccountCode {
			return out[i].SubaccountCode < out[j].SubaccountCode
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].LineID < out[j].LineID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
