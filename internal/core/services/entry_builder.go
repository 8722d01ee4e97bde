package services

import (
	"context"
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	"github.com/SscSPs/erp_accounting/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// entryBuilder writes one journal entry line by line. The first line's sub-account
// becomes the counterpart of every later line.
type entryBuilder struct {
	entries     portsrepo.EntryWriter
	decimals    int32
	entry       *domain.JournalEntry
	counterpart *domain.Subaccount
	sort        int
}

func newEntryBuilder(entries portsrepo.EntryWriter, decimals int32) *entryBuilder {
	return &entryBuilder{entries: entries, decimals: decimals}
}

// begin saves the entry header.
func (b *entryBuilder) begin(ctx context.Context, header domain.JournalEntry) error {
	header.ID = 0
	header.Lines = nil
	header.Amount = accounting.Round(header.Amount.Abs(), b.decimals)
	if err := b.entries.SaveEntry(ctx, &header); err != nil {
		return fmt.Errorf("saving entry header: %w", err)
	}
	b.entry = &header
	b.counterpart = nil
	b.sort = 0
	return nil
}

// addLine posts amount on the requested side of sub. Zero amounts add nothing and
// negative amounts go to the opposite column.
func (b *entryBuilder) addLine(ctx context.Context, sub *domain.Subaccount, amount decimal.Decimal, debit bool, decorate func(*domain.JournalLine)) error {
	amount = accounting.Round(amount, b.decimals)
	if amount.IsZero() {
		return nil
	}

	b.sort++
	line := domain.JournalLine{
		EntryID:        b.entry.ID,
		SubaccountID:   sub.ID,
		SubaccountCode: sub.Code,
		Concept:        b.entry.Concept,
		Document:       b.entry.Document,
		Sort:           b.sort,
	}
	line.SetAmount(amount, debit)
	if b.counterpart != nil {
		line.CounterpartID = &b.counterpart.ID
		line.CounterpartCode = b.counterpart.Code
	}
	if decorate != nil {
		decorate(&line)
	}

	if err := b.entries.SaveLine(ctx, &line); err != nil {
		return fmt.Errorf("saving line %d for subaccount %s: %w", b.sort, sub.Code, err)
	}
	b.entry.Lines = append(b.entry.Lines, line)
	if b.counterpart == nil {
		b.counterpart = sub
	}
	return nil
}

// addBalance posts a signed balance on sub: positive on the debit side, negative on the credit side.
func (b *entryBuilder) addBalance(ctx context.Context, sub *domain.Subaccount, net decimal.Decimal) error {
	debit, credit := accounting.Split(net)
	return b.addColumns(ctx, sub, debit, credit)
}

// cancelBalance posts the columns that bring a signed balance of sub to zero.
func (b *entryBuilder) cancelBalance(ctx context.Context, sub *domain.Subaccount, net decimal.Decimal) error {
	debit, credit := accounting.Reverse(net)
	return b.addColumns(ctx, sub, debit, credit)
}

func (b *entryBuilder) addColumns(ctx context.Context, sub *domain.Subaccount, debit, credit decimal.Decimal) error {
	if !debit.IsZero() {
		return b.addLine(ctx, sub, debit, true, nil)
	}
	return b.addLine(ctx, sub, credit, false, nil)
}

// finish checks the balance invariant and stores the final entry amount.
func (b *entryBuilder) finish(ctx context.Context) (*domain.JournalEntry, error) {
	if err := accounting.ValidateEntryBalance(b.entry.Lines, b.decimals); err != nil {
		return nil, err
	}
	b.entry.UpdateAmount()
	if err := b.entries.SaveEntry(ctx, b.entry); err != nil {
		return nil, fmt.Errorf("updating entry amount: %w", err)
	}
	return b.entry, nil
}

// discard deletes the entry and every line written so far.
func (b *entryBuilder) discard(ctx context.Context) error {
	if b.entry == nil || b.entry.ID == 0 {
		return nil
	}
	id := b.entry.ID
	b.entry = nil
	return b.entries.DeleteEntry(ctx, id)
}
