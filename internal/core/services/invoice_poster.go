package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// taxSubtotal is the taxable base and tax of one (tax, rate, surcharge) group.
type taxSubtotal struct {
	tax             *domain.Tax
	taxCode         string
	rate            decimal.Decimal
	surchargeRate   decimal.Decimal
	base            decimal.Decimal
	amount          decimal.Decimal
	surchargeAmount decimal.Decimal
}

// InvoicePoster creates the journal entry of a customer or supplier invoice.
type InvoicePoster struct {
	poster
}

// NewInvoicePoster creates an InvoicePoster.
func NewInvoicePoster(repos portsrepo.RepositoryProvider, resolver portssvc.SubaccountResolverSvc, messages logging.MessageLog, options ...PostingOption) *InvoicePoster {
	return &InvoicePoster{poster: newPoster("invoice", repos, resolver, messages, options)}
}

var _ portssvc.InvoicePosterSvc = (*InvoicePoster)(nil)

func (s *InvoicePoster) Post(ctx context.Context, invoice *domain.Invoice) error {
	ctx, _ = logging.WithOperation(ctx, "post_invoice",
		slog.String("invoice", invoice.Code),
		slog.String("kind", string(invoice.Kind)))

	if err := s.checkDocument(ctx, invoice, invoice.JournalEntryID); err != nil {
		return err
	}
	if invoice.Total.IsZero() {
		return s.fail(ctx, logging.KeyZeroTotal, fmt.Errorf("invoice %s: %w", invoice.Code, apperrors.ErrZeroTotal))
	}
	exercise, err := s.loadExercise(ctx, invoice.ExerciseCode)
	if err != nil {
		return err
	}
	if err := s.checkDates(ctx, exercise, invoice.Date); err != nil {
		return err
	}
	subtotals, err := s.taxSubtotals(ctx, invoice)
	if err != nil {
		return s.fail(ctx, logging.KeyTaxSubtotalsError, err)
	}

	sales := invoice.Kind == domain.SalesDocument
	entry, err := s.run(ctx, func(ctx context.Context, b *entryBuilder) error {
		if err := b.begin(ctx, domain.JournalEntry{
			ExerciseCode: exercise.Code,
			CompanyID:    invoice.CompanyID,
			Date:         invoice.Date,
			Concept:      invoiceConcept(invoice),
			Document:     invoice.Code,
			Amount:       invoice.Total,
			Channel:      channelOf(invoice.Channel),
			JournalID:    invoice.JournalID,
		}); err != nil {
			return err
		}
		if err := s.addPartyLine(ctx, b, *exercise, invoice, sales); err != nil {
			return err
		}
		if err := s.addTaxLines(ctx, b, *exercise, invoice, subtotals, sales); err != nil {
			return err
		}
		if err := s.addWithholdingLine(ctx, b, *exercise, invoice, sales); err != nil {
			return err
		}
		if err := s.addSuppliedLine(ctx, b, *exercise, invoice, sales); err != nil {
			return err
		}
		return s.addGoodsLines(ctx, b, *exercise, invoice, sales)
	}, func(ctx context.Context, entry *domain.JournalEntry) error {
		invoice.JournalEntryID = &entry.ID
		if err := s.documents.SetInvoiceEntry(ctx, invoice); err != nil {
			invoice.JournalEntryID = nil
			return keyed(logging.KeyEntrySaveError, fmt.Errorf("linking invoice %s: %w", invoice.Code, err))
		}
		return nil
	})
	if err != nil {
		invoice.JournalEntryID = nil
		return err
	}
	invoice.JournalEntryID = &entry.ID
	return nil
}

func invoiceConcept(invoice *domain.Invoice) string {
	label := "Supplier invoice"
	switch {
	case invoice.Kind == domain.SalesDocument && invoice.IsRectification():
		label = "Customer credit note"
	case invoice.Kind == domain.SalesDocument:
		label = "Customer invoice"
	case invoice.IsRectification():
		label = "Supplier credit note"
	}
	return fmt.Sprintf("%s %s - %s", label, invoice.Code, invoice.PartyName)
}

// taxSubtotals groups the taxable lines and checks the result against the invoice totals.
func (s *InvoicePoster) taxSubtotals(ctx context.Context, invoice *domain.Invoice) ([]*taxSubtotal, error) {
	if len(invoice.Lines) == 0 {
		return nil, fmt.Errorf("%w: invoice %s has no lines", apperrors.ErrTaxSubtotals, invoice.Code)
	}

	groups := make(map[string]*taxSubtotal)
	net, supplied := decimal.Zero, decimal.Zero
	for _, line := range invoice.Lines {
		if line.Supplied {
			supplied = supplied.Add(line.Net)
			continue
		}
		net = net.Add(line.Net)

		key := line.TaxCode + "|" + line.TaxRate.String() + "|" + line.SurchargeRate.String()
		group, ok := groups[key]
		if !ok {
			group = &taxSubtotal{taxCode: line.TaxCode, rate: line.TaxRate, surchargeRate: line.SurchargeRate}
			if line.TaxCode != "" {
				tax, err := s.master.FindTax(ctx, line.TaxCode)
				if err != nil {
					return nil, fmt.Errorf("%w: tax %s: %w", apperrors.ErrTaxSubtotals, line.TaxCode, err)
				}
				group.tax = tax
			}
			groups[key] = group
		}
		group.base = group.base.Add(line.Net)
	}

	out := make([]*taxSubtotal, 0, len(groups))
	totalTax, totalSurcharge := decimal.Zero, decimal.Zero
	for _, g := range groups {
		g.amount = g.base.Mul(g.rate).Div(hundred).Round(s.decimals)
		g.surchargeAmount = g.base.Mul(g.surchargeRate).Div(hundred).Round(s.decimals)
		totalTax = totalTax.Add(g.amount)
		totalSurcharge = totalSurcharge.Add(g.surchargeAmount)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].taxCode != out[j].taxCode {
			return out[i].taxCode < out[j].taxCode
		}
		if !out[i].rate.Equal(out[j].rate) {
			return out[i].rate.LessThan(out[j].rate)
		}
		return out[i].surchargeRate.LessThan(out[j].surchargeRate)
	})

	mismatch := func(name string, computed, declared decimal.Decimal) error {
		if computed.Round(s.decimals).Equal(declared.Round(s.decimals)) {
			return nil
		}
		return fmt.Errorf("%w: %s is %s, invoice says %s", apperrors.ErrTaxSubtotals, name,
			computed.StringFixed(s.decimals), declared.StringFixed(s.decimals))
	}
	if err := mismatch("net", net, invoice.Net); err != nil {
		return nil, err
	}
	if err := mismatch("supplied", supplied, invoice.TotalSupplied); err != nil {
		return nil, err
	}
	// intra-community invoices carry no tax, it is self-assessed in the entry
	if !invoice.IntraCommunity {
		if err := mismatch("tax", totalTax, invoice.TotalTax); err != nil {
			return nil, err
		}
		if err := mismatch("surcharge", totalSurcharge, invoice.TotalSurcharge); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *InvoicePoster) addPartyLine(ctx context.Context, b *entryBuilder, exercise domain.Exercise, invoice *domain.Invoice, sales bool) error {
	party, err := s.parties.FindParty(ctx, invoice.Kind, invoice.PartyCode)
	if err != nil {
		return keyed(logging.KeyPartySubaccountNotFound, fmt.Errorf("loading party %s: %w", invoice.PartyCode, err))
	}
	sub, err := s.resolver.ResolveForParty(ctx, exercise, party, true)
	if errors.Is(err, apperrors.ErrAllocationExhausted) {
		return keyed(logging.KeyNoFreeSubaccountCode, err)
	}
	if err != nil {
		return missingSpecial(string(party.Role()), err)
	}
	return b.addLine(ctx, sub, invoice.Total, sales, func(l *domain.JournalLine) {
		l.TaxNumber = invoice.TaxNumber
	})
}

func (s *InvoicePoster) resolveTax(ctx context.Context, exercise domain.Exercise, tax *domain.Tax, role domain.SpecialAccountRole) (*domain.Subaccount, error) {
	sub, err := s.resolver.ResolveTax(ctx, exercise, tax, role)
	if err != nil {
		return nil, missingSpecial(string(role), err)
	}
	return sub, nil
}

func (s *InvoicePoster) addTaxLines(ctx context.Context, b *entryBuilder, exercise domain.Exercise, invoice *domain.Invoice, subtotals []*taxSubtotal, sales bool) error {
	for _, g := range subtotals {
		decorate := func(l *domain.JournalLine) {
			l.TaxBase = g.base
			l.TaxRate = g.rate
			l.SurchargeRate = g.surchargeRate
			l.TaxNumber = invoice.TaxNumber
		}
		if g.amount.IsZero() && g.surchargeAmount.IsZero() {
			continue
		}

		if invoice.IntraCommunity {
			input, err := s.resolveTax(ctx, exercise, g.tax, domain.RoleTaxInputIntra)
			if err != nil {
				return err
			}
			output, err := s.resolveTax(ctx, exercise, g.tax, domain.RoleTaxOutputIntra)
			if err != nil {
				return err
			}
			if err := b.addLine(ctx, input, g.amount, true, decorate); err != nil {
				return err
			}
			if err := b.addLine(ctx, output, g.amount, false, decorate); err != nil {
				return err
			}
			continue
		}

		taxRole, surchargeRole := domain.RoleTaxInput, domain.RoleSurchargeInput
		if sales {
			taxRole, surchargeRole = domain.RoleTaxOutput, domain.RoleSurchargeOutput
		}
		if !g.amount.IsZero() {
			sub, err := s.resolveTax(ctx, exercise, g.tax, taxRole)
			if err != nil {
				return err
			}
			if err := b.addLine(ctx, sub, g.amount, !sales, decorate); err != nil {
				return err
			}
		}
		if !g.surchargeAmount.IsZero() {
			sub, err := s.resolveTax(ctx, exercise, g.tax, surchargeRole)
			if err != nil {
				return err
			}
			if err := b.addLine(ctx, sub, g.surchargeAmount, !sales, decorate); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *InvoicePoster) addWithholdingLine(ctx context.Context, b *entryBuilder, exercise domain.Exercise, invoice *domain.Invoice, sales bool) error {
	if invoice.TotalWithholding.IsZero() {
		return nil
	}
	sub, err := s.resolver.ResolveWithholding(ctx, exercise, invoice.WithholdingRate, sales)
	if err != nil {
		role := domain.RoleWithholdingPurchases
		if sales {
			role = domain.RoleWithholdingSales
		}
		return missingSpecial(string(role), err)
	}
	return b.addLine(ctx, sub, invoice.TotalWithholding, sales, nil)
}

func (s *InvoicePoster) addSuppliedLine(ctx context.Context, b *entryBuilder, exercise domain.Exercise, invoice *domain.Invoice, sales bool) error {
	if invoice.TotalSupplied.IsZero() {
		return nil
	}
	sub, err := s.resolver.ResolveSpecial(ctx, exercise, domain.RoleSuppliedExpenses)
	if err != nil {
		return missingSpecial(string(domain.RoleSuppliedExpenses), err)
	}
	return b.addLine(ctx, sub, invoice.TotalSupplied, !sales, nil)
}

func (s *InvoicePoster) addGoodsLines(ctx context.Context, b *entryBuilder, exercise domain.Exercise, invoice *domain.Invoice, sales bool) error {
	type goods struct {
		sub *domain.Subaccount
		net decimal.Decimal
	}
	byCode := make(map[string]*goods)
	for _, line := range invoice.Lines {
		if line.Supplied {
			continue
		}
		sub, err := s.resolver.ResolveGoods(ctx, exercise, line, invoice.Kind, invoice.IsRectification())
		if err != nil {
			return missingSpecial("goods", err)
		}
		g, ok := byCode[sub.Code]
		if !ok {
			g = &goods{sub: sub}
			byCode[sub.Code] = g
		}
		g.net = g.net.Add(line.Net)
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		g := byCode[code]
		if err := b.addLine(ctx, g.sub, g.net, !sales, nil); err != nil {
			return err
		}
	}
	return nil
}
