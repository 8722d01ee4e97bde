package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
)

// PgxDocumentRepository keeps the entry reference of the documents owned by the invoicing tables.
type PgxDocumentRepository struct {
	BaseRepository
}

var _ portsrepo.DocumentRepository = (*PgxDocumentRepository)(nil)

func documentTables(kind domain.DocumentKind) (invoices, payments string, err error) {
	switch kind {
	case domain.SalesDocument:
		return "facturascli", "recibospagoscli", nil
	case domain.PurchaseDocument:
		return "facturasprov", "recibospagosprov", nil
	}
	return "", "", fmt.Errorf("unknown document kind %q: %w", kind, apperrors.ErrValidation)
}

func (r *PgxDocumentRepository) SetInvoiceEntry(ctx context.Context, invoice *domain.Invoice) error {
	table, _, err := documentTables(invoice.Kind)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + table + ` (idfactura, codigo, idasiento) VALUES ($1, $2, $3)
		ON CONFLICT (idfactura) DO UPDATE SET idasiento = EXCLUDED.idasiento;
	`
	_, err = r.db(ctx).Exec(ctx, query, invoice.ID, invoice.Code, invoice.JournalEntryID)
	return mapError(err, "saving entry of invoice %s", invoice.Code)
}

func (r *PgxDocumentRepository) SetPaymentEntry(ctx context.Context, payment *domain.Payment) error {
	_, table, err := documentTables(payment.Kind)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + table + ` (idpago, idasiento) VALUES ($1, $2)
		ON CONFLICT (idpago) DO UPDATE SET idasiento = EXCLUDED.idasiento;
	`
	_, err = r.db(ctx).Exec(ctx, query, payment.ID, payment.JournalEntryID)
	return mapError(err, "saving entry of payment %d", payment.ID)
}

func (r *PgxDocumentRepository) SetVatRegularizationEntry(ctx context.Context, reg *domain.VatRegularization) error {
	query := `
		INSERT INTO regularizacionimpuestos (idregiva, codejercicio, idempresa, periodo, fechainicio, fechafin, idasiento)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idregiva) DO UPDATE SET idasiento = EXCLUDED.idasiento;
	`
	_, err := r.db(ctx).Exec(ctx, query,
		reg.ID, reg.ExerciseCode, reg.CompanyID, reg.Period, reg.StartDate, reg.EndDate, reg.JournalEntryID)
	return mapError(err, "saving entry of vat regularization %d", reg.ID)
}

func (r *PgxDocumentRepository) FindVatRegularization(ctx context.Context, id int64) (*domain.VatRegularization, error) {
	var reg domain.VatRegularization
	query := `
		SELECT idregiva, codejercicio, idempresa, periodo, fechainicio, fechafin, idasiento
		FROM regularizacionimpuestos WHERE idregiva = $1;
	`
	if err := r.db(ctx).QueryRow(ctx, query, id).Scan(&reg.ID, &reg.ExerciseCode, &reg.CompanyID, &reg.Period,
		&reg.StartDate, &reg.EndDate, &reg.JournalEntryID); err != nil {
		return nil, mapError(err, "vat regularization %d", id)
	}
	return &reg, nil
}
