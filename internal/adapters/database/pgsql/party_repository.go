package pgsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type PgxPartyRepository struct {
	BaseRepository
}

var _ portsrepo.PartyRepository = (*PgxPartyRepository)(nil)

func (r *PgxPartyRepository) FindParty(ctx context.Context, kind domain.DocumentKind, code string) (domain.LedgerAccountHolder, error) {
	switch kind {
	case domain.SalesDocument:
		var c domain.Customer
		var group sql.NullString
		query := `SELECT codcliente, nombre, cifnif, codgrupo, codsubcuenta FROM clientes WHERE codcliente = $1`
		if err := r.db(ctx).QueryRow(ctx, query, code).Scan(&c.Code, &c.Name, &c.TaxNumber, &group, &c.SubaccountVal); err != nil {
			return nil, mapError(err, "customer %s", code)
		}
		c.GroupCodeVal = group.String
		return &c, nil
	case domain.PurchaseDocument:
		var s domain.Supplier
		query := `SELECT codproveedor, nombre, cifnif, acreedor, codsubcuenta FROM proveedores WHERE codproveedor = $1`
		if err := r.db(ctx).QueryRow(ctx, query, code).Scan(&s.Code, &s.Name, &s.TaxNumber, &s.IsCreditor, &s.SubaccountVal); err != nil {
			return nil, mapError(err, "supplier %s", code)
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("unknown document kind %q: %w", kind, apperrors.ErrValidation)
	}
}

func (r *PgxPartyRepository) FindCustomerGroup(ctx context.Context, code string) (*domain.CustomerGroup, error) {
	var g domain.CustomerGroup
	query := `SELECT codgrupo, nombre, codsubcuenta FROM gruposclientes WHERE codgrupo = $1`
	if err := r.db(ctx).QueryRow(ctx, query, code).Scan(&g.Code, &g.Name, &g.SubaccountVal); err != nil {
		return nil, mapError(err, "customer group %s", code)
	}
	return &g, nil
}

func (r *PgxPartyRepository) IsSubaccountCodeAssigned(ctx context.Context, code string, except domain.LedgerAccountHolder) (bool, error) {
	var exceptCustomer, exceptSupplier string
	switch p := except.(type) {
	case *domain.Customer:
		exceptCustomer = p.Code
	case *domain.Supplier:
		exceptSupplier = p.Code
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM clientes WHERE codsubcuenta = $1 AND codcliente <> $2
			UNION ALL
			SELECT 1 FROM proveedores WHERE codsubcuenta = $1 AND codproveedor <> $3
		);
	`
	var assigned bool
	if err := r.db(ctx).QueryRow(ctx, query, code, exceptCustomer, exceptSupplier).Scan(&assigned); err != nil {
		return false, fmt.Errorf("failed to check assignment of subaccount %s: %w", code, err)
	}
	return assigned, nil
}

func (r *PgxPartyRepository) SavePartySubaccount(ctx context.Context, party domain.LedgerAccountHolder) error {
	var query string
	switch party.(type) {
	case *domain.Customer:
		query = `UPDATE clientes SET codsubcuenta = $2 WHERE codcliente = $1`
	case *domain.Supplier:
		query = `UPDATE proveedores SET codsubcuenta = $2 WHERE codproveedor = $1`
	case *domain.CustomerGroup:
		query = `UPDATE gruposclientes SET codsubcuenta = $2 WHERE codgrupo = $1`
	default:
		return fmt.Errorf("unsupported party type %T: %w", party, apperrors.ErrValidation)
	}

	tag, err := r.db(ctx).Exec(ctx, query, party.PartyCode(), party.SubaccountCode())
	if err != nil {
		return fmt.Errorf("failed to save subaccount of party %s: %w", party.PartyCode(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("party %s: %w", party.PartyCode(), apperrors.ErrNotFound)
	}
	return nil
}

type PgxMasterDataRepository struct {
	BaseRepository
}

var _ portsrepo.MasterDataRepository = (*PgxMasterDataRepository)(nil)

func (r *PgxMasterDataRepository) FindTax(ctx context.Context, code string) (*domain.Tax, error) {
	var t domain.Tax
	query := `
		SELECT codimpuesto, descripcion, iva, recargo, codsubcuentarep, codsubcuentasop, codsubcuentarepre, codsubcuentasopre
		FROM impuestos WHERE codimpuesto = $1;
	`
	if err := r.db(ctx).QueryRow(ctx, query, code).Scan(&t.Code, &t.Description, &t.Rate, &t.SurchargeRate,
		&t.OutputSubaccount, &t.InputSubaccount, &t.SurchargeOutputSubaccount, &t.SurchargeInputSubaccount); err != nil {
		return nil, mapError(err, "tax %s", code)
	}
	return &t, nil
}

func (r *PgxMasterDataRepository) FindRetentionByPercentage(ctx context.Context, percentage decimal.Decimal) (*domain.Retention, error) {
	var ret domain.Retention
	query := `
		SELECT codretencion, porcentaje, codsubcuentaret, codsubcuentaacr
		FROM retenciones WHERE porcentaje = $1
		ORDER BY codretencion LIMIT 1;
	`
	if err := r.db(ctx).QueryRow(ctx, query, percentage).Scan(&ret.Code, &ret.Percentage, &ret.SalesSubaccount, &ret.PurchaseSubaccount); err != nil {
		return nil, mapError(err, "retention %s%%", percentage)
	}
	return &ret, nil
}

func (r *PgxMasterDataRepository) FindPaymentMethod(ctx context.Context, code string) (*domain.PaymentMethod, error) {
	var p domain.PaymentMethod
	query := `SELECT codpago, descripcion, codsubcuenta, codsubcuentagastos FROM formaspago WHERE codpago = $1`
	if err := r.db(ctx).QueryRow(ctx, query, code).Scan(&p.Code, &p.Description, &p.Subaccount, &p.ExpenseSubaccount); err != nil {
		return nil, mapError(err, "payment method %s", code)
	}
	return &p, nil
}

func (r *PgxMasterDataRepository) FindFamily(ctx context.Context, code string) (*domain.Family, error) {
	var f domain.Family
	query := `SELECT codfamilia, descripcion, codsubcuentaven, codsubcuentacom FROM familias WHERE codfamilia = $1`
	if err := r.db(ctx).QueryRow(ctx, query, code).Scan(&f.Code, &f.Description, &f.SalesSubaccount, &f.PurchaseSubaccount); err != nil {
		return nil, mapError(err, "family %s", code)
	}
	return &f, nil
}
