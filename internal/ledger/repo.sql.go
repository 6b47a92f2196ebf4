package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loomledger/loomledger/internal/platform/db"
	"github.com/loomledger/loomledger/internal/platform/httpx"
)

// SQLRepository provides PostgreSQL backed persistence.
type SQLRepository struct {
	pool *pgxpool.Pool
}

// NewSQLRepository constructs a repository.
func NewSQLRepository(pool *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{pool: pool}
}

const invoiceColumns = `id, party, quality, invoice_reference, description, sale_date, due_date,
amount, paid_amount, balance, status, interest_accrued, last_interest_computed,
gst_rate, gst_treatment, gst_inclusive, taxable_value, gst_amount,
cgst_amount, sgst_amount, igst_amount, cost_of_sale, created_at`

// CreateInvoice inserts a new invoice.
func (r *SQLRepository) CreateInvoice(ctx context.Context, inv *Invoice) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO ledger_invoices
(id, party, quality, invoice_reference, description, sale_date, due_date,
 amount, paid_amount, balance, status, interest_accrued, last_interest_computed,
 gst_rate, gst_treatment, gst_inclusive, taxable_value, gst_amount,
 cgst_amount, sgst_amount, igst_amount, cost_of_sale, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		inv.ID, inv.Party, inv.Quality, inv.InvoiceReference, inv.Description, inv.SaleDate, inv.DueDate,
		inv.Amount, inv.PaidAmount, inv.Balance, inv.Status, inv.InterestAccrued, inv.LastInterestComputed,
		inv.GSTRate, inv.GSTTreatment, inv.GSTInclusive, inv.TaxableValue, inv.GSTAmount,
		inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount, inv.CostOfSale, inv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: invoice %s", httpx.ErrDuplicate, inv.ID)
		}
		return fmt.Errorf("ledger: insert invoice: %w", err)
	}
	return nil
}

// GetInvoice fetches one invoice by id.
func (r *SQLRepository) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM ledger_invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %s", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return inv, nil
}

// ListInvoices returns invoices matching the filter in creation order.
func (r *SQLRepository) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM ledger_invoices WHERE 1=1`
	var args []any
	if filter.Party != "" {
		args = append(args, filter.Party)
		query += fmt.Sprintf(" AND party = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND sale_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND sale_date <= $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// ListOpenByParty returns the party's invoices still carrying principal or
// interest, in creation order.
func (r *SQLRepository) ListOpenByParty(ctx context.Context, party string) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM ledger_invoices
WHERE party = $1 AND (balance > 0 OR interest_accrued > 0) ORDER BY created_at`, party)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// RecordPayment persists the touched invoices and the payment record inside
// one repeatable-read transaction.
func (r *SQLRepository) RecordPayment(ctx context.Context, touched []Invoice, payment *Payment) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, inv := range touched {
			tag, err := tx.Exec(ctx, `UPDATE ledger_invoices
SET paid_amount = $2, balance = $3, status = $4, interest_accrued = $5, last_interest_computed = $6
WHERE id = $1`,
				inv.ID, inv.PaidAmount, inv.Balance, inv.Status, inv.InterestAccrued, inv.LastInterestComputed)
			if err != nil {
				return fmt.Errorf("ledger: update invoice %s: %w", inv.ID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: invoice %s", httpx.ErrNotFound, inv.ID)
			}
		}
		appliedTo, err := json.Marshal(payment.AppliedTo)
		if err != nil {
			return fmt.Errorf("ledger: marshal allocation: %w", err)
		}
		_, err = tx.Exec(ctx, `INSERT INTO ledger_payments
(id, party, payment_date, amount, mode, reference, notes, applied_to, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			payment.ID, payment.Party, payment.PaymentDate, payment.Amount, payment.Mode,
			payment.Reference, payment.Notes, appliedTo, payment.CreatedAt)
		if err != nil {
			return fmt.Errorf("ledger: insert payment: %w", err)
		}
		return nil
	})
}

// ListPayments returns payments, newest first, optionally for one party.
func (r *SQLRepository) ListPayments(ctx context.Context, party string) ([]Payment, error) {
	query := `SELECT id, party, payment_date, amount, mode, reference, notes, applied_to, created_at
FROM ledger_payments`
	var args []any
	if party != "" {
		query += ` WHERE party = $1`
		args = append(args, party)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		var appliedTo []byte
		if err := rows.Scan(&p.ID, &p.Party, &p.PaymentDate, &p.Amount, &p.Mode,
			&p.Reference, &p.Notes, &appliedTo, &p.CreatedAt); err != nil {
			return nil, err
		}
		if len(appliedTo) > 0 {
			if err := json.Unmarshal(appliedTo, &p.AppliedTo); err != nil {
				return nil, fmt.Errorf("ledger: unmarshal allocation: %w", err)
			}
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Party, &inv.Quality, &inv.InvoiceReference, &inv.Description,
		&inv.SaleDate, &inv.DueDate, &inv.Amount, &inv.PaidAmount, &inv.Balance, &inv.Status,
		&inv.InterestAccrued, &inv.LastInterestComputed, &inv.GSTRate, &inv.GSTTreatment,
		&inv.GSTInclusive, &inv.TaxableValue, &inv.GSTAmount, &inv.CGSTAmount, &inv.SGSTAmount,
		&inv.IGSTAmount, &inv.CostOfSale, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func collectInvoices(rows pgx.Rows) ([]Invoice, error) {
	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}
