package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memoryLedgerRepo is an in-memory Repository for service tests.
type memoryLedgerRepo struct {
	invoices  []Invoice
	payments  []Payment
	recordErr error
}

func (m *memoryLedgerRepo) CreateInvoice(_ context.Context, inv *Invoice) error {
	m.invoices = append(m.invoices, *inv)
	return nil
}

func (m *memoryLedgerRepo) GetInvoice(_ context.Context, id string) (*Invoice, error) {
	for i := range m.invoices {
		if m.invoices[i].ID == id {
			inv := m.invoices[i]
			return &inv, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memoryLedgerRepo) ListInvoices(_ context.Context, filter InvoiceFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if filter.Party != "" && inv.Party != filter.Party {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *memoryLedgerRepo) ListOpenByParty(_ context.Context, party string) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.Party == party && (inv.Balance > 0 || inv.InterestAccrued > 0) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memoryLedgerRepo) RecordPayment(_ context.Context, touched []Invoice, payment *Payment) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	for _, t := range touched {
		for i := range m.invoices {
			if m.invoices[i].ID == t.ID {
				m.invoices[i] = t
			}
		}
	}
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *memoryLedgerRepo) ListPayments(_ context.Context, party string) ([]Payment, error) {
	var out []Payment
	for i := len(m.payments) - 1; i >= 0; i-- {
		if party != "" && m.payments[i].Party != party {
			continue
		}
		out = append(out, m.payments[i])
	}
	return out, nil
}

func newTestService(repo *memoryLedgerRepo) *Service {
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc.WithClock(func() time.Time { return date(2024, time.January, 1) })
}

func TestCreateInvoiceAcmeScenario(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, InvoiceInput{
		Party:    "Acme",
		SaleDate: date(2024, time.January, 1),
		Amount:   10000,
		GSTRate:  0,
	})
	require.NoError(t, err)
	require.Equal(t, date(2024, time.March, 31), inv.DueDate)
	require.InDelta(t, 10000.0, inv.Balance, 0.001)
	require.Equal(t, StatusPending, inv.Status)
	require.NotEmpty(t, inv.ID)

	result, err := svc.ApplyPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.January, 2),
		Amount:      4000,
	})
	require.NoError(t, err)
	require.Zero(t, result.Unapplied)

	stored, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.InDelta(t, 6000.0, stored.Balance, 0.001)
	require.InDelta(t, 4000.0, stored.PaidAmount, 0.001)
	require.Equal(t, StatusPartial, stored.Status)
	require.InDelta(t, stored.Amount, stored.Balance+stored.PaidAmount, 0.01)
}

func TestCreateInvoiceGSTExclusive(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)

	inv, err := svc.CreateInvoice(context.Background(), InvoiceInput{
		Party:        "Acme",
		SaleDate:     date(2024, time.January, 1),
		Amount:       1000,
		GSTRate:      5,
		GSTTreatment: TreatmentIntrastate,
	})
	require.NoError(t, err)
	require.InDelta(t, 1000.0, inv.TaxableValue, 0.001)
	require.InDelta(t, 50.0, inv.GSTAmount, 0.001)
	require.InDelta(t, 25.0, inv.CGSTAmount, 0.001)
	require.InDelta(t, 25.0, inv.SGSTAmount, 0.001)
	require.Zero(t, inv.IGSTAmount)
	require.InDelta(t, 1050.0, inv.Amount, 0.001)
}

func TestCreateInvoiceGSTInclusiveInterstate(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)

	inv, err := svc.CreateInvoice(context.Background(), InvoiceInput{
		Party:        "Acme",
		SaleDate:     date(2024, time.January, 1),
		Amount:       1050,
		GSTRate:      5,
		GSTTreatment: TreatmentInterstate,
		GSTInclusive: true,
	})
	require.NoError(t, err)
	require.InDelta(t, 1000.0, inv.TaxableValue, 0.001)
	require.InDelta(t, 50.0, inv.IGSTAmount, 0.001)
	require.Zero(t, inv.CGSTAmount)
	require.InDelta(t, 1050.0, inv.Amount, 0.001)
}

func TestCreateInvoiceRejectsBadInput(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, InvoiceInput{SaleDate: date(2024, time.January, 1), Amount: 100})
	require.Error(t, err)

	_, err = svc.CreateInvoice(ctx, InvoiceInput{Party: "Acme", Amount: 100})
	require.Error(t, err)

	_, err = svc.CreateInvoice(ctx, InvoiceInput{Party: "Acme", SaleDate: date(2024, time.January, 1), Amount: 0})
	require.Error(t, err)
}

func TestApplyPaymentNoOpenInvoices(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)

	_, err := svc.ApplyPayment(context.Background(), PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.January, 2),
		Amount:      500,
	})
	require.ErrorIs(t, err, ErrNoOpenInvoices)
}

func TestApplyPaymentCommitsInterestAndSettles(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, InvoiceInput{
		Party:    "Acme",
		SaleDate: date(2023, time.October, 3),
		Amount:   10000,
	})
	require.NoError(t, err)
	require.Equal(t, date(2024, time.January, 1), inv.DueDate)

	// 64 days past due: two blocks of interest (300) committed, then the
	// payment clears principal and interest with 700 left over.
	result, err := svc.ApplyPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.March, 5),
		Amount:      11000,
	})
	require.NoError(t, err)
	require.InDelta(t, 700.0, result.Unapplied, 0.001)
	require.Len(t, result.Payment.AppliedTo, 1)
	entry := result.Payment.AppliedTo[0]
	require.InDelta(t, 10000.0, entry.Principal, 0.001)
	require.InDelta(t, 300.0, entry.Interest, 0.001)
	require.Zero(t, entry.BalanceRemaining)
	require.Zero(t, entry.InterestRemaining)

	stored, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, stored.Status)
	require.Zero(t, stored.Balance)
	require.Zero(t, stored.InterestAccrued)
}

func TestApplyPaymentLeavesInterestDue(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, InvoiceInput{
		Party:    "Acme",
		SaleDate: date(2023, time.October, 3),
		Amount:   10000,
	})
	require.NoError(t, err)

	// Pays principal exactly; two blocks of committed interest stay owed.
	result, err := svc.ApplyPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.March, 5),
		Amount:      10000,
	})
	require.NoError(t, err)
	require.Zero(t, result.Unapplied)

	stored, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInterestDue, stored.Status)
	require.Zero(t, stored.Balance)
	require.InDelta(t, 300.0, stored.InterestAccrued, 0.001)

	// Settling the interest flips the invoice to paid.
	_, err = svc.ApplyPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.March, 6),
		Amount:      300,
	})
	require.NoError(t, err)

	stored, err = svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, stored.Status)
	require.Zero(t, stored.InterestAccrued)
}

func TestApplyPaymentNewestFirstAcrossInvoices(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	older, err := svc.CreateInvoice(ctx, InvoiceInput{
		Party:    "Acme",
		SaleDate: date(2024, time.January, 1),
		Amount:   1000,
	})
	require.NoError(t, err)
	newer, err := svc.CreateInvoice(ctx, InvoiceInput{
		Party:    "Acme",
		SaleDate: date(2024, time.February, 1),
		Amount:   1000,
	})
	require.NoError(t, err)

	result, err := svc.ApplyPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.February, 10),
		Amount:      1500,
	})
	require.NoError(t, err)
	require.Len(t, result.Payment.AppliedTo, 2)
	require.Equal(t, newer.ID, result.Payment.AppliedTo[0].InvoiceID)
	require.Equal(t, older.ID, result.Payment.AppliedTo[1].InvoiceID)

	storedNewer, err := svc.GetInvoice(ctx, newer.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, storedNewer.Status)

	storedOlder, err := svc.GetInvoice(ctx, older.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPartial, storedOlder.Status)
	require.InDelta(t, 500.0, storedOlder.Balance, 0.001)
	require.InDelta(t, storedOlder.Amount, storedOlder.Balance+storedOlder.PaidAmount, 0.01)
}

func TestApplyPaymentPersistenceFailureLeavesStateUntouched(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, InvoiceInput{
		Party:    "Acme",
		SaleDate: date(2024, time.January, 1),
		Amount:   1000,
	})
	require.NoError(t, err)

	repo.recordErr = errors.New("connection reset")
	_, err = svc.ApplyPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.January, 10),
		Amount:      400,
	})
	require.Error(t, err)

	stored, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.InDelta(t, 1000.0, stored.Balance, 0.001)
	require.Zero(t, stored.PaidAmount)
	require.Equal(t, StatusPending, stored.Status)
	require.Empty(t, repo.payments)
}

func TestPreviewPaymentDoesNotMutate(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, InvoiceInput{
		Party:    "Acme",
		SaleDate: date(2023, time.October, 3),
		Amount:   10000,
	})
	require.NoError(t, err)

	preview, err := svc.PreviewPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.March, 5),
		Amount:      5000,
	})
	require.NoError(t, err)
	require.Len(t, preview.Breakdown, 1)

	stored, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.InDelta(t, 10000.0, stored.Balance, 0.001)
	require.Zero(t, stored.InterestAccrued)
	require.Nil(t, stored.LastInterestComputed)
	require.Empty(t, repo.payments)
}

func TestZeroAmountPreviewAfterSettlement(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, InvoiceInput{
		Party:    "Acme",
		SaleDate: date(2024, time.January, 1),
		Amount:   1000,
	})
	require.NoError(t, err)

	_, err = svc.ApplyPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.January, 10),
		Amount:      1000,
	})
	require.NoError(t, err)

	preview, err := svc.PreviewPayment(ctx, PaymentInput{
		Party:       "Acme",
		PaymentDate: date(2024, time.January, 11),
		Amount:      0,
	})
	require.NoError(t, err)
	require.Empty(t, preview.Breakdown)
	require.Zero(t, preview.Totals.TotalPrincipalApplied)
	require.Zero(t, preview.Totals.TotalInterestApplied)
	require.Zero(t, preview.Totals.PrincipalRemaining)
	require.Zero(t, preview.Totals.Unapplied)
}

func TestApplyPaymentValidation(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.ApplyPayment(ctx, PaymentInput{PaymentDate: date(2024, time.January, 1), Amount: 100})
	require.Error(t, err)

	_, err = svc.ApplyPayment(ctx, PaymentInput{Party: "Acme", Amount: 100})
	require.Error(t, err)

	_, err = svc.ApplyPayment(ctx, PaymentInput{Party: "Acme", PaymentDate: date(2024, time.January, 1), Amount: -5})
	require.Error(t, err)
}
