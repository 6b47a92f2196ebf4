package reports

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loomledger/loomledger/internal/ledger"
	"github.com/loomledger/loomledger/internal/purchases"
)

type fakeLedger struct {
	invoices []ledger.Invoice
	payments []ledger.Payment
}

func (f *fakeLedger) ListInvoices(_ context.Context, filter ledger.InvoiceFilter) ([]ledger.Invoice, error) {
	var out []ledger.Invoice
	for _, inv := range f.invoices {
		if filter.Party != "" && inv.Party != filter.Party {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeLedger) ListPayments(_ context.Context, party string) ([]ledger.Payment, error) {
	var out []ledger.Payment
	for _, p := range f.payments {
		if party != "" && p.Party != party {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type fakePurchases struct {
	records []purchases.Purchase
}

func (f *fakePurchases) ListPurchases(_ context.Context, supplier string) ([]purchases.Purchase, error) {
	var out []purchases.Purchase
	for _, p := range f.records {
		if supplier != "" && p.Supplier != supplier {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testInvoices() []ledger.Invoice {
	return []ledger.Invoice{
		{
			ID: "inv-1", Party: "Acme Textiles",
			SaleDate: date(2024, time.January, 2), DueDate: date(2024, time.April, 1),
			Amount: 10000, PaidAmount: 4000, Balance: 6000,
			Status:       ledger.StatusPartial,
			GSTRate:      5, GSTTreatment: ledger.TreatmentIntrastate,
			TaxableValue: 9523.81, GSTAmount: 476.19, CGSTAmount: 238.1, SGSTAmount: 238.1,
			CostOfSale:   7000,
		},
		{
			ID: "inv-2", Party: "Bharat Mills",
			SaleDate: date(2024, time.April, 10), DueDate: date(2024, time.July, 9),
			Amount: 5000, Balance: 5000,
			Status:       ledger.StatusPending,
			GSTRate:      5, GSTTreatment: ledger.TreatmentInterstate,
			TaxableValue: 4761.9, GSTAmount: 238.1, IGSTAmount: 238.1,
			CostOfSale:   3500,
		},
	}
}

func newTestReports(led *fakeLedger, pur *fakePurchases) *Service {
	return NewService(led, pur).WithClock(func() time.Time {
		return date(2024, time.April, 15)
	})
}

func TestDashboard(t *testing.T) {
	led := &fakeLedger{invoices: testInvoices()}
	pur := &fakePurchases{records: []purchases.Purchase{
		{ID: "pur-1", Supplier: "Surat Yarns", Amount: 2500},
		{ID: "pur-2", Supplier: "Surat Yarns", Amount: 1500},
	}}
	svc := newTestReports(led, pur)

	// April 15: inv-1 is 14 days past due, inside the first block.
	snap, err := svc.Dashboard(context.Background(), time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 11000.0, snap.TotalOutstanding, 0.001)
	require.InDelta(t, 0.0, snap.TotalInterest, 0.001)
	require.Equal(t, 1, snap.OverdueCount)
	require.InDelta(t, 5000.0, snap.MonthlySales, 0.001)
	require.InDelta(t, 714.29, snap.TotalGST, 0.001)
	require.InDelta(t, 4000.0, snap.PurchaseTotal, 0.001)
	require.InDelta(t, 10500.0, snap.TotalCost, 0.001)
}

func TestDashboardInterestAfterBlock(t *testing.T) {
	led := &fakeLedger{invoices: testInvoices()}
	svc := newTestReports(led, &fakePurchases{})

	// May 15: 44 days past inv-1's due date, one full block on 6000 balance.
	snap, err := svc.Dashboard(context.Background(), date(2024, time.May, 15))
	require.NoError(t, err)
	require.InDelta(t, 90.0, snap.TotalInterest, 0.001)
}

func TestPartySummary(t *testing.T) {
	led := &fakeLedger{invoices: testInvoices()}
	svc := newTestReports(led, &fakePurchases{})

	summary, err := svc.Party(context.Background(), "Acme Textiles", time.Time{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Transactions)
	require.InDelta(t, 10000.0, summary.TotalSales, 0.001)
	require.InDelta(t, 4000.0, summary.TotalPaid, 0.001)
	require.InDelta(t, 6000.0, summary.Outstanding, 0.001)
	require.Equal(t, 1, summary.OverdueCount)
}

func TestGSTSummarySplitsByTreatment(t *testing.T) {
	led := &fakeLedger{invoices: testInvoices()}
	svc := newTestReports(led, &fakePurchases{})

	summary, err := svc.GST(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 238.1, summary.CGST, 0.001)
	require.InDelta(t, 238.1, summary.SGST, 0.001)
	require.InDelta(t, 238.1, summary.IGST, 0.001)
	require.InDelta(t, 714.29, summary.Total, 0.001)
}

func TestPNL(t *testing.T) {
	led := &fakeLedger{invoices: testInvoices()}
	svc := newTestReports(led, &fakePurchases{})

	pnl, err := svc.PNL(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 15000.0, pnl.Revenue, 0.001)
	require.InDelta(t, 10500.0, pnl.CostOfGoods, 0.001)
	require.InDelta(t, 4500.0, pnl.GrossProfit, 0.001)
}

func TestExportInvoicesCSV(t *testing.T) {
	led := &fakeLedger{invoices: testInvoices()}
	svc := newTestReports(led, &fakePurchases{})

	var buf bytes.Buffer
	require.NoError(t, svc.ExportInvoicesCSV(context.Background(), &buf, time.Time{}))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	require.True(t, strings.HasPrefix(lines[0], "# loomledger invoice export"))
	require.True(t, strings.HasPrefix(lines[2], "# rows 2"))
	require.Contains(t, lines[3], "id,party,quality")
	require.Contains(t, out, "inv-1,Acme Textiles")
	// amount plus en-IN grouped rendering side by side
	require.Contains(t, out, `10000.00,"10,000.00"`)
	require.Len(t, lines, 6)
}

func TestExportPaymentsCSVOneRowPerAllocation(t *testing.T) {
	led := &fakeLedger{payments: []ledger.Payment{
		{
			ID: "pay-1", Party: "Acme Textiles", Amount: 4000, Mode: "online",
			PaymentDate: date(2024, time.April, 15),
			AppliedTo: []ledger.AllocationEntry{
				{InvoiceID: "inv-1", Principal: 3000},
				{InvoiceID: "inv-0", Principal: 900, Interest: 100},
			},
		},
	}}
	svc := newTestReports(led, &fakePurchases{})

	var buf bytes.Buffer
	require.NoError(t, svc.ExportPaymentsCSV(context.Background(), &buf))

	out := buf.String()
	require.Contains(t, out, "pay-1,Acme Textiles,2024-04-15,online")
	require.Contains(t, out, "inv-1,3000.00,0.00")
	require.Contains(t, out, "inv-0,900.00,100.00")
}

func TestFormatINR(t *testing.T) {
	require.Equal(t, "1,23,456.79", formatINR(123456.789))
	require.Equal(t, "500.00", formatINR(500))
}
