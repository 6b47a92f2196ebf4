// Package reports aggregates the ledger and purchase books into read-only
// summaries and CSV exports.
package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loomledger/loomledger/internal/ledger"
	"github.com/loomledger/loomledger/internal/purchases"
)

// LedgerSource supplies invoices and payments.
type LedgerSource interface {
	ListInvoices(ctx context.Context, filter ledger.InvoiceFilter) ([]ledger.Invoice, error)
	ListPayments(ctx context.Context, party string) ([]ledger.Payment, error)
}

// PurchaseSource supplies purchase records.
type PurchaseSource interface {
	ListPurchases(ctx context.Context, supplier string) ([]purchases.Purchase, error)
}

// Service computes reports.
type Service struct {
	ledger    LedgerSource
	purchases PurchaseSource
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(ledgerSrc LedgerSource, purchaseSrc PurchaseSource) *Service {
	return &Service{ledger: ledgerSrc, purchases: purchaseSrc, now: time.Now}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Snapshot is the dashboard view of the books as of one instant.
type Snapshot struct {
	AsOf             time.Time `json:"asOf"`
	TotalOutstanding float64   `json:"totalOutstanding"`
	TotalInterest    float64   `json:"totalInterest"`
	OverdueCount     int       `json:"overdueCount"`
	MonthlySales     float64   `json:"monthlySales"`
	TotalGST         float64   `json:"totalGst"`
	TaxableValue     float64   `json:"taxableValue"`
	TotalCost        float64   `json:"totalCost"`
	PurchaseTotal    float64   `json:"purchaseTotal"`
}

// Dashboard aggregates invoices and purchases, fetched concurrently.
// Interest figures are previews as of asOf; nothing is committed.
func (s *Service) Dashboard(ctx context.Context, asOf time.Time) (*Snapshot, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}

	var invoices []ledger.Invoice
	var bought []purchases.Purchase

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = s.ledger.ListInvoices(gctx, ledger.InvoiceFilter{})
		if err != nil {
			return fmt.Errorf("reports: list invoices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bought, err = s.purchases.ListPurchases(gctx, "")
		if err != nil {
			return fmt.Errorf("reports: list purchases: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{AsOf: asOf}
	for i := range invoices {
		inv := &invoices[i]
		snap.TotalOutstanding += inv.Balance
		snap.TotalInterest += ledger.PreviewInterest(inv, asOf)
		if inv.Overdue(asOf) {
			snap.OverdueCount++
		}
		if inv.SaleDate.Year() == asOf.Year() && inv.SaleDate.Month() == asOf.Month() {
			snap.MonthlySales += inv.Amount
		}
		snap.TotalGST += inv.GSTAmount
		snap.TaxableValue += inv.TaxableValue
		snap.TotalCost += inv.CostOfSale
	}
	for _, p := range bought {
		snap.PurchaseTotal += p.Amount
	}
	roundSnapshot(snap)
	return snap, nil
}

func roundSnapshot(s *Snapshot) {
	s.TotalOutstanding = ledger.Round2(s.TotalOutstanding)
	s.TotalInterest = ledger.Round2(s.TotalInterest)
	s.MonthlySales = ledger.Round2(s.MonthlySales)
	s.TotalGST = ledger.Round2(s.TotalGST)
	s.TaxableValue = ledger.Round2(s.TaxableValue)
	s.TotalCost = ledger.Round2(s.TotalCost)
	s.PurchaseTotal = ledger.Round2(s.PurchaseTotal)
}

// PartySummary aggregates one party's book.
type PartySummary struct {
	Party        string  `json:"party"`
	TotalSales   float64 `json:"totalSales"`
	TotalPaid    float64 `json:"totalPaid"`
	Outstanding  float64 `json:"outstanding"`
	Interest     float64 `json:"interest"`
	OverdueCount int     `json:"overdueCount"`
	Transactions int     `json:"transactions"`
	GST          float64 `json:"gst"`
	Taxable      float64 `json:"taxable"`
	Cost         float64 `json:"cost"`
}

// Party summarises one party's invoices as of asOf.
func (s *Service) Party(ctx context.Context, party string, asOf time.Time) (*PartySummary, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	invoices, err := s.ledger.ListInvoices(ctx, ledger.InvoiceFilter{Party: party})
	if err != nil {
		return nil, fmt.Errorf("reports: list invoices: %w", err)
	}
	summary := &PartySummary{Party: party}
	for i := range invoices {
		inv := &invoices[i]
		summary.TotalSales += inv.Amount
		summary.TotalPaid += inv.PaidAmount
		summary.Outstanding += inv.Balance
		summary.Interest += ledger.PreviewInterest(inv, asOf)
		if inv.Overdue(asOf) {
			summary.OverdueCount++
		}
		summary.Transactions++
		summary.GST += inv.GSTAmount
		summary.Taxable += inv.TaxableValue
		summary.Cost += inv.CostOfSale
	}
	summary.TotalSales = ledger.Round2(summary.TotalSales)
	summary.TotalPaid = ledger.Round2(summary.TotalPaid)
	summary.Outstanding = ledger.Round2(summary.Outstanding)
	summary.Interest = ledger.Round2(summary.Interest)
	summary.GST = ledger.Round2(summary.GST)
	summary.Taxable = ledger.Round2(summary.Taxable)
	summary.Cost = ledger.Round2(summary.Cost)
	return summary, nil
}

// GSTSummary splits collected GST by treatment.
type GSTSummary struct {
	CGST    float64 `json:"cgst"`
	SGST    float64 `json:"sgst"`
	IGST    float64 `json:"igst"`
	Taxable float64 `json:"taxable"`
	Total   float64 `json:"total"`
}

// GST aggregates GST amounts across all invoices.
func (s *Service) GST(ctx context.Context) (*GSTSummary, error) {
	invoices, err := s.ledger.ListInvoices(ctx, ledger.InvoiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("reports: list invoices: %w", err)
	}
	summary := &GSTSummary{}
	for _, inv := range invoices {
		if inv.GSTTreatment == ledger.TreatmentInterstate {
			summary.IGST += inv.GSTAmount
		} else {
			summary.CGST += inv.CGSTAmount
			summary.SGST += inv.SGSTAmount
		}
		summary.Taxable += inv.TaxableValue
		summary.Total += inv.GSTAmount
	}
	summary.CGST = ledger.Round2(summary.CGST)
	summary.SGST = ledger.Round2(summary.SGST)
	summary.IGST = ledger.Round2(summary.IGST)
	summary.Taxable = ledger.Round2(summary.Taxable)
	summary.Total = ledger.Round2(summary.Total)
	return summary, nil
}

// ProfitAndLoss is the simple trading statement.
type ProfitAndLoss struct {
	Revenue      float64 `json:"revenue"`
	CostOfGoods  float64 `json:"costOfGoods"`
	GSTCollected float64 `json:"gstCollected"`
	GrossProfit  float64 `json:"grossProfit"`
}

// PNL aggregates revenue against recorded cost of sale.
func (s *Service) PNL(ctx context.Context) (*ProfitAndLoss, error) {
	invoices, err := s.ledger.ListInvoices(ctx, ledger.InvoiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("reports: list invoices: %w", err)
	}
	pnl := &ProfitAndLoss{}
	for _, inv := range invoices {
		pnl.Revenue += inv.Amount
		pnl.CostOfGoods += inv.CostOfSale
		pnl.GSTCollected += inv.GSTAmount
		pnl.GrossProfit += inv.Amount - inv.CostOfSale
	}
	pnl.Revenue = ledger.Round2(pnl.Revenue)
	pnl.CostOfGoods = ledger.Round2(pnl.CostOfGoods)
	pnl.GSTCollected = ledger.Round2(pnl.GSTCollected)
	pnl.GrossProfit = ledger.Round2(pnl.GrossProfit)
	return pnl, nil
}
