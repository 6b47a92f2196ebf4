package ledger

import (
	"sort"
	"time"
)

// AllocationLine describes how a payment would land on one invoice.
type AllocationLine struct {
	InvoiceID          string    `json:"invoiceId"`
	SaleDate           time.Time `json:"saleDate"`
	DueDate            time.Time `json:"dueDate"`
	Description        string    `json:"description"`
	InvoiceAmount      float64   `json:"invoiceAmount"`
	PrincipalApplied   float64   `json:"principalApplied"`
	InterestApplied    float64   `json:"interestApplied"`
	PrincipalRemaining float64   `json:"principalRemaining"`
	InterestRemaining  float64   `json:"interestRemaining"`
}

// AllocationTotals aggregates a preview across all touched invoices.
type AllocationTotals struct {
	PaymentAmount         float64 `json:"paymentAmount"`
	TotalPrincipalApplied float64 `json:"totalPrincipalApplied"`
	TotalInterestApplied  float64 `json:"totalInterestApplied"`
	PrincipalRemaining    float64 `json:"principalRemaining"`
	InterestRemaining     float64 `json:"interestRemaining"`
	Unapplied             float64 `json:"unapplied"`
}

// AllocationPreview is the read-only result of a dry-run allocation.
type AllocationPreview struct {
	Breakdown []AllocationLine `json:"breakdown"`
	Totals    AllocationTotals `json:"totals"`
}

// openForParty filters invoices still carrying principal or interest for the
// party and orders them newest sale first. Ties keep their input order, so
// callers passing invoices in creation order get a deterministic result.
func openForParty(invoices []Invoice, party string) []Invoice {
	var open []Invoice
	for _, inv := range invoices {
		if inv.Party == party && (inv.Balance > 0 || inv.InterestAccrued > 0) {
			open = append(open, inv)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].SaleDate.After(open[j].SaleDate)
	})
	return open
}

// PreviewAllocation simulates applying amount across the party's open
// invoices, newest first, principal before interest per invoice. Interest is
// previewed as of paymentDate; nothing is mutated. Returns nil when a positive
// amount has no open invoices to land on; a zero amount always yields a
// preview with zero totals.
func PreviewAllocation(invoices []Invoice, party string, amount float64, paymentDate time.Time) *AllocationPreview {
	if party == "" || amount < 0 {
		return nil
	}
	open := openForParty(invoices, party)
	if amount > 0 && len(open) == 0 {
		return nil
	}

	remaining := amount
	preview := &AllocationPreview{}
	var totalPrincipal, totalInterest float64

	for i := range open {
		if remaining <= 0 {
			break
		}
		inv := &open[i]
		interestOutstanding := PreviewInterest(inv, paymentDate)

		principalApplied := min(remaining, inv.Balance)
		balance := inv.Balance - principalApplied
		remaining -= principalApplied
		totalPrincipal += principalApplied

		var interestApplied float64
		if remaining > 0 {
			interestApplied = min(remaining, interestOutstanding)
		}
		interestOutstanding -= interestApplied
		remaining -= interestApplied
		totalInterest += interestApplied

		preview.Breakdown = append(preview.Breakdown, AllocationLine{
			InvoiceID:          inv.ID,
			SaleDate:           inv.SaleDate,
			DueDate:            inv.DueDate,
			Description:        inv.Description,
			InvoiceAmount:      inv.Amount,
			PrincipalApplied:   Round2(principalApplied),
			InterestApplied:    Round2(interestApplied),
			PrincipalRemaining: Round2(balance),
			InterestRemaining:  Round2(interestOutstanding),
		})
	}

	var principalLeft, interestLeft float64
	for _, line := range preview.Breakdown {
		principalLeft += line.PrincipalRemaining
		interestLeft += line.InterestRemaining
	}
	preview.Totals = AllocationTotals{
		PaymentAmount:         amount,
		TotalPrincipalApplied: totalPrincipal,
		TotalInterestApplied:  totalInterest,
		PrincipalRemaining:    principalLeft,
		InterestRemaining:     interestLeft,
		Unapplied:             max(0, remaining),
	}
	return preview
}
