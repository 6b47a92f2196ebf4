// Package ledger implements the receivables ledger: invoice lifecycle,
// overdue interest accrual and payment allocation.
package ledger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

const (
	// MonthlyInterestRate is the simple interest rate charged per 30-day block.
	MonthlyInterestRate = 0.015
	// CreditDays is the credit period granted on every invoice.
	CreditDays = 90
)

// InvoiceStatus enumerates persisted invoice statuses.
type InvoiceStatus string

const (
	StatusPending     InvoiceStatus = "pending"
	StatusPartial     InvoiceStatus = "partial"
	StatusPaid        InvoiceStatus = "paid"
	StatusInterestDue InvoiceStatus = "interest_due"
)

// GSTTreatment enumerates GST treatments.
type GSTTreatment string

const (
	TreatmentIntrastate GSTTreatment = "intrastate"
	TreatmentInterstate GSTTreatment = "interstate"
)

// Invoice is a receivable owed by a party.
type Invoice struct {
	ID               string        `json:"id"`
	Party            string        `json:"party"`
	Quality          string        `json:"quality"`
	InvoiceReference string        `json:"invoiceReference"`
	Description      string        `json:"description"`
	SaleDate         time.Time     `json:"saleDate"`
	DueDate          time.Time     `json:"dueDate"`
	Amount           float64       `json:"amount"`
	PaidAmount       float64       `json:"paidAmount"`
	Balance          float64       `json:"balance"`
	Status           InvoiceStatus `json:"status"`
	InterestAccrued  float64       `json:"interestAccrued"`
	// LastInterestComputed is the accrual checkpoint. Nil means accrual has
	// not started and the due date is the effective checkpoint.
	LastInterestComputed *time.Time `json:"lastInterestComputed,omitempty"`

	GSTRate      float64      `json:"gstRate"`
	GSTTreatment GSTTreatment `json:"gstTreatment"`
	GSTInclusive bool         `json:"gstInclusive"`
	TaxableValue float64      `json:"taxableValue"`
	GSTAmount    float64      `json:"gstAmount"`
	CGSTAmount   float64      `json:"cgstAmount"`
	SGSTAmount   float64      `json:"sgstAmount"`
	IGSTAmount   float64      `json:"igstAmount"`
	CostOfSale   float64      `json:"costOfSale"`

	CreatedAt time.Time `json:"createdAt"`
}

// Overdue reports whether the invoice carries a balance past its due date.
// It is derived, never persisted as a status.
func (inv *Invoice) Overdue(asOf time.Time) bool {
	return inv != nil && inv.Balance > 0 && inv.DueDate.Before(asOf)
}

// InvoiceInput carries the fields needed to raise an invoice.
type InvoiceInput struct {
	Party            string
	Quality          string
	InvoiceReference string
	Description      string
	SaleDate         time.Time
	Amount           float64
	GSTRate          float64
	GSTTreatment     GSTTreatment
	GSTInclusive     bool
	CostOfSale       float64
}

// NewInvoice builds an invoice from input, deriving GST amounts and the due
// date. It performs no persistence.
func NewInvoice(input InvoiceInput) (*Invoice, error) {
	if strings.TrimSpace(input.Party) == "" {
		return nil, fmt.Errorf("%w: party is required", httpx.ErrValidation)
	}
	if input.SaleDate.IsZero() {
		return nil, fmt.Errorf("%w: sale date is required", httpx.ErrValidation)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}

	treatment := input.GSTTreatment
	if treatment == "" {
		treatment = TreatmentIntrastate
	}

	rate := input.GSTRate
	taxable := input.Amount
	if input.GSTInclusive {
		taxable = input.Amount / (1 + rate/100)
	}
	gst := taxable * rate / 100
	total := input.Amount
	if !input.GSTInclusive {
		total = taxable + gst
	}
	var cgst, sgst, igst float64
	if treatment == TreatmentInterstate {
		igst = gst
	} else {
		cgst = gst / 2
		sgst = gst / 2
	}

	return &Invoice{
		Party:            input.Party,
		Quality:          input.Quality,
		InvoiceReference: input.InvoiceReference,
		Description:      input.Description,
		SaleDate:         input.SaleDate,
		DueDate:          input.SaleDate.AddDate(0, 0, CreditDays),
		Amount:           Round2(total),
		PaidAmount:       0,
		Balance:          Round2(total),
		Status:           StatusPending,
		InterestAccrued:  0,
		GSTRate:          rate,
		GSTTreatment:     treatment,
		GSTInclusive:     input.GSTInclusive,
		TaxableValue:     Round2(taxable),
		GSTAmount:        Round2(gst),
		CGSTAmount:       Round2(cgst),
		SGSTAmount:       Round2(sgst),
		IGSTAmount:       Round2(igst),
		CostOfSale:       Round2(input.CostOfSale),
	}, nil
}

// AllocationEntry records how much of a payment landed on one invoice.
type AllocationEntry struct {
	InvoiceID         string  `json:"invoiceId"`
	Principal         float64 `json:"principal"`
	Interest          float64 `json:"interest"`
	BalanceRemaining  float64 `json:"balanceRemaining"`
	InterestRemaining float64 `json:"interestRemaining"`
}

// Payment is an append-only record of money received from a party.
type Payment struct {
	ID          string            `json:"id"`
	Party       string            `json:"party"`
	PaymentDate time.Time         `json:"paymentDate"`
	Amount      float64           `json:"amount"`
	Mode        string            `json:"mode"`
	Reference   string            `json:"reference"`
	Notes       string            `json:"notes"`
	AppliedTo   []AllocationEntry `json:"appliedTo"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// PaymentInput carries the fields needed to apply a payment.
type PaymentInput struct {
	Party       string
	PaymentDate time.Time
	Amount      float64
	Mode        string
	Reference   string
	Notes       string
}

// Round2 rounds a monetary value to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
