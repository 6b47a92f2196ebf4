// Package purchases records yarn lots bought from suppliers.
package purchases

import (
	"fmt"
	"strings"
	"time"

	"github.com/loomledger/loomledger/internal/ledger"
	"github.com/loomledger/loomledger/internal/platform/httpx"
)

// Purchase is one yarn lot bought from a supplier.
type Purchase struct {
	ID           string    `json:"id"`
	Supplier     string    `json:"supplier"`
	YarnBrand    string    `json:"yarnBrand"`
	YarnCount    string    `json:"yarnCount"`
	YarnType     string    `json:"yarnType"`
	RatePerKg    float64   `json:"ratePerKg"`
	QuantityKg   float64   `json:"quantityKg"`
	Amount       float64   `json:"amount"`
	PurchaseDate time.Time `json:"purchaseDate"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PurchaseInput carries the fields needed to record a purchase.
type PurchaseInput struct {
	Supplier     string
	YarnBrand    string
	YarnCount    string
	YarnType     string
	RatePerKg    float64
	QuantityKg   float64
	PurchaseDate time.Time
	Notes        string
}

// NewPurchase builds a purchase, deriving the amount from rate and quantity
// when both are positive.
func NewPurchase(input PurchaseInput) (*Purchase, error) {
	if strings.TrimSpace(input.Supplier) == "" {
		return nil, fmt.Errorf("%w: supplier is required", httpx.ErrValidation)
	}
	if input.PurchaseDate.IsZero() {
		return nil, fmt.Errorf("%w: purchase date is required", httpx.ErrValidation)
	}

	var amount float64
	if input.RatePerKg > 0 && input.QuantityKg > 0 {
		amount = ledger.Round2(input.RatePerKg * input.QuantityKg)
	}

	return &Purchase{
		Supplier:     input.Supplier,
		YarnBrand:    input.YarnBrand,
		YarnCount:    input.YarnCount,
		YarnType:     input.YarnType,
		RatePerKg:    input.RatePerKg,
		QuantityKg:   input.QuantityKg,
		Amount:       amount,
		PurchaseDate: input.PurchaseDate,
		Notes:        input.Notes,
	}, nil
}
