package ledger

import "time"

const (
	blockDays = 30
	dayLength = 24 * time.Hour
)

// checkpoint returns the instant interest accrual resumes from: the last
// committed checkpoint when it sits past the due date, otherwise the due date.
func checkpoint(inv *Invoice) time.Time {
	if inv.LastInterestComputed != nil && inv.LastInterestComputed.After(inv.DueDate) {
		return *inv.LastInterestComputed
	}
	return inv.DueDate
}

// additionalInterest computes interest earned since the checkpoint, in whole
// 30-day blocks at simple rate against the current balance. Partial blocks
// earn nothing.
func additionalInterest(inv *Invoice, ref time.Time) float64 {
	if inv == nil || inv.Balance <= 0 {
		return 0
	}
	if inv.DueDate.IsZero() || ref.IsZero() || !ref.After(inv.DueDate) {
		return 0
	}
	start := checkpoint(inv)
	if !ref.After(start) {
		return 0
	}
	days := int(ref.Sub(start) / dayLength)
	if days < blockDays {
		return 0
	}
	blocks := days / blockDays
	return inv.Balance * MonthlyInterestRate * float64(blocks)
}

// PreviewInterest returns the total interest outstanding as of ref without
// mutating the invoice.
func PreviewInterest(inv *Invoice, ref time.Time) float64 {
	if inv == nil {
		return 0
	}
	return inv.InterestAccrued + additionalInterest(inv, ref)
}

// commitInterest folds earned blocks into InterestAccrued and advances the
// checkpoint by exactly the blocks consumed, preserving any fractional
// remainder for the next accrual. Returns the amount just accrued.
func commitInterest(inv *Invoice, ref time.Time) float64 {
	extra := additionalInterest(inv, ref)
	if extra <= 0 {
		return 0
	}
	start := checkpoint(inv)
	blocks := int(ref.Sub(start)/dayLength) / blockDays
	advanced := start.Add(time.Duration(blocks*blockDays) * dayLength)
	inv.InterestAccrued += extra
	inv.LastInterestComputed = &advanced
	return extra
}
