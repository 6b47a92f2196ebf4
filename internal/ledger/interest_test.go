package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func overdueInvoice(balance float64, due time.Time) *Invoice {
	return &Invoice{
		ID:       "inv-1",
		Party:    "Acme Textiles",
		Amount:   balance,
		Balance:  balance,
		SaleDate: due.AddDate(0, 0, -CreditDays),
		DueDate:  due,
		Status:   StatusPending,
	}
}

func TestPreviewInterestBeforeDueDate(t *testing.T) {
	inv := overdueInvoice(10000, date(2024, time.March, 1))
	require.Zero(t, PreviewInterest(inv, date(2024, time.February, 1)))
	require.Zero(t, PreviewInterest(inv, date(2024, time.March, 1)))
}

func TestPreviewInterestPartialBlockEarnsNothing(t *testing.T) {
	inv := overdueInvoice(10000, date(2024, time.January, 1))
	got := PreviewInterest(inv, date(2024, time.January, 20))
	require.Zero(t, got)
}

func TestPreviewInterestWholeBlocks(t *testing.T) {
	inv := overdueInvoice(10000, date(2024, time.January, 1))

	// 64 days past due: two whole 30-day blocks.
	got := PreviewInterest(inv, date(2024, time.March, 5))
	require.InDelta(t, 300.0, got, 0.001)

	// One block at exactly 30 days.
	got = PreviewInterest(inv, date(2024, time.January, 31))
	require.InDelta(t, 150.0, got, 0.001)
}

func TestPreviewInterestIsIdempotent(t *testing.T) {
	inv := overdueInvoice(5000, date(2024, time.January, 1))
	ref := date(2024, time.April, 1)

	first := PreviewInterest(inv, ref)
	second := PreviewInterest(inv, ref)
	require.Equal(t, first, second)
	require.Zero(t, inv.InterestAccrued)
	require.Nil(t, inv.LastInterestComputed)
}

func TestPreviewInterestZeroBalance(t *testing.T) {
	inv := overdueInvoice(0, date(2024, time.January, 1))
	inv.InterestAccrued = 120
	got := PreviewInterest(inv, date(2024, time.June, 1))
	require.InDelta(t, 120.0, got, 0.001)
}

func TestCommitInterestAdvancesCheckpointByWholeBlocks(t *testing.T) {
	inv := overdueInvoice(10000, date(2024, time.January, 1))

	// 45 days past due: one block committed, 15 days remainder preserved.
	extra := commitInterest(inv, date(2024, time.February, 15))
	require.InDelta(t, 150.0, extra, 0.001)
	require.InDelta(t, 150.0, inv.InterestAccrued, 0.001)
	require.NotNil(t, inv.LastInterestComputed)
	require.Equal(t, date(2024, time.January, 31), *inv.LastInterestComputed)

	// Another 15 days completes the second block from the checkpoint.
	extra = commitInterest(inv, date(2024, time.March, 1))
	require.InDelta(t, 150.0, extra, 0.001)
	require.InDelta(t, 300.0, inv.InterestAccrued, 0.001)
	require.Equal(t, date(2024, time.March, 1), *inv.LastInterestComputed)
}

func TestCommitInterestNoopWithinBlock(t *testing.T) {
	inv := overdueInvoice(10000, date(2024, time.January, 1))
	extra := commitInterest(inv, date(2024, time.January, 20))
	require.Zero(t, extra)
	require.Nil(t, inv.LastInterestComputed)
}

func TestCommitInterestUsesCurrentBalance(t *testing.T) {
	inv := overdueInvoice(10000, date(2024, time.January, 1))
	inv.Balance = 4000
	inv.PaidAmount = 6000

	extra := commitInterest(inv, date(2024, time.January, 31))
	require.InDelta(t, 60.0, extra, 0.001)
}
