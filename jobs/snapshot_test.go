package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/loomledger/loomledger/internal/ledger"
	"github.com/loomledger/loomledger/internal/purchases"
	"github.com/loomledger/loomledger/internal/reports"
)

type fakeLedger struct {
	invoices []ledger.Invoice
}

func (f *fakeLedger) ListInvoices(context.Context, ledger.InvoiceFilter) ([]ledger.Invoice, error) {
	return append([]ledger.Invoice(nil), f.invoices...), nil
}

func (f *fakeLedger) ListPayments(context.Context, string) ([]ledger.Payment, error) {
	return nil, nil
}

type fakePurchases struct{}

func (fakePurchases) ListPurchases(context.Context, string) ([]purchases.Purchase, error) {
	return []purchases.Purchase{{ID: "pur-1", Supplier: "Surat Yarns", Amount: 2500}}, nil
}

func newScanner(t *testing.T) (*SnapshotScanner, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	led := &fakeLedger{invoices: []ledger.Invoice{
		{
			ID: "inv-1", Party: "Acme Textiles",
			SaleDate: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
			DueDate:  time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
			Amount:   10000, Balance: 6000, PaidAmount: 4000,
			Status: ledger.StatusPartial,
		},
	}}
	svc := reports.NewService(led, fakePurchases{}).WithClock(func() time.Time {
		return time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	})
	cache := reports.NewSnapshotCache(client, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSnapshotScanner(svc, cache, logger), client
}

func TestHandleReceivablesScanCachesSnapshot(t *testing.T) {
	scanner, client := newScanner(t)

	task, err := NewReceivablesScanTask(ReceivablesScanPayload{TriggeredBy: "cron"})
	require.NoError(t, err)
	require.NoError(t, scanner.HandleReceivablesScan(context.Background(), task))

	raw, err := client.Get(context.Background(), "ledger:snapshot").Bytes()
	require.NoError(t, err)

	var snap reports.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	require.InDelta(t, 6000.0, snap.TotalOutstanding, 0.001)
	require.Equal(t, 1, snap.OverdueCount)
	require.InDelta(t, 2500.0, snap.PurchaseTotal, 0.001)
}

func TestHandleReceivablesScanBadPayload(t *testing.T) {
	scanner, _ := newScanner(t)

	task := asynq.NewTask(TaskReceivablesScan, []byte("{not json"))
	err := scanner.HandleReceivablesScan(context.Background(), task)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}
