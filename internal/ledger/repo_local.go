package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

// LocalRepository keeps the ledger in memory and mirrors it to a JSON file,
// for single-machine deployments without PostgreSQL. Writes replace the file
// atomically via a temp file and rename.
type LocalRepository struct {
	mu   sync.RWMutex
	path string

	invoices []Invoice
	payments []Payment
}

type localSnapshot struct {
	Invoices []Invoice `json:"invoices"`
	Payments []Payment `json:"payments"`
}

// NewLocalRepository loads or creates the backing file at path.
func NewLocalRepository(path string) (*LocalRepository, error) {
	repo := &LocalRepository{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return repo, nil
		}
		return nil, fmt.Errorf("ledger: read local store: %w", err)
	}
	var snap localSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("ledger: decode local store: %w", err)
	}
	repo.invoices = snap.Invoices
	repo.payments = snap.Payments
	return repo, nil
}

// CreateInvoice appends the invoice and persists.
func (r *LocalRepository) CreateInvoice(_ context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices = append(r.invoices, *inv)
	if err := r.persist(); err != nil {
		r.invoices = r.invoices[:len(r.invoices)-1]
		return err
	}
	return nil
}

// GetInvoice returns a copy of one invoice.
func (r *LocalRepository) GetInvoice(_ context.Context, id string) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.invoices {
		if r.invoices[i].ID == id {
			inv := cloneInvoice(r.invoices[i])
			return &inv, nil
		}
	}
	return nil, fmt.Errorf("%w: invoice %s", httpx.ErrNotFound, id)
}

// ListInvoices returns invoices matching the filter in creation order.
func (r *LocalRepository) ListInvoices(_ context.Context, filter InvoiceFilter) ([]Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Invoice
	for _, inv := range r.invoices {
		if filter.Party != "" && inv.Party != filter.Party {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && inv.SaleDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && inv.SaleDate.After(filter.To) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	return out, nil
}

// ListOpenByParty returns the party's open invoices in creation order.
func (r *LocalRepository) ListOpenByParty(_ context.Context, party string) ([]Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.Party == party && (inv.Balance > 0 || inv.InterestAccrued > 0) {
			out = append(out, cloneInvoice(inv))
		}
	}
	return out, nil
}

// RecordPayment swaps in the touched invoices and appends the payment as one
// guarded update. On persist failure the previous state is restored.
func (r *LocalRepository) RecordPayment(_ context.Context, touched []Invoice, payment *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := make([]Invoice, len(r.invoices))
	copy(updated, r.invoices)
	for _, t := range touched {
		found := false
		for i := range updated {
			if updated[i].ID == t.ID {
				updated[i] = cloneInvoice(t)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: invoice %s", httpx.ErrNotFound, t.ID)
		}
	}

	prevInvoices, prevPayments := r.invoices, r.payments
	r.invoices = updated
	r.payments = append(r.payments, clonePayment(*payment))
	if err := r.persist(); err != nil {
		r.invoices = prevInvoices
		r.payments = prevPayments
		return err
	}
	return nil
}

// ListPayments returns payments, newest first.
func (r *LocalRepository) ListPayments(_ context.Context, party string) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Payment
	for i := len(r.payments) - 1; i >= 0; i-- {
		p := r.payments[i]
		if party != "" && p.Party != party {
			continue
		}
		out = append(out, clonePayment(p))
	}
	return out, nil
}

func (r *LocalRepository) persist() error {
	snap := localSnapshot{Invoices: r.invoices, Payments: r.payments}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode local store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".loomledger-*")
	if err != nil {
		return fmt.Errorf("ledger: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("ledger: write local store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("ledger: close local store: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("ledger: replace local store: %w", err)
	}
	return nil
}

func cloneInvoice(inv Invoice) Invoice {
	if inv.LastInterestComputed != nil {
		ts := *inv.LastInterestComputed
		inv.LastInterestComputed = &ts
	}
	return inv
}

func clonePayment(p Payment) Payment {
	if len(p.AppliedTo) > 0 {
		applied := make([]AllocationEntry, len(p.AppliedTo))
		copy(applied, p.AppliedTo)
		p.AppliedTo = applied
	}
	return p
}
