package ledger

import (
	"context"
	"time"
)

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Party  string
	Status InvoiceStatus
	From   time.Time
	To     time.Time
}

// Repository defines ledger persistence. Implementations must return
// invoices in creation order so allocation tie-breaks stay deterministic,
// and must persist RecordPayment atomically: either every touched invoice
// and the payment land together, or nothing does.
type Repository interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	ListOpenByParty(ctx context.Context, party string) ([]Invoice, error)
	RecordPayment(ctx context.Context, touched []Invoice, payment *Payment) error
	ListPayments(ctx context.Context, party string) ([]Payment, error)
}
