package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

// ErrNoOpenInvoices signals a payment against a party with nothing outstanding.
var ErrNoOpenInvoices = fmt.Errorf("%w: no open invoices for this party", httpx.ErrUnprocessable)

// PaymentResult is returned after a payment has been applied.
type PaymentResult struct {
	Payment   *Payment `json:"payment"`
	Unapplied float64  `json:"unapplied"`
}

// Service handles receivables business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService builds a Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// partyLock returns the mutex serialising payment application for one party.
// Payments for different parties proceed independently.
func (s *Service) partyLock(party string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[party]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[party] = lock
	}
	return lock
}

// CreateInvoice raises a new invoice.
func (s *Service) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	inv, err := NewInvoice(input)
	if err != nil {
		return nil, err
	}
	inv.ID = uuid.NewString()
	inv.CreatedAt = s.now()
	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("ledger: create invoice: %w", err)
	}
	s.logger.Info("invoice created",
		slog.String("id", inv.ID),
		slog.String("party", inv.Party),
		slog.Float64("amount", inv.Amount))
	return inv, nil
}

// GetInvoice fetches a single invoice.
func (s *Service) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// ListInvoices lists invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, filter)
}

// InterestQuote reports the interest outstanding on one invoice as of asOf.
type InterestQuote struct {
	InvoiceID           string    `json:"invoiceId"`
	AsOf                time.Time `json:"asOf"`
	InterestOutstanding float64   `json:"interestOutstanding"`
	Balance             float64   `json:"balance"`
}

// QuoteInterest previews interest for an invoice without mutating it.
func (s *Service) QuoteInterest(ctx context.Context, id string, asOf time.Time) (*InterestQuote, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	return &InterestQuote{
		InvoiceID:           inv.ID,
		AsOf:                asOf,
		InterestOutstanding: Round2(PreviewInterest(inv, asOf)),
		Balance:             inv.Balance,
	}, nil
}

// PreviewPayment runs a dry allocation of the payment without persisting.
// Amount zero is permitted here and yields zero totals.
func (s *Service) PreviewPayment(ctx context.Context, input PaymentInput) (*AllocationPreview, error) {
	if input.Party == "" {
		return nil, fmt.Errorf("%w: party is required", httpx.ErrValidation)
	}
	if input.PaymentDate.IsZero() {
		return nil, fmt.Errorf("%w: payment date is required", httpx.ErrValidation)
	}
	if input.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", httpx.ErrValidation)
	}
	open, err := s.repo.ListOpenByParty(ctx, input.Party)
	if err != nil {
		return nil, fmt.Errorf("ledger: list open invoices: %w", err)
	}
	preview := PreviewAllocation(open, input.Party, input.Amount, input.PaymentDate)
	if preview == nil {
		return nil, ErrNoOpenInvoices
	}
	return preview, nil
}

// ApplyPayment allocates a payment across the party's open invoices, newest
// sale first and principal before interest, then persists the touched
// invoices and the payment record in one atomic repository call.
func (s *Service) ApplyPayment(ctx context.Context, input PaymentInput) (*PaymentResult, error) {
	if err := validatePayment(input); err != nil {
		return nil, err
	}

	lock := s.partyLock(input.Party)
	lock.Lock()
	defer lock.Unlock()

	open, err := s.repo.ListOpenByParty(ctx, input.Party)
	if err != nil {
		return nil, fmt.Errorf("ledger: list open invoices: %w", err)
	}
	candidates := openForParty(open, input.Party)
	if len(candidates) == 0 {
		return nil, ErrNoOpenInvoices
	}

	remaining := input.Amount
	var touched []Invoice
	var applied []AllocationEntry

	for i := range candidates {
		if remaining <= 0 {
			break
		}
		inv := &candidates[i]
		commitInterest(inv, input.PaymentDate)

		var principalApplied float64
		if inv.Balance > 0 {
			principalApplied = min(remaining, inv.Balance)
			inv.Balance -= principalApplied
			inv.PaidAmount += principalApplied
			remaining -= principalApplied
		}

		var interestApplied float64
		if remaining > 0 {
			interestApplied = min(remaining, inv.InterestAccrued)
		}
		inv.InterestAccrued -= interestApplied
		remaining -= interestApplied

		if inv.Balance == 0 {
			if inv.InterestAccrued > 0 {
				inv.Status = StatusInterestDue
			} else {
				inv.Status = StatusPaid
			}
		} else if inv.Balance < inv.Amount {
			inv.Status = StatusPartial
		} else {
			inv.Status = StatusPending
		}

		applied = append(applied, AllocationEntry{
			InvoiceID:         inv.ID,
			Principal:         Round2(principalApplied),
			Interest:          Round2(interestApplied),
			BalanceRemaining:  Round2(inv.Balance),
			InterestRemaining: Round2(inv.InterestAccrued),
		})
		touched = append(touched, *inv)
	}

	payment := &Payment{
		ID:          uuid.NewString(),
		Party:       input.Party,
		PaymentDate: input.PaymentDate,
		Amount:      input.Amount,
		Mode:        paymentMode(input.Mode),
		Reference:   input.Reference,
		Notes:       input.Notes,
		AppliedTo:   applied,
		CreatedAt:   s.now(),
	}

	if err := s.repo.RecordPayment(ctx, touched, payment); err != nil {
		return nil, fmt.Errorf("ledger: record payment: %w", err)
	}

	s.logger.Info("payment applied",
		slog.String("id", payment.ID),
		slog.String("party", payment.Party),
		slog.Float64("amount", payment.Amount),
		slog.Int("invoices", len(applied)))

	return &PaymentResult{
		Payment:   payment,
		Unapplied: Round2(max(0, remaining)),
	}, nil
}

// ListPayments returns payment records, optionally filtered by party.
func (s *Service) ListPayments(ctx context.Context, party string) ([]Payment, error) {
	return s.repo.ListPayments(ctx, party)
}

func validatePayment(input PaymentInput) error {
	if input.Party == "" {
		return fmt.Errorf("%w: party is required", httpx.ErrValidation)
	}
	if input.PaymentDate.IsZero() {
		return fmt.Errorf("%w: payment date is required", httpx.ErrValidation)
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	return nil
}

func paymentMode(mode string) string {
	if mode == "" {
		return "online"
	}
	return mode
}
