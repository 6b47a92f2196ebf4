package ledger

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loomledger/loomledger/internal/observability"
	"github.com/loomledger/loomledger/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler manages ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  *observability.Metrics
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		metrics:  metrics,
	}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.createInvoice)
	r.Get("/invoices", h.listInvoices)
	r.Get("/invoices/{id}", h.getInvoice)
	r.Get("/invoices/{id}/interest", h.quoteInterest)
	r.Post("/payments/preview", h.previewPayment)
	r.Post("/payments", h.applyPayment)
	r.Get("/payments", h.listPayments)
}

type createInvoiceRequest struct {
	Party            string  `json:"party" validate:"required"`
	Quality          string  `json:"quality"`
	InvoiceReference string  `json:"invoiceReference"`
	Description      string  `json:"description"`
	SaleDate         string  `json:"saleDate" validate:"required"`
	Amount           float64 `json:"amount" validate:"gt=0"`
	GSTRate          float64 `json:"gstRate" validate:"gte=0,lte=100"`
	GSTTreatment     string  `json:"gstTreatment" validate:"omitempty,oneof=intrastate interstate"`
	GSTInclusive     bool    `json:"gstInclusive"`
	CostOfSale       float64 `json:"costOfSale" validate:"gte=0"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	saleDate, err := time.Parse(dateLayout, req.SaleDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "saleDate must be YYYY-MM-DD")
		return
	}

	inv, err := h.service.CreateInvoice(r.Context(), InvoiceInput{
		Party:            req.Party,
		Quality:          req.Quality,
		InvoiceReference: req.InvoiceReference,
		Description:      req.Description,
		SaleDate:         saleDate,
		Amount:           req.Amount,
		GSTRate:          req.GSTRate,
		GSTTreatment:     GSTTreatment(req.GSTTreatment),
		GSTInclusive:     req.GSTInclusive,
		CostOfSale:       req.CostOfSale,
	})
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	filter := InvoiceFilter{
		Party:  r.URL.Query().Get("party"),
		Status: InvoiceStatus(r.URL.Query().Get("status")),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		ts, err := time.Parse(dateLayout, from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		filter.From = ts
	}
	if to := r.URL.Query().Get("to"); to != "" {
		ts, err := time.Parse(dateLayout, to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		filter.To = ts
	}

	invoices, err := h.service.ListInvoices(r.Context(), filter)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) quoteInterest(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		ts, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = ts
	}

	quote, err := h.service.QuoteInterest(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

type paymentRequest struct {
	Party       string  `json:"party" validate:"required"`
	PaymentDate string  `json:"paymentDate" validate:"required"`
	// gte, not gt: a zero amount is a legal preview (reports "nothing left to
	// process"); ApplyPayment still rejects non-positive amounts.
	Amount      float64 `json:"amount" validate:"gte=0"`
	Mode        string  `json:"mode"`
	Reference   string  `json:"reference"`
	Notes       string  `json:"notes"`
}

func (h *Handler) decodePayment(r *http.Request) (PaymentInput, error) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return PaymentInput{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return PaymentInput{}, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	paymentDate, err := time.Parse(dateLayout, req.PaymentDate)
	if err != nil {
		return PaymentInput{}, fmt.Errorf("%w: paymentDate must be YYYY-MM-DD", httpx.ErrValidation)
	}
	return PaymentInput{
		Party:       req.Party,
		PaymentDate: paymentDate,
		Amount:      req.Amount,
		Mode:        req.Mode,
		Reference:   req.Reference,
		Notes:       req.Notes,
	}, nil
}

func (h *Handler) previewPayment(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodePayment(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	preview, err := h.service.PreviewPayment(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodePayment(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.ApplyPayment(r.Context(), input)
	if err != nil {
		h.logger.Error("apply payment", slog.Any("error", err), slog.String("party", input.Party))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.PaymentApplied()
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), r.URL.Query().Get("party"))
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}
