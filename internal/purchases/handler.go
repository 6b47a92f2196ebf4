package purchases

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler manages purchase endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.recordPurchase)
	r.Get("/", h.listPurchases)
}

type purchaseRequest struct {
	Supplier     string  `json:"supplier" validate:"required"`
	YarnBrand    string  `json:"yarnBrand"`
	YarnCount    string  `json:"yarnCount"`
	YarnType     string  `json:"yarnType"`
	RatePerKg    float64 `json:"ratePerKg" validate:"gte=0"`
	QuantityKg   float64 `json:"quantityKg" validate:"gte=0"`
	PurchaseDate string  `json:"purchaseDate" validate:"required"`
	Notes        string  `json:"notes"`
}

func (h *Handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	purchaseDate, err := time.Parse(dateLayout, req.PurchaseDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "purchaseDate must be YYYY-MM-DD")
		return
	}

	purchase, err := h.service.RecordPurchase(r.Context(), PurchaseInput{
		Supplier:     req.Supplier,
		YarnBrand:    req.YarnBrand,
		YarnCount:    req.YarnCount,
		YarnType:     req.YarnType,
		RatePerKg:    req.RatePerKg,
		QuantityKg:   req.QuantityKg,
		PurchaseDate: purchaseDate,
		Notes:        req.Notes,
	})
	if err != nil {
		h.logger.Error("record purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.service.ListPurchases(r.Context(), r.URL.Query().Get("supplier"))
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}
