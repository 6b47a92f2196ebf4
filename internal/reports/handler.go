package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler manages report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cache   *SnapshotCache
}

// NewHandler builds Handler instance. cache may be nil when Redis is not
// configured; the dashboard then always computes fresh.
func NewHandler(logger *slog.Logger, service *Service, cache *SnapshotCache) *Handler {
	return &Handler{logger: logger, service: service, cache: cache}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/party/{party}", h.party)
	r.Get("/gst", h.gst)
	r.Get("/pnl", h.pnl)
	r.Get("/export/invoices.csv", h.exportInvoices)
	r.Get("/export/payments.csv", h.exportPayments)
}

func parseAsOf(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Time{}, true
	}
	asOf, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return asOf, true
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
		return
	}

	// Serve the background scan's copy when no explicit as_of is requested.
	if asOf.IsZero() && h.cache != nil {
		if snap, err := h.cache.Get(r.Context()); err != nil {
			h.logger.Warn("snapshot cache read failed", slog.Any("error", err))
		} else if snap != nil {
			httpx.JSON(w, http.StatusOK, snap)
			return
		}
	}

	snap, err := h.service.Dashboard(r.Context(), asOf)
	if err != nil {
		h.logger.Error("dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) party(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
		return
	}
	summary, err := h.service.Party(r.Context(), chi.URLParam(r, "party"), asOf)
	if err != nil {
		h.logger.Error("party summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) gst(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GST(r.Context())
	if err != nil {
		h.logger.Error("gst summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) pnl(w http.ResponseWriter, r *http.Request) {
	pnl, err := h.service.PNL(r.Context())
	if err != nil {
		h.logger.Error("pnl", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pnl)
}

func (h *Handler) exportInvoices(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.csv"`)
	if err := h.service.ExportInvoicesCSV(r.Context(), w, asOf); err != nil {
		h.logger.Error("export invoices", slog.Any("error", err))
	}
}

func (h *Handler) exportPayments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)
	if err := h.service.ExportPaymentsCSV(r.Context(), w); err != nil {
		h.logger.Error("export payments", slog.Any("error", err))
	}
}
