package costing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

// Handler manages costing endpoints.
type Handler struct {
	logger  *slog.Logger
	presets *PresetStore
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, presets *PresetStore) *Handler {
	return &Handler{logger: logger, presets: presets}
}

// MountRoutes registers costing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/quote", h.quote)
	r.Get("/presets", h.listPresets)
	r.Post("/presets", h.upsertPreset)
	r.Delete("/presets/{id}", h.deletePreset)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var input QuoteInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, CalculateQuote(input))
}

func (h *Handler) listPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.presets.List(r.Context())
	if err != nil {
		h.logger.Error("list presets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"presets": presets})
}

func (h *Handler) upsertPreset(w http.ResponseWriter, r *http.Request) {
	var input PresetInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	preset, err := h.presets.Upsert(r.Context(), input)
	if err != nil {
		h.logger.Error("upsert preset", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preset)
}

func (h *Handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	if err := h.presets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
