package production

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loomledger/loomledger/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler manages production endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/machines", h.upsertMachine)
	r.Get("/machines", h.listMachines)
	r.Post("/workers", h.upsertWorker)
	r.Get("/workers", h.listWorkers)
	r.Post("/runs", h.logRun)
	r.Get("/runs", h.listRuns)
	r.Get("/summary", h.summary)
}

type machineRequest struct {
	ID            string  `json:"id"`
	Name          string  `json:"name" validate:"required"`
	LoomType      string  `json:"loomType"`
	ReedWidthInch float64 `json:"reedWidthInch" validate:"gte=0"`
	RPMTarget     float64 `json:"rpmTarget" validate:"gte=0"`
	ShiftPattern  string  `json:"shiftPattern"`
	Remarks       string  `json:"remarks"`
}

func (h *Handler) upsertMachine(w http.ResponseWriter, r *http.Request) {
	var req machineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	machine, err := h.service.UpsertMachine(r.Context(), MachineInput{
		ID:            req.ID,
		Name:          req.Name,
		LoomType:      req.LoomType,
		ReedWidthInch: req.ReedWidthInch,
		RPMTarget:     req.RPMTarget,
		ShiftPattern:  req.ShiftPattern,
		Remarks:       req.Remarks,
	})
	if err != nil {
		h.logger.Error("upsert machine", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, machine)
}

func (h *Handler) listMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.service.ListMachines(r.Context())
	if err != nil {
		h.logger.Error("list machines", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"machines": machines})
}

type workerRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	SkillLevel string `json:"skillLevel"`
	Contact    string `json:"contact"`
}

func (h *Handler) upsertWorker(w http.ResponseWriter, r *http.Request) {
	var req workerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	worker, err := h.service.UpsertWorker(r.Context(), WorkerInput{
		ID:         req.ID,
		Name:       req.Name,
		SkillLevel: req.SkillLevel,
		Contact:    req.Contact,
	})
	if err != nil {
		h.logger.Error("upsert worker", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, worker)
}

func (h *Handler) listWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.service.ListWorkers(r.Context())
	if err != nil {
		h.logger.Error("list workers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"workers": workers})
}

type runRequest struct {
	MachineID         string  `json:"machineId" validate:"required"`
	WorkerID          string  `json:"workerId"`
	Quality           string  `json:"quality"`
	ShiftDate         string  `json:"shiftDate" validate:"required"`
	ShiftType         string  `json:"shiftType"`
	MetersProduced    float64 `json:"metersProduced" validate:"gte=0"`
	Efficiency        float64 `json:"efficiency" validate:"gte=0,lte=100"`
	Accuracy          float64 `json:"accuracy" validate:"gte=0,lte=100"`
	DefectsPerMillion float64 `json:"defectsPerMillion" validate:"gte=0"`
	YarnBrand         string  `json:"yarnBrand"`
	YarnSupplier      string  `json:"yarnSupplier"`
	YarnRate          float64 `json:"yarnRate" validate:"gte=0"`
	Notes             string  `json:"notes"`
}

func (h *Handler) logRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	shiftDate, err := time.Parse(dateLayout, req.ShiftDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "shiftDate must be YYYY-MM-DD")
		return
	}

	run, err := h.service.LogRun(r.Context(), RunInput{
		MachineID:         req.MachineID,
		WorkerID:          req.WorkerID,
		Quality:           req.Quality,
		ShiftDate:         shiftDate,
		ShiftType:         req.ShiftType,
		MetersProduced:    req.MetersProduced,
		Efficiency:        req.Efficiency,
		Accuracy:          req.Accuracy,
		DefectsPerMillion: req.DefectsPerMillion,
		YarnBrand:         req.YarnBrand,
		YarnSupplier:      req.YarnSupplier,
		YarnRate:          req.YarnRate,
		Notes:             req.Notes,
	})
	if err != nil {
		h.logger.Error("log run", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, run)
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.service.ListRuns(r.Context(), r.URL.Query().Get("machine_id"))
	if err != nil {
		h.logger.Error("list runs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), r.URL.Query().Get("machine_id"))
	if err != nil {
		h.logger.Error("production summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
