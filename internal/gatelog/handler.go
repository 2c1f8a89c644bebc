package gatelog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warelog/warelog/internal/platform/httpx"
	"github.com/warelog/warelog/internal/shared"
)

// Handler exposes the gate log over JSON.
type Handler struct {
	svc *Service
}

// NewHandler constructs Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes attaches the gate log routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/gate", func(r chi.Router) {
		r.Get("/logs", h.list)
		r.Post("/logs", h.record)
		r.Get("/logs/{id}", h.get)
		r.Get("/alerts", h.alerts)
		r.Get("/stats", h.stats)
	})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
		return
	}
	log, err := h.svc.Record(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, log)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a positive integer"))
		return
	}
	log, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, log)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}
	q := r.URL.Query()
	if v := q.Get("vehicle_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("vehicle_id", "must be an integer"))
			return
		}
		filter.VehicleID = id
	}
	if v := q.Get("direction"); v != "" {
		dir := Direction(v)
		if !dir.Valid() {
			httpx.RespondError(w, shared.NewValidationError("direction", "must be in or out"))
			return
		}
		filter.Direction = dir
	}
	if v := q.Get("parked"); v != "" {
		parked, err := strconv.ParseBool(v)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("parked", "must be a boolean"))
			return
		}
		filter.Parked = parked
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("from", "must be RFC3339"))
			return
		}
		filter.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("to", "must be RFC3339"))
			return
		}
		filter.To = to
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			httpx.RespondError(w, shared.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	logs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": logs})
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	threshold := 0
	if v := r.URL.Query().Get("threshold_hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			httpx.RespondError(w, shared.NewValidationError("threshold_hours", "must be a non-negative integer"))
			return
		}
		threshold = parsed
	}
	alerts, err := h.svc.ParkedAlerts(r.Context(), threshold)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": alerts})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("from", "must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("to", "must be YYYY-MM-DD"))
		return
	}
	// The range is inclusive of the "to" day.
	report, err := h.svc.Stats(r.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
