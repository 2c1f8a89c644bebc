package transactions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warelog/warelog/internal/platform/httpx"
	"github.com/warelog/warelog/internal/shared"
)

// Handler exposes movement posting and reads over JSON.
type Handler struct {
	svc *Service
}

// NewHandler constructs Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes attaches the movement routes. Receipts and issues share the
// same handlers; the route decides the kind.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/receipts", func(r chi.Router) {
		r.Get("/", h.list(KindReceipt))
		r.Post("/", h.create(KindReceipt))
		r.Get("/{id}", h.get(KindReceipt))
	})
	r.Route("/issues", func(r chi.Router) {
		r.Get("/", h.list(KindIssue))
		r.Post("/", h.create(KindIssue))
		r.Get("/{id}", h.get(KindIssue))
	})
}

func (h *Handler) create(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body must be valid JSON")
			return
		}
		req.Kind = kind
		created, err := h.svc.Create(r.Context(), req)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, created)
	}
}

func (h *Handler) get(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.NewValidationError("id", "must be a positive integer"))
			return
		}
		header, err := h.svc.Get(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, header)
	}
}

func (h *Handler) list(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{Kind: kind}
		q := r.URL.Query()
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
		headers, err := h.svc.List(r.Context(), filter)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"data": headers})
	}
}
