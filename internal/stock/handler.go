package stock

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warelog/warelog/internal/platform/httpx"
	"github.com/warelog/warelog/internal/shared"
)

// Handler exposes ledger reads over JSON.
type Handler struct {
	svc *Service
}

// NewHandler constructs Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes attaches the stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/stock", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/history", h.history)
		r.Get("/products/{productID}/total", h.totalForProduct)
		r.Get("/products/{productID}/locations/{locationID}", h.quantity)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": levels})
}

func (h *Handler) quantity(w http.ResponseWriter, r *http.Request) {
	productID, err := paramID(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	locationID, err := paramID(r, "locationID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	qty, err := h.svc.Quantity(r.Context(), productID, locationID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product_id":  productID,
		"location_id": locationID,
		"quantity":    qty,
	})
}

func (h *Handler) totalForProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := paramID(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	total, err := h.svc.TotalForProduct(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product_id": productID,
		"total":      total,
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := HistoryFilter{}
	if v := q.Get("product_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("product_id", "must be an integer"))
			return
		}
		filter.ProductID = id
	}
	if v := q.Get("location_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("location_id", "must be an integer"))
			return
		}
		filter.LocationID = id
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			httpx.RespondError(w, shared.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	entries, err := h.svc.History(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

func paramID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}
