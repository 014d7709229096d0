package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/observability"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/httpx"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/low-stock", h.lowStock)
	r.Get("/categories", h.categories)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
	r.Post("/{id}/adjust", h.adjust)
	r.Get("/{id}/movements", h.movements)
}

type itemRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Category     string  `json:"category" validate:"max=100"`
	Unit         string  `json:"unit" validate:"required"`
	ReorderLevel float64 `json:"reorderLevel" validate:"gte=0"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

type adjustRequest struct {
	Qty      float64 `json:"qty" validate:"required"`
	UnitCost float64 `json:"unitCost" validate:"gte=0"`
	Note     string  `json:"note" validate:"max=500"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("limit"))
	filter := ListFilter{
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		ActiveOnly: q.Get("active") == "true",
		Page:       page,
		PerPage:    perPage,
	}
	items, total, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	pagination := shared.NewPagination(filter.Page, filter.PerPage, total)
	httpx.List(w, items, total, pagination.Page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.service.CreateItem(r.Context(), CreateItemInput{
		Name:         req.Name,
		Category:     req.Category,
		Unit:         Unit(req.Unit),
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusCreated, item)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, item)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.service.UpdateItem(r.Context(), id, UpdateItemInput{
		Name:         req.Name,
		Category:     req.Category,
		ReorderLevel: req.ReorderLevel,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, item)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req adjustRequest
	if !h.decode(w, r, &req) {
		return
	}
	movement, err := h.service.Adjust(r.Context(), AdjustInput{
		ItemID:   id,
		Qty:      req.Qty,
		UnitCost: req.UnitCost,
		Note:     req.Note,
		ActorID:  shared.ActorID(r.Context()),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.metrics.RecordStockMutation(string(MovementAdjust))
	httpx.Data(w, http.StatusOK, movement)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListLowStock(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, items)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, categories)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := MovementFilter{}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from date")
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid to date")
			return
		}
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	movements, err := h.service.ListMovements(r.Context(), id, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, movements)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrItemInactive), errors.Is(err, ErrNegativeStock):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnit), errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("inventory request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
