package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/httpx"
)

// Handler wires product HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the product handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
}

type productRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	SKU          string  `json:"sku" validate:"required,max=64"`
	Category     string  `json:"category" validate:"max=100"`
	UnitWeight   float64 `json:"unitWeight" validate:"gte=0"`
	SellingPrice float64 `json:"sellingPrice" validate:"gte=0"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	result, total, err := h.service.List(r.Context(), ListFilters{
		Page:       page,
		Limit:      limit,
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		ActiveOnly: q.Get("active") == "true",
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.List(w, result, total, page)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	product, err := h.service.Create(r.Context(), Product{
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		UnitWeight:   req.UnitWeight,
		SellingPrice: req.SellingPrice,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	product, err := h.service.Update(r.Context(), id, Product{
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		UnitWeight:   req.UnitWeight,
		SellingPrice: req.SellingPrice,
		IsActive:     active,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, product)
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

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateSKU):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrInvalid):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("product request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
