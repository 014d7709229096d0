package packaging

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/inventory"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/observability"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/httpx"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/products"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

// Handler wires packaging HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs the packaging handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

// MountRoutes registers packaging routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.start)
	r.Get("/{id}", h.show)
	r.Patch("/{id}/actual-weight", h.updateActualWeight)
	r.Post("/{id}/items", h.addLine)
	r.Delete("/{id}/items/{lineId}", h.removeLine)
	r.Post("/{id}/complete", h.complete)
	r.Post("/{id}/cancel", h.cancel)
}

type startRequest struct {
	ItemID      int64   `json:"itemId" validate:"required,gt=0"`
	WeightTaken float64 `json:"weightTaken" validate:"required,gt=0"`
	Notes       string  `json:"notes" validate:"max=1000"`
}

type actualWeightRequest struct {
	ActualWeight float64 `json:"actualWeight" validate:"required,gt=0"`
}

type addLineRequest struct {
	ProductID    int64   `json:"productId" validate:"required,gt=0"`
	Qty          float64 `json:"qty" validate:"required,gt=0"`
	UnitWeight   float64 `json:"unitWeight" validate:"required,gt=0"`
	SellingPrice float64 `json:"sellingPrice" validate:"gte=0"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	batch, err := h.service.Start(r.Context(), StartInput{
		ItemID:      req.ItemID,
		WeightTaken: req.WeightTaken,
		Notes:       req.Notes,
		ActorID:     shared.ActorID(r.Context()),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.metrics.RecordStockMutation(string(inventory.MovementPackagingOut))
	httpx.Data(w, http.StatusCreated, batch)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	batch, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, batch)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status"))}
	if id, err := strconv.ParseInt(q.Get("item_id"), 10, 64); err == nil {
		filter.ItemID = id
	}
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
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("limit"))

	batches, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	pagination := shared.NewPagination(filter.Page, filter.PerPage, total)
	httpx.List(w, batches, total, pagination.Page)
}

func (h *Handler) updateActualWeight(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	var req actualWeightRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	batch, err := h.service.UpdateActualWeight(r.Context(), id, req.ActualWeight)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, batch)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	var req addLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	batch, err := h.service.AddLine(r.Context(), id, AddLineInput{
		ProductID:    req.ProductID,
		Qty:          req.Qty,
		UnitWeight:   req.UnitWeight,
		SellingPrice: req.SellingPrice,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, batch)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := h.parseID(w, r, "lineId")
	if !ok {
		return
	}
	batch, err := h.service.RemoveLine(r.Context(), id, lineID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, batch)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	batch, err := h.service.Complete(r.Context(), id, shared.ActorID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, batch)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	batch, err := h.service.Cancel(r.Context(), id, req.Reason, shared.ActorID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.metrics.RecordStockMutation(string(inventory.MovementPackagingReturn))
	httpx.Data(w, http.StatusOK, batch)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid identifier")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBatchNotFound), errors.Is(err, ErrLineNotFound),
		errors.Is(err, inventory.ErrItemNotFound), errors.Is(err, products.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNotInProgress), errors.Is(err, ErrInsufficientStock),
		errors.Is(err, inventory.ErrItemInactive), errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidWeight), errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrNoLines), errors.Is(err, ErrReasonRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("packaging request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
