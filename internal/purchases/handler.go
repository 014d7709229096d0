package purchases

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
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

// Handler wires purchase HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs the purchase handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}/payment-status", h.updatePaymentStatus)
}

type createRequest struct {
	ItemID        int64   `json:"itemId" validate:"required,gt=0"`
	SupplierID    *int64  `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	Qty           float64 `json:"qty" validate:"required,gt=0"`
	Unit          string  `json:"unit" validate:"max=20"`
	UnitPrice     float64 `json:"unitPrice" validate:"gte=0"`
	PurchaseDate  string  `json:"purchaseDate" validate:"omitempty,datetime=2006-01-02"`
	Location      string  `json:"location" validate:"max=200"`
	QualityGrade  string  `json:"qualityGrade" validate:"omitempty,oneof=A B C"`
	PaymentMethod string  `json:"paymentMethod" validate:"omitempty,oneof=cash bank mobile_money credit"`
	PaymentStatus string  `json:"paymentStatus" validate:"omitempty,oneof=paid pending partial"`
	Notes         string  `json:"notes" validate:"max=1000"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=paid pending partial"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateInput{
		ItemID:        req.ItemID,
		SupplierID:    req.SupplierID,
		Qty:           req.Qty,
		Unit:          req.Unit,
		UnitPrice:     req.UnitPrice,
		Location:      req.Location,
		QualityGrade:  QualityGrade(req.QualityGrade),
		PaymentMethod: PaymentMethod(req.PaymentMethod),
		PaymentStatus: PaymentStatus(req.PaymentStatus),
		Notes:         req.Notes,
		ActorID:       shared.ActorID(r.Context()),
	}
	if req.PurchaseDate != "" {
		date, err := time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase date")
			return
		}
		input.PurchaseDate = date
	}
	purchase, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.metrics.RecordStockMutation(string(inventory.MovementPurchase))
	httpx.Data(w, http.StatusCreated, purchase)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	purchase, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, purchase)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{}
	if id, err := strconv.ParseInt(q.Get("item_id"), 10, 64); err == nil {
		filter.ItemID = id
	}
	if id, err := strconv.ParseInt(q.Get("supplier_id"), 10, 64); err == nil {
		filter.SupplierID = id
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

	result, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	pagination := shared.NewPagination(filter.Page, filter.PerPage, total)
	httpx.List(w, result, total, pagination.Page)
}

func (h *Handler) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req paymentStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	purchase, err := h.service.UpdatePaymentStatus(r.Context(), id, PaymentStatus(req.PaymentStatus))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, purchase)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, inventory.ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, inventory.ErrItemInactive):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidEnum), errors.Is(err, ErrUnitMismatch):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("purchase request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
