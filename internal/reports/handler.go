package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/httpx"
)

// Handler wires reporting HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock-value", h.stockValue)
	r.Get("/purchases", h.purchases)
	r.Get("/packaging", h.packaging)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) stockValue(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.StockValue(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, report)
}

func (h *Handler) purchases(w http.ResponseWriter, r *http.Request) {
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	report, err := h.service.Purchases(r.Context(), window)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, report)
}

func (h *Handler) packaging(w http.ResponseWriter, r *http.Request) {
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	report, err := h.service.Packaging(r.Context(), window)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, report)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Invalidate(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "invalidated"})
}

// parseWindow reads from/to query dates, defaulting to the last 30 days.
func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (Window, bool) {
	q := r.URL.Query()
	now := time.Now().UTC()
	window := Window{From: now.AddDate(0, 0, -30), To: now}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from date")
			return Window{}, false
		}
		window.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid to date")
			return Window{}, false
		}
		window.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	if window.To.Before(window.From) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "window end precedes start")
		return Window{}, false
	}
	return window, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.logger.Error("report build failed", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
