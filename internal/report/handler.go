package report

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"stocktrack/internal/httputil"
	"stocktrack/internal/inventory"
	"stocktrack/internal/logging"
)

// Handler serves the report views
type Handler struct {
	items             *inventory.Repository
	logger            *logging.Logger
	lowStockThreshold int
	topValueCount     int
}

func NewHandler(items *inventory.Repository, logger *logging.Logger, lowStockThreshold, topValueCount int) *Handler {
	return &Handler{
		items:             items,
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
		topValueCount:     topValueCount,
	}
}

type summaryResponse struct {
	Summary    Summary           `json:"summary"`
	Categories []CategoryStat    `json:"categories"`
	TopByValue []*inventory.Item `json:"top_by_value"`
}

// Summary godoc
// @Summary Inventory summary report
// @Description Headline figures, category breakdown and the most valuable items
// @Tags reports
// @Produce json
// @Param threshold query int false "Low stock threshold override"
// @Success 200 {object} summaryResponse
// @Failure 503 {object} httputil.ErrorResponse
// @Security BearerAuth
// @Router /reports/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to load inventory for report", "error", err)
		httputil.RespondErrorWithCode(w, "inventory storage unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	threshold := h.threshold(r)
	httputil.RespondJSON(w, summaryResponse{
		Summary:    Summarize(items, threshold),
		Categories: ByCategory(items),
		TopByValue: TopByValue(items, h.topValueCount),
	}, http.StatusOK)
}

// Categories godoc
// @Summary Per-category breakdown
// @Tags reports
// @Produce json
// @Success 200 {array} CategoryStat
// @Failure 503 {object} httputil.ErrorResponse
// @Security BearerAuth
// @Router /reports/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to load inventory for report", "error", err)
		httputil.RespondErrorWithCode(w, "inventory storage unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	httputil.RespondJSON(w, ByCategory(items), http.StatusOK)
}

// LowStock godoc
// @Summary Items below the low stock threshold
// @Tags reports
// @Produce json
// @Param threshold query int false "Low stock threshold override"
// @Success 200 {array} inventory.Item
// @Failure 503 {object} httputil.ErrorResponse
// @Security BearerAuth
// @Router /reports/low-stock [get]
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to load inventory for report", "error", err)
		httputil.RespondErrorWithCode(w, "inventory storage unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	low := LowStock(items, h.threshold(r))
	if low == nil {
		low = []*inventory.Item{}
	}
	httputil.RespondJSON(w, low, http.StatusOK)
}

// TopValue godoc
// @Summary Most valuable items
// @Description Items ordered by quantity times price, highest first
// @Tags reports
// @Produce json
// @Success 200 {array} inventory.Item
// @Failure 503 {object} httputil.ErrorResponse
// @Security BearerAuth
// @Router /reports/top-value [get]
func (h *Handler) TopValue(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to load inventory for report", "error", err)
		httputil.RespondErrorWithCode(w, "inventory storage unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	top := TopByValue(items, h.topValueCount)
	if top == nil {
		top = []*inventory.Item{}
	}
	httputil.RespondJSON(w, top, http.StatusOK)
}

// ExportCSV godoc
// @Summary Export the inventory as CSV
// @Tags reports
// @Produce text/csv
// @Success 200 {string} string "CSV file"
// @Failure 503 {object} httputil.ErrorResponse
// @Security BearerAuth
// @Router /reports/export [get]
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to load inventory for export", "error", err)
		httputil.RespondErrorWithCode(w, "inventory storage unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	filename := fmt.Sprintf("inventory_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := WriteCSV(w, items); err != nil {
		h.logger.Error("Failed to write CSV export", "error", err)
	}
}

// SummaryText godoc
// @Summary Plain text summary report
// @Tags reports
// @Produce plain
// @Param threshold query int false "Low stock threshold override"
// @Success 200 {string} string "Report text"
// @Failure 503 {object} httputil.ErrorResponse
// @Security BearerAuth
// @Router /reports/summary.txt [get]
func (h *Handler) SummaryText(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to load inventory for report", "error", err)
		httputil.RespondErrorWithCode(w, "inventory storage unavailable", httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
		return
	}

	threshold := h.threshold(r)
	text := RenderText(Summarize(items, threshold), ByCategory(items), time.Now())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// threshold reads an optional per-request override of the low stock threshold
func (h *Handler) threshold(r *http.Request) int {
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			return v
		}
	}
	return h.lowStockThreshold
}
