// Package handler provides the HTTP handlers of the prices feature.
package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/domain/metrics"
	"pricewatch_backend/internal/feature/prices/transport/http/dto"
	"pricewatch_backend/internal/feature/prices/usecase"
)

// SeriesUsecase answers read queries over the stored series.
type SeriesUsecase interface {
	Categories() []usecase.CategoryInfo
	Series(ctx context.Context, category string, days int) (entity.Series, error)
	Latest(ctx context.Context, category string) (entity.Series, error)
	Changes(ctx context.Context, category string, days int) ([]usecase.ProductChange, error)
	Stats(ctx context.Context, category string, days int) (map[string]metrics.Stats, error)
	TimeRange(ctx context.Context, category string) (first, last time.Time, ok bool, err error)
}

// AlarmUsecase evaluates price alarms.
type AlarmUsecase interface {
	Check(ctx context.Context, category string, threshold float64) (usecase.AlarmReport, error)
	Notify(ctx context.Context, category string, threshold float64) (usecase.AlarmReport, bool, error)
}

// RefreshUsecase runs scrape cycles.
type RefreshUsecase interface {
	Refresh(ctx context.Context, category string) (usecase.RefreshReport, error)
	RefreshAll(ctx context.Context) ([]usecase.RefreshReport, error)
}

var errBadQuery = errors.New("invalid query parameter")

// PriceHandler serves the prices API.
type PriceHandler struct {
	series  SeriesUsecase
	alarms  AlarmUsecase
	refresh RefreshUsecase
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(series SeriesUsecase, alarms AlarmUsecase, refresh RefreshUsecase) *PriceHandler {
	return &PriceHandler{series: series, alarms: alarms, refresh: refresh}
}

// ListCategories handles GET /categories.
func (h *PriceHandler) ListCategories(c *gin.Context) {
	cats := h.series.Categories()
	out := make([]dto.CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, dto.NewCategory(cat.Name, cat.Products))
	}
	c.JSON(http.StatusOK, out)
}

// GetSeries handles GET /categories/:category/series?days=N. Without days the
// whole series is returned.
func (h *PriceHandler) GetSeries(c *gin.Context) {
	category := c.Param("category")
	days, err := daysParam(c, 0)
	if err != nil {
		h.fail(c, err)
		return
	}

	series, err := h.series.Series(c.Request.Context(), category, days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSeries(category, days, series))
}

// GetLatest handles GET /categories/:category/latest.
func (h *PriceHandler) GetLatest(c *gin.Context) {
	latest, err := h.series.Latest(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewObservations(latest))
}

// GetRange handles GET /categories/:category/range.
func (h *PriceHandler) GetRange(c *gin.Context) {
	category := c.Param("category")
	first, last, ok, err := h.series.TimeRange(c.Request.Context(), category)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRange(category, first, last, ok))
}

// GetChanges handles GET /categories/:category/changes?days=N.
func (h *PriceHandler) GetChanges(c *gin.Context) {
	days, err := daysParam(c, usecase.DefaultWindowDays)
	if err != nil {
		h.fail(c, err)
		return
	}

	changes, err := h.series.Changes(c.Request.Context(), c.Param("category"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]dto.ChangeResponse, 0, len(changes))
	for _, pc := range changes {
		out = append(out, dto.NewChange(pc.Product, pc.Change, pc.OK))
	}
	c.JSON(http.StatusOK, out)
}

// GetStats handles GET /categories/:category/stats?days=N.
func (h *PriceHandler) GetStats(c *gin.Context) {
	days, err := daysParam(c, 0)
	if err != nil {
		h.fail(c, err)
		return
	}

	stats, err := h.series.Stats(c.Request.Context(), c.Param("category"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStats(stats))
}

// GetAlarms handles GET /categories/:category/alarms?threshold=X.
func (h *PriceHandler) GetAlarms(c *gin.Context) {
	threshold, err := thresholdParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	report, err := h.alarms.Check(c.Request.Context(), c.Param("category"), threshold)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, alarmResponse(report, false))
}

// NotifyAlarms handles POST /categories/:category/alarms?threshold=X and hands
// any matches to the notifier.
func (h *PriceHandler) NotifyAlarms(c *gin.Context) {
	threshold, err := thresholdParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	report, sent, err := h.alarms.Notify(c.Request.Context(), c.Param("category"), threshold)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, alarmResponse(report, sent))
}

// ExportCSV handles GET /categories/:category/export.csv.
func (h *PriceHandler) ExportCSV(c *gin.Context) {
	category := c.Param("category")
	series, err := h.series.Series(c.Request.Context(), category, 0)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="prices_`+category+`.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"product", "price", "date", "url"})
	for _, o := range dto.NewObservations(series) {
		_ = w.Write([]string{o.Product, strconv.FormatFloat(o.Price, 'f', 2, 64), o.Date, o.URL})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		slog.Warn("csv export interrupted", "category", category, "error", err)
	}
}

// Refresh handles POST /refresh?category=. Without a category every catalog
// category is refreshed; when only some fail the reports are returned with
// 207 Multi-Status.
func (h *PriceHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		report, err := h.refresh.Refresh(ctx, category)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, []usecase.RefreshReport{report})
		return
	}

	reports, err := h.refresh.RefreshAll(ctx)
	switch {
	case err != nil && len(reports) == 0:
		h.fail(c, err)
	case err != nil:
		// Some categories failed; each report carries its own error.
		slog.Error("refresh incomplete", "error", err)
		c.JSON(http.StatusMultiStatus, reports)
	default:
		if reports == nil {
			reports = []usecase.RefreshReport{}
		}
		c.JSON(http.StatusOK, reports)
	}
}

// fail maps usecase errors onto HTTP statuses.
func (h *PriceHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnknownCategory):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown category"})
	case errors.Is(err, errBadQuery), errors.Is(err, usecase.ErrInvalidThreshold):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}

func daysParam(c *gin.Context, def int) (int, error) {
	raw := strings.TrimSpace(c.Query("days"))
	if raw == "" {
		return def, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, fmt.Errorf("%w: days must be a positive integer", errBadQuery)
	}
	return days, nil
}

func thresholdParam(c *gin.Context) (float64, error) {
	raw := strings.TrimSpace(c.Query("threshold"))
	if raw == "" {
		return usecase.DefaultAlarmThreshold, nil
	}
	// Accept a decimal comma as typed into the dashboard.
	threshold, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: threshold must be a number", errBadQuery)
	}
	return threshold, nil
}

func alarmResponse(report usecase.AlarmReport, notified bool) dto.AlarmResponse {
	lines := report.Lines
	if lines == nil {
		lines = []string{}
	}
	return dto.AlarmResponse{
		Category:  report.Category,
		Threshold: report.Threshold,
		Triggered: len(report.Matches) > 0,
		Notified:  notified,
		Matches:   dto.NewObservations(report.Matches),
		Lines:     lines,
	}
}
