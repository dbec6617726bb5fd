package handler

import (
	"net/http"

	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	reportService    *service.ReportService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, reportService *service.ReportService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		reportService:    reportService,
		logger:           logger,
	}
}

// GetMetrics godoc
// @Summary Dashboard metrics
// @Description Headline counts, per-kind totals, the 7-day trend and the latest activity. Cached briefly.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardDTO
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.dashboardService.Get(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get dashboard metrics")
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// GetAnalytics godoc
// @Summary Order analytics
// @Description Status, kind and priority breakdowns with average durations
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.AnalyticsDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/analytics [get]
func (h *DashboardHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.dashboardService.Analytics(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get analytics")
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}

// parseReportFilter overlays the from, to and type query values on filter
func parseReportFilter(r *http.Request, filter service.ReportFilter) (service.ReportFilter, error) {
	q := r.URL.Query()

	v := domain.NewValidationError()
	if from, err := domain.ParseDate("from", q.Get("from")); err != nil {
		v.Add("from", "Must be a date in YYYY-MM-DD format")
	} else if from != nil {
		filter.From = *from
	}
	if to, err := domain.ParseDate("to", q.Get("to")); err != nil {
		v.Add("to", "Must be a date in YYYY-MM-DD format")
	} else if to != nil {
		filter.To = *to
	}
	if raw := q.Get("type"); raw != "" {
		t := domain.OrderType(raw)
		if !t.IsValid() {
			v.Add("type", "Must be one of: service sales consultation")
		}
		filter.Type = t
	}
	return filter, v.OrNil()
}

// GetReport godoc
// @Summary Order report
// @Description Status totals and up to 300 orders created between from and to (inclusive). Defaults to the last 30 days.
// @Tags Reports
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param type query string false "Order kind" Enums(service, sales, consultation)
// @Success 200 {object} domain.ReportDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports [get]
func (h *DashboardHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReportFilter(r, h.reportService.DefaultReportFilter())
	if err != nil {
		respondServiceError(w, h.logger, err, "Invalid report filter")
		return
	}
	report, err := h.reportService.Report(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetAdvancedReport godoc
// @Summary Period report
// @Description Bucketed trends for the current day, week, month or year. Unknown periods fall back to monthly.
// @Tags Reports
// @Produce json
// @Param period query string false "Period" Enums(daily, weekly, monthly, yearly) default(monthly)
// @Success 200 {object} domain.AdvancedReportDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/advanced [get]
func (h *DashboardHandler) GetAdvancedReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.Advanced(r.Context(), service.ReportPeriod(r.URL.Query().Get("period")))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
