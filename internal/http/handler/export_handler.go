package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/superdoll/tracker-api/internal/export"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/service"
	"go.uber.org/zap"
)

type ExportHandler struct {
	exportService *service.ExportService
	reportService *service.ReportService
	loc           *time.Location
	now           func() time.Time
	logger        *zap.Logger
}

func NewExportHandler(exportService *service.ExportService, reportService *service.ReportService, loc *time.Location, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		reportService: reportService,
		loc:           loc,
		now:           time.Now,
		logger:        logger,
	}
}

func (h *ExportHandler) startCSV(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(name, h.now().In(h.loc))))
	w.WriteHeader(http.StatusOK)
}

// writeOrders streams orders as CSV. Errors after the header went out can
// only be logged.
func (h *ExportHandler) writeOrders(w http.ResponseWriter, r *http.Request, name string, filter repository.OrderFilter) {
	h.startCSV(w, name)
	n, err := export.WriteOrders(r.Context(), w, h.exportService, filter)
	if err != nil {
		h.logger.Error("order export failed", zap.String("export", name), zap.Int("rows", n), zap.Error(err))
		return
	}
	h.logger.Debug("order export written", zap.String("export", name), zap.Int("rows", n))
}

// Orders godoc
// @Summary Export orders as CSV
// @Tags Exports
// @Produce text/csv
// @Param status query string false "Comma-separated statuses"
// @Param type query string false "Order kind" Enums(service, sales, consultation)
// @Param priority query string false "Priority" Enums(low, medium, high, urgent)
// @Param q query string false "Search term"
// @Success 200 {file} file
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exports/orders [get]
func (h *ExportHandler) Orders(w http.ResponseWriter, r *http.Request) {
	h.writeOrders(w, r, "orders", orderFilterFromQuery(r))
}

// Customers godoc
// @Summary Export customers as CSV
// @Tags Exports
// @Produce text/csv
// @Param q query string false "Search term"
// @Param type query string false "Comma-separated customer types"
// @Success 200 {file} file
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exports/customers [get]
func (h *ExportHandler) Customers(w http.ResponseWriter, r *http.Request) {
	filter := repository.CustomerFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Types:  customerTypes(r.URL.Query().Get("type")),
	}
	h.startCSV(w, "customers")
	n, err := export.WriteCustomers(r.Context(), w, h.exportService, filter)
	if err != nil {
		h.logger.Error("customer export failed", zap.Int("rows", n), zap.Error(err))
	}
}

// Report godoc
// @Summary Export a report window as CSV
// @Description Same window and filters as the report endpoint, without the row cap
// @Tags Exports
// @Produce text/csv
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param type query string false "Order kind" Enums(service, sales, consultation)
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exports/report [get]
func (h *ExportHandler) Report(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReportFilter(r, h.reportService.DefaultReportFilter())
	if err != nil {
		respondServiceError(w, h.logger, err, "Invalid report filter")
		return
	}
	if filter.To.Before(filter.From) {
		respondFieldErrors(w, map[string]string{"to": "End date must not be before start date"})
		return
	}
	h.writeOrders(w, r, "report", filter.OrderFilter(h.loc))
}
