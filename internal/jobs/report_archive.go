package jobs

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/superdoll/tracker-api/internal/export"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/storage"
	"go.uber.org/zap"
)

const (
	ReportArchiveJobName = "report_archive"
	reportArchivePrefix  = "reports"
)

// ReportArchiveJob stores yesterday's orders as a CSV under reports/orders-YYYY-MM-DD.csv
type ReportArchiveJob struct {
	orders export.OrderSource
	store  storage.Storage
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

func NewReportArchiveJob(orders export.OrderSource, store storage.Storage, loc *time.Location, logger *zap.Logger) *ReportArchiveJob {
	return &ReportArchiveJob{
		orders: orders,
		store:  store,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

func (j *ReportArchiveJob) Name() string { return ReportArchiveJobName }

func (j *ReportArchiveJob) Run(ctx context.Context) error {
	now := j.now().In(j.loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc)
	from := to.AddDate(0, 0, -1)

	var buf bytes.Buffer
	rows, err := export.WriteOrders(ctx, &buf, j.orders, repository.OrderFilter{From: &from, To: &to})
	if err != nil {
		return err
	}

	key := ArchiveKey(from)
	size, err := j.store.Put(ctx, key, export.ContentType, &buf)
	if err != nil {
		return fmt.Errorf("failed to store report archive: %w", err)
	}

	j.logger.Info("report archived",
		zap.String("key", key),
		zap.Int("orders", rows),
		zap.Int64("size", size))
	return nil
}

// ArchiveKey is the storage key of the archive for day
func ArchiveKey(day time.Time) string {
	return path.Join(reportArchivePrefix, export.Filename("orders", day))
}
