package jobs

import (
	"github.com/superdoll/tracker-api/internal/config"
)

// Register schedules every job that has a cron expression configured
func Register(s *Scheduler, cfg *config.JobsConfig, reminder *FollowUpReminderJob, archive *ReportArchiveJob) error {
	if cfg.FollowUpReminderCron != "" && reminder != nil {
		if err := s.Add(cfg.FollowUpReminderCron, reminder); err != nil {
			return err
		}
	}
	if cfg.ReportArchiveCron != "" && archive != nil {
		if err := s.Add(cfg.ReportArchiveCron, archive); err != nil {
			return err
		}
	}
	return nil
}
