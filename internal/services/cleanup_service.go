package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/ratelimit"
)

// CleanupService prunes expired rate limit rows and audit logs past retention.
type CleanupService struct {
	limiterStore   *ratelimit.GormStore
	audit          *AuditService
	limitRetention time.Duration
	auditRetention time.Duration
	logger         *logrus.Logger
	cron           *cron.Cron
}

func NewCleanupService(
	limiterStore *ratelimit.GormStore,
	audit *AuditService,
	limitRetention, auditRetention time.Duration,
	logger *logrus.Logger,
) *CleanupService {
	return &CleanupService{
		limiterStore:   limiterStore,
		audit:          audit,
		limitRetention: limitRetention,
		auditRetention: auditRetention,
		logger:         logger,
	}
}

// Start schedules the nightly cleanup run.
func (s *CleanupService) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("15 3 * * *", s.Run); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Cleanup job scheduled (daily 03:15)")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *CleanupService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Run executes one cleanup pass.
func (s *CleanupService) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purged, err := s.limiterStore.PurgeStale(ctx, time.Now().Add(-s.limitRetention))
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge rate limit rows")
	} else if purged > 0 {
		s.logger.WithField("rows", purged).Info("Purged stale rate limit rows")
	}

	deleted, err := s.audit.PurgeOlderThan(ctx, s.auditRetention)
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge audit logs")
	} else if deleted > 0 {
		s.logger.WithField("rows", deleted).Info("Purged expired audit logs")
	}
}
