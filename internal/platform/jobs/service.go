package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const JobAuditRetention = "audit_retention"

// Purger deletes records older than a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	Audit     Purger
	Retention time.Duration
	Interval  time.Duration
	Log       *zap.Logger

	now   func() time.Time
	queue chan job
}

type job struct {
	Type string
	Run  func(context.Context) (int64, error)
}

func New(audit Purger, retention, interval time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Audit:     audit,
		Retention: retention,
		Interval:  interval,
		Log:       log,
		now:       time.Now,
		queue:     make(chan job, 16),
	}
}

// Start runs the worker and the retention schedule until ctx is done.
// Retention is disabled when either duration is zero.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Audit != nil && s.Retention > 0 && s.Interval > 0 {
		go s.scheduleRetention(ctx)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (int64, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		s.Log.Warn("job queue full", zap.String("jobType", jobType))
	}
}

// RunRetention purges audit events older than the retention window once.
func (s *Service) RunRetention(ctx context.Context) (int64, error) {
	return s.runJob(ctx, job{Type: JobAuditRetention, Run: s.purgeAudit})
}

func (s *Service) purgeAudit(ctx context.Context) (int64, error) {
	return s.Audit.Purge(ctx, s.now().Add(-s.Retention))
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.Log.Warn("job run failed", zap.String("jobType", j.Type), zap.Error(err))
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (int64, error) {
	started := s.now()
	affected, err := j.Run(ctx)
	fields := []zap.Field{
		zap.String("jobType", j.Type),
		zap.Int64("affected", affected),
		zap.Duration("duration", s.now().Sub(started)),
	}
	if err != nil {
		s.Log.Warn("job failed", append(fields, zap.Error(err))...)
		return affected, err
	}
	s.Log.Info("job completed", fields...)
	return affected, nil
}

func (s *Service) scheduleRetention(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobAuditRetention, s.purgeAudit)
		}
	}
}
