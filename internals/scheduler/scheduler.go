package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
	otpService "schoolerp_backend/internals/features/users/otp/service"
	sessionService "schoolerp_backend/internals/features/users/parent_sessions/service"
	"schoolerp_backend/internals/helpers/dbtime"
	"schoolerp_backend/internals/observability"
)

const jobTimeout = 4 * time.Minute

// Job is one scheduled cleanup. Run reports how many rows it touched.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context, db *gorm.DB) (int64, error)
}

// Jobs purge expired OTP codes and parent sessions hourly and mark unpaid
// invoices overdue once a day.
func Jobs() []Job {
	return []Job{
		{
			Name:     "otp_purge",
			Schedule: "5 * * * *",
			Run: func(ctx context.Context, db *gorm.DB) (int64, error) {
				return otpService.Purge(ctx, db, dbtime.Now().Add(-24*time.Hour))
			},
		},
		{
			Name:     "parent_session_purge",
			Schedule: "20 * * * *",
			Run: func(ctx context.Context, db *gorm.DB) (int64, error) {
				return sessionService.Purge(ctx, db, dbtime.Now())
			},
		},
		{
			Name:     "invoice_overdue",
			Schedule: "15 0 * * *",
			Run: func(ctx context.Context, db *gorm.DB) (int64, error) {
				return invoiceService.MarkOverdue(ctx, db, dbtime.Today())
			},
		},
	}
}

// zapLogger adapts zap to cron.Logger.
type zapLogger struct{ s *zap.SugaredLogger }

func (l zapLogger) Info(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l zapLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}

// RunJob executes a job once with a timeout and records the outcome.
func RunJob(db *gorm.DB, j Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.Run(ctx, db)
	observability.SchedulerRuns.WithLabelValues(j.Name, observability.Result(err, "")).Inc()
	if err != nil {
		zap.L().Error("[SCHEDULER] job failed", zap.String("job", j.Name), zap.Error(err))
		observability.CaptureErr(err)
		return err
	}
	zap.L().Info("[SCHEDULER] job done",
		zap.String("job", j.Name),
		zap.Int64("rows", n),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Start registers every job and starts the cron runner. Call Stop on shutdown.
func Start(db *gorm.DB) (*cron.Cron, error) {
	logger := zapLogger{s: zap.L().Named("cron").Sugar()}
	c := cron.New(
		cron.WithLocation(dbtime.AppLocation()),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	for _, j := range Jobs() {
		j := j
		if _, err := c.AddFunc(j.Schedule, func() { _ = RunJob(db, j) }); err != nil {
			return nil, err
		}
		zap.L().Info("[SCHEDULER] job registered", zap.String("job", j.Name), zap.String("schedule", j.Schedule))
	}
	c.Start()
	return c, nil
}
