package revaluation

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs the revaluation job on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	job      *Job
	schedule string
	timeout  time.Duration
}

func NewScheduler(job *Job, schedule string) *Scheduler {
	logger := cronLogger{sugar: zap.L().Sugar()}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger)),
		job:      job,
		schedule: schedule,
		timeout:  5 * time.Minute,
	}
}

// Start registers the job and starts the scheduler. An empty schedule disables it.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		zap.L().Info("Revaluation job disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return err
	}
	zap.L().Info("Scheduled revaluation job", zap.String("schedule", s.schedule))

	s.cron.Start()
	return nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.job.Run(ctx); err != nil {
		zap.L().Error("Revaluation job failed", zap.Error(err))
	}
}

// Stop stops the scheduler; the returned context is done once a running job finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
