// Package jobs runs the service's background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages background jobs using cron scheduling. A run that is
// still in progress when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	mu     sync.Mutex
	jobs   map[string]cron.EntryID
}

// NewScheduler creates a new job scheduler with the given logger.
func NewScheduler(logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(
			cron.SkipIfStillRunning(cl),
			cron.Recover(cl),
		)),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler. Jobs added before this call will begin running.
func (s *Scheduler) Start() {
	s.logger.Info("starting job scheduler", zap.Strings("jobs", s.JobNames()))
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once running jobs complete.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping job scheduler")
	return s.cron.Stop()
}

// AddJob adds a job with the given name and cron expression (seconds field first,
// e.g. "0 30 23 * * *", or a descriptor such as "@daily").
func (s *Scheduler) AddJob(name string, cronExpr string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.logger.Info("running scheduled job", zap.String("job_name", name))
		job()
		s.logger.Info("completed scheduled job", zap.String("job_name", name))
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info("added scheduled job",
		zap.String("job_name", name),
		zap.String("cron_expr", cronExpr))
	return nil
}

// JobNames returns the names of all registered jobs.
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// cronLogger routes cron's own messages (skips, recovered panics) to zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
