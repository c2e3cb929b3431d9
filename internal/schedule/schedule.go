// Package schedule runs repeating jobs that can be canceled through the
// handle returned when they are scheduled.
package schedule

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Handle identifies a scheduled job. The zero Handle refers to nothing.
type Handle int

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		logger: logger,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Every runs job every interval, first after one interval has elapsed.
// Intervals are rounded to whole seconds with a one second minimum.
func (s *Scheduler) Every(interval time.Duration, job func()) (Handle, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", interval)
	}
	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(job))
	s.logger.Debug("scheduled job", "id", int(id), "interval", interval)
	return Handle(id), nil
}

// Cancel removes the job. Canceling the zero Handle is a no-op.
func (s *Scheduler) Cancel(h Handle) {
	if h == 0 {
		return
	}
	s.cron.Remove(cron.EntryID(h))
	s.logger.Debug("canceled job", "id", int(h))
}

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}
