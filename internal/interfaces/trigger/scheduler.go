package trigger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrRoundInProgress is returned by RunOnce while another round is running
var ErrRoundInProgress = errors.New("trigger: previous round still running")

// Scheduler runs a Job on a cron schedule. Rounds never overlap; a tick that
// fires while a round is running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     *Job
	timeout time.Duration
	logger  *zap.Logger
	baseCtx context.Context

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a Scheduler. The cron expression uses the six-field form with a
// leading seconds field, e.g. "0 */15 * * * *".
func NewScheduler(baseCtx context.Context, spec string, job *Job, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		job:     job,
		timeout: timeout,
		logger:  logger,
		baseCtx: baseCtx,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) tick() {
	if _, err := s.RunOnce(); err != nil {
		if errors.Is(err, ErrRoundInProgress) {
			s.logger.Warn("Skipping scheduled sync round", zap.Error(err))
			return
		}
		s.logger.Error("Scheduled sync round failed", zap.Error(err))
	}
}

// RunOnce runs a single round immediately, bounded by the configured timeout
func (s *Scheduler) RunOnce() (Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Summary{}, ErrRoundInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx := s.baseCtx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	summary, err := s.job.Run(ctx)
	if err != nil {
		return summary, err
	}
	s.logger.Info("Scheduled sync round finished",
		zap.Int("candidates", summary.Candidates),
		zap.Int("submitted", summary.Submitted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return summary, nil
}

// Next returns the time of the next scheduled round
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start begins running rounds on schedule
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Sync trigger started", zap.Time("next", s.Next()))
}

// Stop stops the schedule and waits for a running round to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Sync trigger stopped")
}
