package moderation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/google/uuid"
)

const (
	DefaultSweepInterval  = 30 * time.Second
	DefaultSweepLookahead = 120 * time.Second

	// AutomaticReason is recorded on expiry removals.
	AutomaticReason = "Automatic"
)

// Remover lifts a punishment. *Engine satisfies it.
type Remover interface {
	Remove(ctx context.Context, req RemoveRequest) (*punishment.Punishment, error)
}

// ExpiringLister is the repository slice the sweeper reads.
type ExpiringLister interface {
	ListExpiringGlobally(ctx context.Context, within time.Duration) ([]*punishment.Punishment, error)
}

type SweeperOptions struct {
	Interval  time.Duration
	Lookahead time.Duration
}

// SweepReport summarises one pass.
type SweepReport struct {
	RunID   string
	Skipped bool
	// Candidates is the number of rows returned by the lookahead query.
	Candidates int
	Removed    int
	Failed     int
	Err        error
}

// Sweeper periodically removes expired punishments. Passes never overlap.
type Sweeper struct {
	remover Remover
	repo    ExpiringLister
	clock   clock.Clock
	opts    SweeperOptions

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(remover Remover, repo ExpiringLister, clk clock.Clock, opts SweeperOptions) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSweepInterval
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = DefaultSweepLookahead
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Sweeper{remover: remover, repo: repo, clock: clk, opts: opts}
}

// Start launches the ticker loop. Calling Start again restarts it.
func (s *Sweeper) Start(ctx context.Context) {
	s.Stop()

	s.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer errors.RecoverMiddleware()()

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		logger.Info("Sweeper iniciado (intervalo: "+s.opts.Interval.String()+")", "Sweeper")
		for {
			select {
			case <-ticker.C:
				s.RunOnce(loopCtx)
			case <-loopCtx.Done():
				logger.Info("Sweeper detenido", "Sweeper")
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce performs a single pass. A pass started while another is still
// running returns immediately with Skipped set.
func (s *Sweeper) RunOnce(ctx context.Context) SweepReport {
	report := SweepReport{RunID: uuid.NewString()}
	if !s.running.CompareAndSwap(false, true) {
		report.Skipped = true
		logger.Debug(fmt.Sprintf("[%s] Pasada anterior en curso, se omite", report.RunID), "Sweeper")
		return report
	}
	defer s.running.Store(false)

	candidates, err := s.repo.ListExpiringGlobally(ctx, s.opts.Lookahead)
	if err != nil {
		report.Err = err
		logger.Error(fmt.Sprintf("[%s] No se pudieron listar las sanciones por expirar: %v", report.RunID, err), "Sweeper")
		return report
	}
	report.Candidates = len(candidates)

	for _, p := range candidates {
		if ctx.Err() != nil {
			break
		}
		if !p.HasExpired(s.clock.Now()) {
			continue
		}

		_, err := s.remover.Remove(ctx, RemoveRequest{
			GuildID:      p.GuildID,
			PunishmentID: p.ID,
			Reason:       AutomaticReason,
		})
		if err != nil {
			report.Failed++
			logger.Warn(fmt.Sprintf("[%s] No se pudo levantar el caso #%d (%s) en %s: %v", report.RunID, p.ID, p.Type, p.GuildID, err), "Sweeper")
			continue
		}
		report.Removed++
	}

	if report.Removed > 0 || report.Failed > 0 {
		logger.Info(fmt.Sprintf("[%s] Pasada completada: %d levantadas, %d fallidas", report.RunID, report.Removed, report.Failed), "Sweeper")
	}
	return report
}
