package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// PeriodicSync runs full resyncs on a timer. It shares the Syncer's guard
// with manually triggered resyncs: a tick that collides with a running sync
// is skipped, never queued.
type PeriodicSync struct {
	syncer   *Syncer
	logger   *slog.Logger
	interval time.Duration
	enabled  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodicSync creates a PeriodicSync.
func NewPeriodicSync(syncer *Syncer, interval time.Duration, enabled bool, logger *slog.Logger) *PeriodicSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodicSync{
		syncer:   syncer,
		logger:   logger,
		interval: interval,
		enabled:  enabled,
	}
}

// Start begins the resync loop in a background goroutine. No-op when
// disabled.
func (p *PeriodicSync) Start(ctx context.Context) {
	if !p.enabled {
		p.logger.Info("periodic sync disabled")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Go(func() {
		p.run(ctx)
	})

	p.logger.Info("periodic sync started", slog.Duration("interval", p.interval))
}

// Stop cancels the loop and waits for it to finish.
func (p *PeriodicSync) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	p.wg.Wait()
	p.logger.Info("periodic sync stopped")
}

func (p *PeriodicSync) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.syncer.FullResync(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, ErrSyncRunning) {
					p.logger.Debug("periodic sync skipped, resync in flight")
					continue
				}
				p.logger.Error("periodic sync failed", slog.String("error", err.Error()))
			}
		}
	}
}
