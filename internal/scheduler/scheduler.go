// Package scheduler runs the periodic document-expiry sweep.
package scheduler

import (
	"context"
	"time"

	"kycore/internal/kyc"
	"kycore/pkg/logger"
)

// Scheduler drives the expiry sweep on a fixed interval. The sweep itself is
// idempotent, so overlapping deployments running their own schedulers are
// harmless.
type Scheduler struct {
	service  *kyc.Service
	interval time.Duration
	logger   logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewScheduler constructs a Scheduler with the given sweep interval.
func NewScheduler(service *kyc.Service, interval time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		service:  service,
		interval: interval,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. One sweep runs immediately so a restart
// never waits a full interval to catch up.
func (s *Scheduler) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runSweep()
		for {
			select {
			case <-ticker.C:
				s.runSweep()
			case <-s.stop:
				return
			}
		}
	}()
	s.logger.Info("Expiry sweep scheduler started", map[string]interface{}{
		"interval": s.interval.String(),
	})
}

// Stop halts the loop and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	s.logger.Info("Expiry sweep scheduler stopped", nil)
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.service.SweepExpired(ctx, time.Now()); err != nil {
		s.logger.Error("Expiry sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
