// jobs/sweep.go
package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"lablend/engine"
)

const leaseKey = "lablend:sweep:lease"

// SweepScheduler runs the overdue sweep on a ticker. A Redis SETNX lease
// keeps multi-replica deployments from double-running a tick; the sweep
// itself is idempotent, so a lost lease only costs duplicate work, never
// correctness.
type SweepScheduler struct {
	Sweep    *engine.Sweep
	RDB      *redis.Client
	Interval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

func NewSweepScheduler(sweep *engine.Sweep, rdb *redis.Client, interval time.Duration) *SweepScheduler {
	return &SweepScheduler{
		Sweep:    sweep,
		RDB:      rdb,
		Interval: interval,
		stop:     make(chan struct{}),
	}
}

func (s *SweepScheduler) Start() {
	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)
	go s.run()
	log.Printf("[sweep] started, interval %v", s.Interval)
}

func (s *SweepScheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[sweep] stopped")
	}
}

func (s *SweepScheduler) run() {
	defer s.wg.Done()

	// one pass right away, then on every tick
	s.tick()
	for {
		select {
		case <-s.ticker.C:
			s.tick()
		case <-s.stop:
			return
		}
	}
}

func (s *SweepScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ok, err := s.RDB.SetNX(ctx, leaseKey, "1", s.Interval/2).Result()
	if err != nil {
		log.Printf("[sweep] lease check failed: %v", err)
		return
	}
	if !ok {
		return // another replica holds the lease
	}

	report, err := s.Sweep.Run(ctx)
	if err != nil {
		// nothing is corrupted: each transition is independent, the next
		// tick resumes from scratch
		log.Printf("[sweep] pass failed: %v", err)
		return
	}
	if report.Promoted > 0 || report.Failed > 0 {
		log.Printf("[sweep] promoted=%d skipped=%d failed=%d",
			report.Promoted, report.Skipped, report.Failed)
	}
}
