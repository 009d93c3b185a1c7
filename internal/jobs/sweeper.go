package jobs

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper is anything that can drop its expired entries on demand.
type Sweeper interface {
	SweepExpired() int
}

// SweepJob periodically removes expired pending verifications.
type SweepJob struct {
	sweeper  Sweeper
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

func NewSweepJob(sweeper Sweeper, interval time.Duration) *SweepJob {
	return &SweepJob{
		sweeper:  sweeper,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (j *SweepJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("sweep job started")
}

// Stop halts the ticker and waits for an in-progress sweep to finish.
func (j *SweepJob) Stop() {
	close(j.done)
	<-j.stopped
	log.Info().Msg("sweep job stopped")
}

func (j *SweepJob) run() {
	defer close(j.stopped)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SweepJob) sweep() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("sweep panicked")
		}
	}()

	j.sweeper.SweepExpired()
}
