package session

import (
	"github.com/robfig/cron/v3"

	"github.com/novaflow/console/pkg/observability"
)

// Sweeper periodically removes expired records from the memory store. Redis
// needs no sweeping; keys expire natively.
type Sweeper struct {
	store    *MemoryStore
	schedule string
	logger   *observability.Logger
	cron     *cron.Cron
}

// NewSweeper creates a sweeper on the given cron schedule (e.g. "@every 10m")
func NewSweeper(store *MemoryStore, schedule string, logger *observability.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins sweeping in the background
func (s *Sweeper) Start() error {
	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		if removed := s.store.Sweep(); removed > 0 {
			s.logger.WithField("removed", removed).Debug("swept expired sessions")
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	return nil
}

// Stop stops the sweeper
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
