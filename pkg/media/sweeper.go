package media

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
)

// Sweeper runs Store.Sweep on a cron schedule.
type Sweeper struct {
	store    *Store
	schedule string
	gron     *gronx.Gronx
}

func NewSweeper(store *Store, schedule string) (*Sweeper, error) {
	g := gronx.New()
	if !g.IsValid(schedule) {
		return nil, fmt.Errorf("invalid cleanup schedule %q", schedule)
	}
	return &Sweeper{
		store:    store,
		schedule: schedule,
		gron:     g,
	}, nil
}

// Run blocks until ctx is canceled, sweeping the workdir whenever the
// schedule fires. Checked once per minute, cron's native resolution.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due, err := s.gron.IsDue(s.schedule, time.Now())
			if err != nil {
				logger.WarnCF("media", "Cleanup schedule check failed",
					map[string]any{"schedule": s.schedule, "error": err.Error()})
				continue
			}
			if due {
				s.store.Sweep()
			}
		}
	}
}
