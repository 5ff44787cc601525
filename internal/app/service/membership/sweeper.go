package membership

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/rhosegym/gymcore/pkg/config"
)

// Sweeper runs the expiry sweep on a cron schedule.
type Sweeper struct {
	log  *zap.SugaredLogger
	svc  *Service
	cron *cron.Cron
}

func NewSweeper(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *config.Config, svc *Service) (*Sweeper, error) {
	s := &Sweeper{
		log:  log,
		svc:  svc,
		cron: cron.New(),
	}
	if _, err := s.cron.AddFunc(cfg.Sweep.Schedule, s.run); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.cron.Start()
			log.Infow("membership expiry sweeper started", "schedule", cfg.Sweep.Schedule)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := s.cron.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return s, nil
}

func (s *Sweeper) run() {
	n, err := s.svc.ExpireSweep(context.Background())
	if err != nil {
		s.log.Errorw("expire sweep failed", "err", err)
		return
	}
	s.log.Debugw("expire sweep done", "expired", n)
}
