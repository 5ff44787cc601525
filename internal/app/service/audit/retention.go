package audit

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/rhosegym/gymcore/pkg/config"
)

// Retention purges entries past the configured horizon. Purging is an
// explicit maintenance operation: the cron schedule only engages when
// audit.auto_purge is set, otherwise only the admin endpoint purges.
type Retention struct {
	log  *zap.SugaredLogger
	svc  *Service
	days int
	cron *cron.Cron
}

func NewRetention(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *config.Config, svc *Service) (*Retention, error) {
	r := &Retention{
		log:  log,
		svc:  svc,
		days: cfg.Audit.RetentionDays,
	}
	if !cfg.Audit.AutoPurge {
		return r, nil
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(cfg.Sweep.Schedule, r.run); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			r.cron.Start()
			log.Infow("audit retention started", "schedule", cfg.Sweep.Schedule, "retention_days", r.days)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := r.cron.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return r, nil
}

func (r *Retention) run() {
	if r.days <= 0 {
		return
	}
	removed, err := r.svc.Purge(context.Background(), time.Now().AddDate(0, 0, -r.days))
	if err != nil {
		r.log.Errorw("audit retention purge failed", "err", err)
		return
	}
	if removed > 0 {
		r.log.Infow("audit retention purge done", "removed", removed, "retention_days", r.days)
	}
}
