package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultRefreshSpec = "@every 5m"
	refreshTimeout     = 30 * time.Second
)

// Refresher re-reads the backend's model list.
type Refresher interface {
	Refresh(ctx context.Context) []string
}

// Scheduler periodically refreshes the model catalog so the presentation
// layer serves a recent list without probing on every request.
type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	spec    string
	catalog Refresher
	log     *slog.Logger
}

func New(ctx context.Context, spec string, catalog Refresher, log *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultRefreshSpec
	}

	return &Scheduler{
		ctx:     ctx,
		cron:    cron.New(),
		spec:    spec,
		catalog: catalog,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refreshModels); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) refreshModels() {
	ctx, cancel := context.WithTimeout(s.ctx, refreshTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	models := s.catalog.Refresh(ctx)
	if len(models) == 0 {
		s.log.WarnContext(ctx, "Backend advertises no models",
			"spec", s.spec)

		return
	}

	s.log.InfoContext(ctx, "Model catalog refreshed",
		"modelCount", len(models))
}
