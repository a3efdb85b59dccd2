/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aashritha987/core-project-hub/internal/config"
)

type service interface {
	RefreshAll(ctx context.Context) error
}

// Cron periodically resynchronizes the cached working set with the hub, so
// state drifts no further than one interval even if every push event was
// missed.
type Cron struct {
	cfg config.Config
	log zerolog.Logger
	svc service
	c   *cron.Cron

	running atomic.Bool
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service) *Cron {
	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
	_, _ = c.AddFunc(cfg.ResyncCron, cr.resync)
	return cr
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { cr.c.Stop() }

func (cr *Cron) resync() {
	if !cr.running.CompareAndSwap(false, true) {
		cr.log.Info().Msg("cron: resync still running, skipping")
		return
	}
	defer cr.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	cr.log.Info().Msg("cron: resync")
	if err := cr.svc.RefreshAll(ctx); err != nil {
		cr.log.Error().Err(err).Msg("cron: resync failed")
	}
}
