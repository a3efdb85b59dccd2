/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aashritha987/core-project-hub/internal/adapters/hub"
	"github.com/aashritha987/core-project-hub/internal/config"
	httpx "github.com/aashritha987/core-project-hub/internal/http"
	"github.com/aashritha987/core-project-hub/internal/jobs"
	"github.com/aashritha987/core-project-hub/internal/logger"
	"github.com/aashritha987/core-project-hub/internal/services"
	"github.com/aashritha987/core-project-hub/internal/store"
	"github.com/aashritha987/core-project-hub/internal/timer"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable local state
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open state store failed")
	}
	if st.Token() == "" {
		log.Warn().Msg("no auth token in store; push channels stay inert until one is set")
	}

	// Adapters
	api := hub.NewClient(cfg, st, log)

	// Services
	tm := timer.New(st.TimerStore(), log)
	svc := services.New(cfg, api, st, tm, log)
	defer svc.Close()

	{
		ctx2, cancel2 := context.WithTimeout(ctx, 30*time.Second)
		if err := svc.Start(ctx2); err != nil {
			log.Error().Err(err).Msg("service start failed")
		}
		cancel2()
	}

	// HTTP control API (Gin)
	router := httpx.NewRouter(cfg, log, svc)

	// Cron
	cron := jobs.NewCron(cfg, log, svc)
	cron.Start()
	defer cron.Stop()

	// graceful shutdown
	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(cfg.HTTPAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	time.Sleep(500 * time.Millisecond)
}
