/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package http exposes the agent's local control API. It serves the cached
// working set, drives the live timer and proxies chat actions into open room
// sessions.
package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aashritha987/core-project-hub/internal/config"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc any) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Next()
		log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
	})

	h := NewHandlers(cfg, log, svc)

	r.GET("/healthz", h.Healthz)

	r.GET("/timer", h.GetTimer)
	r.POST("/timer/start", h.StartTimer)
	r.POST("/timer/pause", h.PauseTimer)
	r.POST("/timer/resume", h.ResumeTimer)
	r.POST("/timer/stop", h.StopTimer)

	r.GET("/issues", h.ListIssues)
	r.GET("/sprints", h.ListSprints)
	r.GET("/epics", h.ListEpics)
	r.GET("/projects", h.ListProjects)
	r.GET("/users", h.ListUsers)
	r.POST("/projects/:id/select", h.SelectProject)
	r.POST("/refresh", func(c *gin.Context) {
		// Detached from the request so a slow hub cannot hold the caller.
		go func() { _ = h.svc.RefreshAll(context.Background()) }()
		c.JSON(202, gin.H{"status": "queued"})
	})

	r.GET("/notifications", h.ListNotifications)
	r.POST("/notifications/:id/read", h.MarkNotificationRead)
	r.POST("/notifications/read-all", h.MarkAllNotificationsRead)

	r.GET("/rooms", h.ListRooms)
	r.POST("/rooms/:id/open", h.OpenRoom)
	r.POST("/rooms/:id/close", h.CloseRoom)
	r.GET("/rooms/:id/messages", h.RoomMessages)
	r.POST("/rooms/:id/messages", h.SendMessage)
	r.POST("/rooms/:id/typing", h.Typing)

	return r
}
