/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aashritha987/core-project-hub/internal/adapters/hub"
	"github.com/aashritha987/core-project-hub/internal/chat"
	"github.com/aashritha987/core-project-hub/internal/config"
	"github.com/aashritha987/core-project-hub/internal/domain"
	"github.com/aashritha987/core-project-hub/internal/notify"
	"github.com/aashritha987/core-project-hub/internal/services"
	"github.com/aashritha987/core-project-hub/internal/state"
	"github.com/aashritha987/core-project-hub/internal/timer"
)

type service interface {
	TimerSnapshot() timer.Snapshot
	TimerElapsedMs() int64
	StartTimer(issueID string) error
	PauseTimer()
	ResumeTimer()
	StopAndLog(ctx context.Context) (domain.Issue, float64, error)

	State() *state.State
	Feed() *notify.Feed
	RefreshAll(ctx context.Context) error
	SelectProject(ctx context.Context, projectID string) error

	Rooms() []domain.ChatRoom
	OpenRoom(ctx context.Context, roomID string) (*chat.Session, error)
	Room(roomID string) (*chat.Session, error)
	CloseRoom(roomID string)
}

type Handlers struct {
	cfg      config.Config
	log      zerolog.Logger
	svc      service
	instance string
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc any) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc.(service), instance: uuid.NewString()}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "instance": h.instance})
}

// fail maps domain errors onto status codes; everything unclassified is a 500.
func (h *Handlers) fail(c *gin.Context, err error) {
	var pe *hub.PermissionError
	switch {
	case errors.As(err, &pe):
		c.JSON(http.StatusForbidden, gin.H{"error": pe.Reason})
	case errors.Is(err, timer.ErrEmptyIssue), errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTimerIdle), errors.Is(err, services.ErrRoomNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDurationTooShort):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Timer.

// GetTimer serves the persisted snapshot plus the live elapsed duration; a
// poller gets a fresh reading on every call.
func (h *Handlers) GetTimer(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"timer": h.svc.TimerSnapshot(), "elapsedMs": h.svc.TimerElapsedMs()})
}

func (h *Handlers) StartTimer(c *gin.Context) {
	var req struct {
		IssueID string `json:"issueId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.svc.StartTimer(req.IssueID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": h.svc.TimerSnapshot()})
}

func (h *Handlers) PauseTimer(c *gin.Context) {
	h.svc.PauseTimer()
	c.JSON(http.StatusOK, gin.H{"timer": h.svc.TimerSnapshot()})
}

func (h *Handlers) ResumeTimer(c *gin.Context) {
	h.svc.ResumeTimer()
	c.JSON(http.StatusOK, gin.H{"timer": h.svc.TimerSnapshot()})
}

func (h *Handlers) StopTimer(c *gin.Context) {
	issue, hours, err := h.svc.StopAndLog(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issue, "hours": hours})
}

// Collections.

func (h *Handlers) ListIssues(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"issues": h.svc.State().Issues()})
}

func (h *Handlers) ListSprints(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sprints": h.svc.State().Sprints()})
}

func (h *Handlers) ListEpics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"epics": h.svc.State().Epics()})
}

func (h *Handlers) ListProjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": h.svc.State().Projects()})
}

func (h *Handlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.svc.State().Users()})
}

func (h *Handlers) SelectProject(c *gin.Context) {
	if err := h.svc.SelectProject(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Notifications.

func (h *Handlers) ListNotifications(c *gin.Context) {
	feed := h.svc.Feed()
	if feed == nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []domain.Notification{}, "unreadCount": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": feed.Notifications(), "unreadCount": feed.Unread()})
}

func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	feed := h.svc.Feed()
	if feed == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "feed not started"})
		return
	}
	if err := feed.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": feed.Unread()})
}

func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	feed := h.svc.Feed()
	if feed == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "feed not started"})
		return
	}
	if err := feed.MarkAllRead(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": 0})
}

// Chat.

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.svc.Rooms()})
}

func (h *Handlers) OpenRoom(c *gin.Context) {
	sess, err := h.svc.OpenRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": sess.Messages()})
}

func (h *Handlers) CloseRoom(c *gin.Context) {
	h.svc.CloseRoom(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) RoomMessages(c *gin.Context) {
	sess, err := h.svc.Room(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if before := c.Query("before"); before != "" {
		if err := sess.LoadOlder(c.Request.Context(), before); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"messages": sess.Messages(), "typing": sess.TypingUsers()})
}

func (h *Handlers) SendMessage(c *gin.Context) {
	sess, err := h.svc.Room(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	msg, err := sess.Send(c.Request.Context(), req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handlers) Typing(c *gin.Context) {
	sess, err := h.svc.Room(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	sess.TypingActivity()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
