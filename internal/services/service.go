/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package services wires the hub client, the durable store, the live timer
// and the push channels into the operations the control API exposes.
package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aashritha987/core-project-hub/internal/channel"
	"github.com/aashritha987/core-project-hub/internal/chat"
	"github.com/aashritha987/core-project-hub/internal/config"
	"github.com/aashritha987/core-project-hub/internal/domain"
	"github.com/aashritha987/core-project-hub/internal/notify"
	"github.com/aashritha987/core-project-hub/internal/state"
	"github.com/aashritha987/core-project-hub/internal/timer"
)

var (
	ErrTimerIdle        = errors.New("services: no running timer")
	ErrDurationTooShort = errors.New("services: tracked duration too short to log")
	ErrRoomNotOpen      = errors.New("services: room not open")
)

// API is everything the service needs from the hub. *hub.Client satisfies it.
type API interface {
	Me(ctx context.Context) (domain.User, error)
	LogTime(ctx context.Context, issueID string, hours float64) (domain.Issue, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListIssues(ctx context.Context, projectID string) ([]domain.Issue, error)
	ListSprints(ctx context.Context, projectID string) ([]domain.Sprint, error)
	ListEpics(ctx context.Context, projectID string) ([]domain.Epic, error)
	ListChatRooms(ctx context.Context, roomType, projectID string) ([]domain.ChatRoom, error)

	chat.API
	notify.API
}

// Storage is the slice of the durable store the service touches.
type Storage interface {
	Token() string
	CurrentUser() (domain.User, bool)
	SetCurrentUser(u domain.User) error
	LastProjectID() string
	SetLastProjectID(id string) error
}

type Service struct {
	cfg   config.Config
	log   zerolog.Logger
	api   API
	store Storage
	timer *timer.Timer
	state *state.State
	feed  *notify.Feed
	dial  channel.Dialer

	mu       sync.Mutex
	rooms    []domain.ChatRoom
	sessions map[string]*chat.Session
}

func New(cfg config.Config, api API, store Storage, tm *timer.Timer, log zerolog.Logger) *Service {
	s := &Service{
		cfg:      cfg,
		log:      log,
		api:      api,
		store:    store,
		timer:    tm,
		state:    &state.State{},
		dial:     channel.Dial,
		sessions: map[string]*chat.Session{},
	}
	return s
}

// Start revalidates the session against the hub, loads the working set and
// opens the notification channel. A hub that is down is not fatal: the agent
// serves whatever the store remembers and the resync job catches up later.
func (s *Service) Start(ctx context.Context) error {
	if u, err := s.api.Me(ctx); err != nil {
		s.log.Warn().Err(err).Msg("session revalidation failed")
	} else if err := s.store.SetCurrentUser(u); err != nil {
		s.log.Warn().Err(err).Msg("persist current user failed")
	}
	if err := s.RefreshAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("initial refresh failed")
	}
	s.mu.Lock()
	if s.feed == nil {
		s.feed = notify.NewFeed(notify.Options{
			API:            s.api,
			ChannelURL:     channel.NotificationsURL(s.cfg.APIBaseURL, s.store.Token()),
			Dial:           s.dial,
			ReconnectDelay: s.cfg.ReconnectDelay,
			Log:            s.log.With().Str("component", "notify").Logger(),
		})
	}
	feed := s.feed
	s.mu.Unlock()
	feed.Start(ctx)
	return nil
}

// Close tears down every open push channel. Idempotent.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = map[string]*chat.Session{}
	feed := s.feed
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
	if feed != nil {
		feed.Close()
	}
}

// RefreshAll refetches projects, users and the current project's collections.
func (s *Service) RefreshAll(ctx context.Context) error {
	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		return err
	}
	s.state.SetProjects(projects)

	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	s.state.SetUsers(users)

	projectID := s.store.LastProjectID()
	if projectID == "" && len(projects) > 0 {
		projectID = projects[0].ID
		if err := s.store.SetLastProjectID(projectID); err != nil {
			s.log.Warn().Err(err).Msg("persist project selection failed")
		}
	}
	if projectID == "" {
		return nil
	}
	return s.refreshProject(ctx, projectID)
}

// SelectProject switches the working project and reloads its collections.
func (s *Service) SelectProject(ctx context.Context, projectID string) error {
	if err := s.refreshProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.store.SetLastProjectID(projectID); err != nil {
		s.log.Warn().Err(err).Msg("persist project selection failed")
	}
	return nil
}

func (s *Service) refreshProject(ctx context.Context, projectID string) error {
	issues, err := s.api.ListIssues(ctx, projectID)
	if err != nil {
		return err
	}
	sprints, err := s.api.ListSprints(ctx, projectID)
	if err != nil {
		return err
	}
	epics, err := s.api.ListEpics(ctx, projectID)
	if err != nil {
		return err
	}
	s.state.SetIssues(issues)
	s.state.SetSprints(sprints)
	s.state.SetEpics(epics)

	rooms, err := s.api.ListChatRooms(ctx, "", projectID)
	if err != nil {
		s.log.Warn().Err(err).Msg("room list refresh failed")
		return nil
	}
	s.mu.Lock()
	s.rooms = rooms
	s.mu.Unlock()
	return nil
}

func (s *Service) State() *state.State { return s.state }

func (s *Service) Feed() *notify.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed
}

// Timer passthroughs.

func (s *Service) StartTimer(issueID string) error { return s.timer.Start(issueID) }
func (s *Service) PauseTimer()                     { s.timer.Pause() }
func (s *Service) ResumeTimer()                    { s.timer.Resume() }
func (s *Service) TimerSnapshot() timer.Snapshot   { return s.timer.Snapshot() }
func (s *Service) TimerElapsedMs() int64           { return s.timer.ElapsedMs() }

// HoursFromMillis converts a tracked duration to hours rounded to three
// decimals, the granularity the hub's time tracking accepts.
func HoursFromMillis(ms int64) float64 {
	return math.Round(float64(ms)/3_600_000*1000) / 1000
}

// StopAndLog takes the timer's pending duration and submits it as logged time
// on the tracked issue. The take is one-shot: a second call finds the timer
// idle. Durations that round to zero hours are rejected after the take, so a
// sub-second accidental start never reaches the worklog.
func (s *Service) StopAndLog(ctx context.Context) (domain.Issue, float64, error) {
	res, ok := s.timer.Stop()
	if !ok {
		return domain.Issue{}, 0, ErrTimerIdle
	}
	hours := HoursFromMillis(res.ElapsedMs)
	if hours <= 0 {
		s.log.Info().Int64("elapsedMs", res.ElapsedMs).Msg("discarding too-short tracking session")
		return domain.Issue{}, 0, ErrDurationTooShort
	}
	issue, err := s.api.LogTime(ctx, res.IssueID, hours)
	if err != nil {
		return domain.Issue{}, 0, err
	}
	s.state.ApplyIssue(issue)
	s.log.Info().Str("issue", res.IssueID).Float64("hours", hours).Msg("time logged")
	return issue, hours, nil
}

// Chat.

func (s *Service) Rooms() []domain.ChatRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatRoom, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// OpenRoom opens (or returns the already open) chat session for a room.
func (s *Service) OpenRoom(ctx context.Context, roomID string) (*chat.Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[roomID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	self := ""
	if u, ok := s.store.CurrentUser(); ok {
		self = u.ID
	}
	sess := chat.NewSession(chat.Options{
		RoomID:         roomID,
		SelfUserID:     self,
		API:            s.api,
		ChannelURL:     channel.ChatRoomURL(s.cfg.APIBaseURL, s.store.Token(), roomID),
		Dial:           s.dial,
		ReconnectDelay: s.cfg.ReconnectDelay,
		TypingIdle:     s.cfg.TypingIdle,
		RefreshRooms:   func() { s.refreshRooms() },
		Log:            s.log.With().Str("component", "chat").Str("room", roomID).Logger(),
	})
	if err := sess.Open(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	s.mu.Lock()
	if existing, ok := s.sessions[roomID]; ok {
		s.mu.Unlock()
		sess.Close()
		return existing, nil
	}
	s.sessions[roomID] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *Service) Room(roomID string) (*chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[roomID]
	if !ok {
		return nil, ErrRoomNotOpen
	}
	return sess, nil
}

// CloseRoom tears down the room's session. Closing a room that is not open is
// a no-op.
func (s *Service) CloseRoom(roomID string) {
	s.mu.Lock()
	sess, ok := s.sessions[roomID]
	delete(s.sessions, roomID)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}
}

func (s *Service) refreshRooms() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	projectID := s.store.LastProjectID()
	rooms, err := s.api.ListChatRooms(ctx, "", projectID)
	if err != nil {
		s.log.Debug().Err(err).Msg("room list refresh failed")
		return
	}
	s.mu.Lock()
	s.rooms = rooms
	s.mu.Unlock()
}
