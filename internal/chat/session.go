/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aashritha987/core-project-hub/internal/channel"
	"github.com/aashritha987/core-project-hub/internal/domain"
	"github.com/aashritha987/core-project-hub/internal/state"
	"github.com/rs/zerolog"
)

// API is the slice of the hub client a chat session needs.
type API interface {
	ListRoomMessages(ctx context.Context, roomID, before string) ([]domain.ChatMessage, error)
	CreateRoomMessage(ctx context.Context, roomID, content string) (domain.ChatMessage, error)
	EditRoomMessage(ctx context.Context, messageID, content string) (domain.ChatMessage, error)
	DeleteRoomMessage(ctx context.Context, messageID string) (domain.ChatMessage, error)
	MarkRoomRead(ctx context.Context, roomID, messageID string) error
}

type Options struct {
	RoomID     string
	SelfUserID string
	API        API

	// ChannelURL embeds the auth token; empty leaves the push channel inert.
	ChannelURL     string
	Dial           channel.Dialer
	ReconnectDelay time.Duration
	TypingIdle     time.Duration

	// RefreshRooms is invoked whenever room aggregates (unread counts,
	// previews) may have changed server-side.
	RefreshRooms func()
	Log          zerolog.Logger
}

var ErrEmptyMessage = errors.New("chat: empty message")

func msgID(m domain.ChatMessage) string { return m.ID }

// Session is one open chat room: its message list, its typing indicators,
// and the push channel keeping both live.
type Session struct {
	opts Options
	mgr  *channel.Manager

	mu          sync.Mutex
	messages    []domain.ChatMessage
	typing      map[string]struct{}
	isTyping    bool
	typingTimer *time.Timer
	closed      bool
}

func NewSession(opts Options) *Session {
	if opts.TypingIdle <= 0 {
		opts.TypingIdle = 3 * time.Second
	}
	s := &Session{opts: opts, typing: map[string]struct{}{}}
	s.mgr = channel.NewManager(channel.Options{
		Name:           "chat:" + opts.RoomID,
		URL:            opts.ChannelURL,
		Dial:           opts.Dial,
		ReconnectDelay: opts.ReconnectDelay,
		Parse:          channel.ParseChatEvent,
		Handle:         s.handleEvent,
		Log:            opts.Log,
	})
	return s
}

// Open loads the room history, acknowledges it as read, and starts the push
// channel.
func (s *Session) Open(ctx context.Context) error {
	msgs, err := s.opts.API.ListRoomMessages(ctx, s.opts.RoomID, "")
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()

	last := ""
	if len(msgs) > 0 {
		last = msgs[len(msgs)-1].ID
	}
	if err := s.opts.API.MarkRoomRead(ctx, s.opts.RoomID, last); err != nil {
		s.opts.Log.Warn().Err(err).Str("room", s.opts.RoomID).Msg("chat: mark read failed")
	}
	s.refreshRooms()
	s.mgr.Start()
	return nil
}

// Close tears down the push channel and discards typing state. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.isTyping = false
	s.typing = map[string]struct{}{}
	s.mu.Unlock()
	s.mgr.Close()
}

func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) TypingUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.typing))
	for id := range s.typing {
		out = append(out, id)
	}
	return out
}

func (s *Session) handleEvent(ev channel.Event) {
	switch ev.Type {
	case channel.EventTypingStart:
		if ev.UserID == "" || ev.UserID == s.opts.SelfUserID {
			return
		}
		s.mu.Lock()
		s.typing[ev.UserID] = struct{}{}
		s.mu.Unlock()
	case channel.EventTypingStop:
		if ev.UserID == "" {
			return
		}
		s.mu.Lock()
		delete(s.typing, ev.UserID)
		s.mu.Unlock()
	case channel.EventMessageCreated:
		// A push can outrun the initial load or the direct response;
		// merge-or-append keeps order and avoids duplicates either way.
		s.mu.Lock()
		s.messages = state.ReplaceOrAppend(s.messages, msgID, *ev.Message)
		s.mu.Unlock()
		if ev.Message.RoomID == s.opts.RoomID {
			s.ack(ev.Message.ID)
		}
		s.refreshRooms()
	case channel.EventMessageUpdated, channel.EventMessageDeleted:
		s.mu.Lock()
		s.messages = state.ReplaceOrDrop(s.messages, msgID, *ev.Message)
		s.mu.Unlock()
		s.refreshRooms()
	case channel.EventReadReceipt:
		s.refreshRooms()
	}
}

// TypingActivity reports one local keystroke. The first keystroke of a burst
// sends typing_start; the idle timer re-arms on every call and sends
// typing_stop once the burst ends.
func (s *Session) TypingActivity() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	first := !s.isTyping
	s.isTyping = true
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.opts.TypingIdle, s.stopTyping)
	s.mu.Unlock()

	if first {
		s.sendFrame(channel.TypingStartFrame())
	}
}

func (s *Session) stopTyping() {
	s.mu.Lock()
	if !s.isTyping {
		s.mu.Unlock()
		return
	}
	s.isTyping = false
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.mu.Unlock()
	s.sendFrame(channel.TypingStopFrame())
}

func (s *Session) Send(ctx context.Context, content string) (domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}
	s.stopTyping()
	created, err := s.opts.API.CreateRoomMessage(ctx, s.opts.RoomID, content)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	s.mu.Lock()
	s.messages = state.ReplaceOrAppend(s.messages, msgID, created)
	s.mu.Unlock()
	if err := s.opts.API.MarkRoomRead(ctx, s.opts.RoomID, created.ID); err != nil {
		s.opts.Log.Warn().Err(err).Str("room", s.opts.RoomID).Msg("chat: mark read failed")
	}
	s.refreshRooms()
	return created, nil
}

func (s *Session) Edit(ctx context.Context, messageID, content string) error {
	updated, err := s.opts.API.EditRoomMessage(ctx, messageID, content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.messages = state.ReplaceOrDrop(s.messages, msgID, updated)
	s.mu.Unlock()
	s.refreshRooms()
	return nil
}

// Delete flips the message's deleted flag in place; the entry stays so the
// thread keeps its shape.
func (s *Session) Delete(ctx context.Context, messageID string) error {
	updated, err := s.opts.API.DeleteRoomMessage(ctx, messageID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.messages = state.ReplaceOrDrop(s.messages, msgID, updated)
	s.mu.Unlock()
	s.refreshRooms()
	return nil
}

// LoadOlder fetches the page before the given message id and prepends it.
func (s *Session) LoadOlder(ctx context.Context, before string) error {
	older, err := s.opts.API.ListRoomMessages(ctx, s.opts.RoomID, before)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	have := make(map[string]struct{}, len(s.messages))
	for _, m := range s.messages {
		have[m.ID] = struct{}{}
	}
	merged := make([]domain.ChatMessage, 0, len(older)+len(s.messages))
	for _, m := range older {
		if _, ok := have[m.ID]; !ok {
			merged = append(merged, m)
		}
	}
	s.messages = append(merged, s.messages...)
	return nil
}

func (s *Session) refreshRooms() {
	if s.opts.RefreshRooms != nil {
		s.opts.RefreshRooms()
	}
}

func (s *Session) ack(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.opts.API.MarkRoomRead(ctx, s.opts.RoomID, messageID); err != nil {
		s.opts.Log.Warn().Err(err).Str("room", s.opts.RoomID).Msg("chat: read ack failed")
	}
}

func (s *Session) sendFrame(v any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.mgr.Send(ctx, v); err != nil && !errors.Is(err, channel.ErrNotConnected) {
		s.opts.Log.Debug().Err(err).Str("room", s.opts.RoomID).Msg("chat: frame send failed")
	}
}
