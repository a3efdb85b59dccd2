/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateTornDown     State = "torn_down"
)

var ErrNotConnected = errors.New("channel: not connected")

// Conn is one live push connection. The production implementation wraps a
// websocket; tests drive the manager with in-memory fakes.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

type Dialer func(ctx context.Context, url string) (Conn, error)

type Options struct {
	// Name identifies the channel in logs. The URL embeds the auth token,
	// so it is never logged.
	Name string
	URL  string

	Dial           Dialer
	ReconnectDelay time.Duration
	Parse          func([]byte) Event
	Handle         func(Event)
	Log            zerolog.Logger
}

// Manager keeps one logical push channel alive: dial, read, and on any
// disconnect retry after a fixed delay, forever, until Close.
type Manager struct {
	opts Options

	mu      sync.Mutex
	state   State
	conn    Conn
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

func NewManager(opts Options) *Manager {
	if opts.Dial == nil {
		opts.Dial = Dial
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	return &Manager{opts: opts, state: StateDisconnected, done: make(chan struct{})}
}

// Start begins connecting in the background. A manager built without a URL
// (no auth token available) stays inert.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.state == StateTornDown {
		return
	}
	if m.opts.URL == "" {
		m.opts.Log.Debug().Str("channel", m.opts.Name).Msg("channel: no token, staying inert")
		return
	}
	m.started = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.run(ctx)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Send writes one JSON frame over the live connection, if any.
func (m *Manager) Send(ctx context.Context, v any) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, b)
}

// Close tears the channel down permanently: no further connection attempts
// are made even if the underlying socket later reports a close. Safe to call
// more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateTornDown {
		m.mu.Unlock()
		return
	}
	m.state = StateTornDown
	cancel := m.cancel
	conn := m.conn
	m.conn = nil
	started := m.started
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if started {
		<-m.done
	}
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	for {
		if ctx.Err() != nil {
			return
		}
		m.setState(StateConnecting)
		conn, err := m.opts.Dial(ctx, m.opts.URL)
		if err == nil {
			m.mu.Lock()
			if m.state == StateTornDown {
				m.mu.Unlock()
				_ = conn.Close()
				return
			}
			m.conn = conn
			m.state = StateConnected
			m.mu.Unlock()
			m.opts.Log.Debug().Str("channel", m.opts.Name).Msg("channel: connected")

			m.readLoop(ctx, conn)
			_ = conn.Close()
			m.mu.Lock()
			m.conn = nil
			m.mu.Unlock()
		} else {
			m.opts.Log.Debug().Str("channel", m.opts.Name).Err(err).Msg("channel: dial failed")
		}
		m.setState(StateDisconnected)
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.opts.ReconnectDelay):
		}
	}
}

func (m *Manager) readLoop(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				m.opts.Log.Debug().Str("channel", m.opts.Name).Err(err).Msg("channel: connection lost")
			}
			return
		}
		if m.opts.Parse == nil || m.opts.Handle == nil {
			continue
		}
		ev := m.opts.Parse(data)
		if ev.Type == EventNone {
			continue
		}
		m.opts.Handle(ev)
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateTornDown {
		return
	}
	m.state = s
}

// NotificationsURL builds the notification channel endpoint from the REST
// base URL, switching to the matching websocket scheme.
func NotificationsURL(apiBase, token string) string {
	return wsURL(apiBase, token, "/ws/notifications/")
}

// ChatRoomURL builds the per-room chat channel endpoint.
func ChatRoomURL(apiBase, token, roomID string) string {
	if roomID == "" {
		return ""
	}
	return wsURL(apiBase, token, "/ws/chat/"+url.PathEscape(roomID)+"/")
}

func wsURL(apiBase, token, path string) string {
	if token == "" {
		return ""
	}
	u, err := url.Parse(apiBase)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := "ws"
	if strings.EqualFold(u.Scheme, "https") {
		scheme = "wss"
	}
	return scheme + "://" + u.Host + path + "?token=" + url.QueryEscape(token)
}
