/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aashritha987/core-project-hub/internal/channel"
	"github.com/aashritha987/core-project-hub/internal/domain"
	"github.com/rs/zerolog"
)

type fakeConn struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	writes []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 8), closed: make(chan struct{})}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case b := <-c.in:
		return b, nil
	case <-c.closed:
		return nil, errors.New("closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, string(data))
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.writes))
	copy(out, c.writes)
	return out
}

type fakeAPI struct {
	mu      sync.Mutex
	history []domain.ChatMessage
	created []string
	reads   []string
	nextID  int
	deleted map[string]bool
}

func (a *fakeAPI) ListRoomMessages(ctx context.Context, roomID, before string) ([]domain.ChatMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.ChatMessage, len(a.history))
	copy(out, a.history)
	return out, nil
}

func (a *fakeAPI) CreateRoomMessage(ctx context.Context, roomID, content string) (domain.ChatMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.created = append(a.created, content)
	return domain.ChatMessage{ID: fmt.Sprintf("m%d", a.nextID), RoomID: roomID, Content: content}, nil
}

func (a *fakeAPI) EditRoomMessage(ctx context.Context, messageID, content string) (domain.ChatMessage, error) {
	return domain.ChatMessage{ID: messageID, Content: content, IsEdited: true}, nil
}

func (a *fakeAPI) DeleteRoomMessage(ctx context.Context, messageID string) (domain.ChatMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleted == nil {
		a.deleted = map[string]bool{}
	}
	a.deleted[messageID] = true
	return domain.ChatMessage{ID: messageID, IsDeleted: true}, nil
}

func (a *fakeAPI) MarkRoomRead(ctx context.Context, roomID, messageID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reads = append(a.reads, messageID)
	return nil
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

type sessionFixture struct {
	s        *Session
	api      *fakeAPI
	conn     *fakeConn
	refreshN func() int
}

func openSession(t *testing.T, typingIdle time.Duration) sessionFixture {
	t.Helper()
	api := &fakeAPI{}
	conn := newFakeConn()
	var mu sync.Mutex
	refreshes := 0
	s := NewSession(Options{
		RoomID:         "r1",
		SelfUserID:     "me",
		API:            api,
		ChannelURL:     "ws://hub.local/ws/chat/r1/?token=t",
		Dial:           func(ctx context.Context, url string) (channel.Conn, error) { return conn, nil },
		ReconnectDelay: 10 * time.Millisecond,
		TypingIdle:     typingIdle,
		RefreshRooms:   func() { mu.Lock(); refreshes++; mu.Unlock() },
		Log:            zerolog.Nop(),
	})
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	return sessionFixture{s: s, api: api, conn: conn, refreshN: func() int { mu.Lock(); defer mu.Unlock(); return refreshes }}
}

func pushChat(conn *fakeConn, eventType string, payload any) {
	b, _ := json.Marshal(map[string]any{"type": "chat_event", "eventType": eventType, "payload": payload})
	conn.in <- b
}

func TestPushedUnknownMessageIsAppendedInArrivalOrder(t *testing.T) {
	fx := openSession(t, time.Second)
	pushChat(fx.conn, "message_created", domain.ChatMessage{ID: "mx", RoomID: "r1", Content: "from push"})
	waitFor(t, func() bool { return len(fx.s.Messages()) == 1 }, "pushed message")

	msgs := fx.s.Messages()
	if msgs[0].ID != "mx" || msgs[0].Content != "from push" {
		t.Fatalf("messages = %+v", msgs)
	}
	// The room was the open one: it gets acknowledged.
	waitFor(t, func() bool {
		fx.api.mu.Lock()
		defer fx.api.mu.Unlock()
		return len(fx.api.reads) >= 2 // one from Open, one from the push
	}, "read ack")
}

func TestEchoedPushDoesNotDuplicateDirectResponse(t *testing.T) {
	fx := openSession(t, time.Second)
	created, err := fx.s.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	pushChat(fx.conn, "message_created", created)
	// Let the push get dispatched, then verify nothing doubled.
	waitFor(t, func() bool { return fx.refreshN() >= 3 }, "push handled")
	if msgs := fx.s.Messages(); len(msgs) != 1 {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestDeleteFlipsFlagInsteadOfRemoving(t *testing.T) {
	fx := openSession(t, time.Second)
	pushChat(fx.conn, "message_created", domain.ChatMessage{ID: "m1", RoomID: "r1", Content: "keep me"})
	pushChat(fx.conn, "message_created", domain.ChatMessage{ID: "m2", RoomID: "r1", Content: "doomed"})
	waitFor(t, func() bool { return len(fx.s.Messages()) == 2 }, "two messages")

	pushChat(fx.conn, "message_deleted", domain.ChatMessage{ID: "m2", RoomID: "r1", IsDeleted: true})
	waitFor(t, func() bool {
		msgs := fx.s.Messages()
		return len(msgs) == 2 && msgs[1].IsDeleted
	}, "deleted flag")
	if msgs := fx.s.Messages(); msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Fatalf("ordering changed: %+v", msgs)
	}
}

func TestUpdateForUnknownMessageIsDropped(t *testing.T) {
	fx := openSession(t, time.Second)
	pushChat(fx.conn, "message_updated", domain.ChatMessage{ID: "ghost", RoomID: "r1", Content: "edited"})
	waitFor(t, func() bool { return fx.refreshN() >= 2 }, "update handled")
	if msgs := fx.s.Messages(); len(msgs) != 0 {
		t.Fatalf("update should not append: %+v", msgs)
	}
}

func TestTypingSetExcludesSelf(t *testing.T) {
	fx := openSession(t, time.Second)
	pushChat(fx.conn, "typing_start", map[string]string{"roomId": "r1", "userId": "me"})
	pushChat(fx.conn, "typing_start", map[string]string{"roomId": "r1", "userId": "u2"})
	waitFor(t, func() bool { return len(fx.s.TypingUsers()) == 1 }, "typing user")
	if got := fx.s.TypingUsers(); got[0] != "u2" {
		t.Fatalf("typing = %v", got)
	}
	pushChat(fx.conn, "typing_stop", map[string]string{"roomId": "r1", "userId": "u2"})
	waitFor(t, func() bool { return len(fx.s.TypingUsers()) == 0 }, "typing cleared")
}

func countFrames(frames []string, want string) int {
	n := 0
	for _, f := range frames {
		if f == want {
			n++
		}
	}
	return n
}

func TestTypingBurstDebounce(t *testing.T) {
	fx := openSession(t, 60*time.Millisecond)
	waitFor(t, func() bool { return fx.s.mgr.State() == channel.StateConnected }, "connected")

	for i := 0; i < 5; i++ {
		fx.s.TypingActivity()
		time.Sleep(10 * time.Millisecond)
	}
	waitFor(t, func() bool {
		return countFrames(fx.conn.frames(), `{"type":"typing_stop"}`) == 1
	}, "typing stop after idle")

	frames := fx.conn.frames()
	if n := countFrames(frames, `{"type":"typing_start"}`); n != 1 {
		t.Fatalf("typing_start sent %d times: %v", n, frames)
	}
	if n := countFrames(frames, `{"type":"typing_stop"}`); n != 1 {
		t.Fatalf("typing_stop sent %d times: %v", n, frames)
	}
}

func TestSendStopsTypingExactlyOnce(t *testing.T) {
	fx := openSession(t, time.Hour) // idle timer must not fire during the test
	waitFor(t, func() bool { return fx.s.mgr.State() == channel.StateConnected }, "connected")

	fx.s.TypingActivity()
	fx.s.TypingActivity()
	if _, err := fx.s.Send(context.Background(), "shipped"); err != nil {
		t.Fatalf("send: %v", err)
	}
	frames := fx.conn.frames()
	if n := countFrames(frames, `{"type":"typing_start"}`); n != 1 {
		t.Fatalf("typing_start sent %d times: %v", n, frames)
	}
	if n := countFrames(frames, `{"type":"typing_stop"}`); n != 1 {
		t.Fatalf("typing_stop sent %d times: %v", n, frames)
	}

	// A send without any prior typing burst adds no stray stop frame.
	if _, err := fx.s.Send(context.Background(), "again"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if n := countFrames(fx.conn.frames(), `{"type":"typing_stop"}`); n != 1 {
		t.Fatalf("typing_stop sent %d times", n)
	}
}

func TestLoadOlderPrependsWithoutDuplicates(t *testing.T) {
	fx := openSession(t, time.Second)
	pushChat(fx.conn, "message_created", domain.ChatMessage{ID: "m5", RoomID: "r1"})
	waitFor(t, func() bool { return len(fx.s.Messages()) == 1 }, "live message")

	fx.api.mu.Lock()
	fx.api.history = []domain.ChatMessage{{ID: "m3", RoomID: "r1"}, {ID: "m4", RoomID: "r1"}, {ID: "m5", RoomID: "r1"}}
	fx.api.mu.Unlock()
	if err := fx.s.LoadOlder(context.Background(), "m5"); err != nil {
		t.Fatalf("load older: %v", err)
	}
	msgs := fx.s.Messages()
	if len(msgs) != 3 || msgs[0].ID != "m3" || msgs[1].ID != "m4" || msgs[2].ID != "m5" {
		t.Fatalf("messages = %+v", msgs)
	}
}
