/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package notify keeps the local notification inbox in sync with the hub over
// a push channel, refetching the feed whenever the backend announces a change.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aashritha987/core-project-hub/internal/channel"
	"github.com/aashritha987/core-project-hub/internal/domain"
	"github.com/rs/zerolog"
)

// API is the subset of the hub client the feed needs.
type API interface {
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

type Options struct {
	API            API
	ChannelURL     string
	Dial           channel.Dialer
	ReconnectDelay time.Duration
	OnChange       func()
	Log            zerolog.Logger
}

// Feed holds the current notification list and unread counter. Push events
// never carry the full feed, so every event triggers a refetch.
type Feed struct {
	opts Options
	mgr  *channel.Manager

	mu     sync.Mutex
	items  []domain.Notification
	unread int
}

func NewFeed(opts Options) *Feed {
	f := &Feed{opts: opts}
	f.mgr = channel.NewManager(channel.Options{
		Name:           "notifications",
		URL:            opts.ChannelURL,
		Dial:           opts.Dial,
		ReconnectDelay: opts.ReconnectDelay,
		Parse:          channel.ParseNotificationEvent,
		Handle:         f.handleEvent,
		Log:            opts.Log,
	})
	return f
}

// Start fetches the initial feed and opens the push channel. An initial fetch
// failure is logged, not fatal: the channel retries and the next event
// refetches.
func (f *Feed) Start(ctx context.Context) {
	if err := f.Refresh(ctx); err != nil {
		f.opts.Log.Warn().Err(err).Msg("notify: initial fetch failed")
	}
	f.mgr.Start()
}

func (f *Feed) Close() { f.mgr.Close() }

func (f *Feed) Notifications() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Notification, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// Refresh refetches the list and the unread counter from the hub.
func (f *Feed) Refresh(ctx context.Context) error {
	items, err := f.opts.API.ListNotifications(ctx)
	if err != nil {
		return err
	}
	unread, err := f.opts.API.UnreadCount(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.items = items
	f.unread = unread
	f.mu.Unlock()
	f.changed()
	return nil
}

// MarkRead acknowledges one notification. The local copy flips immediately;
// the unread counter never goes below zero.
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	if err := f.opts.API.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	for i := range f.items {
		if f.items[i].ID == id && !f.items[i].IsRead {
			f.items[i].IsRead = true
			if f.unread > 0 {
				f.unread--
			}
		}
	}
	f.mu.Unlock()
	f.changed()
	return nil
}

func (f *Feed) MarkAllRead(ctx context.Context) error {
	if err := f.opts.API.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	for i := range f.items {
		f.items[i].IsRead = true
	}
	f.unread = 0
	f.mu.Unlock()
	f.changed()
	return nil
}

func (f *Feed) handleEvent(ev channel.Event) {
	if ev.Type != channel.EventNotification {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := f.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		f.opts.Log.Warn().Err(err).Msg("notify: refetch failed")
	}
}

func (f *Feed) changed() {
	if f.opts.OnChange != nil {
		f.opts.OnChange()
	}
}
