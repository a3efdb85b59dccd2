/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package timer

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// Snapshot is the single live work-timer session. StartedAt is an absolute
// unix-millisecond instant, so a running session reloaded after a restart
// still reflects true wall-clock elapsed time.
type Snapshot struct {
	Status    Status `json:"status"`
	IssueID   string `json:"issueId,omitempty"`
	StartedAt int64  `json:"startedAt,omitempty"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type StopResult struct {
	IssueID   string
	ElapsedMs int64
}

// Store persists the snapshot across restarts. Load reporting ok=false means
// no snapshot has been saved yet.
type Store interface {
	Save(Snapshot) error
	Load() (Snapshot, bool, error)
}

var ErrEmptyIssue = errors.New("timer: empty issue id")

type Timer struct {
	mu    sync.Mutex
	st    Snapshot
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

func New(store Store, log zerolog.Logger) *Timer {
	t := &Timer{store: store, now: time.Now, log: log, st: Snapshot{Status: StatusIdle}}
	if store == nil {
		return t
	}
	snap, ok, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("timer: load persisted state failed")
		return t
	}
	if ok {
		t.st = sanitize(snap)
	}
	return t
}

// sanitize degrades anything inconsistent to idle so a corrupt persisted
// snapshot never resurrects as a half-valid session.
func sanitize(s Snapshot) Snapshot {
	switch s.Status {
	case StatusRunning:
		if s.IssueID == "" || s.StartedAt == 0 {
			return Snapshot{Status: StatusIdle}
		}
		return s
	case StatusPaused:
		if s.IssueID == "" {
			return Snapshot{Status: StatusIdle}
		}
		s.StartedAt = 0
		return s
	default:
		return Snapshot{Status: StatusIdle}
	}
}

func (t *Timer) Start(issueID string) error {
	if issueID == "" {
		return ErrEmptyIssue
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	// Overwrites any prior session unconditionally; last writer wins.
	t.st = Snapshot{
		Status:    StatusRunning,
		IssueID:   issueID,
		StartedAt: t.now().UnixMilli(),
		ElapsedMs: 0,
	}
	t.persist()
	return nil
}

func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.Status != StatusRunning {
		return
	}
	t.st.ElapsedMs = t.elapsedLocked()
	t.st.Status = StatusPaused
	t.st.StartedAt = 0
	t.persist()
}

func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.Status != StatusPaused || t.st.IssueID == "" {
		return
	}
	t.st.Status = StatusRunning
	t.st.StartedAt = t.now().UnixMilli()
	t.persist()
}

// Stop finalizes the session and returns it once; after Stop the timer is
// idle and the snapshot is gone.
func (t *Timer) Stop() (StopResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.Status == StatusIdle || t.st.IssueID == "" {
		return StopResult{}, false
	}
	res := StopResult{IssueID: t.st.IssueID, ElapsedMs: t.elapsedLocked()}
	t.st = Snapshot{Status: StatusIdle}
	t.persist()
	return res, true
}

func (t *Timer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st = Snapshot{Status: StatusIdle}
	t.persist()
}

func (t *Timer) ElapsedMs() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st
}

func (t *Timer) elapsedLocked() int64 {
	if t.st.Status != StatusRunning || t.st.StartedAt == 0 {
		return t.st.ElapsedMs
	}
	d := t.now().UnixMilli() - t.st.StartedAt
	if d < 0 {
		d = 0
	}
	return t.st.ElapsedMs + d
}

func (t *Timer) persist() {
	if t.store == nil {
		return
	}
	if err := t.store.Save(t.st); err != nil {
		t.log.Warn().Err(err).Msg("timer: persist state failed")
	}
}
