/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aashritha987/core-project-hub/internal/domain"
	"github.com/aashritha987/core-project-hub/internal/timer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Fixed keys for the durable client-side state. One row per key,
// last write wins across processes sharing the same database file.
const (
	keyTimer       = "hub_live_timer_state"
	keyToken       = "hub_api_token"
	keyLastProject = "hub_last_project_id"
	keyCurrentUser = "hub_current_user"
)

type entry struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

func (entry) TableName() string { return "agent_state" }

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) put(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&entry{Key: key, Value: b}).Error
}

func (s *Store) get(key string, out any) (bool, error) {
	var e entry
	err := s.db.First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) delete(key string) error {
	return s.db.Delete(&entry{}, "key = ?", key).Error
}

// TimerStore adapts the KV rows to the timer's persistence interface.
func (s *Store) TimerStore() timer.Store { return timerStore{s} }

type timerStore struct{ s *Store }

func (t timerStore) Save(snap timer.Snapshot) error { return t.s.put(keyTimer, snap) }

func (t timerStore) Load() (timer.Snapshot, bool, error) {
	var snap timer.Snapshot
	ok, err := t.s.get(keyTimer, &snap)
	return snap, ok, err
}

func (s *Store) Token() string {
	var tok string
	if ok, err := s.get(keyToken, &tok); err != nil || !ok {
		return ""
	}
	return tok
}

func (s *Store) SetToken(tok string) error {
	if tok == "" {
		return s.delete(keyToken)
	}
	return s.put(keyToken, tok)
}

func (s *Store) CurrentUser() (domain.User, bool) {
	var u domain.User
	ok, err := s.get(keyCurrentUser, &u)
	if err != nil {
		return domain.User{}, false
	}
	return u, ok
}

func (s *Store) SetCurrentUser(u domain.User) error { return s.put(keyCurrentUser, u) }

// Role reports the locally cached user role for optimistic permission
// explanations; the backend stays authoritative.
func (s *Store) Role() string {
	u, ok := s.CurrentUser()
	if !ok {
		return ""
	}
	return u.Role
}

func (s *Store) LastProjectID() string {
	var id string
	if ok, err := s.get(keyLastProject, &id); err != nil || !ok {
		return ""
	}
	return id
}

func (s *Store) SetLastProjectID(id string) error { return s.put(keyLastProject, id) }
