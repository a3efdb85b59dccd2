/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package state

import (
	"sort"
	"sync"

	"github.com/aashritha987/core-project-hub/internal/domain"
)

func issueID(i domain.Issue) string   { return i.ID }
func sprintID(s domain.Sprint) string { return s.ID }
func epicID(e domain.Epic) string     { return e.ID }

// State holds the client-side mirror of the backend's domain collections.
// Order is insertion/arrival order except projects and users, which are kept
// alphabetical. All mutations go through the by-id merge rules.
type State struct {
	mu       sync.RWMutex
	issues   []domain.Issue
	sprints  []domain.Sprint
	epics    []domain.Epic
	projects []domain.Project
	users    []domain.User
}

func New() *State { return &State{} }

func (s *State) Issues() []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

func (s *State) SetIssues(issues []domain.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = issues
}

// AddIssue records a freshly created issue; new issues go to the front.
func (s *State) AddIssue(i domain.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = append([]domain.Issue{i}, s.issues...)
}

// ApplyIssue merges a server-returned issue, dropping it when the issue is
// not held locally.
func (s *State) ApplyIssue(i domain.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = ReplaceOrDrop(s.issues, issueID, i)
}

// RemoveIssue deletes an issue together with its subtasks. Links from other
// issues are left dangling, matching what the backend does.
func (s *State) RemoveIssue(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.issues[:0]
	for _, i := range s.issues {
		if i.ID == id || i.ParentID == id {
			continue
		}
		kept = append(kept, i)
	}
	s.issues = kept
}

func (s *State) Sprints() []domain.Sprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Sprint, len(s.sprints))
	copy(out, s.sprints)
	return out
}

func (s *State) SetSprints(sprints []domain.Sprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprints = sprints
}

func (s *State) AddSprint(sp domain.Sprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprints = append(s.sprints, sp)
}

func (s *State) ApplySprint(sp domain.Sprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprints = ReplaceOrDrop(s.sprints, sprintID, sp)
}

// RemoveSprint deletes the sprint and nulls the sprint reference on any
// issue that pointed at it; the issues themselves survive.
func (s *State) RemoveSprint(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sprints[:0]
	for _, sp := range s.sprints {
		if sp.ID != id {
			kept = append(kept, sp)
		}
	}
	s.sprints = kept
	for i := range s.issues {
		if s.issues[i].SprintID == id {
			s.issues[i].SprintID = ""
		}
	}
}

// StartSprint activates one sprint and retires any other active one.
func (s *State) StartSprint(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sprints {
		switch {
		case s.sprints[i].ID == id:
			s.sprints[i].Status = domain.SprintActive
		case s.sprints[i].Status == domain.SprintActive:
			s.sprints[i].Status = domain.SprintCompleted
		}
	}
}

// CompleteSprint marks the sprint done and moves its unfinished issues back
// to the backlog.
func (s *State) CompleteSprint(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sprints {
		if s.sprints[i].ID == id {
			s.sprints[i].Status = domain.SprintCompleted
		}
	}
	for i := range s.issues {
		if s.issues[i].SprintID == id && s.issues[i].Status != "done" {
			s.issues[i].SprintID = ""
		}
	}
}

func (s *State) Epics() []domain.Epic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Epic, len(s.epics))
	copy(out, s.epics)
	return out
}

func (s *State) SetEpics(epics []domain.Epic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epics = epics
}

func (s *State) AddEpic(e domain.Epic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epics = append(s.epics, e)
}

func (s *State) ApplyEpic(e domain.Epic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epics = ReplaceOrDrop(s.epics, epicID, e)
}

// RemoveEpic deletes the epic and nulls the epic reference on its issues.
func (s *State) RemoveEpic(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.epics[:0]
	for _, e := range s.epics {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.epics = kept
	for i := range s.issues {
		if s.issues[i].EpicID == id {
			s.issues[i].EpicID = ""
		}
	}
}

func (s *State) Projects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

func (s *State) SetProjects(projects []domain.Project) {
	sort.Slice(projects, func(a, b int) bool { return projects[a].Name < projects[b].Name })
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
}

func (s *State) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *State) SetUsers(users []domain.User) {
	sort.Slice(users, func(a, b int) bool { return users[a].Name < users[b].Name })
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
}
