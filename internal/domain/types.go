/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package domain

import "time"

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Initials string `json:"initials"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

type IssueLink struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	TargetIssueID string `json:"targetIssueId"`
}

type TimeTracking struct {
	EstimatedHours *float64 `json:"estimatedHours"`
	LoggedHours    float64  `json:"loggedHours"`
}

type Issue struct {
	ID           string       `json:"id"`
	Key          string       `json:"key"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Type         string       `json:"type"`
	Status       string       `json:"status"`
	Priority     string       `json:"priority"`
	AssigneeID   string       `json:"assigneeId"`
	ReporterID   string       `json:"reporterId"`
	Labels       []string     `json:"labels"`
	StoryPoints  *float64     `json:"storyPoints"`
	SprintID     string       `json:"sprintId"`
	EpicID       string       `json:"epicId"`
	ParentID     string       `json:"parentId"`
	Links        []IssueLink  `json:"links"`
	TimeTracking TimeTracking `json:"timeTracking"`
	DueDate      *time.Time   `json:"dueDate"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type Sprint struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	ProjectID string `json:"projectId"`
}

const (
	SprintPlanned   = "planned"
	SprintActive    = "active"
	SprintCompleted = "completed"
)

type Epic struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	Summary   string `json:"summary"`
	Color     string `json:"color"`
	Status    string `json:"status"`
	ProjectID string `json:"projectId"`
}

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Key         string `json:"key"`
	Description string `json:"description"`
	LeadID      string `json:"leadId"`
}

type Notification struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	IsRead    bool           `json:"isRead"`
	ActionURL string         `json:"actionUrl"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
}

type ChatParticipant struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

type ChatMessage struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"roomId"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	SenderAvatar string    `json:"senderAvatar"`
	Content      string    `json:"content"`
	IsEdited     bool      `json:"isEdited"`
	IsDeleted    bool      `json:"isDeleted"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ChatRoom carries server-computed aggregates (unread count, last message);
// the client refetches rooms rather than reconstructing these locally.
type ChatRoom struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Name         string            `json:"name"`
	ProjectID    string            `json:"projectId"`
	IsPrivate    bool              `json:"isPrivate"`
	Participants []ChatParticipant `json:"participants"`
	UnreadCount  int               `json:"unreadCount"`
	LastMessage  *ChatMessage      `json:"lastMessage"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

const (
	RoomTypeDM      = "dm"
	RoomTypeChannel = "channel"
)
