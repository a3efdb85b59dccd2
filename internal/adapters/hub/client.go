/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aashritha987/core-project-hub/internal/config"
	"github.com/aashritha987/core-project-hub/internal/domain"
	"github.com/rs/zerolog"
)

// Credentials supplies the bearer token and the locally cached role. The
// role only feeds the human-readable 403 explanations; the backend remains
// the authority on permissions.
type Credentials interface {
	Token() string
	Role() string
}

type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.Config, creds Credentials, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		creds:   creds,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log,
	}
}

// PermissionError is a 403 with a reason derived from the endpoint and the
// cached role. Callers surface Reason to the user and roll back any
// optimistic change.
type PermissionError struct {
	Path    string
	Reason  string
	Message string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("hub: forbidden %s: %s", e.Path, e.Reason)
}

func permissionReason(path, role, backendMessage string) string {
	area := "this operation"
	switch {
	case strings.HasPrefix(path, "/users/"):
		area = "user management"
	case strings.HasPrefix(path, "/projects/"):
		area = "workspace management"
	case strings.HasPrefix(path, "/sprints/"):
		area = "sprint management"
	case strings.HasPrefix(path, "/epics/"):
		area = "epic management"
	case strings.HasPrefix(path, "/issues/"):
		area = "issue operation"
	}
	if role == "viewer" {
		return fmt.Sprintf("Your role is Viewer (read-only), so you cannot perform %s.", area)
	}
	switch {
	case strings.HasPrefix(path, "/users/"), strings.HasPrefix(path, "/projects/"):
		return fmt.Sprintf("Only Admin users can perform %s.", area)
	case strings.HasPrefix(path, "/sprints/"), strings.HasPrefix(path, "/epics/"):
		return fmt.Sprintf("Only Admin or Project Manager roles can perform %s.", area)
	case strings.HasPrefix(path, "/issues/"):
		return "You can edit an issue only if you are Admin/Project Manager, or the issue assignee/reporter (Developer rule)."
	}
	if backendMessage != "" {
		return backendMessage
	}
	return "You do not have permission for this action."
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = strings.NewReader(string(b))
	}
	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.creds.Token(); tok != "" {
		req.Header.Set("Authorization", "Token "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var parsed any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
				return fmt.Errorf("hub: expected JSON but got HTML from %s", u)
			}
			return fmt.Errorf("hub: unexpected non-JSON response from %s", u)
		}
	}

	if resp.StatusCode >= 300 {
		message := "Request failed"
		if m, ok := parsed.(map[string]any); ok {
			if d, _ := m["detail"].(string); d != "" {
				message = d
			} else if e, _ := m["error"].(string); e != "" {
				message = e
			}
		}
		if resp.StatusCode == http.StatusForbidden {
			return &PermissionError{
				Path:    path,
				Reason:  permissionReason(path, c.creds.Role(), message),
				Message: message,
			}
		}
		return fmt.Errorf("hub: %s %s status=%d: %s", method, path, resp.StatusCode, message)
	}

	if out != nil && len(raw) > 0 {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	err := c.doJSON(ctx, http.MethodGet, "/auth/me/", nil, &u)
	return u, err
}

// LogTime records hours against an issue. Hours must already be positive;
// the backend rejects anything else.
func (c *Client) LogTime(ctx context.Context, issueID string, hours float64) (domain.Issue, error) {
	var out domain.Issue
	if issueID == "" {
		return out, errors.New("hub: empty issue id")
	}
	path := "/issues/" + url.PathEscape(issueID) + "/log-time/"
	err := c.doJSON(ctx, http.MethodPost, path, map[string]any{"hours": hours}, &out)
	return out, err
}

func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	err := c.doJSON(ctx, http.MethodGet, "/projects/", nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.doJSON(ctx, http.MethodGet, "/users/", nil, &out)
	return out, err
}

func (c *Client) ListIssues(ctx context.Context, projectID string) ([]domain.Issue, error) {
	path := "/issues/"
	if projectID != "" {
		path += "?project_id=" + url.QueryEscape(projectID)
	}
	var out []domain.Issue
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) ListSprints(ctx context.Context, projectID string) ([]domain.Sprint, error) {
	path := "/sprints/"
	if projectID != "" {
		path += "?project_id=" + url.QueryEscape(projectID)
	}
	var out []domain.Sprint
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) ListEpics(ctx context.Context, projectID string) ([]domain.Epic, error) {
	path := "/epics/"
	if projectID != "" {
		path += "?project_id=" + url.QueryEscape(projectID)
	}
	var out []domain.Epic
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	var out []domain.Notification
	err := c.doJSON(ctx, http.MethodGet, "/notifications/", nil, &out)
	return out, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unreadCount"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/notifications/unread-count/", nil, &out)
	return out.UnreadCount, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read/", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/notifications/read-all/", nil, nil)
}

func (c *Client) ListChatRooms(ctx context.Context, roomType, projectID string) ([]domain.ChatRoom, error) {
	q := url.Values{}
	if roomType != "" {
		q.Set("type", roomType)
	}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	path := "/chat/rooms/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []domain.ChatRoom
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CreateDirectMessageRoom(ctx context.Context, targetUserID string) (domain.ChatRoom, error) {
	var out domain.ChatRoom
	err := c.doJSON(ctx, http.MethodPost, "/chat/dms/", map[string]any{"targetUserId": targetUserID}, &out)
	return out, err
}

func (c *Client) CreateChannel(ctx context.Context, projectID, name string, memberIDs []string, isPrivate bool) (domain.ChatRoom, error) {
	body := map[string]any{"name": name, "memberIds": memberIDs, "isPrivate": isPrivate}
	if projectID != "" {
		body["projectId"] = projectID
	}
	var out domain.ChatRoom
	err := c.doJSON(ctx, http.MethodPost, "/chat/channels/", body, &out)
	return out, err
}

func (c *Client) ListRoomMessages(ctx context.Context, roomID, before string) ([]domain.ChatMessage, error) {
	path := "/chat/rooms/" + url.PathEscape(roomID) + "/messages/"
	if before != "" {
		path += "?before=" + url.QueryEscape(before)
	}
	var out []domain.ChatMessage
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CreateRoomMessage(ctx context.Context, roomID, content string) (domain.ChatMessage, error) {
	var out domain.ChatMessage
	path := "/chat/rooms/" + url.PathEscape(roomID) + "/messages/"
	err := c.doJSON(ctx, http.MethodPost, path, map[string]any{"content": content}, &out)
	return out, err
}

func (c *Client) EditRoomMessage(ctx context.Context, messageID, content string) (domain.ChatMessage, error) {
	var out domain.ChatMessage
	path := "/chat/messages/" + url.PathEscape(messageID) + "/"
	err := c.doJSON(ctx, http.MethodPatch, path, map[string]any{"content": content}, &out)
	return out, err
}

// DeleteRoomMessage returns the message with its deleted flag set; the
// backend keeps the row so thread ordering survives.
func (c *Client) DeleteRoomMessage(ctx context.Context, messageID string) (domain.ChatMessage, error) {
	var out domain.ChatMessage
	path := "/chat/messages/" + url.PathEscape(messageID) + "/"
	err := c.doJSON(ctx, http.MethodDelete, path, nil, &out)
	return out, err
}

func (c *Client) MarkRoomRead(ctx context.Context, roomID, messageID string) error {
	body := map[string]any{}
	if messageID != "" {
		body["messageId"] = messageID
	}
	path := "/chat/rooms/" + url.PathEscape(roomID) + "/read/"
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}
