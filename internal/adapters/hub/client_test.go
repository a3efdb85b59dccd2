/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aashritha987/core-project-hub/internal/config"
	"github.com/rs/zerolog"
)

type staticCreds struct {
	token string
	role  string
}

func (c staticCreds) Token() string { return c.token }
func (c staticCreds) Role() string  { return c.role }

func newTestClient(ts *httptest.Server, creds staticCreds) *Client {
	cfg := config.Config{APIBaseURL: ts.URL, HTTPTimeout: 5 * time.Second}
	return NewClient(cfg, creds, zerolog.Nop())
}

func TestLogTimePostsHoursAndParsesIssue(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "i7", "key": "HUB-7",
			"timeTracking": map[string]any{"loggedHours": 0.001},
		})
	}))
	defer ts.Close()

	c := newTestClient(ts, staticCreds{token: "tok123", role: "developer"})
	issue, err := c.LogTime(context.Background(), "i7", 0.001)
	if err != nil {
		t.Fatalf("log time: %v", err)
	}
	if gotPath != "/issues/i7/log-time/" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Token tok123" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotBody["hours"] != 0.001 {
		t.Fatalf("body = %v", gotBody)
	}
	if issue.Key != "HUB-7" || issue.TimeTracking.LoggedHours != 0.001 {
		t.Fatalf("issue = %+v", issue)
	}
}

func TestForbiddenBecomesPermissionError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"detail": "forbidden"})
	}))
	defer ts.Close()

	c := newTestClient(ts, staticCreds{token: "tok", role: "viewer"})
	_, err := c.LogTime(context.Background(), "i1", 1)
	var pe *PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(pe.Reason, "Viewer (read-only)") {
		t.Fatalf("reason = %q", pe.Reason)
	}

	c = newTestClient(ts, staticCreds{token: "tok", role: "developer"})
	err = c.MarkAllNotificationsRead(context.Background())
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v", err)
	}
	if pe.Reason != "forbidden" {
		t.Fatalf("reason should fall back to the backend message: %+v", pe)
	}
}

func TestHTMLResponseIsExplicitError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer ts.Close()

	c := newTestClient(ts, staticCreds{token: "tok"})
	_, err := c.ListNotifications(context.Background())
	if err == nil || !strings.Contains(err.Error(), "got HTML") {
		t.Fatalf("err = %v", err)
	}
}

func TestListRoomMessagesPagination(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":"m1","roomId":"r1","content":"hello"}]`))
	}))
	defer ts.Close()

	c := newTestClient(ts, staticCreds{token: "tok"})
	msgs, err := c.ListRoomMessages(context.Background(), "r1", "m0")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotQuery != "before=m0" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("msgs = %+v", msgs)
	}
}

func TestListChatRoomsQuery(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := newTestClient(ts, staticCreds{token: "tok"})
	if _, err := c.ListChatRooms(context.Background(), "dm", "p1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotQuery != "project_id=p1&type=dm" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestUnreadCount(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications/unread-count/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"unreadCount":5}`))
	}))
	defer ts.Close()

	c := newTestClient(ts, staticCreds{token: "tok"})
	n, err := c.UnreadCount(context.Background())
	if err != nil || n != 5 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestErrorMessageFromDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"hours must be > 0"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts, staticCreds{token: "tok"})
	_, err := c.LogTime(context.Background(), "i1", -1)
	if err == nil || !strings.Contains(err.Error(), "hours must be > 0") {
		t.Fatalf("err = %v", err)
	}
}
