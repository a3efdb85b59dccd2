/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package channel

import (
	"encoding/json"

	"github.com/aashritha987/core-project-hub/internal/domain"
)

type EventType string

const (
	// EventNone is the no-op variant: malformed frames and unknown
	// discriminators map here instead of surfacing a parse error.
	EventNone EventType = ""

	EventMessageCreated EventType = "message_created"
	EventMessageUpdated EventType = "message_updated"
	EventMessageDeleted EventType = "message_deleted"
	EventReadReceipt    EventType = "read_receipt"
	EventTypingStart    EventType = "typing_start"
	EventTypingStop     EventType = "typing_stop"

	EventNotification EventType = "notification_event"
)

type Event struct {
	Type    EventType
	Message *domain.ChatMessage
	RoomID  string
	UserID  string
}

// ParseChatEvent decodes one chat-channel frame. The channel is an
// invalidation hint, not the system of record, so anything unrecognized
// comes back as EventNone rather than an error.
func ParseChatEvent(data []byte) Event {
	var env struct {
		Type      string          `json:"type"`
		EventType EventType       `json:"eventType"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil || env.Type != "chat_event" {
		return Event{}
	}
	switch env.EventType {
	case EventMessageCreated, EventMessageUpdated, EventMessageDeleted:
		var msg domain.ChatMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil || msg.ID == "" {
			return Event{}
		}
		return Event{Type: env.EventType, Message: &msg, RoomID: msg.RoomID}
	case EventReadReceipt, EventTypingStart, EventTypingStop:
		var p struct {
			RoomID string `json:"roomId"`
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Event{}
		}
		return Event{Type: env.EventType, RoomID: p.RoomID, UserID: p.UserID}
	default:
		return Event{}
	}
}

// ParseNotificationEvent decodes one notification-channel frame. The payload
// is opaque; any notification_event just triggers a refetch. The server also
// sends "connected" and "pong" frames, which are dropped here.
func ParseNotificationEvent(data []byte) Event {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}
	}
	if EventType(env.Type) != EventNotification {
		return Event{}
	}
	return Event{Type: EventNotification}
}

// Outbound client frames carry a discriminator and no payload.
type outboundFrame struct {
	Type string `json:"type"`
}

func TypingStartFrame() any { return outboundFrame{Type: string(EventTypingStart)} }
func TypingStopFrame() any  { return outboundFrame{Type: string(EventTypingStop)} }
func PingFrame() any        { return outboundFrame{Type: "ping"} }
