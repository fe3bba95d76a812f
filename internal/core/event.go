package core

import (
	"time"

	"chatrelay/internal/store"
)

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventUserOnline notifies that a user's first session connected.
	EventUserOnline EventKind = iota
	// EventUserOffline notifies that a user's last session disconnected.
	EventUserOffline
	// EventUserStatusChanged notifies about an explicit status change.
	EventUserStatusChanged
	// EventMessageReceived delivers a chat message.
	EventMessageReceived
	// EventTyping notifies that someone is typing in a chat.
	EventTyping
	// EventStopTyping clears a typing indicator.
	EventStopTyping
	// EventMessageSeen notifies that a user has seen a message.
	EventMessageSeen
	// EventGroupCreated notifies a user they were put in a new group.
	EventGroupCreated
	// EventAddedToGroup notifies a user they were added to a group.
	EventAddedToGroup
	// EventRemovedFromGroup notifies a user they were removed from a group.
	EventRemovedFromGroup
	// EventGroupRenamed announces a group rename to the chat room.
	EventGroupRenamed
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventUserOnline:
		return "user-online"
	case EventUserOffline:
		return "user-offline"
	case EventUserStatusChanged:
		return "user-status-changed"
	case EventMessageReceived:
		return "message-received"
	case EventTyping:
		return "typing"
	case EventStopTyping:
		return "stop-typing"
	case EventMessageSeen:
		return "message-seen"
	case EventGroupCreated:
		return "group-created"
	case EventAddedToGroup:
		return "added-to-group"
	case EventRemovedFromGroup:
		return "removed-from-group"
	case EventGroupRenamed:
		return "group-renamed"
	default:
		return "unknown"
	}
}

// Event is sent to sessions to describe what happened in the system.
type Event struct {
	Kind      EventKind
	UserID    string
	Status    store.Status
	LastSeen  *time.Time
	ChatID    string
	UserName  string
	MessageID string
	Message   *Message
	Chat      *Chat
}
