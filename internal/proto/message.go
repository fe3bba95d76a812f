package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client -> server event names.
const (
	InboundJoinChat             = "join-chat"
	InboundLeaveChat            = "leave-chat"
	InboundNewMessage           = "new-message"
	InboundTyping               = "typing"
	InboundStopTyping           = "stop-typing"
	InboundMessageSeen          = "message-seen"
	InboundUpdateStatus         = "update-status"
	InboundGroupCreated         = "group-created"
	InboundUserAddedToGroup     = "user-added-to-group"
	InboundUserRemovedFromGroup = "user-removed-from-group"
	InboundGroupRenamed         = "group-renamed"
)

// Server -> client event names.
const (
	OutboundUserOnline        = "user-online"
	OutboundUserOffline       = "user-offline"
	OutboundUserStatusChanged = "user-status-changed"
	OutboundMessageReceived   = "message-received"
	OutboundTyping            = "typing"
	OutboundStopTyping        = "stop-typing"
	OutboundMessageSeen       = "message-seen"
	OutboundGroupCreated      = "group-created"
	OutboundAddedToGroup      = "added-to-group"
	OutboundRemovedFromGroup  = "removed-from-group"
	OutboundGroupRenamed      = "group-renamed"
)

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// UserRef identifies a user inside message and chat payloads.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Chat describes a conversation. Users carries the member list so the
// server can route to personal rooms without a lookup.
type Chat struct {
	ID      string    `json:"id"`
	Name    string    `json:"name,omitempty"`
	IsGroup bool      `json:"isGroup,omitempty"`
	Users   []UserRef `json:"users,omitempty"`
}

// SeenReceipt is one user's seen marker on a message.
type SeenReceipt struct {
	UserID string    `json:"userId"`
	SeenAt time.Time `json:"seenAt"`
}

// Message is the wire form of a chat message. The durable record is created
// over REST; the live layer only echoes it.
type Message struct {
	ID        string        `json:"id"`
	Chat      Chat          `json:"chat"`
	Sender    UserRef       `json:"sender"`
	Content   string        `json:"content,omitempty"`
	ImageURL  string        `json:"imageUrl,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	SeenBy    []SeenReceipt `json:"seenBy,omitempty"`
}

// TypingData is the payload for typing / stop-typing in both directions.
type TypingData struct {
	ChatID   string `json:"chatId"`
	UserName string `json:"userName,omitempty"`
}

// MessageSeenData is the inbound seen-receipt payload.
type MessageSeenData struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// MessageSeenEvent is the outbound seen-receipt notification.
type MessageSeenEvent struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// UpdateStatusData is the explicit status request payload.
type UpdateStatusData struct {
	Status string `json:"status"`
}

// PresenceEvent announces user-online / user-offline / user-status-changed.
type PresenceEvent struct {
	UserID   string     `json:"userId"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// ChatRoomData addresses a chat room by id (join-chat, leave-chat,
// removed-from-group).
type ChatRoomData struct {
	ChatID string `json:"chatId"`
}

// GroupCreatedData notifies the server of a new group and who to tell.
type GroupCreatedData struct {
	Chat  Chat     `json:"chat"`
	Users []string `json:"users"`
}

// GroupMemberData is the payload for add/remove membership events.
type GroupMemberData struct {
	Chat   *Chat  `json:"chat,omitempty"`
	ChatID string `json:"chatId,omitempty"`
	UserID string `json:"userId"`
}

// GroupRenamedData carries the renamed chat.
type GroupRenamedData struct {
	Chat Chat `json:"chat"`
}
