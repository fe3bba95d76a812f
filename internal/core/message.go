package core

import "time"

// SeenReceipt records that a user has seen a message. Receipts are unique
// per user and append-only; the REST collaborator owns their persistence.
type SeenReceipt struct {
	UserID string
	SeenAt time.Time
}

// Message is the domain model for a chat message as seen by the live layer.
// The record itself is created and owned by the REST collaborator; the live
// layer only routes it. MemberIDs carries the chat's member list so the
// fan-out engine can address personal rooms without a store lookup.
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	SenderName string
	Content    string
	ImageURL   string
	CreatedAt  time.Time
	SeenBy     []SeenReceipt
	MemberIDs  []string
}

// Chat describes a conversation for group-lifecycle notifications.
type Chat struct {
	ID        string
	Name      string
	IsGroup   bool
	MemberIDs []string
}
