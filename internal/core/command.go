package core

import "chatrelay/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinChat subscribes the session to a chat room.
	CommandJoinChat CommandKind = iota
	// CommandLeaveChat unsubscribes the session from a chat room.
	CommandLeaveChat
	// CommandNewMessage announces a durably written message for fan-out.
	CommandNewMessage
	// CommandTyping relays a typing indicator to the chat room.
	CommandTyping
	// CommandStopTyping clears the typing indicator in the chat room.
	CommandStopTyping
	// CommandMessageSeen relays a seen receipt to the chat room.
	CommandMessageSeen
	// CommandUpdateStatus sets the user's presence status explicitly.
	CommandUpdateStatus
	// CommandGroupCreated notifies listed users about a new group chat.
	CommandGroupCreated
	// CommandUserAddedToGroup notifies one user they joined a group.
	CommandUserAddedToGroup
	// CommandUserRemovedFromGroup notifies one user they left a group.
	CommandUserRemovedFromGroup
	// CommandGroupRenamed announces a rename to the chat room.
	CommandGroupRenamed
)

// Command represents an action requested by a client session. Only the
// fields relevant to the kind are set.
type Command struct {
	Kind      CommandKind
	ChatID    string
	Message   *Message
	Chat      *Chat
	UserName  string       // typing indicator speaker
	MessageID string       // seen receipt
	UserID    string       // seen receipt / group membership target
	UserIDs   []string     // group-created recipients
	Status    store.Status // explicit status request
}
