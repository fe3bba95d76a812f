package client

import (
	"sync"
	"time"

	"chatrelay/internal/proto"
)

// ChatSummary is one entry in the ordered chat list.
type ChatSummary struct {
	Chat          proto.Chat
	LatestMessage *proto.Message
}

// State mirrors the server's view of chats, messages, presence, and typing
// indicators on the client side. Events may arrive while a REST snapshot is
// in flight, so every mutation is written to converge regardless of arrival
// order: duplicate messages collapse by id, a snapshot replaces whatever
// events built up before it, and presence is a plain last-write-wins set.
type State struct {
	mu sync.Mutex

	chats      []*ChatSummary
	chatIndex  map[string]*ChatSummary
	openChatID string
	messages   []proto.Message
	messageIDs map[string]struct{}
	typing     map[string]string
	online     map[string]struct{}
	statuses   map[string]string
	lastSeen   map[string]time.Time
}

// NewState creates an empty client state.
func NewState() *State {
	return &State{
		chatIndex:  make(map[string]*ChatSummary),
		messageIDs: make(map[string]struct{}),
		typing:     make(map[string]string),
		online:     make(map[string]struct{}),
		statuses:   make(map[string]string),
		lastSeen:   make(map[string]time.Time),
	}
}

// SetChats replaces the chat list with a fetched snapshot. The snapshot's
// order wins over any ordering accumulated from events.
func (s *State) SetChats(chats []proto.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = make([]*ChatSummary, 0, len(chats))
	s.chatIndex = make(map[string]*ChatSummary, len(chats))
	for _, c := range chats {
		summary := &ChatSummary{Chat: c}
		s.chats = append(s.chats, summary)
		s.chatIndex[c.ID] = summary
	}
}

// OpenChat marks chatID as the open conversation and replaces the visible
// message list with its fetched history.
func (s *State) OpenChat(chatID string, history []proto.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.openChatID = chatID
	s.messages = make([]proto.Message, 0, len(history))
	s.messageIDs = make(map[string]struct{}, len(history))
	for _, m := range history {
		if _, dup := s.messageIDs[m.ID]; dup {
			continue
		}
		s.messages = append(s.messages, m)
		s.messageIDs[m.ID] = struct{}{}
	}
}

// CloseChat clears the open conversation.
func (s *State) CloseChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.openChatID = ""
	s.messages = nil
	s.messageIDs = make(map[string]struct{})
}

// AddMessage applies an incoming message: it lands in the open message list
// at most once, becomes the chat's latest message, and moves the chat to the
// top of the list. A message for an unknown chat creates a new entry, since
// the event may outrun the chat-list fetch.
func (s *State) AddMessage(msg proto.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Chat.ID == s.openChatID {
		if _, dup := s.messageIDs[msg.ID]; !dup {
			s.messages = append(s.messages, msg)
			s.messageIDs[msg.ID] = struct{}{}
		}
	}

	summary, ok := s.chatIndex[msg.Chat.ID]
	if !ok {
		summary = &ChatSummary{Chat: msg.Chat}
		s.chatIndex[msg.Chat.ID] = summary
		s.chats = append(s.chats, summary)
	}
	latest := msg
	summary.LatestMessage = &latest
	s.moveToTop(summary)

	// A new message supersedes any typing indicator for that chat.
	delete(s.typing, msg.Chat.ID)
}

// MarkSeen appends a seen receipt to the open message with messageID.
// Receipts for messages outside the open window are dropped; the next
// history fetch carries them.
func (s *State) MarkSeen(messageID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID != messageID {
			continue
		}
		for _, r := range s.messages[i].SeenBy {
			if r.UserID == userID {
				return
			}
		}
		s.messages[i].SeenBy = append(s.messages[i].SeenBy, proto.SeenReceipt{
			UserID: userID,
			SeenAt: time.Now(),
		})
		return
	}
}

// UpsertChat inserts or replaces a chat entry, used for group-created,
// added-to-group, and group-renamed events.
func (s *State) UpsertChat(chat proto.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary, ok := s.chatIndex[chat.ID]; ok {
		summary.Chat = chat
		return
	}
	summary := &ChatSummary{Chat: chat}
	s.chatIndex[chat.ID] = summary
	s.chats = append([]*ChatSummary{summary}, s.chats...)
}

// RemoveChat drops a chat from the list, closing it if it was open.
func (s *State) RemoveChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chatIndex[chatID]; !ok {
		return
	}
	delete(s.chatIndex, chatID)
	delete(s.typing, chatID)
	for i, summary := range s.chats {
		if summary.Chat.ID == chatID {
			s.chats = append(s.chats[:i], s.chats[i+1:]...)
			break
		}
	}
	if s.openChatID == chatID {
		s.openChatID = ""
		s.messages = nil
		s.messageIDs = make(map[string]struct{})
	}
}

// SetTyping records who is typing in a chat. One slot per chat: a second
// typist overwrites the first.
func (s *State) SetTyping(chatID, userName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing[chatID] = userName
}

// ClearTyping removes the typing indicator for a chat.
func (s *State) ClearTyping(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.typing, chatID)
}

// TypingIn returns the name shown as typing in chatID, if any.
func (s *State) TypingIn(chatID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.typing[chatID]
	return name, ok
}

// ApplyPresence applies a presence event for a user. Offline clears online
// membership and records last seen; any other status marks the user online
// with that status.
func (s *State) ApplyPresence(userID, status string, lastSeen *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses[userID] = status
	if status == "offline" {
		delete(s.online, userID)
		if lastSeen != nil {
			s.lastSeen[userID] = *lastSeen
		}
		return
	}
	s.online[userID] = struct{}{}
}

// IsOnline reports whether userID has at least one live connection.
func (s *State) IsOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.online[userID]
	return ok
}

// StatusOf returns the last known status for userID.
func (s *State) StatusOf(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[userID]
	return status, ok
}

// LastSeenOf returns the recorded last-seen time for userID.
func (s *State) LastSeenOf(userID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.lastSeen[userID]
	return ts, ok
}

// Chats returns a copy of the ordered chat list, most recently active first.
func (s *State) Chats() []ChatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatSummary, 0, len(s.chats))
	for _, summary := range s.chats {
		out = append(out, *summary)
	}
	return out
}

// Messages returns a copy of the open conversation's messages.
func (s *State) Messages() []proto.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]proto.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// OpenChatID returns the id of the open conversation, empty if none.
func (s *State) OpenChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openChatID
}

func (s *State) moveToTop(summary *ChatSummary) {
	for i, existing := range s.chats {
		if existing == summary {
			copy(s.chats[1:i+1], s.chats[:i])
			s.chats[0] = summary
			return
		}
	}
}
