package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatrelay/internal/proto"
)

func chatWith(id string) proto.Chat {
	return proto.Chat{ID: id, Name: "chat " + id}
}

func messageIn(chatID, msgID string) proto.Message {
	return proto.Message{
		ID:        msgID,
		Chat:      chatWith(chatID),
		Sender:    proto.UserRef{ID: "u1", Name: "alice"},
		Content:   "hello",
		CreatedAt: time.Now(),
	}
}

func TestAddMessageDeduplicatesByID(t *testing.T) {
	s := NewState()
	s.SetChats([]proto.Chat{chatWith("c1")})
	s.OpenChat("c1", nil)

	msg := messageIn("c1", "m1")
	s.AddMessage(msg)
	s.AddMessage(msg)

	require.Len(t, s.Messages(), 1)
}

func TestAddMessageMovesChatToTop(t *testing.T) {
	s := NewState()
	s.SetChats([]proto.Chat{chatWith("c1"), chatWith("c2"), chatWith("c3")})

	s.AddMessage(messageIn("c3", "m1"))

	chats := s.Chats()
	require.Equal(t, "c3", chats[0].Chat.ID)
	require.Equal(t, "c1", chats[1].Chat.ID)
	require.Equal(t, "c2", chats[2].Chat.ID)
	require.NotNil(t, chats[0].LatestMessage)
	require.Equal(t, "m1", chats[0].LatestMessage.ID)
}

func TestAddMessageForUnknownChatCreatesEntry(t *testing.T) {
	s := NewState()
	s.SetChats([]proto.Chat{chatWith("c1")})

	s.AddMessage(messageIn("c9", "m1"))

	chats := s.Chats()
	require.Len(t, chats, 2)
	require.Equal(t, "c9", chats[0].Chat.ID)
}

func TestSnapshotOrderWinsOverEventOrder(t *testing.T) {
	s := NewState()
	s.SetChats([]proto.Chat{chatWith("c1"), chatWith("c2")})
	s.AddMessage(messageIn("c2", "m1"))

	// A fresh fetch lands after the event: its ordering replaces ours.
	s.SetChats([]proto.Chat{chatWith("c1"), chatWith("c2"), chatWith("c3")})

	chats := s.Chats()
	require.Equal(t, "c1", chats[0].Chat.ID)
	require.Equal(t, "c2", chats[1].Chat.ID)
	require.Equal(t, "c3", chats[2].Chat.ID)
}

func TestMessageOutsideOpenChatOnlyUpdatesSummary(t *testing.T) {
	s := NewState()
	s.SetChats([]proto.Chat{chatWith("c1"), chatWith("c2")})
	s.OpenChat("c1", nil)

	s.AddMessage(messageIn("c2", "m1"))

	require.Empty(t, s.Messages())
	chats := s.Chats()
	require.Equal(t, "c2", chats[0].Chat.ID)
	require.NotNil(t, chats[0].LatestMessage)
}

func TestOpenChatDeduplicatesHistory(t *testing.T) {
	s := NewState()
	s.OpenChat("c1", []proto.Message{
		messageIn("c1", "m1"),
		messageIn("c1", "m1"),
		messageIn("c1", "m2"),
	})

	require.Len(t, s.Messages(), 2)
}

func TestTypingSingleSlotPerChat(t *testing.T) {
	s := NewState()

	s.SetTyping("c1", "alice")
	s.SetTyping("c1", "bob")

	name, ok := s.TypingIn("c1")
	require.True(t, ok)
	require.Equal(t, "bob", name)

	s.ClearTyping("c1")
	_, ok = s.TypingIn("c1")
	require.False(t, ok)
}

func TestIncomingMessageClearsTypingIndicator(t *testing.T) {
	s := NewState()
	s.SetChats([]proto.Chat{chatWith("c1")})
	s.SetTyping("c1", "alice")

	s.AddMessage(messageIn("c1", "m1"))

	_, ok := s.TypingIn("c1")
	require.False(t, ok)
}

func TestPresenceSet(t *testing.T) {
	s := NewState()

	s.ApplyPresence("u1", "online", nil)
	require.True(t, s.IsOnline("u1"))

	s.ApplyPresence("u1", "away", nil)
	require.True(t, s.IsOnline("u1"))
	status, ok := s.StatusOf("u1")
	require.True(t, ok)
	require.Equal(t, "away", status)

	seen := time.Now()
	s.ApplyPresence("u1", "offline", &seen)
	require.False(t, s.IsOnline("u1"))
	got, ok := s.LastSeenOf("u1")
	require.True(t, ok)
	require.Equal(t, seen, got)
}

func TestMarkSeenAppendsOnce(t *testing.T) {
	s := NewState()
	s.OpenChat("c1", []proto.Message{messageIn("c1", "m1")})

	s.MarkSeen("m1", "u2")
	s.MarkSeen("m1", "u2")

	msgs := s.Messages()
	require.Len(t, msgs[0].SeenBy, 1)
	require.Equal(t, "u2", msgs[0].SeenBy[0].UserID)
}

func TestRemoveChatClosesOpenConversation(t *testing.T) {
	s := NewState()
	s.SetChats([]proto.Chat{chatWith("c1"), chatWith("c2")})
	s.OpenChat("c1", []proto.Message{messageIn("c1", "m1")})

	s.RemoveChat("c1")

	require.Empty(t, s.OpenChatID())
	require.Empty(t, s.Messages())
	chats := s.Chats()
	require.Len(t, chats, 1)
	require.Equal(t, "c2", chats[0].Chat.ID)
}

func TestUpsertChatReplacesOrPrepends(t *testing.T) {
	s := NewState()
	s.SetChats([]proto.Chat{chatWith("c1")})

	renamed := chatWith("c1")
	renamed.Name = "renamed"
	s.UpsertChat(renamed)

	chats := s.Chats()
	require.Len(t, chats, 1)
	require.Equal(t, "renamed", chats[0].Chat.Name)

	s.UpsertChat(chatWith("c2"))
	chats = s.Chats()
	require.Len(t, chats, 2)
	require.Equal(t, "c2", chats[0].Chat.ID)
}
