package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"chatrelay/internal/proto"
)

// Socket is a live connection to the relay server. Incoming events are fed
// to the Dispatcher; outgoing events go through the typed emit helpers.
type Socket struct {
	conn       *websocket.Conn
	dispatcher *Dispatcher
	log        *zerolog.Logger
}

// Dial connects to wsURL authenticating with token, which is passed as the
// token query parameter the way the server's handshake expects.
func Dial(ctx context.Context, wsURL, token string, dispatcher *Dispatcher, logger *zerolog.Logger) (*Socket, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Socket{
		conn:       conn,
		dispatcher: dispatcher,
		log:        logger,
	}, nil
}

type inboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// Listen reads frames until the connection closes or ctx is cancelled,
// dispatching each event to subscribed listeners. Protocol errors from the
// server are logged and do not stop the loop.
func (s *Socket) Listen(ctx context.Context) error {
	for {
		var frame inboundFrame
		if err := wsjson.Read(ctx, s.conn, &frame); err != nil {
			return err
		}

		if frame.Error != nil {
			s.log.Warn().
				Str("code", frame.Error.Code).
				Str("msg", frame.Error.Msg).
				Msg("server rejected event")
			continue
		}
		if frame.Type != "event" || frame.Event == "" {
			continue
		}

		s.dispatcher.Dispatch(frame.Event, frame.Data)
	}
}

// Close closes the underlying connection with a normal closure.
func (s *Socket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *Socket) emit(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return wsjson.Write(ctx, s.conn, proto.Inbound{Type: eventType, Data: data})
}

// JoinChat subscribes this connection to a chat's room.
func (s *Socket) JoinChat(ctx context.Context, chatID string) error {
	return s.emit(ctx, proto.InboundJoinChat, proto.ChatRoomData{ChatID: chatID})
}

// LeaveChat unsubscribes this connection from a chat's room.
func (s *Socket) LeaveChat(ctx context.Context, chatID string) error {
	return s.emit(ctx, proto.InboundLeaveChat, proto.ChatRoomData{ChatID: chatID})
}

// SendMessage asks the server to fan the message out to the chat's members.
func (s *Socket) SendMessage(ctx context.Context, msg proto.Message) error {
	return s.emit(ctx, proto.InboundNewMessage, msg)
}

// Typing announces that userName is typing in chatID.
func (s *Socket) Typing(ctx context.Context, chatID, userName string) error {
	return s.emit(ctx, proto.InboundTyping, proto.TypingData{ChatID: chatID, UserName: userName})
}

// StopTyping announces the end of a typing burst in chatID.
func (s *Socket) StopTyping(ctx context.Context, chatID string) error {
	return s.emit(ctx, proto.InboundStopTyping, proto.TypingData{ChatID: chatID})
}

// MarkMessageSeen announces a seen receipt to the chat's room.
func (s *Socket) MarkMessageSeen(ctx context.Context, chatID, messageID, userID string) error {
	return s.emit(ctx, proto.InboundMessageSeen, proto.MessageSeenData{
		ChatID:    chatID,
		MessageID: messageID,
		UserID:    userID,
	})
}

// UpdateStatus sets this user's explicit presence status.
func (s *Socket) UpdateStatus(ctx context.Context, status string) error {
	return s.emit(ctx, proto.InboundUpdateStatus, proto.UpdateStatusData{Status: status})
}

// NotifyGroupCreated tells the server to deliver the new group to its members.
func (s *Socket) NotifyGroupCreated(ctx context.Context, chat proto.Chat, userIDs []string) error {
	return s.emit(ctx, proto.InboundGroupCreated, proto.GroupCreatedData{Chat: chat, Users: userIDs})
}

// NotifyUserAdded tells the server a user joined the group.
func (s *Socket) NotifyUserAdded(ctx context.Context, chat proto.Chat, userID string) error {
	return s.emit(ctx, proto.InboundUserAddedToGroup, proto.GroupMemberData{Chat: &chat, UserID: userID})
}

// NotifyUserRemoved tells the server a user was removed from the group.
func (s *Socket) NotifyUserRemoved(ctx context.Context, chatID, userID string) error {
	return s.emit(ctx, proto.InboundUserRemovedFromGroup, proto.GroupMemberData{ChatID: chatID, UserID: userID})
}

// NotifyGroupRenamed tells the server to deliver the renamed group to its members.
func (s *Socket) NotifyGroupRenamed(ctx context.Context, chat proto.Chat) error {
	return s.emit(ctx, proto.InboundGroupRenamed, proto.GroupRenamedData{Chat: chat})
}
