package http

import (
	"encoding/json"

	"chatrelay/internal/core"
	"chatrelay/internal/proto"
	"chatrelay/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundJoinChat:
		var data proto.ChatRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{Kind: core.CommandJoinChat, ChatID: data.ChatID}, nil, nil

	case proto.InboundLeaveChat:
		var data proto.ChatRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{Kind: core.CommandLeaveChat, ChatID: data.ChatID}, nil, nil

	case proto.InboundNewMessage:
		var msg proto.Message
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Chat.ID == "" || len(msg.Chat.Users) == 0 {
			return nil, &proto.Error{Code: core.ErrCodeMalformedEvent, Msg: "message without chat membership"}, nil
		}
		return &core.Command{
			Kind:    core.CommandNewMessage,
			ChatID:  msg.Chat.ID,
			Message: messageFromProto(&msg),
		}, nil, nil

	case proto.InboundTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{Kind: core.CommandTyping, ChatID: data.ChatID, UserName: data.UserName}, nil, nil

	case proto.InboundStopTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ChatID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId is required"}, nil
		}
		return &core.Command{Kind: core.CommandStopTyping, ChatID: data.ChatID}, nil, nil

	case proto.InboundMessageSeen:
		var data proto.MessageSeenData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ChatID == "" || data.MessageID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId and messageId are required"}, nil
		}
		return &core.Command{
			Kind:      core.CommandMessageSeen,
			ChatID:    data.ChatID,
			MessageID: data.MessageID,
			UserID:    data.UserID,
		}, nil, nil

	case proto.InboundUpdateStatus:
		var data proto.UpdateStatusData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		status := store.Status(data.Status)
		if !status.Valid() {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown status value"}, nil
		}
		return &core.Command{Kind: core.CommandUpdateStatus, Status: status}, nil, nil

	case proto.InboundGroupCreated:
		var data proto.GroupCreatedData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Chat.ID == "" || len(data.Users) == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chat and users are required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandGroupCreated,
			Chat:    chatFromProto(&data.Chat),
			UserIDs: data.Users,
		}, nil, nil

	case proto.InboundUserAddedToGroup:
		var data proto.GroupMemberData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Chat == nil || data.Chat.ID == "" || data.UserID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chat and userId are required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandUserAddedToGroup,
			Chat:   chatFromProto(data.Chat),
			UserID: data.UserID,
		}, nil, nil

	case proto.InboundUserRemovedFromGroup:
		var data proto.GroupMemberData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ChatID == "" || data.UserID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chatId and userId are required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandUserRemovedFromGroup,
			ChatID: data.ChatID,
			UserID: data.UserID,
		}, nil, nil

	case proto.InboundGroupRenamed:
		var data proto.GroupRenamedData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Chat.ID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "chat is required"}, nil
		}
		return &core.Command{Kind: core.CommandGroupRenamed, Chat: chatFromProto(&data.Chat)}, nil, nil

	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown event type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUserOnline, core.EventUserOffline, core.EventUserStatusChanged:
		return proto.Outbound{
			Type:  "event",
			Event: event.Kind.String(),
			Data: proto.PresenceEvent{
				UserID:   event.UserID,
				Status:   string(event.Status),
				LastSeen: event.LastSeen,
			},
		}

	case core.EventMessageReceived:
		return proto.Outbound{
			Type:  "event",
			Event: proto.OutboundMessageReceived,
			Data:  messageToProto(event.Message),
		}

	case core.EventTyping, core.EventStopTyping:
		return proto.Outbound{
			Type:  "event",
			Event: event.Kind.String(),
			Data: proto.TypingData{
				ChatID:   event.ChatID,
				UserName: event.UserName,
			},
		}

	case core.EventMessageSeen:
		return proto.Outbound{
			Type:  "event",
			Event: proto.OutboundMessageSeen,
			Data: proto.MessageSeenEvent{
				MessageID: event.MessageID,
				UserID:    event.UserID,
			},
		}

	case core.EventGroupCreated, core.EventAddedToGroup, core.EventGroupRenamed:
		return proto.Outbound{
			Type:  "event",
			Event: event.Kind.String(),
			Data:  chatToProto(event.Chat),
		}

	case core.EventRemovedFromGroup:
		return proto.Outbound{
			Type:  "event",
			Event: proto.OutboundRemovedFromGroup,
			Data:  proto.ChatRoomData{ChatID: event.ChatID},
		}

	default:
		return proto.Outbound{Type: "event"}
	}
}

func chatFromProto(c *proto.Chat) *core.Chat {
	memberIDs := make([]string, 0, len(c.Users))
	for _, u := range c.Users {
		memberIDs = append(memberIDs, u.ID)
	}
	return &core.Chat{
		ID:        c.ID,
		Name:      c.Name,
		IsGroup:   c.IsGroup,
		MemberIDs: memberIDs,
	}
}

func chatToProto(c *core.Chat) proto.Chat {
	if c == nil {
		return proto.Chat{}
	}
	users := make([]proto.UserRef, 0, len(c.MemberIDs))
	for _, id := range c.MemberIDs {
		users = append(users, proto.UserRef{ID: id})
	}
	return proto.Chat{
		ID:      c.ID,
		Name:    c.Name,
		IsGroup: c.IsGroup,
		Users:   users,
	}
}

func messageFromProto(m *proto.Message) *core.Message {
	memberIDs := make([]string, 0, len(m.Chat.Users))
	for _, u := range m.Chat.Users {
		memberIDs = append(memberIDs, u.ID)
	}
	seenBy := make([]core.SeenReceipt, 0, len(m.SeenBy))
	for _, r := range m.SeenBy {
		seenBy = append(seenBy, core.SeenReceipt{UserID: r.UserID, SeenAt: r.SeenAt})
	}
	return &core.Message{
		ID:         m.ID,
		ChatID:     m.Chat.ID,
		SenderID:   m.Sender.ID,
		SenderName: m.Sender.Name,
		Content:    m.Content,
		ImageURL:   m.ImageURL,
		CreatedAt:  m.CreatedAt,
		SeenBy:     seenBy,
		MemberIDs:  memberIDs,
	}
}

func messageToProto(m *core.Message) proto.Message {
	if m == nil {
		return proto.Message{}
	}
	users := make([]proto.UserRef, 0, len(m.MemberIDs))
	for _, id := range m.MemberIDs {
		users = append(users, proto.UserRef{ID: id})
	}
	seenBy := make([]proto.SeenReceipt, 0, len(m.SeenBy))
	for _, r := range m.SeenBy {
		seenBy = append(seenBy, proto.SeenReceipt{UserID: r.UserID, SeenAt: r.SeenAt})
	}
	return proto.Message{
		ID:        m.ID,
		Chat:      proto.Chat{ID: m.ChatID, Users: users},
		Sender:    proto.UserRef{ID: m.SenderID, Name: m.SenderName},
		Content:   m.Content,
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
		SeenBy:    seenBy,
	}
}
