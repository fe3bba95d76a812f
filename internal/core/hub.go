package core

import (
	"context"

	"github.com/rs/zerolog"

	"chatrelay/internal/metrics"
	"chatrelay/internal/store"
)

type hubAction int

const (
	actionRegister hubAction = iota
	actionUnregister
	actionCommand
)

type request struct {
	session *Session
	action  hubAction
	cmd     *Command
}

// Hub is the event fan-out engine. All registry and room mutation happens on
// the single goroutine running Run, so no locking is needed; transports talk
// to the hub through channels. Scaling beyond one process would need an
// external broadcast backplane, which this layer does not provide.
type Hub struct {
	registry *Registry
	presence *Tracker
	rooms    map[string]*Room
	requests chan request
	done     chan struct{}
	log      *zerolog.Logger
}

// NewHub creates a hub backed by the given presence store. Both arguments
// may be nil in tests.
func NewHub(st store.UserStore, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry: NewRegistry(),
		presence: NewTracker(st, logger),
		rooms:    make(map[string]*Room),
		requests: make(chan request, 64),
		done:     make(chan struct{}),
		log:      logger,
	}
}

// RegisterSession hands an authenticated session to the hub and starts
// forwarding its commands into the hub loop. Registration is processed
// before any of the session's commands.
func (h *Hub) RegisterSession(s *Session) {
	h.enqueue(request{session: s, action: actionRegister})
	go h.pump(s)
}

// UnregisterSession tears the session down: membership is dropped, presence
// is downgraded if this was the user's last session, and the session's event
// channel is closed.
func (h *Hub) UnregisterSession(s *Session) {
	h.enqueue(request{session: s, action: actionUnregister})
}

// Run processes hub requests until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-h.requests:
			switch req.action {
			case actionRegister:
				h.onConnect(ctx, req.session)
			case actionUnregister:
				h.onDisconnect(ctx, req.session)
			case actionCommand:
				h.handle(ctx, req.session, req.cmd)
			}
		}
	}
}

func (h *Hub) enqueue(req request) {
	select {
	case h.requests <- req:
	case <-h.done:
	}
}

func (h *Hub) pump(s *Session) {
	for cmd := range s.Commands {
		select {
		case h.requests <- request{session: s, action: actionCommand, cmd: cmd}:
		case <-h.done:
			return
		}
	}
}

func (h *Hub) onConnect(ctx context.Context, s *Session) {
	first := h.registry.Add(s)
	metrics.IncActiveSessions()

	// Personal room membership is implicit: it guarantees direct delivery
	// independent of explicit chat-room joins.
	h.joinRoom(s, s.UserID)

	h.log.Info().
		Str("session_id", s.ID).
		Str("user_id", s.UserID).
		Bool("first_session", first).
		Msg("session connected")

	if first {
		h.broadcastAll(h.presence.WentOnline(ctx, s.UserID))
	}
}

func (h *Hub) onDisconnect(ctx context.Context, s *Session) {
	removed, last := h.registry.Remove(s)
	if !removed {
		return
	}
	metrics.DecActiveSessions()

	roomIDs := make([]string, 0, len(s.Rooms))
	for roomID := range s.Rooms {
		roomIDs = append(roomIDs, roomID)
	}
	for _, roomID := range roomIDs {
		h.leaveRoom(s, roomID)
	}

	h.log.Info().
		Str("session_id", s.ID).
		Str("user_id", s.UserID).
		Bool("last_session", last).
		Msg("session disconnected")

	if last {
		h.broadcastAll(h.presence.WentOffline(ctx, s.UserID))
	}

	close(s.Events)
}

func (h *Hub) handle(ctx context.Context, s *Session, cmd *Command) {
	if cmd == nil {
		return
	}
	// A command may race a disconnect for the same session; the session is
	// already torn down, so ignore it.
	if !h.registry.Has(s) {
		return
	}

	switch cmd.Kind {
	case CommandJoinChat:
		if cmd.ChatID == "" {
			h.dropMalformed(s, "join-chat")
			return
		}
		h.joinRoom(s, cmd.ChatID)

	case CommandLeaveChat:
		if cmd.ChatID == "" {
			h.dropMalformed(s, "leave-chat")
			return
		}
		h.leaveRoom(s, cmd.ChatID)

	case CommandNewMessage:
		h.fanOutMessage(s, cmd.Message)

	case CommandTyping:
		h.relay(s, cmd.ChatID, &Event{
			Kind:     EventTyping,
			ChatID:   cmd.ChatID,
			UserName: cmd.UserName,
		})

	case CommandStopTyping:
		h.relay(s, cmd.ChatID, &Event{
			Kind:   EventStopTyping,
			ChatID: cmd.ChatID,
		})

	case CommandMessageSeen:
		if cmd.MessageID == "" {
			h.dropMalformed(s, "message-seen")
			return
		}
		h.relay(s, cmd.ChatID, &Event{
			Kind:      EventMessageSeen,
			ChatID:    cmd.ChatID,
			MessageID: cmd.MessageID,
			UserID:    cmd.UserID,
		})

	case CommandUpdateStatus:
		if ev := h.presence.SetStatus(ctx, s.UserID, cmd.Status); ev != nil {
			h.broadcastAll(ev)
		}

	case CommandGroupCreated:
		if cmd.Chat == nil || len(cmd.UserIDs) == 0 {
			h.dropMalformed(s, "group-created")
			return
		}
		for _, userID := range cmd.UserIDs {
			h.unicast(userID, &Event{Kind: EventGroupCreated, Chat: cmd.Chat})
		}
		metrics.IncFanoutEvent(EventGroupCreated.String())

	case CommandUserAddedToGroup:
		if cmd.Chat == nil || cmd.UserID == "" {
			h.dropMalformed(s, "user-added-to-group")
			return
		}
		h.unicast(cmd.UserID, &Event{Kind: EventAddedToGroup, Chat: cmd.Chat})
		metrics.IncFanoutEvent(EventAddedToGroup.String())

	case CommandUserRemovedFromGroup:
		if cmd.ChatID == "" || cmd.UserID == "" {
			h.dropMalformed(s, "user-removed-from-group")
			return
		}
		h.unicast(cmd.UserID, &Event{Kind: EventRemovedFromGroup, ChatID: cmd.ChatID})
		metrics.IncFanoutEvent(EventRemovedFromGroup.String())

	case CommandGroupRenamed:
		if cmd.Chat == nil {
			h.dropMalformed(s, "group-renamed")
			return
		}
		h.relay(s, cmd.Chat.ID, &Event{Kind: EventGroupRenamed, ChatID: cmd.Chat.ID, Chat: cmd.Chat})
	}
}

// fanOutMessage delivers a message to the union of the chat members'
// personal rooms (minus the sender) and the chat room (minus the emitting
// session). Computing one target set means a recipient addressed both ways
// still receives exactly one copy. Sessions of users no longer in the
// member list that still sit in the chat room are served best-effort; the
// next REST fetch restores correctness for them.
func (h *Hub) fanOutMessage(s *Session, msg *Message) {
	if msg == nil || msg.ChatID == "" || len(msg.MemberIDs) == 0 {
		h.dropMalformed(s, "new-message")
		return
	}

	targets := make(map[*Session]struct{})
	for _, userID := range msg.MemberIDs {
		if userID == s.UserID {
			continue
		}
		if room, ok := h.rooms[userID]; ok {
			for member := range room.sessions {
				targets[member] = struct{}{}
			}
		}
	}
	if room, ok := h.rooms[msg.ChatID]; ok {
		for member := range room.sessions {
			if member == s {
				continue
			}
			targets[member] = struct{}{}
		}
	}

	ev := &Event{Kind: EventMessageReceived, ChatID: msg.ChatID, Message: msg}
	for target := range targets {
		if !target.send(ev) {
			metrics.IncDroppedEvent("slow_consumer")
		}
	}
	metrics.IncFanoutEvent(EventMessageReceived.String())
}

func (h *Hub) joinRoom(s *Session, roomID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		h.rooms[roomID] = room
	}
	// Idempotent: joining twice is not an error.
	if room.Add(s) {
		s.Rooms[roomID] = struct{}{}
		h.log.Debug().Str("session_id", s.ID).Str("room", roomID).Msg("joined room")
	}
}

func (h *Hub) leaveRoom(s *Session, roomID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if room.Remove(s) {
		delete(s.Rooms, roomID)
		h.log.Debug().Str("session_id", s.ID).Str("room", roomID).Msg("left room")
	}
	if room.Empty() {
		delete(h.rooms, roomID)
	}
}

// relay broadcasts an event to a chat room, excluding the emitting session.
func (h *Hub) relay(s *Session, chatID string, ev *Event) {
	if chatID == "" {
		h.dropMalformed(s, ev.Kind.String())
		return
	}
	if room, ok := h.rooms[chatID]; ok {
		room.BroadcastExcept(ev, s)
	}
	metrics.IncFanoutEvent(ev.Kind.String())
}

// unicast delivers an event to every session in a user's personal room. An
// absent room means the user is offline; they recover via their next REST
// fetch.
func (h *Hub) unicast(userID string, ev *Event) {
	if room, ok := h.rooms[userID]; ok {
		room.BroadcastExcept(ev, nil)
	}
}

func (h *Hub) broadcastAll(ev *Event) {
	h.registry.Each(func(s *Session) {
		if !s.send(ev) {
			metrics.IncDroppedEvent("slow_consumer")
		}
	})
	metrics.IncFanoutEvent(ev.Kind.String())
}

func (h *Hub) dropMalformed(s *Session, event string) {
	h.log.Warn().
		Str("session_id", s.ID).
		Str("user_id", s.UserID).
		Str("event", event).
		Msg("dropping malformed event")
	metrics.IncDroppedEvent(ErrCodeMalformedEvent)
}
