package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"chatrelay/internal/client"
	clog "chatrelay/internal/log"
	"chatrelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT token from /api/login")
	chatID := flag.String("chat", "general", "chat to join")
	userID := flag.String("user-id", "", "own user id, used in the member list")
	name := flag.String("name", "cli-user", "display name on sent messages")
	peers := flag.String("peers", "", "comma-separated member user ids")
	flag.Parse()

	if *token == "" {
		return errors.New("a -token is required; obtain one via POST /api/login")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	logger := clog.New("warn")
	dispatcher := client.NewDispatcher()

	dispatcher.Subscribe(proto.OutboundMessageReceived, func(data json.RawMessage) {
		var msg proto.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("unmarshal message: %v", err)
			return
		}
		fmt.Printf("[%s] %s: %s\n", msg.Chat.ID, msg.Sender.Name, msg.Content)
	})
	dispatcher.Subscribe(proto.OutboundTyping, func(data json.RawMessage) {
		var typing proto.TypingData
		if err := json.Unmarshal(data, &typing); err != nil {
			return
		}
		fmt.Printf("[%s] %s is typing...\n", typing.ChatID, typing.UserName)
	})
	for _, event := range []string{proto.OutboundUserOnline, proto.OutboundUserOffline, proto.OutboundUserStatusChanged} {
		event := event
		dispatcher.Subscribe(event, func(data json.RawMessage) {
			var presence proto.PresenceEvent
			if err := json.Unmarshal(data, &presence); err != nil {
				return
			}
			fmt.Printf("* %s: %s (%s)\n", event, presence.UserID, presence.Status)
		})
	}

	socket, err := client.Dial(ctx, *addr, *token, dispatcher, logger)
	if err != nil {
		return err
	}
	defer socket.Close()

	if err := socket.JoinChat(ctx, *chatID); err != nil {
		return fmt.Errorf("join chat: %w", err)
	}

	fmt.Printf("Connected to %s as %s in chat %s\n", *addr, *name, *chatID)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		if err := socket.Listen(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
		}
	}()

	members := memberList(*userID, *peers)
	writeLoop(ctx, socket, *chatID, *userID, *name, members)

	stop()
	cancel()
	return nil
}

func memberList(userID, peers string) []proto.UserRef {
	var members []proto.UserRef
	if userID != "" {
		members = append(members, proto.UserRef{ID: userID})
	}
	for _, id := range strings.Split(peers, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			members = append(members, proto.UserRef{ID: id})
		}
	}
	return members
}

func writeLoop(ctx context.Context, socket *client.Socket, chatID, userID, name string, members []proto.UserRef) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			msg := proto.Message{
				ID:        uuid.NewString(),
				Chat:      proto.Chat{ID: chatID, Users: members},
				Sender:    proto.UserRef{ID: userID, Name: name},
				Content:   text,
				CreatedAt: time.Now(),
			}
			if err := socket.SendMessage(ctx, msg); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
