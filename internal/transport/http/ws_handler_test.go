package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"chatrelay/internal/auth"
	"chatrelay/internal/config"
	"chatrelay/internal/core"
	"chatrelay/internal/log"
	"chatrelay/internal/proto"
	"chatrelay/internal/store/sqlite"
)

func startTestServer(t *testing.T) (*httptest.Server, *auth.Service, context.CancelFunc) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := log.New("error")
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "chatrelay-test",
		Audience: "chatrelay-test",
		TTL:      time.Hour,
	})

	hub := core.NewHub(st, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, authService, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, authService, cancel
}

func registerUser(t *testing.T, authService *auth.Service, username string) string {
	t.Helper()

	token, err := authService.Register(context.Background(), username, "secret123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, cancel := startTestServer(t)
	defer cancel()

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	ts, _, cancel := startTestServer(t)
	defer cancel()

	body, _ := json.Marshal(RegisterRequest{Username: "alice", Password: "secret123"})
	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 201 {
		t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}

	var registered AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if registered.Token == "" {
		t.Fatal("register returned empty token")
	}

	body, _ = json.Marshal(LoginRequest{Username: "alice", Password: "secret123"})
	resp2, err := ts.Client().Post(ts.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != 200 {
		t.Fatalf("unexpected login status: %d", resp2.StatusCode)
	}

	body, _ = json.Marshal(LoginRequest{Username: "alice", Password: "wrong-pass"})
	resp3, err := ts.Client().Post(ts.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("bad login request failed: %v", err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != 401 {
		t.Fatalf("unexpected bad login status: %d", resp3.StatusCode)
	}
}

func TestWSRejectsMissingToken(t *testing.T) {
	ts, _, cancel := startTestServer(t)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		conn.Close(websocket.StatusNormalClosure, "done")
		t.Fatal("expected dial to fail without token")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func TestWSRejectsInvalidToken(t *testing.T) {
	ts, _, cancel := startTestServer(t)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=not-a-token"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		conn.Close(websocket.StatusNormalClosure, "done")
		t.Fatal("expected dial to fail with invalid token")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func TestWSPresenceAndMessageDelivery(t *testing.T) {
	ts, authService, cancel := startTestServer(t)
	defer cancel()

	tokenA := registerUser(t, authService, "alice")
	tokenB := registerUser(t, authService, "bob")

	claimsB, err := authService.ValidateToken(tokenB)
	if err != nil {
		t.Fatalf("validate token B: %v", err)
	}
	claimsA, err := authService.ValidateToken(tokenA)
	if err != nil {
		t.Fatalf("validate token A: %v", err)
	}

	wsBase := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token="

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA, _, err := websocket.Dial(ctx, wsBase+tokenA, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsBase+tokenB, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close(websocket.StatusNormalClosure, "done")

	// A connected first, so A observes B coming online.
	online := readEvent(t, ctx, connA, "user-online")
	var presence proto.PresenceEvent
	if err := json.Unmarshal(online, &presence); err != nil {
		t.Fatalf("unmarshal presence event: %v", err)
	}
	if presence.UserID != claimsB.UserID {
		t.Fatalf("unexpected online user: %s", presence.UserID)
	}

	payload, _ := json.Marshal(proto.Message{
		ID:      "m1",
		Content: "hi there",
		Sender:  proto.UserRef{ID: claimsA.UserID, Name: "alice"},
		Chat: proto.Chat{
			ID: "chat-1",
			Users: []proto.UserRef{
				{ID: claimsA.UserID},
				{ID: claimsB.UserID},
			},
		},
	})
	if err := wsjson.Write(ctx, connA, proto.Inbound{Type: proto.InboundNewMessage, Data: payload}); err != nil {
		t.Fatalf("send message: %v", err)
	}

	data := readEvent(t, ctx, connB, proto.OutboundMessageReceived)
	var msg proto.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal message event: %v", err)
	}
	if msg.ID != "m1" || msg.Content != "hi there" || msg.Sender.ID != claimsA.UserID {
		t.Fatalf("unexpected message payload: %+v", msg)
	}
}

// readEvent reads frames until one with the wanted event name arrives,
// skipping unrelated presence noise.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event,omitempty"`
			Data  json.RawMessage `json:"data,omitempty"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			t.Fatalf("read outbound waiting for %q: %v", want, err)
		}
		if outbound.Type == "event" && outbound.Event == want {
			return outbound.Data
		}
	}
}
