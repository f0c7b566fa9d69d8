package ws

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ZXseITz/zx-tbsg/internal/games/sticks"
	"github.com/ZXseITz/zx-tbsg/internal/protocol"
	"github.com/ZXseITz/zx-tbsg/internal/session"
)

func newTestServer(t *testing.T, verify func(token string) error) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{
		Session:     session.NewCoordinator(sticks.New()),
		VerifyToken: verify,
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	socket, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = socket.Close() })
	return socket
}

func readEvent(t *testing.T, socket *websocket.Conn) protocol.Event {
	t.Helper()
	_ = socket.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := socket.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	event, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return event
}

func writeEvent(t *testing.T, socket *websocket.Conn, event protocol.Event) {
	t.Helper()
	data, err := protocol.Encode(event)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	if err := socket.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write message: %v", err)
	}
}

func connectClient(t *testing.T, server *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	socket := dial(t, server)
	event := readEvent(t, socket)
	if event.Code != protocol.CodeID {
		t.Fatalf("expected id event, got code %d", event.Code)
	}
	clientID, err := event.StringArg("id")
	if err != nil {
		t.Fatalf("id argument: %v", err)
	}
	return socket, clientID
}

func TestConnectAssignsID(t *testing.T) {
	server := newTestServer(t, nil)

	_, clientID := connectClient(t, server)
	if clientID == "" {
		t.Fatal("expected non-empty client id")
	}
}

func TestChallengeAcceptStartsMatch(t *testing.T) {
	server := newTestServer(t, nil)

	socketA, idA := connectClient(t, server)
	socketB, idB := connectClient(t, server)

	writeEvent(t, socketA, protocol.Event{
		Code: protocol.CodeChallenge,
		Args: map[string]any{"opponent": idB},
	})

	challenge := readEvent(t, socketB)
	if challenge.Code != protocol.CodeChallenge {
		t.Fatalf("expected challenge event, got code %d", challenge.Code)
	}
	if opponent, _ := challenge.StringArg("opponent"); opponent != idA {
		t.Fatalf("unexpected challenger: %q", opponent)
	}

	writeEvent(t, socketB, protocol.Event{
		Code: protocol.CodeChallengeAccept,
		Args: map[string]any{"opponent": idA},
	})

	// The challenger hears the acceptance, then its init event. The acceptor
	// moves first.
	accepted := readEvent(t, socketA)
	if accepted.Code != protocol.CodeChallengeAccept {
		t.Fatalf("expected accept event, got code %d", accepted.Code)
	}
	initA := readEvent(t, socketA)
	if initA.Code != protocol.CodeGameInit {
		t.Fatalf("expected init event for challenger, got code %d", initA.Code)
	}
	if role, _ := initA.StringArg("role"); role != "second" {
		t.Fatalf("unexpected challenger role: %q", role)
	}

	initB := readEvent(t, socketB)
	if initB.Code != protocol.CodeGameInitNext {
		t.Fatalf("expected init-next event for acceptor, got code %d", initB.Code)
	}
	if role, _ := initB.StringArg("role"); role != "first" {
		t.Fatalf("unexpected acceptor role: %q", role)
	}
	if _, ok := initB.Arg("remaining"); !ok {
		t.Fatal("expected game snapshot in init event")
	}

	// The acceptor moves; both sides observe the update.
	writeEvent(t, socketB, protocol.Event{
		Code: protocol.CodeGameUpdate,
		Args: map[string]any{"take": 2},
	})

	updateB := readEvent(t, socketB)
	if updateB.Code != protocol.CodeGameUpdateBroadcast {
		t.Fatalf("expected broadcast update for mover, got code %d", updateB.Code)
	}
	updateA := readEvent(t, socketA)
	if updateA.Code != protocol.CodeGameUpdateNext {
		t.Fatalf("expected next update for opponent, got code %d", updateA.Code)
	}
	if remaining, ok := updateA.Arg("remaining"); !ok || remaining != float64(19) {
		t.Fatalf("unexpected snapshot: %v", updateA.Args)
	}
}

func TestInvalidMessageReportsError(t *testing.T) {
	server := newTestServer(t, nil)

	socket, _ := connectClient(t, server)
	if err := socket.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write message: %v", err)
	}

	event := readEvent(t, socket)
	if event.Code != protocol.CodeError {
		t.Fatalf("expected error event, got code %d", event.Code)
	}
}

func TestDisconnectNotifiesOpponent(t *testing.T) {
	server := newTestServer(t, nil)

	socketA, idA := connectClient(t, server)
	socketB, idB := connectClient(t, server)

	writeEvent(t, socketA, protocol.Event{
		Code: protocol.CodeChallenge,
		Args: map[string]any{"opponent": idB},
	})
	if event := readEvent(t, socketB); event.Code != protocol.CodeChallenge {
		t.Fatalf("expected challenge event, got code %d", event.Code)
	}

	if err := socketA.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	event := readEvent(t, socketB)
	if event.Code != protocol.CodeChallengeAbort {
		t.Fatalf("expected abort event, got code %d", event.Code)
	}
	if opponent, _ := event.StringArg("opponent"); opponent != idA {
		t.Fatalf("unexpected opponent: %q", opponent)
	}
}

func TestVerifyTokenGatesUpgrade(t *testing.T) {
	verify := func(token string) error {
		if token != "valid" {
			return errors.New("bad token")
		}
		return nil
	}
	server := newTestServer(t, verify)
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("expected dial to fail without token")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %+v", resp)
	}

	header := http.Header{"Authorization": {"Bearer valid"}}
	socket, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial with header: %v", err)
	}
	defer socket.Close()

	socket2, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=valid", url), nil)
	if err != nil {
		t.Fatalf("dial with query token: %v", err)
	}
	defer socket2.Close()
}

func TestNewHandlerRequiresSession(t *testing.T) {
	if _, err := NewHandler(Config{}); err == nil {
		t.Fatal("expected error for missing session")
	}
}
