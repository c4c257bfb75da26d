package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startTestHub(t *testing.T, roster RosterFunc) (*Hub, string) {
	t.Helper()
	hub := NewHub(roster)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.RegisterClient(conn, 5, 1)
	}))
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	var msg Message
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, quizID uint, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount(quizID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, hub.ClientCount(quizID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubSendsRosterThenEvents(t *testing.T) {
	roster := func(ctx context.Context, quizID uint) (interface{}, error) {
		return []RosterEntry{{UserID: 9, Name: "Alice"}}, nil
	}
	hub, url := startTestHub(t, roster)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if msg := readMessage(t, conn); msg.Type != EventRoster {
		t.Fatalf("expected roster first, got %s", msg.Type)
	}
	waitForClients(t, hub, 5, 1)

	hub.BroadcastToQuiz(6, EventParticipantJoined, ParticipantEvent{UserID: 2, QuizID: 6})
	hub.BroadcastToQuiz(5, EventParticipantJoined, ParticipantEvent{UserID: 3, QuizID: 5})

	msg := readMessage(t, conn)
	if msg.Type != EventParticipantJoined {
		t.Fatalf("expected participant_joined, got %s", msg.Type)
	}
	payload, _ := msg.Payload.(map[string]interface{})
	if payload["quiz_id"].(float64) != 5 {
		t.Fatalf("received event for another quiz: %+v", payload)
	}
}

func TestHubAnswersPing(t *testing.T) {
	_, url := startTestHub(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Message{Type: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != "pong" {
		t.Fatalf("expected pong, got %s", msg.Type)
	}
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, url := startTestHub(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, hub, 5, 1)
	conn.Close()
	waitForClients(t, hub, 5, 0)
}
