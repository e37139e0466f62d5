package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketSessionFlow(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?sessionId=s1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Opening the connection yields the not_started snapshot.
	msgType, payload := readNext(conn, t, "opened")
	if msgType != "opened" {
		t.Fatalf("expected opened, got %s", msgType)
	}
	if state, _ := payload["state"].(string); state != "not_started" {
		t.Fatalf("expected not_started, got %v", payload["state"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}

	// Expect the sanitized question list and an in_progress snapshot, in
	// either order relative to the subscription pump.
	questionsSeen := false
	inProgressSeen := false
	for i := 0; i < 4 && !(questionsSeen && inProgressSeen); i++ {
		typ, payload := readNext(conn, t, "")
		switch typ {
		case "questions":
			questionsSeen = true
		case "session":
			if state, _ := payload["state"].(string); state == "in_progress" {
				inProgressSeen = true
			}
		}
	}
	if !questionsSeen || !inProgressSeen {
		t.Fatalf("expected questions and in_progress session, got questions=%v inProgress=%v", questionsSeen, inProgressSeen)
	}

	if err := conn.WriteJSON(map[string]any{
		"type":    "select",
		"payload": map[string]any{"questionId": "q1", "choiceId": "c2"},
	}); err != nil {
		t.Fatalf("write select: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	// Expect a result and a completed snapshot.
	resultSeen := false
	completedSeen := false
	for i := 0; i < 8 && !(resultSeen && completedSeen); i++ {
		typ, payload := readNext(conn, t, "")
		switch typ {
		case "result":
			if score, _ := payload["score"].(float64); score != 1 {
				t.Fatalf("expected score 1, got %v", payload["score"])
			}
			resultSeen = true
		case "session":
			if state, _ := payload["state"].(string); state == "completed" {
				completedSeen = true
			}
		}
	}
	if !resultSeen || !completedSeen {
		t.Fatalf("expected result and completed session, got result=%v completed=%v", resultSeen, completedSeen)
	}
}

func TestWebSocketRejectsSelectBeforeStart(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?sessionId=s2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "opened")

	if err := conn.WriteJSON(map[string]any{
		"type":    "select",
		"payload": map[string]any{"questionId": "q1", "choiceId": "c2"},
	}); err != nil {
		t.Fatalf("write select: %v", err)
	}

	// The subscription pump may interleave snapshots; scan for the error.
	errorSeen := false
	for i := 0; i < 4 && !errorSeen; i++ {
		if typ, _ := readNext(conn, t, ""); typ == "error" {
			errorSeen = true
		}
	}
	if !errorSeen {
		t.Fatalf("expected error for select before start")
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	// Some frames (e.g. questions) carry array payloads; callers only
	// index into object payloads, so non-objects decode to nil.
	var payload map[string]any
	_ = json.Unmarshal(msg.Payload, &payload)
	return msg.Type, payload
}
