package http

import (
	"encoding/json"
	"log"
	"net/http"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz session per websocket connection: commands
// come in as typed envelopes, snapshots and results flow back out.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into the session
// use cases. The session ID comes from the sessionId query parameter; a
// fresh one is minted when absent. Closing the connection ends the
// session and stops its countdown.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	opened := h.service.OpenSession(sessionID)
	defer h.service.EndSession(sessionID)

	updates, cancel, err := h.service.Watch(sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Queue the opening snapshot before the update pump starts so it is
	// always the first frame the client sees.
	send <- outboundMessage[any]{Type: "opened", Payload: opened}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var snap domain.SessionSnapshot
		switch inbound.Type {
		case "start":
			snap, err = h.service.StartSession(r.Context(), sessionID)
			if err == nil {
				questions, qErr := h.service.SessionQuestions(sessionID)
				if qErr == nil {
					send <- outboundMessage[any]{Type: "questions", Payload: questions}
				}
			}
		case "select":
			var payload selectPayload
			if uErr := json.Unmarshal(inbound.Payload, &payload); uErr != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}
				continue
			}
			snap, err = h.service.SelectAnswer(sessionID, payload.QuestionID, payload.ChoiceID)
		case "next":
			snap, err = h.service.Next(sessionID)
		case "previous":
			snap, err = h.service.Previous(sessionID)
		case "submit":
			snap, err = h.service.SubmitSession(r.Context(), sessionID)
		case "restart":
			snap, err = h.service.RestartSession(sessionID)
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			continue
		}

		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			continue
		}
		if inbound.Type == "submit" && snap.Result != nil {
			send <- outboundMessage[any]{Type: "result", Payload: *snap.Result}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
