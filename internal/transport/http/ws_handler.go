package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"examclash-session-service/internal/app"
	"examclash-session-service/internal/domain"
	"examclash-session-service/internal/runner"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
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

type answerPayload struct {
	Value string `json:"value"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
}

type reviewPayload struct {
	Items []reviewItem `json:"items"`
}

type reviewItem struct {
	Question      domain.RedactedQuestion `json:"question"`
	Submitted     string                  `json:"submitted"`
	TimedOut      bool                    `json:"timedOut"`
	CorrectAnswer string                  `json:"correctAnswer"`
	Explanation   string                  `json:"explanation"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one session per
// connection: the session starts on connect and is exited when the socket
// goes away, which stops its countdown and discards in-flight grading.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	setID := r.URL.Query().Get("setId")
	userID := r.URL.Query().Get("userId")
	mode := r.URL.Query().Get("mode")
	if setID == "" || userID == "" || mode == "" {
		http.Error(w, "missing setId, userId, or mode", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, _, err := h.service.Start(r.Context(), setID, userID, mode)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Exit(session.ID)

	events, cancel, err := h.service.Subscribe(session.ID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The session identity goes out before the event pump starts, so it
	// always precedes the primed question event.
	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: session.ID, Mode: string(session.Mode)}}

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundEvent(ev):
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
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid answer payload")
				continue
			}
			// The event stream delivers the graded outcome; only failures
			// need a direct reply.
			if _, err := h.service.Submit(r.Context(), session.ID, payload.Value); err != nil {
				send <- errorMessage(userFacing(err))
			}
		case "next":
			phase, err := h.service.Advance(session.ID)
			if err != nil {
				send <- errorMessage(userFacing(err))
				continue
			}
			if phase == domain.PhaseFinished {
				// Fetching the result here archives it; the finished event
				// already carried the tally to the client.
				if _, err := h.service.Result(r.Context(), session.ID); err != nil {
					log.Printf("archive on finish for session %s: %v", session.ID, err)
				}
			}
		case "result":
			result, err := h.service.Result(r.Context(), session.ID)
			if err != nil {
				send <- errorMessage(userFacing(err))
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: result}
		case "review":
			rev, err := h.service.Review(session.ID)
			if err != nil {
				send <- errorMessage(userFacing(err))
				continue
			}
			if rev.Empty() {
				// Nothing wrong: skip straight through, no empty screen.
				send <- outboundMessage[any]{Type: "reviewDone", Payload: struct{}{}}
				continue
			}
			items := make([]reviewItem, 0, rev.Len())
			for _, it := range rev.Items() {
				items = append(items, reviewItem{
					Question:      it.Question,
					Submitted:     it.Submitted,
					TimedOut:      it.TimedOut,
					CorrectAnswer: it.CorrectAnswer,
					Explanation:   it.Explanation,
				})
			}
			send <- outboundMessage[any]{Type: "review", Payload: reviewPayload{Items: items}}
		case "exit":
			h.service.Exit(session.ID)
			send <- outboundMessage[any]{Type: "exited", Payload: struct{}{}}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func outboundEvent(ev runner.Event) outboundMessage[any] {
	switch ev.Type {
	case runner.EventQuestion:
		return outboundMessage[any]{Type: "question", Payload: ev.Question}
	case runner.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: map[string]int{"remaining": ev.Remaining}}
	case runner.EventGraded:
		return outboundMessage[any]{Type: "graded", Payload: ev.Outcome}
	case runner.EventFinished:
		return outboundMessage[any]{Type: "finished", Payload: ev.Result}
	default:
		return outboundMessage[any]{Type: string(ev.Type), Payload: ev}
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// userFacing keeps phase-guard violations terse; they are integration
// defects, not learner-visible conditions.
func userFacing(err error) string {
	if errors.Is(err, domain.ErrInvalidPhase) {
		return "not accepting that right now"
	}
	return err.Error()
}
