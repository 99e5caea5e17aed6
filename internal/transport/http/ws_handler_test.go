package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"examclash-session-service/internal/app"
	"examclash-session-service/internal/domain"
	"examclash-session-service/internal/grading"
	"examclash-session-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketPracticeFlow(t *testing.T) {
	server, url := newTestServer(t)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?setId=set-1&userId=u1&mode=practice", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, session := readMessage(conn, t, "session")
	if session["sessionId"] == "" {
		t.Fatalf("expected session id, got %+v", session)
	}

	_, question := readMessage(conn, t, "question")
	if question["id"] != "q1" {
		t.Fatalf("expected q1 first, got %+v", question)
	}
	if _, leaked := question["answerIndex"]; leaked {
		t.Fatalf("grading key leaked to client: %+v", question)
	}

	sendMessage(conn, t, "answer", map[string]any{"value": "0"})
	_, graded := readMessage(conn, t, "graded")
	if graded["correct"] != true {
		t.Fatalf("expected correct verdict, got %+v", graded)
	}

	sendMessage(conn, t, "next", nil)
	_, question = readMessage(conn, t, "question")
	if question["id"] != "q2" {
		t.Fatalf("expected q2 next, got %+v", question)
	}

	sendMessage(conn, t, "answer", map[string]any{"value": "1"})
	_, graded = readMessage(conn, t, "graded")
	if graded["correct"] != false {
		t.Fatalf("expected miss, got %+v", graded)
	}

	sendMessage(conn, t, "next", nil)
	_, finished := readMessage(conn, t, "finished")
	if finished["score"] != float64(1) || finished["total"] != float64(2) {
		t.Fatalf("unexpected final tally %+v", finished)
	}

	sendMessage(conn, t, "review", nil)
	_, review := readMessage(conn, t, "review")
	items, ok := review["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one review item, got %+v", review)
	}
}

func TestWebSocketEmptyReviewSkipsStraightThrough(t *testing.T) {
	server, url := newTestServer(t)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?setId=set-1&userId=u1&mode=practice", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readMessage(conn, t, "session")
	readMessage(conn, t, "question")

	for _, q := range []string{"q1", "q2"} {
		sendMessage(conn, t, "answer", map[string]any{"value": "0"})
		readMessage(conn, t, "graded")
		sendMessage(conn, t, "next", nil)
		if q == "q1" {
			readMessage(conn, t, "question")
		} else {
			readMessage(conn, t, "finished")
		}
	}

	sendMessage(conn, t, "review", nil)
	msgType, _ := readMessage(conn, t, "")
	if msgType != "reviewDone" {
		t.Fatalf("expected immediate reviewDone for a clean session, got %s", msgType)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	server, url := newTestServer(t)
	defer server.Close()

	httpURL := "http" + strings.TrimPrefix(url, "ws")
	resp, err := http.Get(httpURL + "?setId=set-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	store := memory.NewSessionStore()
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{
		"set-1": {
			ID: "set-1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "Pick the first option",
					Kind:   domain.KindChoice,
					Choices: []domain.Choice{
						{Label: "A", Text: "right"},
						{Label: "B", Text: "wrong"},
					},
					AnswerIndex: 0,
					Explanation: "first is right",
				},
				{
					ID:     "q2",
					Prompt: "Pick the first option again",
					Kind:   domain.KindChoice,
					Choices: []domain.Choice{
						{Label: "A", Text: "right"},
						{Label: "B", Text: "wrong"},
					},
					AnswerIndex: 0,
				},
			},
		},
	}), 5*time.Minute)
	service := app.NewSessionService(store, repo, grading.NewLocal(), app.PolicyDefaults{
		CompetitiveTime: 30 * time.Second,
		Participants:    25,
	})
	handler := NewWSHandler(service)

	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	return server, "ws" + strings.TrimPrefix(server.URL, "http")
}

func sendMessage(conn *websocket.Conn, t *testing.T, msgType string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readMessage(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%+v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}
