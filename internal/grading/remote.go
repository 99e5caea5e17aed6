package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"examclash-session-service/internal/domain"
)

// Remote grades by calling an HTTP endpoint. Any transport, status, or
// decode failure is absorbed into an incorrect verdict with an empty
// explanation so the session can always finish; the failure is logged for
// telemetry, never shown mid-session.
type Remote struct {
	client  *http.Client
	baseURL string
}

// NewRemote builds a remote strategy against baseURL ("/grade" is appended).
// A non-positive timeout falls back to 5s.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Remote{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type gradeRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type gradeResponse struct {
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

func (r *Remote) Grade(ctx context.Context, q domain.Question, candidate string) (Verdict, error) {
	body, err := json.Marshal(gradeRequest{QuestionID: q.ID, Answer: candidate})
	if err != nil {
		return r.absorb(q.ID, err), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/grade", bytes.NewReader(body))
	if err != nil {
		return r.absorb(q.ID, err), nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return r.absorb(q.ID, err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return r.absorb(q.ID, fmt.Errorf("grading endpoint returned %d", resp.StatusCode)), nil
	}

	var decoded gradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return r.absorb(q.ID, err), nil
	}
	return Verdict{
		Correct:       decoded.Correct,
		Explanation:   decoded.Explanation,
		CorrectAnswer: decoded.CorrectAnswer,
	}, nil
}

// absorb normalizes a transport failure to a pessimistic verdict.
func (r *Remote) absorb(questionID string, err error) Verdict {
	log.Printf("remote grading failed for question %s: %v", questionID, err)
	return Verdict{Correct: false, Explanation: ""}
}
