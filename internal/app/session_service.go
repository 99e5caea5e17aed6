package app

import (
	"context"
	"log"
	"sync"
	"time"

	"examclash-session-service/internal/domain"
	"examclash-session-service/internal/grading"
	"examclash-session-service/internal/review"
	"examclash-session-service/internal/runner"
	"github.com/google/uuid"
)

// SessionRepository abstracts how live sessions are tracked (in-memory,
// Redis-marked, etc) and where finished results are archived.
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	ArchiveResult(ctx context.Context, sessionID string, result domain.SessionResult) error
}

// QuestionRepository loads question material (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// PolicyDefaults are the configurable knobs applied when a session starts.
type PolicyDefaults struct {
	CompetitiveTime time.Duration
	// Participants seeds the elimination field size; the rank reported on
	// a loss is this count.
	Participants int
}

// SessionService contains the session use cases: start, submit, advance,
// review, result, exit. The grading strategy and policy are resolved once
// at start and never branched on afterwards.
type SessionService struct {
	sessions  SessionRepository
	questions QuestionRepository
	grader    grading.Strategy
	defaults  PolicyDefaults
}

func NewSessionService(sessions SessionRepository, questions QuestionRepository, grader grading.Strategy, defaults PolicyDefaults) *SessionService {
	return &SessionService{
		sessions:  sessions,
		questions: questions,
		grader:    grader,
		defaults:  defaults,
	}
}

// Session binds one live runner to its identity and source material.
type Session struct {
	ID        string
	UserID    string
	SetID     string
	Mode      domain.Mode
	StartedAt time.Time

	runner    *runner.Runner
	questions []domain.Question
	archive   sync.Once
}

// Start loads the question set, fixes the policy for the requested mode,
// and registers a new runner. An empty set is refused outright rather than
// silently rendering nothing.
func (s *SessionService) Start(ctx context.Context, setID, userID, mode string) (*Session, domain.RedactedQuestion, error) {
	m, ok := domain.ParseMode(mode)
	if !ok {
		return nil, domain.RedactedQuestion{}, domain.ErrUnknownMode
	}

	set, err := s.questions.GetQuestionSet(ctx, setID)
	if err != nil {
		return nil, domain.RedactedQuestion{}, err
	}
	if len(set.Questions) == 0 {
		return nil, domain.RedactedQuestion{}, domain.ErrEmptyQuestionSet
	}

	policy := s.policyFor(m)
	run, err := runner.New(set.Questions, policy, s.grader)
	if err != nil {
		return nil, domain.RedactedQuestion{}, err
	}

	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		SetID:     setID,
		Mode:      m,
		StartedAt: time.Now(),
		runner:    run,
		questions: set.Questions,
	}
	s.sessions.Put(session)

	first, _ := run.CurrentQuestion()
	return session, first, nil
}

// Submit grades an answer for the session's live question.
func (s *SessionService) Submit(ctx context.Context, sessionID, candidate string) (domain.Outcome, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Outcome{}, domain.ErrSessionNotFound
	}
	return session.runner.SubmitAnswer(ctx, candidate)
}

// Advance moves a session past its result display.
func (s *SessionService) Advance(sessionID string) (domain.Phase, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return session.runner.Advance()
}

// Result returns the final tally of a finished session and archives it
// (best-effort, once) before handing it back.
func (s *SessionService) Result(ctx context.Context, sessionID string) (domain.SessionResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionResult{}, domain.ErrSessionNotFound
	}
	result, err := session.runner.Result()
	if err != nil {
		return domain.SessionResult{}, err
	}
	session.archive.Do(func() {
		if archiveErr := s.sessions.ArchiveResult(ctx, sessionID, result); archiveErr != nil {
			log.Printf("archive result for session %s: %v", sessionID, archiveErr)
		}
	})
	return result, nil
}

// Review builds the wrong-answer walkthrough for a finished session.
func (s *SessionService) Review(sessionID string) (*review.Review, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	result, err := session.runner.Result()
	if err != nil {
		return nil, err
	}
	return review.New(result, session.questions), nil
}

// Subscribe exposes the session's event stream for a transport.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(sessionID string) (<-chan runner.Event, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.runner.Subscribe()
	return ch, cancel, nil
}

// Exit stops the session's countdown, discards any in-flight grading
// result, and drops the session. The runner is dead afterwards.
func (s *SessionService) Exit(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.runner.Close()
	s.sessions.Delete(sessionID)
}

func (s *SessionService) policyFor(m domain.Mode) domain.Policy {
	switch m {
	case domain.ModeCompetitive:
		return domain.CompetitivePolicy(s.defaults.CompetitiveTime)
	case domain.ModeElimination:
		return domain.EliminationPolicy(s.defaults.Participants)
	default:
		return domain.PracticePolicy()
	}
}
