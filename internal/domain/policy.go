package domain

import "time"

// Mode selects the session rule set. Variants are tagged configuration on
// Policy, not separate runner implementations.
type Mode string

const (
	// ModePractice is untimed, no elimination, flat one point per correct.
	ModePractice Mode = "practice"
	// ModeCompetitive is timed with speed and combo bonuses on top of a
	// ten point base per correct answer.
	ModeCompetitive Mode = "competitive"
	// ModeElimination is the golden-bell rule set: timed, and the first
	// incorrect answer ends the session with a loss.
	ModeElimination Mode = "elimination"
)

// Scoring constants for the competitive mode. The speed bonus is one point
// per three whole seconds left on the clock; the combo bonus grows two
// points per consecutive correct answer, capped.
const (
	PracticeBasePoints    = 1
	CompetitiveBasePoints = 10
	SpeedBonusDivisor     = 3
	ComboBonusStep        = 2
	ComboBonusCap         = 20
	EliminationBasePoints = 1
)

// Default per-question time limits. Elimination rounds shorten the clock by
// question kind: O/X rounds run 10s, choice rounds 20s, written rounds 30s.
const (
	DefaultCompetitiveTime = 30 * time.Second
	EliminationTimeBinary  = 10 * time.Second
	EliminationTimeChoice  = 20 * time.Second
	EliminationTimeText    = 30 * time.Second
)

// Policy is the full rule configuration for one session, fixed at start.
type Policy struct {
	Mode         Mode
	QuestionTime time.Duration // zero means untimed
	// Participants is the field size in elimination mode; the rank
	// reported on a loss is the field size at the moment of failure.
	Participants int
}

// Timed reports whether the policy runs a per-question countdown.
func (p Policy) Timed() bool { return p.QuestionTime > 0 }

// TimeFor returns the countdown for a question under this policy.
// Elimination rounds vary the clock by question kind.
func (p Policy) TimeFor(kind QuestionKind) time.Duration {
	if p.Mode != ModeElimination {
		return p.QuestionTime
	}
	switch kind {
	case KindBinary:
		return EliminationTimeBinary
	case KindChoice:
		return EliminationTimeChoice
	case KindText:
		return EliminationTimeText
	default:
		return p.QuestionTime
	}
}

// PracticePolicy is the untimed study configuration.
func PracticePolicy() Policy {
	return Policy{Mode: ModePractice}
}

// CompetitivePolicy runs a per-question clock with bonus scoring.
// A non-positive duration falls back to the 30s default.
func CompetitivePolicy(questionTime time.Duration) Policy {
	if questionTime <= 0 {
		questionTime = DefaultCompetitiveTime
	}
	return Policy{Mode: ModeCompetitive, QuestionTime: questionTime}
}

// EliminationPolicy is the golden-bell configuration. participants is the
// number of players still standing when the session starts.
func EliminationPolicy(participants int) Policy {
	return Policy{
		Mode:         ModeElimination,
		QuestionTime: EliminationTimeChoice,
		Participants: participants,
	}
}

// ParseMode maps a wire/config string onto a Mode.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModePractice, ModeCompetitive, ModeElimination:
		return Mode(raw), true
	}
	return "", false
}
