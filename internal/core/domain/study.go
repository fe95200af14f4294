package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SessionKind labels what a study session was spent on.
type SessionKind string

const (
	// SessionReview is a flashcard review session.
	SessionReview SessionKind = "review"

	// SessionReading is time spent reading a document.
	SessionReading SessionKind = "reading"

	// SessionGeneral is any other study time.
	SessionGeneral SessionKind = "general"
)

// IsValid returns true if the kind is one of the known kinds.
func (k SessionKind) IsValid() bool {
	switch k {
	case SessionReview, SessionReading, SessionGeneral:
		return true
	default:
		return false
	}
}

// SessionStatus is the lifecycle state of a study session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionPaused SessionStatus = "paused"
	SessionEnded  SessionStatus = "ended"
)

// StudySession is a timed block of study, optionally tied to a document.
// Paused time is excluded from the duration.
type StudySession struct {
	ID         string
	DocumentID string
	Kind       SessionKind
	Status     SessionStatus
	Notes      string

	StartedAt time.Time
	EndedAt   *time.Time

	// PausedAt is set while the session is paused.
	PausedAt *time.Time

	// PausedFor accumulates completed pauses.
	PausedFor time.Duration

	// Answered and Correct tally review cards for review sessions.
	Answered int
	Correct  int
}

// Duration returns the active study time as of now. Ended sessions use
// their end time and an open pause counts up to now.
func (s *StudySession) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	paused := s.PausedFor
	if s.PausedAt != nil && s.EndedAt == nil {
		paused += now.Sub(*s.PausedAt)
	}
	d := end.Sub(s.StartedAt) - paused
	if d < 0 {
		return 0
	}
	return d
}

// Accuracy is the share of answered cards that were correct.
func (s *StudySession) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}

// TextList is a list of strings that also decodes from a single JSON
// string. LLM plans use either shape for the same field.
type TextList []string

// UnmarshalJSON accepts a string, an array of strings, or null.
func (l *TextList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = nil
		if one = strings.TrimSpace(one); one != "" {
			*l = TextList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("text list: %w", err)
	}
	*l = TextList(many)
	return nil
}

// PlanWeek is one week of a study plan.
type PlanWeek struct {
	Number     int      `json:"week_number" yaml:"week"`
	FocusAreas TextList `json:"focus_areas" yaml:"focus_areas"`
	Activities TextList `json:"activities" yaml:"activities"`
	Resources  TextList `json:"resources" yaml:"resources"`
	Hours      float64  `json:"hours" yaml:"hours"`
}

// StudyPlan is a generated week-by-week plan for a subject.
type StudyPlan struct {
	ID           string
	Subject      string
	Goal         string
	Timeframe    string
	HoursPerWeek int

	// DocumentID grounds the plan in a document when set.
	DocumentID string

	Overview   string
	Weeks      []PlanWeek
	Techniques TextList
	Milestones TextList
	CreatedAt  time.Time
}

// SummaryLength is the target size of a text summary.
type SummaryLength string

const (
	SummaryShort  SummaryLength = "short"
	SummaryMedium SummaryLength = "medium"
	SummaryLong   SummaryLength = "long"
)

// Words returns the approximate word budget for the length.
func (l SummaryLength) Words() int {
	switch l {
	case SummaryShort:
		return 100
	case SummaryLong:
		return 500
	default:
		return 250
	}
}

// IsValid returns true if the length is known.
func (l SummaryLength) IsValid() bool {
	return l == SummaryShort || l == SummaryMedium || l == SummaryLong
}

// SummaryFormat shapes a text summary.
type SummaryFormat string

const (
	FormatParagraph SummaryFormat = "paragraph"
	FormatBullets   SummaryFormat = "bullets"
)

// IsValid returns true if the format is known.
func (f SummaryFormat) IsValid() bool {
	return f == FormatParagraph || f == FormatBullets
}

// RephraseStyle is the register text is rewritten in.
type RephraseStyle string

const (
	StyleAcademic     RephraseStyle = "academic"
	StyleSimple       RephraseStyle = "simple"
	StyleCreative     RephraseStyle = "creative"
	StyleProfessional RephraseStyle = "professional"
)

// Description returns the phrasing used in prompts, or "" if unknown.
func (s RephraseStyle) Description() string {
	switch s {
	case StyleAcademic:
		return "formal academic style with precise vocabulary"
	case StyleSimple:
		return "simple, easy-to-understand language with short sentences"
	case StyleCreative:
		return "creative, engaging style with vivid descriptions"
	case StyleProfessional:
		return "professional style that is clear and concise"
	default:
		return ""
	}
}

// ExplainLevel is the audience an explanation is pitched at.
type ExplainLevel string

const (
	LevelElementary   ExplainLevel = "elementary"
	LevelMiddleSchool ExplainLevel = "middle_school"
	LevelHighSchool   ExplainLevel = "high_school"
	LevelCollege      ExplainLevel = "college"
)

// Audience returns the phrasing used in prompts, or "" if unknown.
func (l ExplainLevel) Audience() string {
	switch l {
	case LevelElementary:
		return "an elementary school student (8-10 years old)"
	case LevelMiddleSchool:
		return "a middle school student (11-13 years old)"
	case LevelHighSchool:
		return "a high school student (14-18 years old)"
	case LevelCollege:
		return "a college student"
	default:
		return ""
	}
}

// Correction is one change made when correcting text.
type Correction struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
}

// CorrectedText is corrected text plus the changes that were made.
type CorrectedText struct {
	Text        string
	Corrections []Correction
}
