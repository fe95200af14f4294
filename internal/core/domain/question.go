package domain

import (
	"fmt"
	"time"
)

// QuestionKind is the closed set of quiz question shapes.
type QuestionKind string

const (
	// QuestionMultipleChoice has four lettered options and a single correct letter.
	QuestionMultipleChoice QuestionKind = "multiple_choice"

	// QuestionOpenAnswer is answered in free text and graded on a 0-3 scale.
	QuestionOpenAnswer QuestionKind = "open_answer"

	// QuestionTrueFalse is a statement judged true or false.
	QuestionTrueFalse QuestionKind = "true_false"

	// QuestionFillInBlank is a sentence with a single missing term.
	QuestionFillInBlank QuestionKind = "fill_in_blank"
)

// IsValid returns true if the kind is one of the known kinds.
func (k QuestionKind) IsValid() bool {
	switch k {
	case QuestionMultipleChoice, QuestionOpenAnswer, QuestionTrueFalse, QuestionFillInBlank:
		return true
	default:
		return false
	}
}

// HasOptions reports whether questions of this kind carry an options map.
func (k QuestionKind) HasOptions() bool {
	return k == QuestionMultipleChoice || k == QuestionTrueFalse
}

// String returns the string representation.
func (k QuestionKind) String() string {
	return string(k)
}

// Description returns a human-readable label.
func (k QuestionKind) Description() string {
	switch k {
	case QuestionMultipleChoice:
		return "Multiple choice"
	case QuestionOpenAnswer:
		return "Open answer"
	case QuestionTrueFalse:
		return "True / false"
	case QuestionFillInBlank:
		return "Fill in the blank"
	default:
		return unknownDescription
	}
}

// ParseQuestionKind maps a user-facing name to a QuestionKind.
// Short aliases such as "mcq" and "qa" are accepted.
func ParseQuestionKind(s string) (QuestionKind, error) {
	switch s {
	case "multiple_choice", "mcq", "choice":
		return QuestionMultipleChoice, nil
	case "open_answer", "qa", "open":
		return QuestionOpenAnswer, nil
	case "true_false", "tf", "truefalse":
		return QuestionTrueFalse, nil
	case "fill_in_blank", "fill", "blank":
		return QuestionFillInBlank, nil
	default:
		return "", fmt.Errorf("%w: unknown question kind %q", ErrInvalidInput, s)
	}
}

// AllQuestionKinds returns every question kind.
func AllQuestionKinds() []QuestionKind {
	return []QuestionKind{
		QuestionMultipleChoice,
		QuestionOpenAnswer,
		QuestionTrueFalse,
		QuestionFillInBlank,
	}
}

// Difficulty grades how hard a question is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid returns true if the difficulty is known.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d Difficulty) String() string {
	return string(d)
}

// Question is a generated quiz item with its spaced-repetition state.
// The SRS fields are only mutated through the review scheduler.
type Question struct {
	// ID is the unique identifier for the question.
	ID string

	// DocumentID links to the document the question was generated from.
	DocumentID string

	// ChunkID is the chunk that served as context, if known.
	ChunkID string

	// Kind selects how the question is presented and graded.
	Kind QuestionKind

	// Text is the question, statement, or sentence with a blank.
	Text string

	// Options maps option letters to text. Only set for kinds where
	// HasOptions is true.
	Options map[string]string

	// Answer is the correct option letter or the reference answer text.
	Answer string

	// Explanation is optional supporting text shown after answering.
	Explanation string

	// Difficulty is the requested generation difficulty.
	Difficulty Difficulty

	// TimesAnswered counts every recorded attempt.
	TimesAnswered int

	// TimesCorrect counts attempts graded correct.
	TimesCorrect int

	// LastAnswered is when the last attempt was recorded.
	LastAnswered *time.Time

	// NextReview is when the question becomes due. Nil means never
	// reviewed and due immediately.
	NextReview *time.Time

	// CreatedAt is when the question was generated.
	CreatedAt time.Time
}

// SuccessRate returns times_correct / max(1, times_answered).
func (q *Question) SuccessRate() float64 {
	answered := q.TimesAnswered
	if answered < 1 {
		answered = 1
	}
	return float64(q.TimesCorrect) / float64(answered)
}

// IsDue reports whether the question should be reviewed at asOf.
func (q *Question) IsDue(asOf time.Time) bool {
	return q.NextReview == nil || !q.NextReview.After(asOf)
}

// Validate checks the kind-specific shape of the question.
func (q *Question) Validate() error {
	if !q.Kind.IsValid() {
		return fmt.Errorf("%w: question kind %q", ErrInvalidInput, q.Kind)
	}
	if q.Text == "" || q.Answer == "" {
		return fmt.Errorf("%w: question text and answer are required", ErrInvalidInput)
	}
	switch q.Kind {
	case QuestionMultipleChoice:
		if len(q.Options) != 4 {
			return fmt.Errorf("%w: multiple choice needs 4 options, got %d", ErrInvalidInput, len(q.Options))
		}
		if _, ok := q.Options[q.Answer]; !ok {
			return fmt.Errorf("%w: answer %q is not an option", ErrInvalidInput, q.Answer)
		}
	case QuestionTrueFalse:
		if _, ok := q.Options[q.Answer]; !ok {
			return fmt.Errorf("%w: answer %q is not an option", ErrInvalidInput, q.Answer)
		}
	case QuestionOpenAnswer, QuestionFillInBlank:
		if len(q.Options) > 0 {
			return fmt.Errorf("%w: %s questions carry no options", ErrInvalidInput, q.Kind)
		}
	}
	return nil
}

// TrueFalseOptions is the fixed option map for true/false questions.
func TrueFalseOptions() map[string]string {
	return map[string]string{"A": "True", "B": "False"}
}

// Evaluation is the graded outcome of a single answer attempt.
type Evaluation struct {
	// Correct is true when Score reaches the pass mark.
	Correct bool

	// Score is on a 0-3 scale. Choice kinds score 0 or 3.
	Score int

	// Feedback is a short explanation for the learner.
	Feedback string

	// Expected is the reference answer shown to the learner.
	Expected string
}

// PassScore is the minimum Score counted as correct.
const PassScore = 2

// ReviewLess orders questions for review: never-answered first, then by
// ascending success rate, then oldest first, then by ID.
func ReviewLess(a, b *Question) bool {
	aNew, bNew := a.TimesAnswered == 0, b.TimesAnswered == 0
	if aNew != bNew {
		return aNew
	}
	if ra, rb := a.SuccessRate(), b.SuccessRate(); ra != rb {
		return ra < rb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
