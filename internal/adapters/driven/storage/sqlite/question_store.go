package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// questionStore implements driven.QuestionStore.
type questionStore struct {
	store *Store
}

var _ driven.QuestionStore = (*questionStore)(nil)

const questionColumns = `id, document_id, chunk_id, kind, text, options, answer, explanation,
	difficulty, times_answered, times_correct, last_answered, next_review, created_at`

// reviewOrder mirrors domain.ReviewLess: never answered first, then by
// ascending success rate, then oldest, then ID.
const reviewOrder = `
	ORDER BY (times_answered = 0) DESC,
		CAST(times_correct AS REAL) / MAX(1, times_answered) ASC,
		created_at ASC,
		id ASC`

// SaveQuestions stores or replaces questions by ID in one transaction.
func (s *questionStore) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			chunk_id = excluded.chunk_id,
			kind = excluded.kind,
			text = excluded.text,
			options = excluded.options,
			answer = excluded.answer,
			explanation = excluded.explanation,
			difficulty = excluded.difficulty,
			times_answered = excluded.times_answered,
			times_correct = excluded.times_correct,
			last_answered = excluded.last_answered,
			next_review = excluded.next_review
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range questions {
		q := &questions[i]
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshalling options: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, q.ID, q.DocumentID, q.ChunkID, string(q.Kind), q.Text,
			string(optionsJSON), q.Answer, q.Explanation, string(q.Difficulty),
			q.TimesAnswered, q.TimesCorrect, formatTimePtr(q.LastAnswered),
			formatTimePtr(q.NextReview), formatTime(q.CreatedAt)); err != nil {
			return fmt.Errorf("saving question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetQuestion retrieves a question by ID.
func (s *questionStore) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

// ListQuestions returns questions oldest first. An empty documentID lists all.
func (s *questionStore) ListQuestions(ctx context.Context, documentID string) ([]domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions`
	var args []any
	if documentID != "" {
		query += ` WHERE document_id = ?`
		args = append(args, documentID)
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return s.query(ctx, query, args...)
}

// UpdateReviewState writes only the spaced-repetition fields of q.
func (s *questionStore) UpdateReviewState(ctx context.Context, q *domain.Question) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE questions
		SET times_answered = ?, times_correct = ?, last_answered = ?, next_review = ?
		WHERE id = ?
	`, q.TimesAnswered, q.TimesCorrect, formatTimePtr(q.LastAnswered), formatTimePtr(q.NextReview), q.ID)
	if err != nil {
		return fmt.Errorf("updating review state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DueQuestions returns questions due at asOf in review order.
// A limit of zero or less returns every due question.
func (s *questionStore) DueQuestions(
	ctx context.Context,
	documentID string,
	asOf time.Time,
	limit int,
) ([]domain.Question, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + questionColumns + ` FROM questions
		WHERE (next_review IS NULL OR next_review <= ?)`)
	args := []any{formatTime(asOf)}
	if documentID != "" {
		b.WriteString(` AND document_id = ?`)
		args = append(args, documentID)
	}
	b.WriteString(reviewOrder)
	if limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}
	return s.query(ctx, b.String(), args...)
}

// DeleteQuestion removes a question.
func (s *questionStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountQuestions returns the number of questions for a document.
func (s *questionStore) CountQuestions(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM questions WHERE document_id = ?", documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return count, nil
}

func (s *questionStore) query(ctx context.Context, query string, args ...any) ([]domain.Question, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question //nolint:prealloc // size unknown from query
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}

	return questions, nil
}

// scanQuestion scans a single question row.
func scanQuestion(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	var kind, difficulty, optionsJSON, createdAt string
	var lastAnswered, nextReview sql.NullString

	if err := row.Scan(&q.ID, &q.DocumentID, &q.ChunkID, &kind, &q.Text, &optionsJSON,
		&q.Answer, &q.Explanation, &difficulty, &q.TimesAnswered, &q.TimesCorrect,
		&lastAnswered, &nextReview, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning question: %w", err)
	}

	q.Kind = domain.QuestionKind(kind)
	q.Difficulty = domain.Difficulty(difficulty)
	q.LastAnswered = parseTimePtr(lastAnswered)
	q.NextReview = parseTimePtr(nextReview)
	q.CreatedAt = parseTime(createdAt)

	if optionsJSON != "" && optionsJSON != jsonNull {
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshaling options: %w", err)
		}
		if len(q.Options) == 0 {
			q.Options = nil
		}
	}

	return &q, nil
}
