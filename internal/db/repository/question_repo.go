package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/casnerano/snippet-war/internal/question"
)

// DBTX is the pgx query surface the repositories need. Satisfied by
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuestionRepository persists questions and per-user seen records.
type QuestionRepository struct {
	db DBTX
}

var _ question.Store = (*QuestionRepository)(nil)

func NewQuestionRepository(db DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = "id, language, topic, difficulty, answer_type, code, question_text, options, correct_answers, explanation, created_at"

// Save inserts a question and returns the persisted row.
func (r *QuestionRepository) Save(ctx context.Context, q question.Question) (question.Question, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+questionColumns,
		q.ID, q.Language, q.Topic, q.Difficulty, q.AnswerType,
		q.Code, q.QuestionText, q.Options, q.CorrectAnswers, q.Explanation, q.CreatedAt,
	)
	saved, err := scanQuestion(row)
	if err != nil {
		return question.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return saved, nil
}

// ListByFilters returns stored questions matching language, topic and
// difficulty, newest first. limit <= 0 means no limit.
func (r *QuestionRepository) ListByFilters(ctx context.Context, language question.Language, topic question.TopicID, difficulty question.Difficulty, limit int) ([]question.Question, error) {
	sql := `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE language = $1 AND topic = $2 AND difficulty = $3
		ORDER BY created_at DESC`
	args := []any{language, topic, difficulty}
	if limit > 0 {
		sql += " LIMIT $4"
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// ListUnseenByUser returns matching questions the user has no seen record
// for. The seen filter runs inside the query (anti-join), not client-side,
// so it stays correct while the question set grows concurrently.
func (r *QuestionRepository) ListUnseenByUser(ctx context.Context, userID uuid.UUID, language question.Language, topic question.TopicID, difficulty question.Difficulty, limit int) ([]question.Question, error) {
	sql := `
		SELECT ` + questionColumns + `
		FROM questions q
		WHERE q.language = $2 AND q.topic = $3 AND q.difficulty = $4
		  AND NOT EXISTS (
			SELECT 1 FROM user_questions uq
			WHERE uq.user_id = $1 AND uq.question_id = q.id
		  )
		ORDER BY q.created_at DESC`
	args := []any{userID, language, topic, difficulty}
	if limit > 0 {
		sql += " LIMIT $5"
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query unseen questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// MarkSeen inserts one seen record per (user, question) pair in a single
// statement. Duplicate pairs are ignored: re-marking must neither fail nor
// create duplicate rows, both for retried batches and for the rare case of
// one question satisfying two topic buckets.
func (r *QuestionRepository) MarkSeen(ctx context.Context, userID uuid.UUID, questionIDs []uuid.UUID) error {
	if len(questionIDs) == 0 {
		return nil
	}

	values := make([]string, len(questionIDs))
	args := make([]any, 0, len(questionIDs)+1)
	args = append(args, userID)
	for i, id := range questionIDs {
		values[i] = fmt.Sprintf("(gen_random_uuid(), $1, $%d, now())", i+2)
		args = append(args, id)
	}

	sql := `
		INSERT INTO user_questions (id, user_id, question_id, seen_at)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (user_id, question_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("mark questions seen: %w", err)
	}
	return nil
}

func scanQuestion(row pgx.Row) (question.Question, error) {
	var q question.Question
	err := row.Scan(
		&q.ID, &q.Language, &q.Topic, &q.Difficulty, &q.AnswerType,
		&q.Code, &q.QuestionText, &q.Options, &q.CorrectAnswers, &q.Explanation, &q.CreatedAt,
	)
	return q, err
}

func collectQuestions(rows pgx.Rows) ([]question.Question, error) {
	var questions []question.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}
