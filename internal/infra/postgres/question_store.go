package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assessment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionStore keeps the question bank in the questions table.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func setQuestionID(q *domain.Question, id string) { q.ID = id }

func (s *QuestionStore) ListActive(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM questions WHERE is_active ORDER BY created_at, id`)
	if err != nil {
		return nil, domain.Unavailable("list active questions", err)
	}
	return scanDocs(rows, setQuestionID)
}

func (s *QuestionStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return []domain.Question{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, domain.Unavailable("list questions by id", err)
	}
	return scanDocs(rows, setQuestionID)
}

func (s *QuestionStore) ListAll(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM questions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, domain.Unavailable("list questions", err)
	}
	return scanDocs(rows, setQuestionID)
}

func (s *QuestionStore) Get(ctx context.Context, id string) (domain.Question, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM questions WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		return domain.Question{}, mapError("get question", err, domain.ErrQuestionNotFound, nil)
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal question: %w", err)
	}
	q.ID = id
	return q, nil
}

func (s *QuestionStore) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return domain.Question{}, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO questions (id, data, is_active, created_at) VALUES ($1, $2, $3, $4)`,
		q.ID, raw, q.Active, q.CreatedAt)
	if err != nil {
		return domain.Question{}, mapError("insert question", err, domain.ErrQuestionNotFound, nil)
	}
	return q, nil
}

func (s *QuestionStore) Update(ctx context.Context, q domain.Question) (domain.Question, error) {
	raw, err := json.Marshal(q)
	if err != nil {
		return domain.Question{}, err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions SET data = $2, is_active = $3 WHERE id = $1`,
		q.ID, raw, q.Active)
	if err != nil {
		return domain.Question{}, mapError("update question", err, domain.ErrQuestionNotFound, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *QuestionStore) SetActive(ctx context.Context, id string, active bool, at time.Time) (domain.Question, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
UPDATE questions
SET is_active = $2,
    data = data || jsonb_build_object('isActive', $2::boolean, 'updatedAt', $3::timestamptz)
WHERE id = $1
RETURNING data`, id, active, at).Scan(&raw)
	if err != nil {
		return domain.Question{}, mapError("set question active", err, domain.ErrQuestionNotFound, nil)
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal question: %w", err)
	}
	q.ID = id
	return q, nil
}

func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return domain.Unavailable("delete question", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *QuestionStore) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM questions WHERE is_active`).Scan(&n); err != nil {
		return 0, domain.Unavailable("count active questions", err)
	}
	return n, nil
}
