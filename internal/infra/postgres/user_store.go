package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"assessment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserStore keeps candidates in the users table.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func setUserID(u *domain.User, id string) { u.ID = id }

func (s *UserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findOne(ctx, `SELECT id, data FROM users WHERE email = $1`, domain.NormalizeEmail(email))
}

func (s *UserStore) FindByID(ctx context.Context, id string) (domain.User, error) {
	return s.findOne(ctx, `SELECT id, data FROM users WHERE id = $1`, id)
}

func (s *UserStore) findOne(ctx context.Context, query, arg string) (domain.User, error) {
	var (
		id  string
		raw []byte
	)
	if err := s.pool.QueryRow(ctx, query, arg).Scan(&id, &raw); err != nil {
		return domain.User{}, mapError("find user", err, domain.ErrUserNotFound, nil)
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return domain.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	u.ID = id
	return u, nil
}

func (s *UserStore) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, domain.Unavailable("list users by id", err)
	}
	return scanDocs(rows, setUserID)
}

func (s *UserStore) Insert(ctx context.Context, u domain.User) (string, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = domain.NormalizeEmail(u.Email)
	raw, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, email, data, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, raw, u.CreatedAt)
	if err != nil {
		return "", mapError("insert user", err, domain.ErrUserNotFound, map[string]error{
			"users_email_key": domain.ErrEmailTaken,
		})
	}
	return u.ID, nil
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, domain.Unavailable("count users", err)
	}
	return n, nil
}

// AdminStore keeps console operators in the admins table.
type AdminStore struct {
	pool *pgxpool.Pool
}

func NewAdminStore(pool *pgxpool.Pool) *AdminStore {
	return &AdminStore{pool: pool}
}

func (s *AdminStore) FindByEmail(ctx context.Context, email string) (domain.Admin, error) {
	var a domain.Admin
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM admins WHERE email = $1`,
		domain.NormalizeEmail(email),
	).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return domain.Admin{}, mapError("find admin", err, domain.ErrAdminNotFound, nil)
	}
	return a, nil
}

func (s *AdminStore) Insert(ctx context.Context, a domain.Admin) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO admins (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, domain.NormalizeEmail(a.Email), a.Name, a.PasswordHash, a.CreatedAt)
	if err != nil {
		return "", mapError("insert admin", err, domain.ErrAdminNotFound, map[string]error{
			"admins_email_key": domain.ErrEmailTaken,
		})
	}
	return a.ID, nil
}
