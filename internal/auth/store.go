package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/assessiq/backend/internal/models"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

// UserStore persists accounts. GetByEmail returns the bcrypt hash in
// User.Password.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, u *models.User) error {
	now := time.Now()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, name, role, company, password, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $6)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, string(u.Role), u.Company, u.Password, now,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `WHERE email = $1`, email)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

func (s *Store) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var u models.User
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, COALESCE(company, ''), password, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.Name, &role, &u.Company, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}
