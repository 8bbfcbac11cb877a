package db

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nusantara-Apps/rutina/internal/model"
)

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

const pqUniqueViolation = "23505"

// CreateUser inserts a new user and returns the stored row.
func (s *pgStore) CreateUser(name, email, hashedPassword, role string) (*model.User, error) {
	var u model.User
	query := `
	INSERT INTO users (name, email, hashed_password, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING id, name, email, hashed_password, role, created_at, updated_at;
	`
	if err := s.db.Get(&u, query, name, email, hashedPassword, role); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		log.Error().Err(err).Msg("failed to create user")
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email. Returns sql.ErrNoRows if not found.
func (s *pgStore) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	query := `
	SELECT id, name, email, hashed_password, role, created_at, updated_at
	FROM users
	WHERE email = $1;
	`
	err := s.db.Get(&u, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}
	return &u, nil
}

// GetUserByID fetches a user by ID. Returns sql.ErrNoRows if not found.
func (s *pgStore) GetUserByID(id int) (*model.User, error) {
	var u model.User
	query := `
	SELECT id, name, email, hashed_password, role, created_at, updated_at
	FROM users
	WHERE id = $1;
	`
	err := s.db.Get(&u, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Msg("failed to get user by id")
		return nil, err
	}
	return &u, nil
}
