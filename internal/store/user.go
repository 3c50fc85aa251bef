package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/xpboard/internal/model"
	"github.com/google/uuid"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var username sql.NullString
	err := scanner.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &username, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if username.Valid {
		u.Username = &username.String
	}
	return &u, nil
}

const userCols = `id, external_id, email, name, username, image, created_at, updated_at`

// Upsert mirrors an identity provider account locally, keyed by ExternalID.
// The local ID is assigned on first insert and never changes.
func (s *UserStore) Upsert(ctx context.Context, u model.User) (*model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, external_id, email, name, username, image) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
		   email = excluded.email,
		   name = excluded.name,
		   username = excluded.username,
		   image = excluded.image`,
		uuid.NewString(), u.ExternalID, u.Email, u.Name, nullString(u.Username), u.Image,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetByExternalID(ctx, u.ExternalID)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE external_id = ?`, externalID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	return u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
