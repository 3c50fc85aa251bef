package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/xpboard/internal/model"
	"github.com/google/uuid"
)

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(scanner interface{ Scan(...any) error }) (*model.Post, error) {
	var p model.Post
	var image sql.NullString
	err := scanner.Scan(&p.ID, &p.AuthorID, &p.Content, &image, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if image.Valid {
		p.Image = &image.String
	}
	return &p, nil
}

const postCols = `id, author_id, content, image, created_at`

func (s *PostStore) Create(ctx context.Context, authorID, content string, image *string) (*model.Post, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, image) VALUES (?, ?, ?, ?)`,
		id, authorID, content, nullString(image),
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *PostStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// ListByAuthor returns the author's posts, newest first.
func (s *PostStore) ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postCols+` FROM posts WHERE author_id = ? ORDER BY created_at DESC, id ASC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}
