package post

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/model"
	"github.com/dukerupert/xpboard/internal/viewcache"
)

const (
	MsgUserNotFound = "User not found"
	MsgCreateFailed = "Failed to create post"
	MsgListFailed   = "Failed to fetch posts"
	MsgIncomplete   = "Please fill in all required fields."
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindInvalidInput
	KindPersistence
)

// Error carries a user-facing message; the cause is available via Unwrap.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

type Store interface {
	Create(ctx context.Context, authorID, content string, image *string) (*model.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error)
}

type Resolver interface {
	Resolve(ctx context.Context, caller *auth.Identity) (*model.User, error)
}

type Service struct {
	store       Store
	resolver    Resolver
	invalidator viewcache.Invalidator
	logger      *slog.Logger
}

func NewService(store Store, resolver Resolver, invalidator viewcache.Invalidator, logger *slog.Logger) *Service {
	if invalidator == nil {
		invalidator = viewcache.Nop{}
	}
	return &Service{store: store, resolver: resolver, invalidator: invalidator, logger: logger}
}

func (s *Service) author(ctx context.Context, caller *auth.Identity, failMsg string) (string, error) {
	u, err := s.resolver.Resolve(ctx, caller)
	if err != nil {
		s.logger.Error("resolve caller", "error", err.Error())
		return "", &Error{Kind: KindPersistence, Msg: failMsg, Err: err}
	}
	if u == nil {
		return "", &Error{Kind: KindUnauthenticated, Msg: MsgUserNotFound}
	}
	return u.ID, nil
}

// Create composes the draft and stores it as a post by caller. imageURL is
// optional. The feed view is invalidated on success.
func (s *Service) Create(ctx context.Context, caller *auth.Identity, d Draft, imageURL string) (*model.Post, error) {
	authorID, err := s.author(ctx, caller, MsgCreateFailed)
	if err != nil {
		return nil, err
	}

	content, err := Compose(d)
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Msg: MsgIncomplete, Err: err}
	}

	var image *string
	if imageURL != "" {
		image = &imageURL
	}

	p, err := s.store.Create(ctx, authorID, content, image)
	if err != nil {
		s.logger.Error("failed to create post", "error", err.Error())
		return nil, &Error{Kind: KindPersistence, Msg: MsgCreateFailed, Err: err}
	}

	s.invalidator.Invalidate(ctx, viewcache.FeedPath)
	return p, nil
}

// ListMine returns the caller's posts, newest first.
func (s *Service) ListMine(ctx context.Context, caller *auth.Identity) ([]model.Post, error) {
	authorID, err := s.author(ctx, caller, MsgListFailed)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.ListByAuthor(ctx, authorID)
	if err != nil {
		s.logger.Error("list posts", "error", err.Error())
		return nil, &Error{Kind: KindPersistence, Msg: MsgListFailed, Err: err}
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}
