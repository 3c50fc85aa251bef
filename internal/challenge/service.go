package challenge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/xpboard/internal/auth"
	"github.com/dukerupert/xpboard/internal/model"
	"github.com/dukerupert/xpboard/internal/viewcache"
)

// Store is the persistence the service needs.
type Store interface {
	CreateWithCreator(ctx context.Context, nc model.NewChallenge) (*model.Challenge, error)
	List(ctx context.Context) ([]model.ChallengeView, error)
	GetParticipant(ctx context.Context, challengeID, userID string) (*model.ChallengeParticipant, error)
	SetCompletion(ctx context.Context, challengeID, userID string, completedAt *time.Time) error
}

// Resolver maps a caller to its local user; (nil, nil) means no such user.
type Resolver interface {
	Resolve(ctx context.Context, caller *auth.Identity) (*model.User, error)
}

type Input struct {
	Title       string
	Description string
	XPReward    int
	DueDate     *time.Time
}

type Service struct {
	store       Store
	resolver    Resolver
	invalidator viewcache.Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(store Store, resolver Resolver, invalidator viewcache.Invalidator, logger *slog.Logger) *Service {
	if invalidator == nil {
		invalidator = viewcache.Nop{}
	}
	return &Service{
		store:       store,
		resolver:    resolver,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

// resolve returns the caller's local user id. failMsg is used when the
// lookup itself fails.
func (s *Service) resolve(ctx context.Context, caller *auth.Identity, failMsg string) (string, error) {
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

// Create stores a new challenge owned by caller together with the caller's
// participant row, then invalidates the challenge listing.
func (s *Service) Create(ctx context.Context, caller *auth.Identity, in Input) (*model.Challenge, error) {
	userID, err := s.resolve(ctx, caller, MsgCreateFailed)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &Error{Kind: KindInvalidInput, Msg: MsgTitleRequired}
	}
	if in.XPReward < 0 {
		return nil, &Error{Kind: KindInvalidInput, Msg: MsgNegativeXP}
	}

	c, err := s.store.CreateWithCreator(ctx, model.NewChallenge{
		Title:       title,
		Description: in.Description,
		XPReward:    in.XPReward,
		DueDate:     in.DueDate,
		CreatorID:   userID,
	})
	if err != nil {
		s.logger.Error("failed to create challenge", "error", err.Error())
		return nil, &Error{Kind: KindPersistence, Msg: MsgCreateFailed, Err: err}
	}

	s.invalidator.Invalidate(ctx, viewcache.ChallengesPath)
	return c, nil
}

// List returns every challenge with creator and participant profiles.
func (s *Service) List(ctx context.Context) ([]model.ChallengeView, error) {
	views, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("list challenges", "error", err.Error())
		return nil, &Error{Kind: KindFetch, Msg: MsgFetchFailed, Err: err}
	}
	if views == nil {
		views = []model.ChallengeView{}
	}
	return views, nil
}

// ToggleCompletion flips the caller's completion flag on challengeID.
//
// The read and the write are separate statements with no conditional
// update: two concurrent toggles may both read the same state and write the
// same result.
func (s *Service) ToggleCompletion(ctx context.Context, caller *auth.Identity, challengeID string) error {
	userID, err := s.resolve(ctx, caller, MsgToggleFailed)
	if err != nil {
		return err
	}

	p, err := s.store.GetParticipant(ctx, challengeID, userID)
	if err != nil {
		s.logger.Error("failed to toggle challenge completion", "error", err.Error())
		return &Error{Kind: KindPersistence, Msg: MsgToggleFailed, Err: err}
	}
	if p == nil {
		return &Error{Kind: KindNotAParticipant, Msg: MsgNotAParticipant}
	}

	var completedAt *time.Time
	if !p.Completed {
		now := s.now().UTC()
		completedAt = &now
	}

	if err := s.store.SetCompletion(ctx, challengeID, userID, completedAt); err != nil {
		s.logger.Error("failed to toggle challenge completion", "error", err.Error())
		return &Error{Kind: KindPersistence, Msg: MsgToggleFailed, Err: err}
	}

	s.invalidator.Invalidate(ctx, viewcache.ChallengesPath)
	return nil
}
