package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/xpboard/internal/model"
	"github.com/google/uuid"
)

type ChallengeStore struct {
	db *sql.DB
}

func NewChallengeStore(db *sql.DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanChallenge(scanner interface{ Scan(...any) error }) (*model.Challenge, error) {
	var c model.Challenge
	var dueDate sql.NullTime
	err := scanner.Scan(&c.ID, &c.Title, &c.Description, &c.XPReward, &dueDate, &c.CreatorID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		c.DueDate = &dueDate.Time
	}
	return &c, nil
}

func scanParticipant(scanner interface{ Scan(...any) error }) (*model.ChallengeParticipant, error) {
	var p model.ChallengeParticipant
	var completed int
	var completedAt sql.NullTime
	err := scanner.Scan(&p.ChallengeID, &p.ParticipantID, &completed, &completedAt, &p.JoinedAt)
	if err != nil {
		return nil, err
	}
	p.Completed = completed != 0
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

const challengeCols = `id, title, description, xp_reward, due_date, creator_id, created_at, updated_at`
const participantCols = `challenge_id, participant_id, completed, completed_at, joined_at`

// CreateWithCreator inserts the challenge and its creator's participant row
// in one transaction. Either both rows exist afterwards or neither does.
func (s *ChallengeStore) CreateWithCreator(ctx context.Context, nc model.NewChallenge) (*model.Challenge, error) {
	var due sql.NullTime
	if nc.DueDate != nil {
		due = sql.NullTime{Time: nc.DueDate.UTC(), Valid: true}
	}
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO challenges (id, title, description, xp_reward, due_date, creator_id) VALUES (?, ?, ?, ?, ?, ?)`,
		id, nc.Title, nc.Description, nc.XPReward, due, nc.CreatorID,
	); err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}

	if err := addParticipant(ctx, tx, id, nc.CreatorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit challenge: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChallengeStore) GetByID(ctx context.Context, id string) (*model.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+challengeCols+` FROM challenges WHERE id = ?`, id)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return c, nil
}

// AddParticipant records userID as a participant of challengeID with
// completed=false. Adding an existing participant is an error.
func (s *ChallengeStore) AddParticipant(ctx context.Context, challengeID, userID string) error {
	return addParticipant(ctx, s.db, challengeID, userID)
}

func addParticipant(ctx context.Context, ex execer, challengeID, userID string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO challenge_participants (challenge_id, participant_id) VALUES (?, ?)`,
		challengeID, userID,
	)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// GetParticipant returns the participant row for (challengeID, userID), or nil.
func (s *ChallengeStore) GetParticipant(ctx context.Context, challengeID, userID string) (*model.ChallengeParticipant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+participantCols+` FROM challenge_participants WHERE challenge_id = ? AND participant_id = ?`,
		challengeID, userID,
	)
	p, err := scanParticipant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

// SetCompletion marks the participant completed at completedAt, or clears the
// completion when completedAt is nil. The write is unconditional.
func (s *ChallengeStore) SetCompletion(ctx context.Context, challengeID, userID string, completedAt *time.Time) error {
	completed := 0
	var at sql.NullTime
	if completedAt != nil {
		completed = 1
		at = sql.NullTime{Time: completedAt.UTC(), Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE challenge_participants SET completed = ?, completed_at = ? WHERE challenge_id = ? AND participant_id = ?`,
		completed, at, challengeID, userID,
	)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update participant: %w", sql.ErrNoRows)
	}
	return nil
}

// List returns every challenge with its creator and participants. Callers
// must not depend on the order.
func (s *ChallengeStore) List(ctx context.Context) ([]model.ChallengeView, error) {
	// Both queries read the same snapshot.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT c.id, c.title, c.description, c.xp_reward, c.due_date, c.creator_id, c.created_at, c.updated_at,
		        u.id, u.name, u.username, u.image
		 FROM challenges c
		 JOIN users u ON u.id = c.creator_id
		 ORDER BY c.created_at ASC, c.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	var views []model.ChallengeView
	index := make(map[string]int)
	for rows.Next() {
		var v model.ChallengeView
		var dueDate sql.NullTime
		var username sql.NullString
		if err := rows.Scan(
			&v.ID, &v.Title, &v.Description, &v.XPReward, &dueDate, &v.CreatorID, &v.CreatedAt, &v.UpdatedAt,
			&v.Creator.ID, &v.Creator.Name, &username, &v.Creator.Image,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		if dueDate.Valid {
			v.DueDate = &dueDate.Time
		}
		if username.Valid {
			v.Creator.Username = &username.String
		}
		v.Participants = []model.ParticipantView{}
		index[v.ID] = len(views)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	rows.Close()

	if len(views) == 0 {
		return views, nil
	}

	prows, err := tx.QueryContext(ctx,
		`SELECT p.challenge_id, p.participant_id, p.completed, p.completed_at,
		        u.id, u.name, u.username, u.image
		 FROM challenge_participants p
		 JOIN users u ON u.id = p.participant_id
		 ORDER BY p.joined_at ASC, p.participant_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var challengeID string
		var pv model.ParticipantView
		var completed int
		var completedAt sql.NullTime
		var username sql.NullString
		if err := prows.Scan(
			&challengeID, &pv.ParticipantID, &completed, &completedAt,
			&pv.Participant.ID, &pv.Participant.Name, &username, &pv.Participant.Image,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		pv.Completed = completed != 0
		if completedAt.Valid {
			pv.CompletedAt = &completedAt.Time
		}
		if username.Valid {
			pv.Participant.Username = &username.String
		}
		if i, ok := index[challengeID]; ok {
			views[i].Participants = append(views[i].Participants, pv)
		}
	}
	return views, prows.Err()
}
