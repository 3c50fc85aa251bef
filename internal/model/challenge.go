package model

import "time"

type Challenge struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	XPReward    int        `json:"xpReward"`
	DueDate     *time.Time `json:"dueDate"`
	CreatorID   string     `json:"creatorId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewChallenge holds the fields needed to insert a challenge and its
// creator's participant row.
type NewChallenge struct {
	Title       string
	Description string
	XPReward    int
	DueDate     *time.Time
	CreatorID   string
}

// ChallengeParticipant is keyed by (ChallengeID, ParticipantID).
// CompletedAt is set if and only if Completed is true.
type ChallengeParticipant struct {
	ChallengeID   string     `json:"challengeId"`
	ParticipantID string     `json:"participantId"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completedAt"`
	JoinedAt      time.Time  `json:"joinedAt"`
}

// ParticipantView is one entry of ChallengeView.Participants.
type ParticipantView struct {
	ParticipantID string     `json:"participantId"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completedAt"`
	Participant   Profile    `json:"participant"`
}

// ChallengeView is a Challenge with its creator and participants included.
type ChallengeView struct {
	Challenge
	Creator      Profile           `json:"creator"`
	Participants []ParticipantView `json:"participants"`
}
