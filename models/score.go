package models

import (
	"time"

	"github.com/google/uuid"

	"leaderboard-service/rank"
)

// ScoreRecord is one submitted score. Records are append-only: never
// updated, never deleted by this service (retention is external).
// RankKey is set at creation iff the score qualifies for the leaderboard;
// its absence keeps the record out of leaderboard queries entirely.
type ScoreRecord struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	UserID      string  `json:"user_id" gorm:"index;not null"`
	DisplayName string  `json:"user_name"` // denormalized at submission time
	Score       int64   `json:"score"`
	SubmittedAt int64   `json:"timestamp"` // unix seconds
	RankKey     *string `json:"rank_key,omitempty" gorm:"index"`
}

// NewScoreRecord builds an immutable record for a validated submission,
// attaching a rank key when the score crosses the high-score threshold.
func NewScoreRecord(userID, displayName string, score int64) *ScoreRecord {
	now := time.Now().Unix()
	rec := &ScoreRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		DisplayName: displayName,
		Score:       score,
		SubmittedAt: now,
	}
	if key, ok := rank.ForScore(score, now).Key(); ok {
		rec.RankKey = &key
	}
	return rec
}

// Ranked reports whether the record participates in leaderboard ranking.
func (r *ScoreRecord) Ranked() bool {
	return r.RankKey != nil
}
