package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderboard-service/rank"
)

func TestNewScoreRecordAttachesRankKeyAtThreshold(t *testing.T) {
	rec := NewScoreRecord("u1", "alice", rank.HighScoreThreshold)

	require.NotNil(t, rec.RankKey)
	assert.True(t, rec.Ranked())
	assert.Equal(t, rank.Encode(rec.Score, rec.SubmittedAt), *rec.RankKey)
	assert.NotEmpty(t, rec.ID)
}

func TestNewScoreRecordBelowThresholdIsUnranked(t *testing.T) {
	rec := NewScoreRecord("u1", "alice", rank.HighScoreThreshold-1)

	assert.Nil(t, rec.RankKey)
	assert.False(t, rec.Ranked())
}

func TestHighScoreEventPayloadEnvelope(t *testing.T) {
	payload := HighScoreEvent{
		DisplayName: "alice",
		Score:       1500,
		Message:     "Congratulations! Your score of 1500 is over 1000!",
	}.Payload()

	var msg struct {
		Message string `json:"message"`
		Data    struct {
			UserName     string `json:"user_name"`
			Score        int64  `json:"score"`
			Notification string `json:"notification"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "realtime-update", msg.Message)
	assert.Equal(t, "alice", msg.Data.UserName)
	assert.Equal(t, int64(1500), msg.Data.Score)
	assert.Contains(t, msg.Data.Notification, "over 1000")
}
