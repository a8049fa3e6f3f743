package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderboard-service/models"
	"leaderboard-service/rank"
)

func newTestSubmission(identity IdentityProvider, store ScoreStore, notifier Notifier) *SubmissionService {
	return NewSubmissionService(identity, store, notifier, time.Second, time.Second)
}

func aliceIdentity() *fakeIdentity {
	return &fakeIdentity{identity: Identity{UserID: "u1", DisplayName: "alice"}}
}

func TestSubmitRejectsOutOfRangeScore(t *testing.T) {
	store := newMemoryScoreStore()
	svc := newTestSubmission(aliceIdentity(), store, NewFanoutService(NewRegistryService(), newFakeTransport(), time.Second))

	for _, score := range []int64{rank.MinScore - 1, rank.MaxScore + 1} {
		_, err := svc.Submit(context.Background(), "token", score)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	}

	// Rejection happens before any side effect.
	leader, err := store.CurrentLeader(context.Background())
	require.NoError(t, err)
	assert.Nil(t, leader)
	assert.Empty(t, store.records)
}

func TestSubmitRejectsMissingCredential(t *testing.T) {
	svc := newTestSubmission(aliceIdentity(), newMemoryScoreStore(), NewFanoutService(NewRegistryService(), newFakeTransport(), time.Second))

	_, err := svc.Submit(context.Background(), "  ", 1500)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSubmitPreservesAuthErrorKind(t *testing.T) {
	for _, kind := range []AuthErrorKind{AuthExpired, AuthInvalid} {
		identity := &fakeIdentity{err: &AuthError{Kind: kind}}
		store := newMemoryScoreStore()
		svc := newTestSubmission(identity, store, NewFanoutService(NewRegistryService(), newFakeTransport(), time.Second))

		_, err := svc.Submit(context.Background(), "token", 1500)

		authErr, ok := IsAuthError(err)
		require.True(t, ok)
		assert.Equal(t, kind, authErr.Kind)
		assert.Empty(t, store.records)
	}
}

func TestSubmitStoreFailureIsTerminal(t *testing.T) {
	store := newMemoryScoreStore()
	store.failSave = errors.New("connection reset")

	reg := NewRegistryService()
	require.NoError(t, reg.OnConnect("u1", "c1"))
	transport := newFakeTransport()
	svc := newTestSubmission(aliceIdentity(), store, NewFanoutService(reg, transport, time.Second))

	_, err := svc.Submit(context.Background(), "token", 1500)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)

	// No notification for a score that was never recorded.
	assert.Empty(t, transport.deliveries("c1"))
}

func TestSubmitFanoutFailureDoesNotFailSubmission(t *testing.T) {
	store := newMemoryScoreStore()
	reg := NewRegistryService()
	require.NoError(t, reg.OnConnect("u1", "c1"))

	transport := newFakeTransport()
	transport.failAddrs["c1"] = true
	svc := newTestSubmission(aliceIdentity(), store, NewFanoutService(reg, transport, time.Second))

	rec, err := svc.Submit(context.Background(), "token", 1500)

	require.NoError(t, err)
	assert.True(t, rec.Ranked())
	assert.Len(t, store.records, 1)
}

// Submit 1500 for alice with one live channel: the record ranks, the
// leaderboard leader is alice, and the channel receives exactly one event
// carrying the score.
func TestSubmitHighScoreEndToEnd(t *testing.T) {
	store := newMemoryScoreStore()
	reg := NewRegistryService()
	require.NoError(t, reg.OnConnect("u1", "c1"))
	transport := newFakeTransport()
	svc := newTestSubmission(aliceIdentity(), store, NewFanoutService(reg, transport, time.Second))

	rec, err := svc.Submit(context.Background(), "token", 1500)
	require.NoError(t, err)
	require.NotNil(t, rec.RankKey)

	leader, err := store.CurrentLeader(context.Background())
	require.NoError(t, err)
	require.NotNil(t, leader)
	assert.Equal(t, "u1", leader.UserID)
	assert.Equal(t, "alice", leader.DisplayName)
	assert.Equal(t, int64(1500), leader.Score)

	payloads := transport.deliveries("c1")
	require.Len(t, payloads, 1)

	var msg struct {
		Message string                `json:"message"`
		Data    models.HighScoreEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payloads[0], &msg))
	assert.Equal(t, "realtime-update", msg.Message)
	assert.Equal(t, "alice", msg.Data.DisplayName)
	assert.Equal(t, int64(1500), msg.Data.Score)
	assert.Contains(t, msg.Data.Message, "1500")
}

// Submit 500, below the threshold: persisted without a rank key, leader
// unaffected, no push regardless of live channels.
func TestSubmitBelowThresholdSkipsNotification(t *testing.T) {
	store := newMemoryScoreStore()
	reg := NewRegistryService()
	require.NoError(t, reg.OnConnect("u2", "c1"))
	transport := newFakeTransport()

	identity := &fakeIdentity{identity: Identity{UserID: "u2", DisplayName: "bob"}}
	svc := newTestSubmission(identity, store, NewFanoutService(reg, transport, time.Second))

	rec, err := svc.Submit(context.Background(), "token", 500)
	require.NoError(t, err)

	assert.False(t, rec.Ranked())
	assert.Nil(t, rec.RankKey)

	leader, err := store.CurrentLeader(context.Background())
	require.NoError(t, err)
	assert.Nil(t, leader)

	assert.Empty(t, transport.deliveries("c1"))
}

// Leader stability over the store contract: max score wins; on a tie the
// earlier submission keeps the lead.
func TestLeaderStabilityAcrossSubmissions(t *testing.T) {
	store := newMemoryScoreStore()
	ctx := context.Background()

	scores := []int64{1200, 4000, 2500, 1000}
	base := time.Now().Unix()
	for i, score := range scores {
		rec := &models.ScoreRecord{
			ID: "r", UserID: "u", DisplayName: "p", Score: score, SubmittedAt: base + int64(i),
		}
		key := rank.Encode(score, rec.SubmittedAt)
		rec.RankKey = &key
		require.NoError(t, store.Save(ctx, rec))
	}

	leader, err := store.CurrentLeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), leader.Score)

	// A later tie on the maximum score does not displace the leader.
	tie := &models.ScoreRecord{ID: "tie", UserID: "u9", DisplayName: "late", Score: 4000, SubmittedAt: base + 100}
	key := rank.Encode(tie.Score, tie.SubmittedAt)
	tie.RankKey = &key
	require.NoError(t, store.Save(ctx, tie))

	leader, err = store.CurrentLeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u", leader.UserID)
}
