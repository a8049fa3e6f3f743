package services

import (
	"context"

	"leaderboard-service/models"
)

// Identity is the resolved caller of a submission.
type Identity struct {
	UserID      string
	DisplayName string
}

// IdentityProvider validates a bearer credential with the external auth
// service. Rejections come back as *AuthError with the kind preserved.
type IdentityProvider interface {
	Validate(ctx context.Context, credential string) (*Identity, error)
}

// ScoreStore owns score persistence and the current-leader lookup.
type ScoreStore interface {
	Save(ctx context.Context, rec *models.ScoreRecord) error
	CurrentLeader(ctx context.Context) (*models.ScoreRecord, error)
}

// ConnectionSource resolves the live channels fan-out delivers to.
type ConnectionSource interface {
	LiveChannelsFor(userID string) []string
}

// PushTransport delivers a payload to a single addressed channel. Addresses
// are opaque and transport-assigned.
type PushTransport interface {
	Send(ctx context.Context, channelAddress string, payload []byte) error
}

// Notifier pushes a high-score event to every live channel of a user.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, event models.HighScoreEvent) DeliveryReport
}
