// services/submission_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"leaderboard-service/models"
	"leaderboard-service/rank"
)

// submissionState tracks one submission through its lifecycle. Failure is
// absorbing: a submission that enters stateFailed never advances.
type submissionState string

const (
	stateValidated         submissionState = "validated"
	stateIdentityResolved  submissionState = "identity_resolved"
	statePersisted         submissionState = "persisted"
	stateNotifiedOrSkipped submissionState = "notified_or_skipped"
	stateCompleted         submissionState = "completed"
	stateFailed            submissionState = "failed"
)

// SubmissionService coordinates a score submission: validate the input,
// resolve the caller with the identity provider, persist the record, and —
// when the score crosses the high-score threshold — fan the event out to
// the user's live channels.
type SubmissionService struct {
	Identity     IdentityProvider
	Store        ScoreStore
	Notifier     Notifier
	AuthTimeout  time.Duration
	StoreTimeout time.Duration
}

func NewSubmissionService(identity IdentityProvider, store ScoreStore, notifier Notifier, authTimeout, storeTimeout time.Duration) *SubmissionService {
	return &SubmissionService{
		Identity:     identity,
		Store:        store,
		Notifier:     notifier,
		AuthTimeout:  authTimeout,
		StoreTimeout: storeTimeout,
	}
}

// Submit runs one submission through the state machine. Validation and
// identity rejections happen before any side effect; a store failure is
// terminal; a fan-out failure is not — the score is already durable.
func (s *SubmissionService) Submit(ctx context.Context, credential string, score int64) (*models.ScoreRecord, error) {
	state := stateFailed

	if err := validateSubmission(credential, score); err != nil {
		return nil, err
	}
	state = stateValidated

	authCtx, cancel := context.WithTimeout(ctx, s.AuthTimeout)
	defer cancel()
	identity, err := s.Identity.Validate(authCtx, credential)
	if err != nil {
		if authCtx.Err() != nil && !errors.Is(err, context.Canceled) {
			// A timed-out identity check is a failed check, never success.
			log.Printf("⚠️  [SUBMIT] identity check timed out at state %s", state)
		}
		return nil, err
	}
	state = stateIdentityResolved

	rec := models.NewScoreRecord(identity.UserID, identity.DisplayName, score)

	storeCtx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	if err := s.Store.Save(storeCtx, rec); err != nil {
		log.Printf("❌ [SUBMIT] persist failed for user %s at state %s: %v", identity.UserID, state, err)
		return nil, err
	}
	state = statePersisted

	if rec.Ranked() {
		event := models.HighScoreEvent{
			DisplayName: identity.DisplayName,
			Score:       score,
			Message:     fmt.Sprintf("Congratulations! Your score of %d is over %d!", score, rank.HighScoreThreshold),
		}
		report := s.Notifier.NotifyUser(ctx, identity.UserID, event)
		log.Printf("📣 [SUBMIT] user %s notified on %d/%d channels", identity.UserID, report.Succeeded, report.Attempted)
	}
	state = stateNotifiedOrSkipped

	state = stateCompleted
	log.Printf("✅ [SUBMIT] user %s score %d %s (ranked=%t)", identity.UserID, score, state, rec.Ranked())
	return rec, nil
}

func validateSubmission(credential string, score int64) error {
	if strings.TrimSpace(credential) == "" {
		return &ValidationError{Reason: "Authorization token is required"}
	}
	if score < rank.MinScore || score > rank.MaxScore {
		return &ValidationError{
			Reason: fmt.Sprintf("Score must be between %d and %d", rank.MinScore, rank.MaxScore),
		}
	}
	return nil
}

// SubmitScore handles POST /scores. Per-channel delivery detail never
// reaches the submitter; it is logged inside fan-out instead.
func (s *SubmissionService) SubmitScore(c *fiber.Ctx) error {
	var req struct {
		Score *int64 `json:"score"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Score == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Score field is required"})
	}

	credential := bearerToken(c.Get("Authorization"))

	_, err := s.Submit(c.Context(), credential, *req.Score)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Reason})
		}
		if authErr, ok := IsAuthError(err); ok {
			// Expired carries a distinct hint so clients re-authenticate
			// instead of retrying with different data.
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": authErr.Error(),
				"hint":  string(authErr.Kind),
			})
		}
		log.Printf("❌ [SUBMIT] submission failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record score"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Score submitted successfully!"})
}

func bearerToken(header string) string {
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return strings.TrimSpace(token)
}
