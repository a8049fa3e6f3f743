package handlers

import (
	"github.com/gofiber/fiber/v2"

	"leaderboard-service/middleware"
	"leaderboard-service/services"
)

// SetupScoreRoutes wires the leaderboard surface.
func SetupScoreRoutes(
	app *fiber.App,
	submissionService *services.SubmissionService,
	scoreService *services.ScoreService,
	streamService *services.StreamService,
	authClient services.IdentityProvider,
) {
	// 🔓 Leaderboard read — no user context needed
	app.Get("/leaderboard", scoreService.GetLeaderboardLeader)

	// 🔐 Score submission — bearer credential resolved per request
	app.Post("/scores", submissionService.SubmitScore)

	// 🔐 Live push channel — EventSource auth via query token
	app.Get("/scores/stream", middleware.SSEAuthMiddleware(authClient), streamService.StreamScores)
}
