// services/score_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"leaderboard-service/models"
)

// leaderCacheKey holds the serialized current leader in Redis. A save whose
// rank key sorts before the cached leader's key drops the entry.
const leaderCacheKey = "leaderboard:leader"

const leaderCacheTTL = 5 * time.Minute

// ScoreService persists score records and answers the current-leader
// lookup from the rank_key index. Records are append-only.
type ScoreService struct {
	DB    *gorm.DB
	Cache *redis.Client // optional; nil disables leader caching
}

func NewScoreService(db *gorm.DB, cache *redis.Client) *ScoreService {
	return &ScoreService{DB: db, Cache: cache}
}

// Save appends a record. The rank key was attached at construction time
// iff the score qualifies; no ranking state is recomputed afterwards.
// Failures surface as *StoreError and are not retried here.
func (s *ScoreService) Save(ctx context.Context, rec *models.ScoreRecord) error {
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return &StoreError{Op: "save score", Err: err}
	}
	if rec.RankKey != nil {
		s.maybeInvalidateLeader(ctx, *rec.RankKey)
	}
	return nil
}

// CurrentLeader returns the ranked record with the smallest rank key, or
// (nil, nil) when no record has ranked yet. The query reads the first row
// of the rank_key index ascending; it never scans the unranked population.
// A scan-and-sort over all records would answer the same question but
// degrades linearly with history, so it is deliberately not implemented.
func (s *ScoreService) CurrentLeader(ctx context.Context) (*models.ScoreRecord, error) {
	if cached := s.cachedLeader(ctx); cached != nil {
		return cached, nil
	}

	var rec models.ScoreRecord
	err := s.DB.WithContext(ctx).
		Where("rank_key IS NOT NULL").
		Order("rank_key ASC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // empty leaderboard is a success, not an error
	}
	if err != nil {
		return nil, &StoreError{Op: "leader query", Err: err}
	}

	s.cacheLeader(ctx, &rec)
	return &rec, nil
}

// TopScores returns the best ranked records in leaderboard order. Used by
// the snapshot worker.
func (s *ScoreService) TopScores(ctx context.Context, limit int) ([]models.ScoreRecord, error) {
	var recs []models.ScoreRecord
	err := s.DB.WithContext(ctx).
		Where("rank_key IS NOT NULL").
		Order("rank_key ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, &StoreError{Op: "top scores query", Err: err}
	}
	return recs, nil
}

// GetLeaderboardLeader handles GET /leaderboard. An empty leaderboard is a
// 200 with an empty object, never an error.
func (s *ScoreService) GetLeaderboardLeader(c *fiber.Ctx) error {
	leader, err := s.CurrentLeader(c.Context())
	if err != nil {
		log.Printf("❌ [LEADERBOARD] leader query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read leaderboard"})
	}
	if leader == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(fiber.Map{
		"user_id":   leader.UserID,
		"user_name": leader.DisplayName,
		"score":     leader.Score,
	})
}

func (s *ScoreService) cachedLeader(ctx context.Context) *models.ScoreRecord {
	if s.Cache == nil {
		return nil
	}
	raw, err := s.Cache.Get(ctx, leaderCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️  [LEADER_CACHE] read failed: %v", err)
		}
		return nil
	}
	var rec models.ScoreRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return &rec
}

func (s *ScoreService) cacheLeader(ctx context.Context, rec *models.ScoreRecord) {
	if s.Cache == nil {
		return
	}
	raw, _ := json.Marshal(rec)
	if err := s.Cache.Set(ctx, leaderCacheKey, raw, leaderCacheTTL).Err(); err != nil {
		log.Printf("⚠️  [LEADER_CACHE] write failed: %v", err)
	}
}

// maybeInvalidateLeader drops the cached leader when a newly ranked key
// sorts before it. Cache errors only cost a cache miss.
func (s *ScoreService) maybeInvalidateLeader(ctx context.Context, newKey string) {
	if s.Cache == nil {
		return
	}
	cached := s.cachedLeader(ctx)
	if cached == nil || cached.RankKey == nil || newKey < *cached.RankKey {
		if err := s.Cache.Del(ctx, leaderCacheKey).Err(); err != nil {
			log.Printf("⚠️  [LEADER_CACHE] invalidation failed: %v", err)
		}
	}
}
