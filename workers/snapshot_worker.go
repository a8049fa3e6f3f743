// workers/snapshot_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"

	"leaderboard-service/models"
	"leaderboard-service/utils"
)

// TopScoreSource is implemented by the score service.
type TopScoreSource interface {
	TopScores(ctx context.Context, limit int) ([]models.ScoreRecord, error)
}

// SnapshotWorker periodically publishes the ranked top of the leaderboard
// to R2 as a JSON object, keyed by date and the leader's display name.
type SnapshotWorker struct {
	Scores   TopScoreSource
	Interval time.Duration
	TopN     int
}

func NewSnapshotWorker(scores TopScoreSource, interval time.Duration, topN int) *SnapshotWorker {
	return &SnapshotWorker{Scores: scores, Interval: interval, TopN: topN}
}

type snapshot struct {
	TakenAt time.Time            `json:"taken_at"`
	Entries []models.ScoreRecord `json:"entries"`
}

// Start schedules the snapshot job.
func (w *SnapshotWorker) Start() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(w.Interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := w.publish(ctx); err != nil {
				log.Printf("[Snapshot] %v", err)
			}
		}),
	)
}

func (w *SnapshotWorker) publish(ctx context.Context) error {
	entries, err := w.Scores.TopScores(ctx, w.TopN)
	if err != nil {
		return fmt.Errorf("top scores query failed: %w", err)
	}
	if len(entries) == 0 {
		// Nothing ranked yet; skip the upload instead of publishing an
		// empty board.
		return nil
	}

	now := time.Now().UTC()
	payload, err := json.Marshal(snapshot{TakenAt: now, Entries: entries})
	if err != nil {
		return fmt.Errorf("snapshot marshal failed: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s/%s.json", now.Format("2006-01-02"), slug.Make(entries[0].DisplayName))
	if err := utils.UploadBytesToR2(ctx, key, payload, "application/json"); err != nil {
		return err
	}

	log.Printf("✅ [Snapshot] published %d entries to %s", len(entries), key)
	return nil
}
