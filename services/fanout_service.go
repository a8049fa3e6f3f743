// services/fanout_service.go
package services

import (
	"context"
	"log"
	"sync"
	"time"

	"leaderboard-service/models"
)

// DeliveryReport aggregates per-channel outcomes of one fan-out. Failures
// are observability data, never submission errors.
type DeliveryReport struct {
	Attempted       int
	Succeeded       int
	Failed          int
	FailedAddresses []string
}

// FanoutService pushes a high-score event to every live channel a user
// holds. Deliveries run concurrently, one attempt per channel, no retries;
// a failed channel never blocks or aborts its siblings and never touches
// the registry — only an explicit disconnect event closes a channel.
type FanoutService struct {
	Registry        ConnectionSource
	Transport       PushTransport
	DeliveryTimeout time.Duration
}

func NewFanoutService(registry ConnectionSource, transport PushTransport, deliveryTimeout time.Duration) *FanoutService {
	return &FanoutService{
		Registry:        registry,
		Transport:       transport,
		DeliveryTimeout: deliveryTimeout,
	}
}

// NotifyUser delivers the event to each of the user's live channels. A user
// with no live channel gets a zero-attempt report; the score itself is
// already durably recorded by then.
func (f *FanoutService) NotifyUser(ctx context.Context, userID string, event models.HighScoreEvent) DeliveryReport {
	channels := f.Registry.LiveChannelsFor(userID)
	report := DeliveryReport{Attempted: len(channels)}
	if len(channels) == 0 {
		return report
	}

	payload := event.Payload()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, addr := range channels {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()

			// Per-channel timeout so one stalled client cannot hold up
			// the rest of the fan-out.
			sendCtx, cancel := context.WithTimeout(ctx, f.DeliveryTimeout)
			defer cancel()

			if err := f.Transport.Send(sendCtx, addr, payload); err != nil {
				log.Printf("⚠️  [FANOUT] delivery failed for user %s: %v", userID, err)
				mu.Lock()
				failed = append(failed, addr)
				mu.Unlock()
			}
		}(addr)
	}
	wg.Wait()

	report.Failed = len(failed)
	report.Succeeded = report.Attempted - report.Failed
	report.FailedAddresses = failed

	if report.Failed > 0 {
		log.Printf("⚠️  [FANOUT] user %s: %d/%d channels failed", userID, report.Failed, report.Attempted)
	}
	return report
}
