// services/push_hub.go
package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// streamBuffer is the per-channel payload backlog. A client that stalls
// past the buffer plus the sender's timeout loses that delivery attempt;
// only an explicit disconnect closes the channel.
const streamBuffer = 16

const keepaliveInterval = 15 * time.Second

// PushHub is the push transport: it assigns opaque channel addresses to
// live SSE streams and delivers payloads to a single address. The hub only
// moves bytes; who owns which channel is the registry's concern.
type PushHub struct {
	mu      sync.Mutex
	streams map[string]chan []byte
}

func NewPushHub() *PushHub {
	return &PushHub{streams: make(map[string]chan []byte)}
}

// Bind allocates a fresh channel address for a new stream.
func (h *PushHub) Bind() (string, <-chan []byte) {
	addr := uuid.NewString()
	events := make(chan []byte, streamBuffer)

	h.mu.Lock()
	h.streams[addr] = events
	h.mu.Unlock()

	return addr, events
}

// Unbind releases the address. Pending payloads are dropped; delivery is
// best-effort once the stream is gone.
func (h *PushHub) Unbind(channelAddress string) {
	h.mu.Lock()
	delete(h.streams, channelAddress)
	h.mu.Unlock()
}

// Send queues a payload for one addressed channel. It fails when the
// address is unbound or the client's backlog stays full until ctx expires.
func (h *PushHub) Send(ctx context.Context, channelAddress string, payload []byte) error {
	h.mu.Lock()
	events, ok := h.streams[channelAddress]
	h.mu.Unlock()

	if !ok {
		return &TransportError{ChannelAddress: channelAddress, Err: errors.New("channel not bound")}
	}

	select {
	case events <- payload:
		return nil
	case <-ctx.Done():
		return &TransportError{ChannelAddress: channelAddress, Err: ctx.Err()}
	}
}

// StreamService serves the SSE surface: each stream binds a hub channel,
// registers it for the authenticated user, and streams pushed events until
// the client goes away.
type StreamService struct {
	Hub      *PushHub
	Registry *RegistryService
}

func NewStreamService(hub *PushHub, registry *RegistryService) *StreamService {
	return &StreamService{Hub: hub, Registry: registry}
}

// StreamScores handles GET /scores/stream for a user authenticated by the
// SSE middleware.
func (s *StreamService) StreamScores(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	addr, events := s.Hub.Bind()
	if err := s.Registry.OnConnect(userID, addr); err != nil {
		s.Hub.Unbind(addr)
		log.Printf("❌ [STREAM] connect rejected for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "connection failed"})
	}
	log.Printf("🔌 [STREAM] user %s connected on channel %s", userID, addr)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ctx := c.Context()

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.teardown(userID, addr)

		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case payload := <-events:
				fmt.Fprintf(w, "event: high-score\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}
			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}

// teardown runs when a stream ends for any reason. A registry miss is
// logged and swallowed; the stream is already gone either way.
func (s *StreamService) teardown(userID, addr string) {
	s.Hub.Unbind(addr)
	if err := s.Registry.OnDisconnect(addr); err != nil {
		log.Printf("⚠️  [STREAM] disconnect for unknown channel %s: %v", addr, err)
		return
	}
	log.Printf("🔌 [STREAM] user %s disconnected from channel %s", userID, addr)
}
