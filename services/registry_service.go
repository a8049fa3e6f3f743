// services/registry_service.go
package services

import (
	"log"
	"sync"
	"time"

	"leaderboard-service/models"
)

// RegistryService is the authoritative map of user → live channel
// addresses. Channel addresses are handles to streams owned by this
// process, so the registry is in-process: records live in maps guarded by
// one mutex, with the address map serving as the primary key and a
// per-user set as the secondary index (disconnect events carry only the
// address).
//
// Disconnect never deletes: the record stays with IsConnected=false for
// last-seen auditability. SweepClosed prunes old closed records, but no
// behavior depends on that pruning.
type RegistryService struct {
	mu        sync.Mutex
	byAddress map[string]*models.ConnectionRecord
	byUser    map[string]map[string]struct{}
}

func NewRegistryService() *RegistryService {
	return &RegistryService{
		byAddress: make(map[string]*models.ConnectionRecord),
		byUser:    make(map[string]map[string]struct{}),
	}
}

// OnConnect records a live channel for an already-authenticated user.
// Connecting twice with the same address is idempotent: one live record,
// last write wins on LastSeen. A connect over a closed record of the same
// address starts a fresh lifecycle instance.
func (r *RegistryService) OnConnect(userID, channelAddress string) error {
	if userID == "" {
		return &ValidationError{Reason: "user id must not be empty"}
	}
	if channelAddress == "" {
		return &ValidationError{Reason: "channel address must not be empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byAddress[channelAddress]; ok && prev.UserID != userID {
		// Transport reassigned the address; detach it from the old owner.
		r.detachLocked(prev.UserID, channelAddress)
	}

	r.byAddress[channelAddress] = &models.ConnectionRecord{
		UserID:         userID,
		ChannelAddress: channelAddress,
		IsConnected:    true,
		LastSeen:       time.Now(),
	}
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]struct{})
	}
	r.byUser[userID][channelAddress] = struct{}{}
	return nil
}

// OnDisconnect closes the record owning the address. The transport's
// disconnect event carries no user id, so lookup is by address alone.
// An unknown address returns ErrChannelNotFound; callers treat that as a
// no-op since the transport-level close already happened.
func (r *RegistryService) OnDisconnect(channelAddress string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byAddress[channelAddress]
	if !ok || !rec.IsConnected {
		return ErrChannelNotFound
	}

	rec.IsConnected = false
	rec.LastSeen = time.Now()
	delete(r.byUser[rec.UserID], channelAddress)
	return nil
}

// LiveChannelsFor returns the addresses of every live channel the user
// holds, in no particular order. Empty when the user has none.
func (r *RegistryService) LiveChannelsFor(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	addrs := make([]string, 0, len(r.byUser[userID]))
	for addr := range r.byUser[userID] {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Record returns a copy of the record owning the address, if any.
func (r *RegistryService) Record(channelAddress string) (models.ConnectionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byAddress[channelAddress]
	if !ok {
		return models.ConnectionRecord{}, false
	}
	return *rec, true
}

// SweepClosed prunes records that disconnected more than olderThan ago and
// returns how many were removed.
func (r *RegistryService) SweepClosed(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for addr, rec := range r.byAddress {
		if !rec.IsConnected && rec.LastSeen.Before(cutoff) {
			r.detachLocked(rec.UserID, addr)
			delete(r.byAddress, addr)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 [REGISTRY] swept %d closed connection records", removed)
	}
	return removed
}

func (r *RegistryService) detachLocked(userID, channelAddress string) {
	if set, ok := r.byUser[userID]; ok {
		delete(set, channelAddress)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}
