package services

import (
	"context"
	"sync"

	"leaderboard-service/models"
)

// fakeTransport records deliveries and fails the addresses it is told to.
type fakeTransport struct {
	mu        sync.Mutex
	delivered map[string][][]byte
	failAddrs map[string]bool
	blockOn   map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		delivered: make(map[string][][]byte),
		failAddrs: make(map[string]bool),
		blockOn:   make(map[string]bool),
	}
}

func (f *fakeTransport) Send(ctx context.Context, channelAddress string, payload []byte) error {
	f.mu.Lock()
	fail := f.failAddrs[channelAddress]
	block := f.blockOn[channelAddress]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return &TransportError{ChannelAddress: channelAddress, Err: ctx.Err()}
	}
	if fail {
		return &TransportError{ChannelAddress: channelAddress, Err: context.DeadlineExceeded}
	}

	f.mu.Lock()
	f.delivered[channelAddress] = append(f.delivered[channelAddress], payload)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) deliveries(channelAddress string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delivered[channelAddress]
}

// memoryScoreStore implements ScoreStore over a slice, ordering leaders by
// rank key the same way the indexed query does.
type memoryScoreStore struct {
	mu       sync.Mutex
	records  []*models.ScoreRecord
	failSave error
}

func newMemoryScoreStore() *memoryScoreStore {
	return &memoryScoreStore{}
}

func (m *memoryScoreStore) Save(ctx context.Context, rec *models.ScoreRecord) error {
	if m.failSave != nil {
		return &StoreError{Op: "save score", Err: m.failSave}
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

func (m *memoryScoreStore) CurrentLeader(ctx context.Context) (*models.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var leader *models.ScoreRecord
	for _, rec := range m.records {
		if rec.RankKey == nil {
			continue
		}
		if leader == nil || *rec.RankKey < *leader.RankKey {
			leader = rec
		}
	}
	return leader, nil
}

// fakeIdentity resolves every credential to one identity, or rejects with
// the configured error.
type fakeIdentity struct {
	identity Identity
	err      error
}

func (f *fakeIdentity) Validate(ctx context.Context, credential string) (*Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := f.identity
	return &id, nil
}
