package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	audit "conforma/pkg/platform/audit"
	"conforma/pkg/platform/audit/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	event := audit.Event{
		Subject: "K123456H001",
		Action:  string(audit.EventEvaluationCompleted),
		Verdict: "conformant",
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "K123456H001")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventEvaluationCompleted), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	event := audit.Event{
		Subject: "K123456H001",
		Action:  string(audit.EventRunViewed),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	// Wait for the drain loop to flush the buffer
	require.Eventually(t, func() bool {
		events, err := pub.List(context.Background(), "K123456H001")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := pub.List(context.Background(), "K123456H001")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventRunViewed), events[0].Action)
}

func TestPublisher_ComplianceStaysSynchronous(t *testing.T) {
	store := &failingStore{}
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	event := audit.Event{
		Subject: "K123456H001",
		Action:  string(audit.EventEvaluationCompleted),
	}

	// A compliance event must surface the store failure to the caller
	// even when buffering is enabled.
	err := pub.Emit(context.Background(), event)
	require.Error(t, err)
}

func TestPublisher_RequiresAction(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Subject: "K123456H001"})
	require.Error(t, err)
}

func TestPublisher_CloseFlushesBuffer(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for i := 0; i < 5; i++ {
		err := pub.Emit(context.Background(), audit.Event{
			Subject: "K777777H001",
			Action:  string(audit.EventRunsListed),
		})
		require.NoError(t, err)
	}

	require.NoError(t, pub.Close())

	events, err := store.ListBySubject(context.Background(), "K777777H001")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

type failingStore struct {
	mu sync.Mutex
}

func (s *failingStore) Append(context.Context, audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.New("store unavailable")
}

func (s *failingStore) ListBySubject(context.Context, string) ([]audit.Event, error) {
	return nil, nil
}

func (s *failingStore) ListRecent(context.Context, int) ([]audit.Event, error) {
	return nil, nil
}
