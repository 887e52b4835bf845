package retention

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/go-chat-push/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps messages per conversation; timestamps are epoch millis.
type memStore struct {
	convs      [][]domain.Conversation
	messages   map[string]map[string]int64
	listErr    error
	expiredErr map[string]error
	deleteErr  map[string]error
	// committed is how many keys a failing DeleteBatch removes before erroring.
	committed map[string]int
	deletes   int
}

func newMemStore(pageSize int, byConv map[string]map[string]int64) *memStore {
	ids := make([]string, 0, len(byConv))
	for id := range byConv {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	st := &memStore{messages: byConv, expiredErr: map[string]error{}, deleteErr: map[string]error{}, committed: map[string]int{}}
	for chunk := range slices.Chunk(ids, pageSize) {
		page := make([]domain.Conversation, 0, len(chunk))
		for _, id := range chunk {
			page = append(page, domain.Conversation{ConversationID: id})
		}
		st.convs = append(st.convs, page)
	}
	return st
}

func (m *memStore) ListConversations(ctx context.Context) iter.Seq2[[]domain.Conversation, error] {
	return func(yield func([]domain.Conversation, error) bool) {
		for _, p := range m.convs {
			if !yield(p, nil) {
				return
			}
		}
		if m.listErr != nil {
			yield(nil, m.listErr)
		}
	}
}

func (m *memStore) ListExpired(ctx context.Context, conversationID string, cutoff time.Time) ([]domain.MessageKey, error) {
	if err := m.expiredErr[conversationID]; err != nil {
		return nil, err
	}
	var keys []domain.MessageKey
	for msgID, ts := range m.messages[conversationID] {
		if ts < cutoff.UnixMilli() {
			keys = append(keys, domain.MessageKey{ConversationID: conversationID, MessageID: msgID})
		}
	}
	return keys, nil
}

func (m *memStore) DeleteBatch(ctx context.Context, conversationID string, keys []domain.MessageKey) (int, error) {
	m.deletes++
	err := m.deleteErr[conversationID]
	if err != nil {
		keys = keys[:min(m.committed[conversationID], len(keys))]
	}
	for _, k := range keys {
		delete(m.messages[conversationID], k.MessageID)
	}
	return len(keys), err
}

var now = time.Date(2026, 3, 31, 5, 0, 0, 0, time.UTC)

func daysAgo(d int) int64 {
	return now.Add(-time.Duration(d) * 24 * time.Hour).UnixMilli()
}

func fixture() map[string]map[string]int64 {
	return map[string]map[string]int64{
		"room-a": {"m1": daysAgo(31), "m2": daysAgo(29)},
		"room-b": {"m3": daysAgo(45), "m4": daysAgo(90), "m5": daysAgo(1)},
		"room-c": {"m6": daysAgo(2)},
	}
}

func TestSweep_DeletesOnlyExpired(t *testing.T) {
	st := newMemStore(2, fixture())
	svc := NewService(st, 0)

	res, err := svc.Sweep(context.Background(), DefaultWindow, now)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Containers)
	assert.Equal(t, 3, res.Deleted)
	assert.Equal(t, 0, res.FailedContainers)
	assert.Len(t, st.messages["room-a"], 1)
	assert.Contains(t, st.messages["room-a"], "m2")
	assert.Len(t, st.messages["room-b"], 1)
	assert.Len(t, st.messages["room-c"], 1)
	// room-c has nothing expired, no delete is issued for it
	assert.Equal(t, 2, st.deletes)
}

func TestSweep_CutoffIsExclusive(t *testing.T) {
	st := newMemStore(10, map[string]map[string]int64{
		"room": {"edge": daysAgo(30), "older": daysAgo(30) - 1},
	})

	res, err := NewService(st, 0).Sweep(context.Background(), DefaultWindow, now)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Contains(t, st.messages["room"], "edge")
}

func TestSweep_Idempotent(t *testing.T) {
	st := newMemStore(2, fixture())
	svc := NewService(st, 0)

	first, err := svc.Sweep(context.Background(), DefaultWindow, now)
	require.NoError(t, err)
	second, err := svc.Sweep(context.Background(), DefaultWindow, now)
	require.NoError(t, err)

	assert.Equal(t, 3, first.Deleted)
	assert.Equal(t, 0, second.Deleted)
	assert.Equal(t, first.Containers, second.Containers)
}

func TestSweep_ContainerFailureContinues(t *testing.T) {
	st := newMemStore(1, fixture())
	st.deleteErr["room-a"] = errors.New("transaction cancelled")
	st.expiredErr["room-c"] = errors.New("query throttled")

	res, err := NewService(st, 0).Sweep(context.Background(), DefaultWindow, now)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Containers)
	assert.Equal(t, 2, res.FailedContainers)
	assert.Equal(t, 2, res.Deleted)
	// failed container is untouched
	assert.Len(t, st.messages["room-a"], 2)
	assert.Len(t, st.messages["room-b"], 1)
}

func TestSweep_PartialDeleteIsCounted(t *testing.T) {
	st := newMemStore(2, fixture())
	st.deleteErr["room-b"] = errors.New("second transaction cancelled")
	st.committed["room-b"] = 1

	res, err := NewService(st, 0).Sweep(context.Background(), DefaultWindow, now)

	require.NoError(t, err)
	assert.Equal(t, 1, res.FailedContainers)
	assert.Equal(t, 2, res.Deleted)
	assert.Len(t, st.messages["room-b"], 2)
}

func TestSweep_EnumerationFailure(t *testing.T) {
	st := newMemStore(2, fixture())
	st.listErr = errors.New("scan failed")

	res, err := NewService(st, 0).Sweep(context.Background(), DefaultWindow, now)

	require.Error(t, err)
	assert.ErrorContains(t, err, "scan failed")
	// pages yielded before the failure were still swept
	assert.Equal(t, 3, res.Containers)
}

func TestSweep_NoConversations(t *testing.T) {
	st := newMemStore(2, map[string]map[string]int64{})

	res, err := NewService(st, 0).Sweep(context.Background(), DefaultWindow, now)

	require.NoError(t, err)
	assert.Zero(t, res.Containers)
	assert.Zero(t, res.Deleted)
}

func TestSweep_StopsOnCancelledContext(t *testing.T) {
	st := newMemStore(1, fixture())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewService(st, 0).Sweep(ctx, DefaultWindow, now)

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Containers)
	assert.Zero(t, st.deletes)
}

func TestRunScheduled_UsesConfiguredWindow(t *testing.T) {
	st := newMemStore(5, fixture())
	svc := &service{store: st, window: 40 * 24 * time.Hour, now: func() time.Time { return now }}

	svc.RunScheduled(context.Background())

	// only m3 (45d) and m4 (90d) are older than 40 days
	assert.Len(t, st.messages["room-a"], 2)
	assert.Len(t, st.messages["room-b"], 1)
}

func TestNewService_DefaultWindow(t *testing.T) {
	svc := NewService(newMemStore(1, nil), -time.Hour).(*service)
	assert.Equal(t, DefaultWindow, svc.window)
}
