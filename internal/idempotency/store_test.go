package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(ttl time.Duration) (*Store, *time.Time) {
	s := NewStore(ttl)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }
	return s, &now
}

func TestBegin_FirstClaimWins(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	rec, started := s.Begin("key-1")
	require.True(t, started)
	assert.Equal(t, StatusInProgress, rec.Status)

	rec, started = s.Begin("key-1")
	assert.False(t, started)
	assert.Equal(t, StatusInProgress, rec.Status)
}

func TestMarkDone_ReplaysResponse(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	_, started := s.Begin("key-1")
	require.True(t, started)
	s.MarkDone("key-1", 42, 201, []byte(`{"order":42}`))

	rec, started := s.Begin("key-1")
	require.False(t, started)
	assert.Equal(t, StatusDone, rec.Status)
	assert.Equal(t, 42, rec.OrderID)
	assert.Equal(t, 201, rec.ResponseStatus)
	assert.JSONEq(t, `{"order":42}`, string(rec.ResponseBody))
}

func TestRelease_AllowsRetry(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	_, started := s.Begin("key-1")
	require.True(t, started)
	s.Release("key-1")

	_, started = s.Begin("key-1")
	assert.True(t, started)
}

func TestExpiredRecordIsReclaimed(t *testing.T) {
	s, now := newTestStore(time.Hour)

	_, started := s.Begin("key-1")
	require.True(t, started)
	s.MarkDone("key-1", 42, 201, nil)

	*now = now.Add(2 * time.Hour)

	_, started = s.Begin("key-1")
	assert.True(t, started, "expired claims do not shield replays")
}

func TestSweep(t *testing.T) {
	s, now := newTestStore(time.Hour)

	s.Begin("old")
	*now = now.Add(2 * time.Hour)
	s.Begin("fresh")

	s.Sweep()

	s.mu.Lock()
	_, oldExists := s.records["old"]
	_, freshExists := s.records["fresh"]
	s.mu.Unlock()
	assert.False(t, oldExists)
	assert.True(t, freshExists)
}
