package session

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerolease/internal/booking"
	"aerolease/internal/calendar"
)

func sampleSession(id string) *booking.Session {
	start := civil.Date{Year: 2026, Month: 6, Day: 8}
	end := civil.Date{Year: 2026, Month: 6, Day: 10}
	started := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return &booking.Session{
		ID:         id,
		Step:       booking.StepDates,
		AircraftID: "DHC6-400-MSN925",
		LeaseType:  booking.LeaseWet,
		Calendar: calendar.Snapshot{
			View:      calendar.Month{Year: 2026, Month: time.June},
			Selection: calendar.Selection{Start: &start, End: &end},
		},
		StartedAt: started,
		UpdatedAt: started,
	}
}

// storeContract runs the behaviour every booking.Store must share.
func storeContract(t *testing.T, store booking.Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, booking.ErrSessionNotFound)

	s := sampleSession("s1")
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	// Stored copies are detached from the caller.
	*got.Calendar.Selection.Start = civil.Date{Year: 2030, Month: 1, Day: 1}
	got.Step = booking.StepContact
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s, again)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, booking.ErrSessionNotFound)
	require.NoError(t, store.Delete(ctx, "s1"), "deleting twice is fine")
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Minute))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Minute)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession("old")))
	now = now.Add(5 * time.Minute)
	require.NoError(t, store.Save(ctx, sampleSession("new")))

	now = now.Add(6 * time.Minute)
	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, booking.ErrSessionNotFound)
	_, err = store.Get(ctx, "new")
	assert.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Minute, NewMemoryStore(0).timeout)
}

func TestMemoryStore_RunCleanup(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(context.Background(), sampleSession("s1")))
	now = now.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	removed := make(chan int, 1)
	go store.RunCleanup(ctx, 5*time.Millisecond, func(n int) {
		select {
		case removed <- n:
		default:
		}
	})
	defer cancel()

	select {
	case n := <-removed:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup did not run")
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	storeContract(t, store)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newRedisStore(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSession("s1")))
	assert.True(t, mr.Exists(KeyPrefix+"s1"))
	assert.Equal(t, 10*time.Minute, mr.TTL(KeyPrefix+"s1"))

	mr.FastForward(11 * time.Minute)
	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, booking.ErrSessionNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	require.NoError(t, mr.Set(KeyPrefix+"bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, booking.ErrSessionNotFound)
	assert.Contains(t, err.Error(), "decode session bad")
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client, time.Minute)
	mr.Close()

	_, err = store.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, booking.ErrSessionNotFound)
	assert.Error(t, store.Ping(context.Background()))
}
