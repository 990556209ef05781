package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	return New(WithClock(clock.Now)), clock
}

func TestStore_SetGet(t *testing.T) {
	s := New()
	key := "test_key"
	val := "test_val"

	if err := s.Set(key, val); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, found, err := s.Get(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("expected key %s to be found", key)
	}
	if got != val {
		t.Errorf("expected value %s, got %s", val, got)
	}
}

func TestStore_SetOverwritesLastValue(t *testing.T) {
	s := New()
	for _, v := range []string{"1", "2", "3"} {
		require.NoError(t, s.Set("k", v))
	}
	got, found, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "3", got)
}

func TestStore_GetMissing(t *testing.T) {
	s := New()
	_, found, err := s.Get("nosuch")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStore_WrongType(t *testing.T) {
	s := New()
	_, err := s.RPush("l", "x")
	require.NoError(t, err)
	require.NoError(t, s.Set("s", "v"))

	assert.ErrorIs(t, s.Set("l", "v"), ErrWrongType)
	_, _, err = s.Get("l")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = s.RPush("s", "x")
	assert.ErrorIs(t, err, ErrWrongType)
	_, err = s.Len("s")
	assert.ErrorIs(t, err, ErrWrongType)
	_, _, err = s.LPop("s")
	assert.ErrorIs(t, err, ErrWrongType)
	_, err = s.Range("s", 0, 1)
	assert.ErrorIs(t, err, ErrWrongType)

	// failed calls leave the store usable and unchanged
	got, found, err := s.Get("s")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", got)
}

func TestStore_SetAfterDeleteChangesType(t *testing.T) {
	s := New()
	_, err := s.RPush("k", "a")
	require.NoError(t, err)
	assert.True(t, s.Delete("k"))
	assert.NoError(t, s.Set("k", "v"))
}

func TestStore_ListOps(t *testing.T) {
	s := New()

	n, err := s.Len("l")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.RPush("l", "x", "y")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.RPush("l", "z")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	head, found, err := s.LPop("l")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "x", head)

	n, err = s.Len("l")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _, _ = s.LPop("l")
	_, _, _ = s.LPop("l")
	_, found, err = s.LPop("l")
	require.NoError(t, err)
	assert.False(t, found, "pop on an empty list yields nil")

	_, found, err = s.LPop("nosuch")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Range(t *testing.T) {
	s := New()
	_, err := s.RPush("l", "x", "y", "z")
	require.NoError(t, err)

	tests := []struct {
		name        string
		key         string
		start, stop int
		want        []string
		wantErr     error
	}{
		{name: "whole list", key: "l", start: 0, stop: 2, want: []string{"x", "y", "z"}},
		{name: "stop clamped", key: "l", start: 1, stop: 50, want: []string{"y", "z"}},
		{name: "single element", key: "l", start: 2, stop: 2, want: []string{"z"}},
		{name: "absent key", key: "nosuch", start: 0, stop: 1, want: nil},
		{name: "negative start", key: "l", start: -1, stop: 1, wantErr: ErrIndexOutOfRange},
		{name: "negative stop", key: "l", start: 0, stop: -1, wantErr: ErrIndexOutOfRange},
		{name: "negative on absent key", key: "nosuch", start: -1, stop: 1, wantErr: ErrIndexOutOfRange},
		{name: "start past end", key: "l", start: 3, stop: 5, wantErr: ErrIndexOutOfRange},
		{name: "inverted", key: "l", start: 2, stop: 1, wantErr: ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Range(tt.key, tt.start, tt.stop)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_RangeClampsStop(t *testing.T) {
	s := New()
	_, err := s.RPush("l", "x", "y")
	require.NoError(t, err)

	got, err := s.Range("l", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)
}

func TestStore_KeysInsertionOrder(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("b", "1"))
	require.NoError(t, s.Set("a", "1"))
	_, err := s.RPush("c", "x")
	require.NoError(t, err)
	require.NoError(t, s.Set("b", "2")) // overwrite keeps position

	assert.Equal(t, []string{"b", "a", "c"}, s.Keys())

	s.Delete("b")
	require.NoError(t, s.Set("b", "3"))
	assert.Equal(t, []string{"a", "c", "b"}, s.Keys())
}

func TestStore_Delete(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("key", "val"))
	if !s.Delete("key") {
		t.Fatal("expected delete of a live key to report true")
	}
	if s.Delete("key") {
		t.Fatal("expected second delete to report false")
	}
	_, found, _ := s.Get("key")
	if found {
		t.Fatal("key should have been deleted")
	}
}

func TestStore_Flush(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("a", "1"))
	_, err := s.RPush("b", "x")
	require.NoError(t, err)

	s.Flush()
	assert.Empty(t, s.Keys())
	assert.False(t, s.Exists("a"))
	require.NoError(t, s.Set("a", "again"))
	assert.Equal(t, []string{"a"}, s.Keys())
}

func TestStore_ExpireAndTTL(t *testing.T) {
	s, clock := newTestStore()

	require.NoError(t, s.Set("k", "v"))
	assert.Equal(t, -1, s.TTL("k"))
	assert.Equal(t, -2, s.TTL("nosuch"))

	remaining, installed, err := s.Expire("k", 10)
	require.NoError(t, err)
	assert.True(t, installed)
	assert.Equal(t, 10, remaining)

	ttl := s.TTL("k")
	assert.GreaterOrEqual(t, ttl, 0)
	assert.LessOrEqual(t, ttl, 10)

	clock.Advance(4 * time.Second)
	remaining, installed, err = s.Expire("k", 100)
	require.NoError(t, err)
	assert.False(t, installed, "expiration is set once")
	assert.Equal(t, 6, remaining)

	clock.Advance(7 * time.Second)
	assert.Equal(t, -2, s.TTL("k"))
	_, found, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_ExpireMissingKey(t *testing.T) {
	s := New()
	_, _, err := s.Expire("nosuch", 10)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.EqualError(t, err, "Key 'nosuch' does not exist")
}

func TestStore_ExpireHugeTTLIsCapped(t *testing.T) {
	s, clock := newTestStore()
	require.NoError(t, s.Set("k", "v"))

	remaining, installed, err := s.Expire("k", 10_000_000_000)
	require.NoError(t, err)
	assert.True(t, installed)
	assert.Equal(t, int(maxExpireSeconds), remaining)

	clock.Advance(24 * time.Hour)
	assert.Greater(t, s.TTL("k"), 0)
	val, found, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, found, "key must survive a huge expiration")
	assert.Equal(t, "v", val)
}

func TestStore_RangeErrorText(t *testing.T) {
	s := New()
	_, err := s.RPush("l", "a", "b")
	require.NoError(t, err)

	_, err = s.Range("l", -3, -1)
	assert.EqualError(t, err, "Negative indices are not allowed")
	_, err = s.Range("l", 5, 6)
	assert.EqualError(t, err, "Start index 5 is out of bounds for list 'l' of length 2")
	_, err = s.Range("l", 1, 0)
	assert.EqualError(t, err, "Start index 1 cannot be greater than stop index 0")
}

func TestStore_SetClearsExpiration(t *testing.T) {
	s, clock := newTestStore()
	require.NoError(t, s.Set("k", "v"))
	_, _, err := s.Expire("k", 5)
	require.NoError(t, err)

	require.NoError(t, s.Set("k", "v2"))
	assert.Equal(t, -1, s.TTL("k"))

	clock.Advance(time.Minute)
	got, found, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", got)
}

func TestStore_ExpiredKeyAllowsTypeChange(t *testing.T) {
	s, clock := newTestStore()
	require.NoError(t, s.Set("k", "v"))
	_, _, err := s.Expire("k", 1)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	n, err := s.RPush("k", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_KeysPurgesExpired(t *testing.T) {
	s, clock := newTestStore()
	require.NoError(t, s.Set("short", "v"))
	require.NoError(t, s.Set("long", "v"))
	require.NoError(t, s.Set("forever", "v"))
	_, _, _ = s.Expire("short", 1)
	_, _, _ = s.Expire("long", 100)

	clock.Advance(2 * time.Second)
	assert.Equal(t, []string{"long", "forever"}, s.Keys())

	clock.Advance(200 * time.Second)
	assert.Equal(t, []string{"forever"}, s.Keys())
}
