package lock

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_NilIsSafe(t *testing.T) {
	var l *Locker

	_, ok, err := l.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, ok)
	assert.NoError(t, l.Release(context.Background(), "k", "t"))
	assert.Nil(t, NewLocker(nil))
}

func TestLocker_ValidatesArguments(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	l := NewLocker(client)

	_, _, err := l.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, _, err = l.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	assert.NoError(t, l.Release(context.Background(), "k", ""))
}

func TestNewFromURL(t *testing.T) {
	l, client, err := NewFromURL("redis://localhost:6379/2")
	require.NoError(t, err)
	defer client.Close()
	assert.NotNil(t, l)
	assert.Equal(t, 2, client.Options().DB)

	_, _, err = NewFromURL("http://nope")
	assert.Error(t, err)
}
