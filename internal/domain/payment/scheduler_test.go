package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	released []string
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if l.held {
		return "", false, nil
	}
	l.held = true
	return "token-" + key, true, nil
}

func (l *fakeLocker) Release(_ context.Context, _ string, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.released = append(l.released, token)
	return nil
}

func TestScheduler_RunOnce(t *testing.T) {
	f := newFixture(t, Config{})
	locker := &fakeLocker{}
	s := NewScheduler(f.svc, locker)

	report, ran, err := s.RunOnce(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.NotNil(t, report)
	assert.Equal(t, []string{"token-" + reconcileLockKey}, locker.released)
	assert.False(t, locker.held)
}

func TestScheduler_RunOnceSkipsWhenLockHeld(t *testing.T) {
	f := newFixture(t, Config{})
	locker := &fakeLocker{held: true}
	s := NewScheduler(f.svc, locker)

	report, ran, err := s.RunOnce(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Nil(t, report)
	assert.Empty(t, locker.released)
}

func TestScheduler_RunOnceLockError(t *testing.T) {
	f := newFixture(t, Config{})
	s := NewScheduler(f.svc, &fakeLocker{err: errors.New("redis down")})

	_, ran, err := s.RunOnce(context.Background(), time.Minute)
	assert.Error(t, err)
	assert.False(t, ran)
}

func TestScheduler_RunOnceWithoutLocker(t *testing.T) {
	f := newFixture(t, Config{})
	s := NewScheduler(f.svc, nil)

	_, ran, err := s.RunOnce(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestScheduler_StartDisabled(t *testing.T) {
	f := newFixture(t, Config{})
	s := NewScheduler(f.svc, nil)
	assert.Nil(t, s.Start(context.Background(), SchedulerConfig{Enabled: false, Interval: time.Minute}))
}

func TestScheduler_StartAndStop(t *testing.T) {
	f := newFixture(t, Config{})
	s := NewScheduler(f.svc, nil)

	stop := s.Start(context.Background(), SchedulerConfig{Enabled: true, Interval: time.Hour})
	require.NotNil(t, stop)
	close(stop)
}
