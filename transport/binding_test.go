package transport

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingSharesOneConnection(t *testing.T) {
	s := newSocketServer(t)
	b := NewWebsocketBinding(s.url(), DefaultOptions(), zerolog.Nop())
	ctx := context.Background()

	first, err := b.Acquire(ctx)
	require.NoError(t, err)
	second, err := b.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 2, b.Refs())
	assert.True(t, b.Connected())
	assert.Equal(t, int32(1), s.accepted.Load())

	require.NoError(t, b.Release())
	assert.True(t, b.Connected())

	require.NoError(t, b.Release())
	assert.False(t, b.Connected())
	assert.Equal(t, 0, b.Refs())

	select {
	case <-first.(*Conn).Done():
	case <-time.After(time.Second):
		t.Fatal("connection not closed after last release")
	}

	assert.ErrorIs(t, b.Release(), ErrNotAcquired)
}

func TestBindingRedialsAfterLastRelease(t *testing.T) {
	s := newSocketServer(t)
	b := NewWebsocketBinding(s.url(), DefaultOptions(), zerolog.Nop())
	ctx := context.Background()

	_, err := b.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Release())

	_, err = b.Acquire(ctx)
	require.NoError(t, err)
	defer b.Release()

	require.Eventually(t, func() bool { return s.accepted.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestBindingDialError(t *testing.T) {
	b := NewBinding(func(context.Context) (*Conn, error) {
		return nil, errors.New("refused")
	}, zerolog.Nop())

	_, err := b.Acquire(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, b.Refs())
	assert.False(t, b.Connected())
}
