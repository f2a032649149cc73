package transport

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrNotAcquired is returned by Release without a matching Acquire
var ErrNotAcquired = errors.New("binding not acquired")

// DialFunc opens a new connection
type DialFunc func(ctx context.Context) (*Conn, error)

// Binding owns the single physical connection shared by every chat room.
// It is dialed on the first Acquire and closed on the last Release.
type Binding struct {
	dial   DialFunc
	logger zerolog.Logger

	mu   sync.Mutex
	conn *Conn
	refs int
}

// NewBinding creates a binding that dials with dial
func NewBinding(dial DialFunc, logger zerolog.Logger) *Binding {
	return &Binding{
		dial:   dial,
		logger: logger.With().Str("component", "binding").Logger(),
	}
}

// NewWebsocketBinding creates a binding dialing url with opts
func NewWebsocketBinding(url string, opts Options, logger zerolog.Logger) *Binding {
	return NewBinding(func(ctx context.Context) (*Conn, error) {
		return Dial(ctx, url, opts, logger)
	}, logger)
}

// Acquire returns the shared channel, dialing it if needed. Every successful
// Acquire must be paired with one Release.
func (b *Binding) Acquire(ctx context.Context) (Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		select {
		case <-b.conn.Done():
			// dropped underneath us, redial and keep the holders
			b.logger.Warn().Int("refs", b.refs).Msg("connection lost, redialing")
			b.conn = nil
		default:
		}
	}

	if b.conn == nil {
		conn, err := b.dial(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "acquire transport")
		}
		b.conn = conn
	}

	b.refs++
	b.logger.Debug().Int("refs", b.refs).Msg("transport acquired")
	return b.conn, nil
}

// Release drops one reference and closes the connection when none remain
func (b *Binding) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refs == 0 {
		return ErrNotAcquired
	}
	b.refs--
	b.logger.Debug().Int("refs", b.refs).Msg("transport released")

	if b.refs > 0 || b.conn == nil {
		return nil
	}

	conn := b.conn
	b.conn = nil
	return conn.Close()
}

// Connected reports whether a live connection is held
func (b *Binding) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return false
	}
	select {
	case <-b.conn.Done():
		return false
	default:
		return true
	}
}

// Refs returns the number of outstanding acquisitions
func (b *Binding) Refs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refs
}
