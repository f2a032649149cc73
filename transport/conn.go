package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mbenaiss/lexchat/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrClosed is returned when emitting on a closed connection
var ErrClosed = errors.New("transport closed")

// Channel is the duplex channel used by a chat controller
type Channel interface {
	Authenticate(ctx context.Context, id models.Identity) error
	JoinRoom(ctx context.Context, chatID string, id models.Identity) error
	SendMessage(ctx context.Context, msg OutboundMessage) error
	Typing(ctx context.Context, chatID, user string, typing bool) error
	Subscribe(h Handler) (unsubscribe func())
}

// Options configures a connection
type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PongWait         time.Duration
	PingInterval     time.Duration
	SendBuffer       int
	Header           http.Header
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PongWait:         60 * time.Second,
		PingInterval:     25 * time.Second,
		SendBuffer:       64,
	}
}

// Conn is a websocket connection to the socket server
type Conn struct {
	ws     *websocket.Conn
	opts   Options
	logger zerolog.Logger

	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	handlers map[uint64]Handler
	order    []uint64
	nextID   uint64
}

var _ Channel = (*Conn)(nil)

// Dial connects to the socket server at url
func Dial(ctx context.Context, url string, opts Options, logger zerolog.Logger) (*Conn, error) {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultOptions().SendBuffer
	}

	dialer := &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		return nil, errors.Wrap(err, "websocket dial failed")
	}

	c := &Conn{
		ws:       ws,
		opts:     opts,
		logger:   logger.With().Str("component", "transport").Logger(),
		sendCh:   make(chan []byte, opts.SendBuffer),
		done:     make(chan struct{}),
		handlers: make(map[uint64]Handler),
	}

	if opts.PongWait > 0 {
		ws.SetReadDeadline(time.Now().Add(opts.PongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(opts.PongWait))
		})
	}

	go c.readLoop()
	go c.writeLoop()

	c.logger.Info().Str("url", url).Msg("connected to socket server")
	return c, nil
}

// Done returns a channel that closes when the connection shuts down
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close disconnects from the socket server
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
		c.logger.Info().Msg("disconnected from socket server")
	})
	return err
}

// Subscribe registers h for every inbound event. Handlers run on the read
// goroutine, one event at a time, in subscription order.
func (c *Conn) Subscribe(h Handler) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers[id] = h
	c.order = append(c.order, id)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers, id)
			for i, v := range c.order {
				if v == id {
					c.order = append(c.order[:i], c.order[i+1:]...)
					break
				}
			}
			c.mu.Unlock()
		})
	}
}

// Authenticate emits the client identity. The server answers with an
// authenticated or authError event.
func (c *Conn) Authenticate(ctx context.Context, id models.Identity) error {
	return c.emit(ctx, EventAuthenticate, AuthPayload{UserID: id.UserID, Role: string(id.Kind), Token: id.Token})
}

// JoinRoom subscribes the connection to the events of one chat
func (c *Conn) JoinRoom(ctx context.Context, chatID string, id models.Identity) error {
	return c.emit(ctx, EventJoinRoom, RoomPayload{ChatID: chatID, UserID: id.UserID, Role: string(id.Kind)})
}

// SendMessage emits a chat message; there is no acknowledgement
func (c *Conn) SendMessage(ctx context.Context, msg OutboundMessage) error {
	return c.emit(ctx, EventSendMessage, msg)
}

// Typing emits typing or stopTyping for a chat
func (c *Conn) Typing(ctx context.Context, chatID, user string, typing bool) error {
	if typing {
		return c.emit(ctx, EventTyping, TypingPayload{ChatID: chatID, User: user})
	}
	return c.emit(ctx, EventStopTyping, TypingPayload{ChatID: chatID})
}

func (c *Conn) emit(ctx context.Context, event string, payload any) error {
	data, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.sendCh <- data:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) readLoop() {
	defer c.Close()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warn().Err(err).Msg("socket read failed")
				} else {
					c.logger.Debug().Err(err).Msg("socket closed")
				}
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
			c.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed frame")
			continue
		}

		if f.Event == EventAuthError {
			var ae AuthError
			_ = json.Unmarshal(f.Data, &ae)
			c.logger.Error().Str("reason", ae.Message).Msg("socket authentication rejected")
		}

		c.dispatch(Event{Name: f.Event, Data: f.Data})
	}
}

func (c *Conn) dispatch(evt Event) {
	c.mu.RLock()
	handlers := make([]Handler, 0, len(c.order))
	for _, id := range c.order {
		handlers = append(handlers, c.handlers[id])
	}
	c.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

func (c *Conn) writeLoop() {
	var tick <-chan time.Time
	if c.opts.PingInterval > 0 {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			c.setWriteDeadline()
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn().Err(err).Msg("socket write failed")
				c.Close()
				return
			}
		case <-tick:
			c.setWriteDeadline()
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn().Err(err).Msg("socket ping failed")
				c.Close()
				return
			}
		}
	}
}

func (c *Conn) setWriteDeadline() {
	if c.opts.WriteTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
}
