// Package chat holds the lifecycle controller of one consultation chat.
//
// A Controller tracks the status of the session with one counterparty
// (none, pending, active, ended, declined), keeps the local message log and
// gates what the user may do at each status. The backend is authoritative;
// the controller only mirrors it and reacts to socket events.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mbenaiss/lexchat/auth"
	"github.com/mbenaiss/lexchat/backend"
	"github.com/mbenaiss/lexchat/models"
	"github.com/mbenaiss/lexchat/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Backend is the REST collaborator used by the controller
type Backend interface {
	ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error)
	CreateSession(ctx context.Context, userID, lawyerID string) (models.SessionSummary, error)
	GetHistory(ctx context.Context, sessionID string) (models.ChatHistory, error)
	BookAppointment(ctx context.Context, appt models.Appointment) (models.Appointment, error)
	GetWallet(ctx context.Context, userID string) (models.Wallet, error)
}

// Binding hands out the shared transport channel
type Binding interface {
	Acquire(ctx context.Context) (transport.Channel, error)
	Release() error
}

// setupTimeout bounds the session setup that follows a successful payment
const setupTimeout = 30 * time.Second

// allowed lists the transitions of the session state machine
var allowed = map[models.SessionStatus][]models.SessionStatus{
	models.StatusNone:     {models.StatusPending},
	models.StatusPending:  {models.StatusActive, models.StatusDeclined},
	models.StatusActive:   {models.StatusEnded},
	models.StatusEnded:    {models.StatusPending},
	models.StatusDeclined: {models.StatusPending},
}

func canTransition(from, to models.SessionStatus) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithNoticeHandler receives every user-visible notice
func WithNoticeHandler(fn func(Notice)) Option {
	return func(c *Controller) { c.onNotice = fn }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithBalance seeds the wallet balance already known to the caller
func WithBalance(balance float64) Option {
	return func(c *Controller) { c.balance, c.balanceKnown = balance, true }
}

// WithIDGenerator overrides the correlation id generator
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// Controller is the lifecycle controller of one chat
type Controller struct {
	backend  Backend
	binding  Binding
	identity models.Identity
	logger   zerolog.Logger
	onNotice func(Notice)
	now      func() time.Time
	newID    func() string

	mu           sync.Mutex
	session      models.Session
	log          []models.Message
	sent         map[string]struct{}
	balance      float64
	balanceKnown bool
	typing       bool
	channel      transport.Channel
	unsubscribe  func()
	acquired     bool
	requesting   bool
	disposed     bool
}

// State is a snapshot of a controller
type State struct {
	Session            models.Session   `json:"session"`
	Messages           []models.Message `json:"messages"`
	Balance            float64          `json:"balance"`
	BalanceKnown       bool             `json:"balance_known"`
	CounterpartyTyping bool             `json:"counterparty_typing"`
	Connected          bool             `json:"connected"`
	CanSend            bool             `json:"can_send"`
	CanRequest         bool             `json:"can_request"`
}

// New creates a controller for the chat between identity and counterparty.
// price is what a new session costs.
func New(backend Backend, binding Binding, identity models.Identity, counterparty models.Counterparty, price float64, opts ...Option) (*Controller, error) {
	if !identity.Valid() {
		return nil, auth.ErrNotAuthenticated
	}
	if counterparty.ID == "" {
		return nil, errors.New("counterparty id is required")
	}

	c := &Controller{
		backend:  backend,
		binding:  binding,
		identity: identity,
		logger:   zerolog.Nop(),
		now:      time.Now,
		newID:    uuid.NewString,
		session: models.Session{
			Counterparty: counterparty,
			Status:       models.StatusNone,
			Price:        price,
		},
		sent: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().
		Str("component", "chat").
		Str("counterparty", counterparty.ID).
		Logger()

	return c, nil
}

// Open loads the existing session with the counterparty, if any, and joins
// its room when it is pending or active. Fetch failures leave the chat in
// the none status and are not returned.
func (c *Controller) Open(ctx context.Context) error {
	if c.isDisposed() {
		return ErrDisposed
	}

	summaries, err := c.backend.ListSessions(ctx, c.identity.UserID)
	if c.isDisposed() {
		return ErrDisposed
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to list sessions, starting without one")
		return c.resetToNone()
	}

	summary, ok := c.pick(summaries)
	if !ok {
		c.logger.Debug().Msg("no existing session")
		return c.resetToNone()
	}

	history, err := c.backend.GetHistory(ctx, summary.ID)
	if err != nil {
		if backend.IsNotFound(err) {
			c.logger.Debug().Str("session", summary.ID).Msg("session no longer exists")
		} else {
			c.logger.Warn().Err(err).Str("session", summary.ID).Msg("failed to load history, starting without a session")
		}
		return c.resetToNone()
	}

	status := models.ParseSessionStatus(summary.Status)
	if history.Status != "" {
		status = models.ParseSessionStatus(history.Status)
	}
	if status == models.StatusActive && !history.AppointmentActive {
		status = models.StatusEnded
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.session.ID = summary.ID
	c.session.Status = status
	for _, hm := range history.Messages {
		c.appendLocked(c.fromHistory(summary.ID, hm))
	}
	if text := discoveredText(status, c.session.Counterparty.Name); text != "" {
		c.appendSystemLocked(text)
	}
	c.mu.Unlock()

	c.logger.Info().Str("session", summary.ID).Str("status", string(status)).Int("messages", len(history.Messages)).Msg("session loaded")

	if status == models.StatusActive || status == models.StatusPending {
		if err := c.connect(ctx); err != nil && !errors.Is(err, ErrDisposed) {
			c.notify(LevelWarning, CodeTransport, "Live chat is unavailable right now. Messages will not update until you reconnect.")
		}
	}
	return nil
}

// Send appends text to the log and emits it to the counterparty without
// waiting for an acknowledgement. Blank text in an active chat is ignored.
func (c *Controller) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if c.session.Status != models.StatusActive {
		status := c.session.Status
		c.mu.Unlock()
		c.logger.Debug().Str("status", string(status)).Msg("send refused")
		c.notify(LevelWarning, CodeCannotSend, cannotSendText(status))
		return ErrCannotSend
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.mu.Unlock()
		return nil
	}
	if c.channel == nil {
		c.mu.Unlock()
		c.notify(LevelWarning, CodeTransport, "You are offline. The message was not sent.")
		return ErrNotConnected
	}

	// the log is append-only, a failed emission leaves the entry in place
	clientID := c.newID()
	c.sent[clientID] = struct{}{}
	c.appendLocked(models.Message{
		SessionID: c.session.ID,
		ClientID:  clientID,
		Sender:    models.SenderSelf,
		Text:      text,
		Timestamp: c.now(),
	})
	err := c.channel.SendMessage(ctx, c.outbound(text, clientID))
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Str("client_id", clientID).Msg("failed to emit message")
		c.notify(LevelWarning, CodeTransport, "The message could not be delivered. Please try again.")
		return errors.Wrap(err, "send message")
	}
	return nil
}

// SetTyping tells the counterparty whether the user is typing
func (c *Controller) SetTyping(ctx context.Context, typing bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return ErrDisposed
	}
	if c.session.Status != models.StatusActive || c.channel == nil {
		return nil
	}
	return c.channel.Typing(ctx, c.session.ID, c.identity.Name, typing)
}

// RequestSession pays for a consultation and opens a chat request with the
// counterparty. The returned booking describes how far the payment got, also
// on failure.
func (c *Controller) RequestSession(ctx context.Context) (models.Booking, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return models.Booking{}, ErrDisposed
	}
	if c.identity.IsLawyer() {
		c.mu.Unlock()
		return models.Booking{}, ErrNotClient
	}
	if c.requesting || c.session.Status == models.StatusPending || c.session.Status == models.StatusActive {
		c.mu.Unlock()
		return models.Booking{}, ErrSessionInProgress
	}
	c.requesting = true
	price := c.session.Price
	counterparty := c.session.Counterparty
	balance, known := c.balance, c.balanceKnown
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.requesting = false
		c.mu.Unlock()
	}()

	now := c.now()
	booking := models.Booking{
		ID:             c.newID(),
		CounterpartyID: counterparty.ID,
		Price:          price,
		Outcome:        models.BookingRejected,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if !known {
		wallet, err := c.backend.GetWallet(ctx, c.identity.UserID)
		if err != nil {
			c.logger.Warn().Err(err).Msg("failed to fetch wallet before booking")
			c.notify(LevelError, CodeNetwork, "Could not check your wallet balance. Please try again.")
			booking.Error = err.Error()
			return booking, errors.Wrap(err, "fetch wallet")
		}
		if !c.setBalance(wallet.Balance) {
			return booking, ErrDisposed
		}
		balance = wallet.Balance
	}

	if balance < price {
		booking.Error = ErrInsufficientFunds.Error()
		c.logger.Info().Float64("balance", balance).Float64("price", price).Msg("insufficient funds")
		c.notify(LevelError, CodeInsufficientFunds, fmt.Sprintf("Insufficient balance: this consultation costs %.0f and your wallet has %.0f. Please add money to your wallet.", price, balance))
		return booking, ErrInsufficientFunds
	}

	appt, err := c.backend.BookAppointment(ctx, models.Appointment{
		UserID:   c.identity.UserID,
		LawyerID: counterparty.ID,
		Date:     now.Format("2006-01-02"),
		Time:     now.Format("15:04"),
		Notes:    "chat consultation",
	})
	if err != nil {
		booking.Error = err.Error()
		c.logger.Warn().Err(err).Msg("booking failed")
		c.notify(LevelError, CodeBookingFailed, "Booking failed. You have not been charged, please try again.")
		return booking, errors.Wrap(ErrBookingFailed, err.Error())
	}
	booking.AppointmentID = appt.ID
	booking.Outcome = models.BookingBooked
	booking.UpdatedAt = c.now()

	if c.isDisposed() {
		return booking, ErrDisposed
	}

	// the payment is taken, the setup no longer follows the caller's cancellation
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), setupTimeout)
	defer cancel()

	summary, err := c.backend.CreateSession(ctx, c.identity.UserID, counterparty.ID)
	if err != nil {
		unpaid := errors.Is(err, backend.ErrNoPaidAppointment)
		c.logger.Warn().Err(err).Str("appointment", appt.ID).Bool("no_paid_appointment", unpaid).Msg("session creation failed after payment, trying recovery")

		recovered, rerr := c.recoverSession(ctx)
		if rerr != nil {
			booking.Outcome = models.BookingSetupFailed
			booking.Error = err.Error()
			booking.UpdatedAt = c.now()
			c.logger.Error().Err(rerr).Str("appointment", appt.ID).Msg("session recovery failed")
			text := "Payment succeeded but session setup failed. Please refresh."
			if unpaid {
				text = "Payment succeeded but the chat server has not registered it yet. Please refresh in a moment."
			}
			c.notify(LevelError, CodeSessionSetupFailed, text)
			return booking, errors.Wrap(ErrSessionSetupFailed, err.Error())
		}
		summary = recovered
	}
	booking.SessionID = summary.ID
	booking.Outcome = models.BookingSettled
	booking.UpdatedAt = c.now()

	if c.isDisposed() {
		return booking, ErrDisposed
	}

	wallet, werr := c.backend.GetWallet(ctx, c.identity.UserID)

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return booking, ErrDisposed
	}
	if werr == nil {
		c.balance, c.balanceKnown = wallet.Balance, true
	}
	c.session.ID = summary.ID
	c.typing = false
	c.transitionLocked(models.StatusPending, "")
	if models.ParseSessionStatus(summary.Status) == models.StatusActive {
		c.transitionLocked(models.StatusActive, "")
	}
	joined := c.channel
	sessionID := c.session.ID
	c.mu.Unlock()

	if werr != nil {
		c.logger.Warn().Err(werr).Msg("failed to refresh wallet after booking")
		c.notify(LevelWarning, CodeNetwork, "Could not refresh your wallet balance.")
	}

	c.logger.Info().Str("session", sessionID).Str("appointment", appt.ID).Msg("chat request sent")
	c.notify(LevelInfo, CodeRequestSent, fmt.Sprintf("Chat request sent to %s.", displayName(counterparty)))

	if joined != nil {
		if err := joined.JoinRoom(ctx, sessionID, c.identity); err != nil {
			c.logger.Warn().Err(err).Msg("failed to join room")
		}
	} else if err := c.connect(ctx); err != nil && !errors.Is(err, ErrDisposed) {
		c.notify(LevelWarning, CodeTransport, "Live chat is unavailable right now. Refresh to see when your request is accepted.")
	}

	return booking, nil
}

// RefreshWallet re-fetches the wallet balance
func (c *Controller) RefreshWallet(ctx context.Context) (models.Wallet, error) {
	if c.isDisposed() {
		return models.Wallet{}, ErrDisposed
	}

	wallet, err := c.backend.GetWallet(ctx, c.identity.UserID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to refresh wallet")
		c.notify(LevelWarning, CodeNetwork, "Failed to fetch wallet balance.")
		return models.Wallet{}, errors.Wrap(err, "refresh wallet")
	}
	if !c.setBalance(wallet.Balance) {
		return models.Wallet{}, ErrDisposed
	}
	return wallet, nil
}

// Close unsubscribes from the transport and releases it. The controller is
// unusable afterwards.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	unsubscribe := c.unsubscribe
	acquired := c.acquired
	c.unsubscribe = nil
	c.channel = nil
	c.acquired = false
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if acquired {
		if err := c.binding.Release(); err != nil {
			return errors.Wrap(err, "release transport")
		}
	}
	c.logger.Debug().Msg("chat closed")
	return nil
}

// State returns a snapshot of the controller
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Session:            c.session,
		Messages:           c.messagesLocked(),
		Balance:            c.balance,
		BalanceKnown:       c.balanceKnown,
		CounterpartyTyping: c.typing,
		Connected:          c.channel != nil,
		CanSend:            !c.disposed && c.session.Status == models.StatusActive && c.channel != nil,
		CanRequest:         !c.disposed && !c.identity.IsLawyer() && !c.requesting && canTransition(c.session.Status, models.StatusPending),
	}
}

// Session returns the current session
func (c *Controller) Session() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Messages returns a copy of the log
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messagesLocked()
}

// Counterparty returns who the chat is with
func (c *Controller) Counterparty() models.Counterparty {
	return c.session.Counterparty
}

func (c *Controller) connect(ctx context.Context) error {
	ch, err := c.binding.Acquire(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to acquire transport")
		return err
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		_ = c.binding.Release()
		return ErrDisposed
	}
	if c.acquired {
		// lost a race with another connect, keep the first lease
		c.mu.Unlock()
		_ = c.binding.Release()
		return nil
	}
	c.channel = ch
	c.acquired = true
	c.unsubscribe = ch.Subscribe(c.handleEvent)
	sessionID := c.session.ID
	c.mu.Unlock()

	if err := ch.Authenticate(ctx, c.identity); err != nil {
		c.logger.Warn().Err(err).Msg("failed to authenticate on transport")
		return err
	}
	if err := ch.JoinRoom(ctx, sessionID, c.identity); err != nil {
		c.logger.Warn().Err(err).Msg("failed to join room")
		return err
	}
	c.logger.Debug().Str("session", sessionID).Msg("joined room")
	return nil
}

func (c *Controller) handleEvent(evt transport.Event) {
	switch evt.Name {
	case transport.EventChatRequestUpdate:
		var upd transport.ChatRequestUpdate
		if err := evt.Decode(&upd); err != nil {
			c.logger.Warn().Err(err).Msg("bad chat request update")
			return
		}
		c.applyUpdate(upd)

	case transport.EventReceiveMessage:
		var msg transport.InboundMessage
		if err := evt.Decode(&msg); err != nil {
			c.logger.Warn().Err(err).Msg("bad inbound message")
			return
		}
		c.applyInbound(msg)

	case transport.EventUserTyping, transport.EventUserStoppedTyping:
		var tp transport.TypingPayload
		if err := evt.Decode(&tp); err != nil {
			return
		}
		c.mu.Lock()
		if !c.disposed && tp.ChatID == c.session.ID {
			c.typing = evt.Name == transport.EventUserTyping
		}
		c.mu.Unlock()

	case transport.EventNewMessageNotification:
		var n transport.MessageNotification
		if err := evt.Decode(&n); err != nil {
			return
		}
		c.mu.Lock()
		own := c.disposed || n.ChatID == c.session.ID
		c.mu.Unlock()
		if !own {
			c.notify(LevelInfo, CodeNewMessage, notificationText(n))
		}

	case transport.EventAuthError:
		c.notify(LevelError, CodeTransport, "Chat authentication failed. Please log in again.")
	}
}

func (c *Controller) applyUpdate(upd transport.ChatRequestUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || upd.ChatID == "" || upd.ChatID != c.session.ID {
		return
	}

	to := models.ParseSessionStatus(upd.Status)
	if to == c.session.Status {
		return
	}
	if !c.transitionLocked(to, upd.Message) {
		c.logger.Debug().Str("from", string(c.session.Status)).Str("to", string(to)).Msg("ignoring update")
	}
}

func (c *Controller) applyInbound(msg transport.InboundMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || msg.ChatID == "" || msg.ChatID != c.session.ID {
		return
	}
	if msg.ClientID != "" {
		if _, ok := c.sent[msg.ClientID]; ok {
			return
		}
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = c.now()
	}
	c.appendLocked(models.Message{
		SessionID: msg.ChatID,
		ClientID:  msg.ClientID,
		Sender:    c.senderOf(msg.Sender, msg.SenderID),
		Text:      msg.Text,
		Timestamp: ts,
	})
	c.typing = false
}

// transitionLocked moves the session to status `to` when allowed and appends
// the matching system message. text overrides the default announcement.
func (c *Controller) transitionLocked(to models.SessionStatus, text string) bool {
	from := c.session.Status
	if !canTransition(from, to) {
		return false
	}
	c.session.Status = to

	if text == "" {
		text = transitionText(to, c.session.Counterparty.Name)
	}
	if text != "" {
		c.appendSystemLocked(text)
	}
	c.logger.Info().Str("session", c.session.ID).Str("from", string(from)).Str("to", string(to)).Msg("session status changed")
	return true
}

func (c *Controller) appendSystemLocked(text string) {
	c.appendLocked(models.Message{
		SessionID: c.session.ID,
		Sender:    models.SenderSystem,
		Text:      text,
		Timestamp: c.now(),
	})
}

func (c *Controller) appendLocked(m models.Message) {
	c.log = append(c.log, m)
}

func (c *Controller) messagesLocked() []models.Message {
	out := make([]models.Message, len(c.log))
	copy(out, c.log)
	return out
}

func (c *Controller) resetToNone() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	c.session.ID = ""
	c.session.Status = models.StatusNone
	return nil
}

func (c *Controller) setBalance(b float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return false
	}
	c.balance, c.balanceKnown = b, true
	return true
}

func (c *Controller) isDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// recoverSession looks for a session the booking may have created implicitly
func (c *Controller) recoverSession(ctx context.Context) (models.SessionSummary, error) {
	summaries, err := c.backend.ListSessions(ctx, c.identity.UserID)
	if err != nil {
		return models.SessionSummary{}, errors.Wrap(err, "recovery fetch")
	}
	summary, ok := c.pick(summaries)
	if !ok {
		return models.SessionSummary{}, errors.New("recovery fetch: no session for counterparty")
	}
	switch models.ParseSessionStatus(summary.Status) {
	case models.StatusPending, models.StatusActive:
		return summary, nil
	}
	return models.SessionSummary{}, errors.Errorf("recovery fetch: latest session is %s", summary.Status)
}

// pick returns the most recently active session with the counterparty
func (c *Controller) pick(summaries []models.SessionSummary) (models.SessionSummary, bool) {
	var matches []models.SessionSummary
	for _, s := range summaries {
		if s.ID != "" && s.CounterpartyID(c.identity.Kind) == c.session.Counterparty.ID {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return models.SessionSummary{}, false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].LastActivity.After(matches[j].LastActivity)
	})
	return matches[0], true
}

func (c *Controller) outbound(text, clientID string) transport.OutboundMessage {
	out := transport.OutboundMessage{
		ChatID:   c.session.ID,
		Sender:   string(c.identity.Kind),
		Text:     text,
		ClientID: clientID,
	}
	if c.identity.IsLawyer() {
		out.UserID, out.LawyerID = c.session.Counterparty.ID, c.identity.UserID
	} else {
		out.UserID, out.LawyerID = c.identity.UserID, c.session.Counterparty.ID
	}
	return out
}

func (c *Controller) fromHistory(sessionID string, hm models.HistoryMessage) models.Message {
	return models.Message{
		SessionID: sessionID,
		ClientID:  hm.ClientID,
		Sender:    c.senderOf(hm.Sender, hm.SenderID),
		Text:      hm.Text,
		Timestamp: hm.Timestamp,
	}
}

func (c *Controller) senderOf(sender, senderID string) models.Sender {
	switch {
	case sender == string(models.SenderSystem):
		return models.SenderSystem
	case senderID != "" && senderID == c.identity.UserID:
		return models.SenderSelf
	case senderID == "" && sender == string(c.identity.Kind):
		return models.SenderSelf
	default:
		return models.SenderCounterparty
	}
}

func (c *Controller) notify(level NoticeLevel, code NoticeCode, text string) {
	if c.onNotice == nil {
		return
	}
	c.onNotice(Notice{Level: level, Code: code, Text: text, At: c.now()})
}

func displayName(cp models.Counterparty) string {
	if cp.Name != "" {
		return cp.Name
	}
	return "the lawyer"
}

func transitionText(to models.SessionStatus, name string) string {
	who := displayName(models.Counterparty{Name: name})
	switch to {
	case models.StatusActive:
		return fmt.Sprintf("%s accepted your chat request. You can start chatting now.", who)
	case models.StatusDeclined:
		return fmt.Sprintf("%s declined your chat request. You can pay again to send a new request.", who)
	case models.StatusEnded:
		return "This consultation has ended."
	}
	return ""
}

func discoveredText(status models.SessionStatus, name string) string {
	switch status {
	case models.StatusActive, models.StatusDeclined, models.StatusEnded:
		return transitionText(status, name)
	}
	return ""
}

func notificationText(n transport.MessageNotification) string {
	if n.SenderName != "" {
		return fmt.Sprintf("New message from %s in another chat.", n.SenderName)
	}
	return "New message in another chat."
}

func cannotSendText(status models.SessionStatus) string {
	switch status {
	case models.StatusPending:
		return "Cannot send: waiting for the lawyer to accept your chat request."
	case models.StatusDeclined:
		return "Cannot send: your chat request was declined."
	case models.StatusEnded:
		return "Cannot send: this consultation has ended."
	default:
		return "Cannot send: pay for a consultation to start chatting."
	}
}
