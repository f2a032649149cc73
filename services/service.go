package services

import (
	"context"
	"sync"

	"github.com/mbenaiss/lexchat/auth"
	"github.com/mbenaiss/lexchat/backend"
	"github.com/mbenaiss/lexchat/chat"
	"github.com/mbenaiss/lexchat/db"
	"github.com/mbenaiss/lexchat/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrNoChat is returned by chat operations when no chat is open
var ErrNoChat = errors.New("no chat is open")

const maxNotices = 50

// Backend is the REST surface the service needs
type Backend interface {
	chat.Backend
	SetToken(token string)
	Login(ctx context.Context, email, password string) (backend.LoginResponse, error)
	Logout(ctx context.Context) error
	ListLawyers(ctx context.Context) ([]models.Lawyer, error)
	AddMoney(ctx context.Context, userID string, amount float64) (models.Wallet, error)
	Transactions(ctx context.Context, userID string) ([]models.Transaction, error)
}

// Binding is the shared transport plus its connection state
type Binding interface {
	chat.Binding
	Connected() bool
}

// ChatView is what the bridge shows for the open chat
type ChatView struct {
	chat.State
	Notices []chat.Notice `json:"notices,omitempty"`
}

type Service interface {
	GetStatus() models.Status
	Login(ctx context.Context, email, password string) (models.Identity, error)
	SetIdentity(id models.Identity) error
	Logout(ctx context.Context) error
	ListLawyers(ctx context.Context) ([]models.Lawyer, error)
	OpenChat(ctx context.Context, counterpartyID string) (ChatView, error)
	CloseChat() error
	GetChat() (ChatView, error)
	GetMessages(limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, text string) error
	SetTyping(ctx context.Context, typing bool) error
	RequestSession(ctx context.Context) (models.Booking, error)
	GetWallet(ctx context.Context) (models.Wallet, error)
	RefreshWallet(ctx context.Context) (models.Wallet, error)
	AddMoney(ctx context.Context, amount float64) (models.Wallet, error)
	GetTransactions(ctx context.Context) ([]models.Transaction, error)
	GetBookings(ctx context.Context, counterpartyID string, limit int) ([]models.Booking, error)
	Close() error
}

type service struct {
	backend Backend
	binding Binding
	db      db.DB
	price   float64
	logger  zerolog.Logger

	mu       sync.Mutex
	identity *models.Identity
	ctrl     *chat.Controller
	wallet   *models.Wallet
	lawyers  map[string]models.Lawyer
	notices  []chat.Notice
}

// NewService creates the service behind the bridge. price is used for
// counterparties the lawyer directory has no price for.
func NewService(b Backend, binding Binding, store db.DB, price float64, logger zerolog.Logger) Service {
	return &service{
		backend: b,
		binding: binding,
		db:      store,
		price:   price,
		logger:  logger.With().Str("component", "service").Logger(),
		lawyers: make(map[string]models.Lawyer),
	}
}

// GetStatus reports login, transport and open chat state
func (s *service) GetStatus() models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.Status{
		LoggedIn:  s.identity != nil,
		Connected: s.binding.Connected(),
	}
	if s.identity != nil {
		st.UserID = s.identity.UserID
		st.Role = s.identity.Kind
	}
	if s.ctrl != nil {
		sess := s.ctrl.Session()
		st.OpenChat = sess.Counterparty.ID
		st.SessionStatus = sess.Status
	}
	return st
}

// Login authenticates against the backend and resolves the identity
func (s *service) Login(ctx context.Context, email, password string) (models.Identity, error) {
	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return models.Identity{}, errors.Wrap(err, "failed to login")
	}

	id, err := auth.FromLogin(resp)
	if err != nil {
		return models.Identity{}, err
	}
	if err := s.SetIdentity(id); err != nil {
		return models.Identity{}, err
	}

	s.logger.Info().Str("user", id.UserID).Str("role", string(id.Kind)).Msg("logged in")
	return id, nil
}

// SetIdentity replaces the authenticated identity and closes any open chat
func (s *service) SetIdentity(id models.Identity) error {
	if !id.Valid() {
		return auth.ErrNotAuthenticated
	}

	s.mu.Lock()
	prev := s.ctrl
	s.ctrl = nil
	s.identity = &id
	s.wallet = nil
	s.notices = nil
	s.mu.Unlock()

	s.backend.SetToken(id.Token)
	return closeController(prev)
}

// Logout drops the identity and closes the open chat
func (s *service) Logout(ctx context.Context) error {
	s.mu.Lock()
	prev := s.ctrl
	loggedIn := s.identity != nil
	s.ctrl = nil
	s.identity = nil
	s.wallet = nil
	s.notices = nil
	s.mu.Unlock()

	if err := closeController(prev); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close chat on logout")
	}
	if !loggedIn {
		return nil
	}

	err := s.backend.Logout(ctx)
	s.backend.SetToken("")
	if err != nil {
		return errors.Wrap(err, "failed to logout")
	}
	return nil
}

// ListLawyers returns the lawyer directory
func (s *service) ListLawyers(ctx context.Context) ([]models.Lawyer, error) {
	if _, err := s.currentIdentity(); err != nil {
		return nil, err
	}

	lawyers, err := s.backend.ListLawyers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get lawyers")
	}

	s.mu.Lock()
	for _, l := range lawyers {
		s.lawyers[l.ID] = l
	}
	s.mu.Unlock()

	return lawyers, nil
}

// OpenChat opens the chat with counterpartyID, closing the previously open one
func (s *service) OpenChat(ctx context.Context, counterpartyID string) (ChatView, error) {
	id, err := s.currentIdentity()
	if err != nil {
		return ChatView{}, err
	}
	if counterpartyID == "" {
		return ChatView{}, errors.New("counterparty id is required")
	}

	counterparty, price := s.lookup(ctx, id, counterpartyID)

	opts := []chat.Option{
		chat.WithLogger(s.logger),
		chat.WithNoticeHandler(s.addNotice),
	}
	s.mu.Lock()
	if s.wallet != nil {
		opts = append(opts, chat.WithBalance(s.wallet.Balance))
	}
	s.mu.Unlock()

	ctrl, err := chat.New(s.backend, s.binding, id, counterparty, price, opts...)
	if err != nil {
		return ChatView{}, err
	}

	s.mu.Lock()
	prev := s.ctrl
	s.ctrl = ctrl
	s.notices = nil
	s.mu.Unlock()

	if err := closeController(prev); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close previous chat")
	}

	if err := ctrl.Open(ctx); err != nil {
		return ChatView{}, errors.Wrap(err, "failed to open chat")
	}

	s.logger.Info().Str("counterparty", counterpartyID).Str("status", string(ctrl.Session().Status)).Msg("chat opened")
	return s.GetChat()
}

// CloseChat closes the open chat, if any
func (s *service) CloseChat() error {
	s.mu.Lock()
	prev := s.ctrl
	s.ctrl = nil
	s.notices = nil
	s.mu.Unlock()

	return closeController(prev)
}

// GetChat returns the state of the open chat and drains its notices
func (s *service) GetChat() (ChatView, error) {
	ctrl, err := s.controller()
	if err != nil {
		return ChatView{}, err
	}

	view := ChatView{State: ctrl.State()}
	s.mu.Lock()
	view.Notices = s.notices
	s.notices = nil
	s.mu.Unlock()
	return view, nil
}

// GetMessages returns the last limit messages of the open chat
func (s *service) GetMessages(limit int) ([]models.Message, error) {
	ctrl, err := s.controller()
	if err != nil {
		return nil, err
	}

	msgs := ctrl.Messages()
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// SendMessage sends text in the open chat
func (s *service) SendMessage(ctx context.Context, text string) error {
	ctrl, err := s.controller()
	if err != nil {
		return err
	}
	return ctrl.Send(ctx, text)
}

// SetTyping forwards the typing indicator of the open chat
func (s *service) SetTyping(ctx context.Context, typing bool) error {
	ctrl, err := s.controller()
	if err != nil {
		return err
	}
	return ctrl.SetTyping(ctx, typing)
}

// RequestSession pays for a session in the open chat and records the outcome
func (s *service) RequestSession(ctx context.Context) (models.Booking, error) {
	ctrl, err := s.controller()
	if err != nil {
		return models.Booking{}, err
	}

	booking, err := ctrl.RequestSession(ctx)
	if booking.ID != "" {
		if serr := s.db.StoreBooking(context.WithoutCancel(ctx), booking); serr != nil {
			s.logger.Error().Err(serr).Str("booking", booking.ID).Msg("failed to record booking")
		}
	}
	if st := ctrl.State(); st.BalanceKnown {
		s.setWallet(models.Wallet{Balance: st.Balance})
	}
	return booking, err
}

// GetWallet returns the cached wallet, fetching it when unknown
func (s *service) GetWallet(ctx context.Context) (models.Wallet, error) {
	s.mu.Lock()
	cached := s.wallet
	s.mu.Unlock()

	if cached != nil {
		return *cached, nil
	}
	return s.RefreshWallet(ctx)
}

// RefreshWallet re-fetches the balance. The open chat sees the new balance.
func (s *service) RefreshWallet(ctx context.Context) (models.Wallet, error) {
	id, err := s.currentIdentity()
	if err != nil {
		return models.Wallet{}, err
	}

	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()

	var wallet models.Wallet
	if ctrl != nil {
		wallet, err = ctrl.RefreshWallet(ctx)
	}
	if ctrl == nil || errors.Is(err, chat.ErrDisposed) {
		wallet, err = s.backend.GetWallet(ctx, id.UserID)
	}
	if err != nil {
		return models.Wallet{}, errors.Wrap(err, "failed to get wallet")
	}

	s.setWallet(wallet)
	return wallet, nil
}

// AddMoney tops up the wallet
func (s *service) AddMoney(ctx context.Context, amount float64) (models.Wallet, error) {
	id, err := s.currentIdentity()
	if err != nil {
		return models.Wallet{}, err
	}

	wallet, err := s.backend.AddMoney(ctx, id.UserID, amount)
	if err != nil {
		return models.Wallet{}, errors.Wrap(err, "failed to add money")
	}
	s.logger.Info().Float64("amount", amount).Float64("balance", wallet.Balance).Msg("wallet topped up")

	// keep the open chat in sync with the new balance
	return s.RefreshWallet(ctx)
}

// GetTransactions returns the wallet history
func (s *service) GetTransactions(ctx context.Context) ([]models.Transaction, error) {
	id, err := s.currentIdentity()
	if err != nil {
		return nil, err
	}

	txs, err := s.backend.Transactions(ctx, id.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transactions")
	}
	return txs, nil
}

// GetBookings lists the local booking ledger
func (s *service) GetBookings(ctx context.Context, counterpartyID string, limit int) ([]models.Booking, error) {
	bookings, err := s.db.ListBookings(ctx, counterpartyID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bookings")
	}
	return bookings, nil
}

// Close closes the open chat
func (s *service) Close() error {
	return s.CloseChat()
}

func (s *service) currentIdentity() (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return models.Identity{}, auth.ErrNotAuthenticated
	}
	return *s.identity, nil
}

func (s *service) controller() (*chat.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil, auth.ErrNotAuthenticated
	}
	if s.ctrl == nil {
		return nil, ErrNoChat
	}
	return s.ctrl, nil
}

// lookup resolves the display identity and price of a counterparty from the
// lawyer directory
func (s *service) lookup(ctx context.Context, id models.Identity, counterpartyID string) (models.Counterparty, float64) {
	if id.IsLawyer() {
		return models.Counterparty{ID: counterpartyID}, s.price
	}

	s.mu.Lock()
	l, ok := s.lawyers[counterpartyID]
	s.mu.Unlock()

	if !ok {
		if _, err := s.ListLawyers(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to load lawyer directory")
		}
		s.mu.Lock()
		l, ok = s.lawyers[counterpartyID]
		s.mu.Unlock()
	}
	if !ok {
		return models.Counterparty{ID: counterpartyID}, s.price
	}

	price := l.Price
	if price <= 0 {
		price = s.price
	}
	return l.Counterparty(), price
}

func (s *service) addNotice(n chat.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

func (s *service) setWallet(w models.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil {
		s.wallet = &w
	}
}

func closeController(c *chat.Controller) error {
	if c == nil {
		return nil
	}
	return c.Close()
}
