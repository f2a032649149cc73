package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mbenaiss/lexchat/auth"
	"github.com/mbenaiss/lexchat/backend"
	"github.com/mbenaiss/lexchat/chat"
	"github.com/mbenaiss/lexchat/models"
	"github.com/mbenaiss/lexchat/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock

	mu    sync.Mutex
	token string
}

func (m *mockBackend) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *mockBackend) currentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *mockBackend) Login(ctx context.Context, email, password string) (backend.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(backend.LoginResponse), args.Error(1)
}

func (m *mockBackend) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) ListLawyers(ctx context.Context) ([]models.Lawyer, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]models.Lawyer)
	return out, args.Error(1)
}

func (m *mockBackend) AddMoney(ctx context.Context, userID string, amount float64) (models.Wallet, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(models.Wallet), args.Error(1)
}

func (m *mockBackend) Transactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]models.Transaction)
	return out, args.Error(1)
}

func (m *mockBackend) ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]models.SessionSummary)
	return out, args.Error(1)
}

func (m *mockBackend) CreateSession(ctx context.Context, userID, lawyerID string) (models.SessionSummary, error) {
	args := m.Called(ctx, userID, lawyerID)
	return args.Get(0).(models.SessionSummary), args.Error(1)
}

func (m *mockBackend) GetHistory(ctx context.Context, sessionID string) (models.ChatHistory, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(models.ChatHistory), args.Error(1)
}

func (m *mockBackend) BookAppointment(ctx context.Context, appt models.Appointment) (models.Appointment, error) {
	args := m.Called(ctx, appt)
	return args.Get(0).(models.Appointment), args.Error(1)
}

func (m *mockBackend) GetWallet(ctx context.Context, userID string) (models.Wallet, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Wallet), args.Error(1)
}

type mockBinding struct {
	mock.Mock
}

func (m *mockBinding) Acquire(ctx context.Context) (transport.Channel, error) {
	args := m.Called(ctx)
	ch, _ := args.Get(0).(transport.Channel)
	return ch, args.Error(1)
}

func (m *mockBinding) Release() error {
	return m.Called().Error(0)
}

func (m *mockBinding) Connected() bool {
	return m.Called().Bool(0)
}

// stubChannel accepts every emit
type stubChannel struct{}

func (stubChannel) Authenticate(context.Context, models.Identity) error { return nil }
func (stubChannel) JoinRoom(context.Context, string, models.Identity) error { return nil }
func (stubChannel) SendMessage(context.Context, transport.OutboundMessage) error { return nil }
func (stubChannel) Typing(context.Context, string, string, bool) error { return nil }
func (stubChannel) Subscribe(transport.Handler) func() { return func() {} }

type mockDB struct {
	mock.Mock
}

func (m *mockDB) StoreBooking(ctx context.Context, b models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockDB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *mockDB) ListBookings(ctx context.Context, counterpartyID string, limit int) ([]models.Booking, error) {
	args := m.Called(ctx, counterpartyID, limit)
	out, _ := args.Get(0).([]models.Booking)
	return out, args.Error(1)
}

func (m *mockDB) Close() error {
	return m.Called().Error(0)
}

var client = models.Identity{Kind: models.KindClient, UserID: "u1", Name: "Asha", Token: "tok"}

func newTestService(t *testing.T) (Service, *mockBackend, *mockBinding, *mockDB) {
	t.Helper()
	b := &mockBackend{}
	bind := &mockBinding{}
	store := &mockDB{}
	return NewService(b, bind, store, 300, zerolog.Nop()), b, bind, store
}

func TestRequiresLogin(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.OpenChat(ctx, "l1")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	_, err = svc.GetWallet(ctx)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	assert.ErrorIs(t, svc.SendMessage(ctx, "hi"), auth.ErrNotAuthenticated)
}

func TestLoginResolvesIdentity(t *testing.T) {
	svc, b, bind, _ := newTestService(t)
	b.On("Login", mock.Anything, "a@b.c", "pw").Return(backend.LoginResponse{
		Token: "opaque", LawyerID: "l7", Name: "Adv. Rao",
	}, nil)
	bind.On("Connected").Return(false)

	id, err := svc.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.KindLawyer, id.Kind)
	assert.Equal(t, "l7", id.UserID)
	assert.Equal(t, "opaque", b.currentToken())

	st := svc.GetStatus()
	assert.True(t, st.LoggedIn)
	assert.Equal(t, models.KindLawyer, st.Role)
}

func TestLoginFailure(t *testing.T) {
	svc, b, _, _ := newTestService(t)
	b.On("Login", mock.Anything, "a@b.c", "bad").Return(backend.LoginResponse{}, &backend.APIError{StatusCode: 401, Message: "invalid"})

	_, err := svc.Login(context.Background(), "a@b.c", "bad")
	assert.True(t, backend.IsUnauthorized(errors.Cause(err)))
}

func TestChatWithoutOpen(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	require.NoError(t, svc.SetIdentity(client))

	_, err := svc.GetChat()
	assert.ErrorIs(t, err, ErrNoChat)
	_, err = svc.RequestSession(context.Background())
	assert.ErrorIs(t, err, ErrNoChat)
}

func TestOpenChatAndRequestSessionRecordsBooking(t *testing.T) {
	svc, b, bind, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetIdentity(client))

	b.On("ListLawyers", mock.Anything).Return([]models.Lawyer{{ID: "l1", Name: "Adv. Rao", Price: 800}}, nil).Once()
	b.On("ListSessions", mock.Anything, "u1").Return([]models.SessionSummary{}, nil).Once()

	view, err := svc.OpenChat(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, view.Session.Status)
	assert.Equal(t, float64(800), view.Session.Price)
	assert.Equal(t, "Adv. Rao", view.Session.Counterparty.Name)

	b.On("GetWallet", mock.Anything, "u1").Return(models.Wallet{Balance: 1000}, nil).Once()
	b.On("BookAppointment", mock.Anything, mock.Anything).Return(models.Appointment{ID: "a1"}, nil).Once()
	b.On("CreateSession", mock.Anything, "u1", "l1").Return(models.SessionSummary{ID: "c1", Status: "pending"}, nil).Once()
	b.On("GetWallet", mock.Anything, "u1").Return(models.Wallet{Balance: 200}, nil).Once()
	bind.On("Acquire", mock.Anything).Return(stubChannel{}, nil).Once()
	store.On("StoreBooking", mock.Anything, mock.MatchedBy(func(bk models.Booking) bool {
		return bk.Outcome == models.BookingSettled && bk.SessionID == "c1" && bk.AppointmentID == "a1" && bk.Price == 800
	})).Return(nil).Once()

	booking, err := svc.RequestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", booking.SessionID)

	wallet, err := svc.GetWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(200), wallet.Balance)

	view, err = svc.GetChat()
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, view.Session.Status)
	require.NotEmpty(t, view.Notices)
	assert.Equal(t, chat.CodeRequestSent, view.Notices[len(view.Notices)-1].Code)

	view, err = svc.GetChat()
	require.NoError(t, err)
	assert.Empty(t, view.Notices)

	store.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestOpenChatSeedsCachedWallet(t *testing.T) {
	svc, b, bind, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetIdentity(client))

	b.On("GetWallet", mock.Anything, "u1").Return(models.Wallet{Balance: 1000}, nil).Once()
	_, err := svc.GetWallet(ctx)
	require.NoError(t, err)

	b.On("ListLawyers", mock.Anything).Return([]models.Lawyer{{ID: "l1", Price: 800}}, nil).Once()
	b.On("ListSessions", mock.Anything, "u1").Return([]models.SessionSummary{}, nil).Once()
	view, err := svc.OpenChat(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, view.BalanceKnown)
	assert.Equal(t, float64(1000), view.Balance)

	b.On("BookAppointment", mock.Anything, mock.Anything).Return(models.Appointment{ID: "a1"}, nil).Once()
	b.On("CreateSession", mock.Anything, "u1", "l1").Return(models.SessionSummary{ID: "c1", Status: "pending"}, nil).Once()
	b.On("GetWallet", mock.Anything, "u1").Return(models.Wallet{Balance: 200}, nil).Once()
	bind.On("Acquire", mock.Anything).Return(stubChannel{}, nil).Once()
	store.On("StoreBooking", mock.Anything, mock.Anything).Return(nil).Once()

	_, err = svc.RequestSession(ctx)
	require.NoError(t, err)
	b.AssertNumberOfCalls(t, "GetWallet", 2)
	b.AssertExpectations(t)
}

func TestRequestSessionRecordsRejectedBooking(t *testing.T) {
	svc, b, _, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetIdentity(client))

	b.On("ListLawyers", mock.Anything).Return([]models.Lawyer{}, nil)
	b.On("ListSessions", mock.Anything, "u1").Return([]models.SessionSummary{}, nil)
	_, err := svc.OpenChat(ctx, "l1")
	require.NoError(t, err)

	b.On("GetWallet", mock.Anything, "u1").Return(models.Wallet{Balance: 100}, nil)
	store.On("StoreBooking", mock.Anything, mock.MatchedBy(func(bk models.Booking) bool {
		return bk.Outcome == models.BookingRejected && bk.Price == 300
	})).Return(nil).Once()

	_, err = svc.RequestSession(ctx)
	assert.ErrorIs(t, err, chat.ErrInsufficientFunds)
	store.AssertExpectations(t)
	b.AssertNotCalled(t, "BookAppointment", mock.Anything, mock.Anything)
}

func TestOpenChatClosesPrevious(t *testing.T) {
	svc, b, bind, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetIdentity(client))

	b.On("ListLawyers", mock.Anything).Return([]models.Lawyer{{ID: "l1"}, {ID: "l2"}}, nil)
	b.On("ListSessions", mock.Anything, "u1").Return([]models.SessionSummary{
		{ID: "c1", UserID: "u1", LawyerID: "l1", Status: "pending"},
	}, nil)
	b.On("GetHistory", mock.Anything, "c1").Return(models.ChatHistory{}, nil)
	bind.On("Acquire", mock.Anything).Return(stubChannel{}, nil).Once()
	bind.On("Release").Return(nil).Once()
	bind.On("Connected").Return(false)

	_, err := svc.OpenChat(ctx, "l1")
	require.NoError(t, err)

	view, err := svc.OpenChat(ctx, "l2")
	require.NoError(t, err)
	assert.Equal(t, "l2", view.Session.Counterparty.ID)
	assert.Equal(t, models.StatusNone, view.Session.Status)
	assert.Equal(t, "l2", svc.GetStatus().OpenChat)
	bind.AssertExpectations(t)
}

func TestLogoutClosesChat(t *testing.T) {
	svc, b, bind, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetIdentity(client))

	b.On("ListLawyers", mock.Anything).Return([]models.Lawyer{}, nil)
	b.On("ListSessions", mock.Anything, "u1").Return([]models.SessionSummary{}, nil)
	b.On("Logout", mock.Anything).Return(nil)
	bind.On("Connected").Return(false)

	_, err := svc.OpenChat(ctx, "l1")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	assert.False(t, svc.GetStatus().LoggedIn)
	assert.Empty(t, b.currentToken())
	_, err = svc.GetChat()
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestAddMoneyRefreshesWallet(t *testing.T) {
	svc, b, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetIdentity(client))

	b.On("AddMoney", mock.Anything, "u1", float64(500)).Return(models.Wallet{Balance: 700}, nil)
	b.On("GetWallet", mock.Anything, "u1").Return(models.Wallet{Balance: 700}, nil).Once()

	wallet, err := svc.AddMoney(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, float64(700), wallet.Balance)

	cached, err := svc.GetWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(700), cached.Balance)
	b.AssertNumberOfCalls(t, "GetWallet", 1)
}

func TestGetMessagesLimit(t *testing.T) {
	svc, b, bind, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SetIdentity(client))

	b.On("ListLawyers", mock.Anything).Return([]models.Lawyer{}, nil)
	b.On("ListSessions", mock.Anything, "u1").Return([]models.SessionSummary{
		{ID: "c1", UserID: "u1", LawyerID: "l1", Status: "active"},
	}, nil)
	b.On("GetHistory", mock.Anything, "c1").Return(models.ChatHistory{
		AppointmentActive: true,
		Messages: []models.HistoryMessage{
			{Sender: "user", SenderID: "u1", Text: "one", Timestamp: time.Now()},
			{Sender: "lawyer", SenderID: "l1", Text: "two", Timestamp: time.Now()},
		},
	}, nil)
	bind.On("Acquire", mock.Anything).Return(stubChannel{}, nil)

	_, err := svc.OpenChat(ctx, "l1")
	require.NoError(t, err)
	require.NoError(t, svc.SendMessage(ctx, "three"))

	msgs, err := svc.GetMessages(2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "three", msgs[1].Text)
	assert.Equal(t, models.SenderSelf, msgs[1].Sender)
}

func TestWalletPoller(t *testing.T) {
	svc, b, _, _ := newTestService(t)

	_, err := NewWalletPoller(svc, "not a spec", time.Second, zerolog.Nop())
	assert.Error(t, err)

	p, err := NewWalletPoller(svc, "@every 1h", time.Second, zerolog.Nop())
	require.NoError(t, err)

	p.poll()
	b.AssertNotCalled(t, "GetWallet", mock.Anything, mock.Anything)

	require.NoError(t, svc.SetIdentity(client))
	b.On("GetWallet", mock.Anything, "u1").Return(models.Wallet{Balance: 42}, nil).Once()
	p.poll()

	wallet, err := svc.GetWallet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(42), wallet.Balance)

	p.Start()
	p.Stop()
}
