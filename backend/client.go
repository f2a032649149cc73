package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mbenaiss/lexchat/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Client is the REST client of the consultation backend
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a new backend client rooted at baseURL (e.g. "http://host/api")
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "backend").Logger(),
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ListSessions returns the chats of a user
func (c *Client) ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/chat/user/"+url.PathEscape(userID), nil, &raw); err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}

	// the backend answers either a bare array or {"chats": [...]}
	var sessions []models.SessionSummary
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &sessions); err != nil {
			return nil, errors.Wrap(err, "decode sessions")
		}
		return sessions, nil
	}

	var wrapped struct {
		Chats []models.SessionSummary `json:"chats"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, errors.Wrap(err, "decode sessions")
		}
	}
	return wrapped.Chats, nil
}

// CreateSession creates, or fetches, the chat between userID and lawyerID
func (c *Client) CreateSession(ctx context.Context, userID, lawyerID string) (models.SessionSummary, error) {
	body := map[string]string{"userId": userID, "lawyerId": lawyerID}

	var out models.SessionSummary
	if err := c.do(ctx, http.MethodPost, "/chat", body, &out); err != nil {
		return models.SessionSummary{}, errors.Wrap(err, "create session")
	}
	if out.ID == "" {
		return models.SessionSummary{}, errors.New("create session: response without id")
	}
	return out, nil
}

// GetHistory returns the messages of a chat and whether its appointment is still running
func (c *Client) GetHistory(ctx context.Context, sessionID string) (models.ChatHistory, error) {
	var out models.ChatHistory
	if err := c.do(ctx, http.MethodGet, "/chat/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return models.ChatHistory{}, errors.Wrap(err, "get history")
	}
	return out, nil
}

// BookAppointment books and pays a consultation
func (c *Client) BookAppointment(ctx context.Context, appt models.Appointment) (models.Appointment, error) {
	var out struct {
		models.Appointment
		Nested *models.Appointment `json:"appointment"`
	}
	if err := c.do(ctx, http.MethodPost, "/appointments", appt, &out); err != nil {
		return models.Appointment{}, errors.Wrap(err, "book appointment")
	}
	if out.Nested != nil {
		return *out.Nested, nil
	}
	return out.Appointment, nil
}

// GetWallet returns the wallet of a user
func (c *Client) GetWallet(ctx context.Context, userID string) (models.Wallet, error) {
	var out models.Wallet
	if err := c.do(ctx, http.MethodGet, "/wallet/"+url.PathEscape(userID), nil, &out); err != nil {
		return models.Wallet{}, errors.Wrap(err, "get wallet")
	}
	return out, nil
}

// AddMoney tops up the wallet of a user
func (c *Client) AddMoney(ctx context.Context, userID string, amount float64) (models.Wallet, error) {
	if amount <= 0 {
		return models.Wallet{}, errors.Errorf("invalid amount %v", amount)
	}

	body := map[string]any{"userId": userID, "amount": amount}

	var out models.Wallet
	if err := c.do(ctx, http.MethodPost, "/wallet/add", body, &out); err != nil {
		return models.Wallet{}, errors.Wrap(err, "add money")
	}
	return out, nil
}

// Transactions returns the wallet history of a user
func (c *Client) Transactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	var out struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := c.do(ctx, http.MethodGet, "/wallet/"+url.PathEscape(userID)+"/transactions", nil, &out); err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}
	return out.Transactions, nil
}

// ListLawyers returns the lawyer directory
func (c *Client) ListLawyers(ctx context.Context) ([]models.Lawyer, error) {
	var out []models.Lawyer
	if err := c.do(ctx, http.MethodGet, "/lawyer", nil, &out); err != nil {
		return nil, errors.Wrap(err, "list lawyers")
	}
	return out, nil
}

// LoginResponse is the body returned by the login endpoint
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	LawyerID string `json:"lawyerId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return LoginResponse{}, errors.Wrap(err, "login")
	}
	if out.Token == "" {
		return LoginResponse{}, errors.New("login: response without token")
	}
	return out, nil
}

// Logout invalidates the current token
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return errors.Wrap(err, "logout")
	}
	c.SetToken("")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP error! Status: %d", resp.StatusCode)
	}
	return apiErr
}
