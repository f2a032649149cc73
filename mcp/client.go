package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mbenaiss/lexchat/models"
	"github.com/mbenaiss/lexchat/services"
	"github.com/pkg/errors"
)

// BridgeError is a failed answer of the bridge API
type BridgeError struct {
	StatusCode int
	Message    string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge %d: %s", e.StatusCode, e.Message)
}

// Client talks to the bridge HTTP API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the bridge at baseURL (e.g. "http://localhost:8080/api")
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Status returns the bridge status
func (c *Client) Status(ctx context.Context) (models.Status, error) {
	var st models.Status
	_, err := c.call(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

// Login logs the bridge in
func (c *Client) Login(ctx context.Context, email, password string) (models.Identity, error) {
	var id models.Identity
	_, err := c.call(ctx, http.MethodPost, "/login", map[string]string{"email": email, "password": password}, &id)
	return id, err
}

// Lawyers returns the lawyer directory
func (c *Client) Lawyers(ctx context.Context) ([]models.Lawyer, error) {
	var lawyers []models.Lawyer
	_, err := c.call(ctx, http.MethodGet, "/lawyers", nil, &lawyers)
	return lawyers, err
}

// OpenChat opens the chat with a counterparty
func (c *Client) OpenChat(ctx context.Context, counterpartyID string) (services.ChatView, error) {
	var view services.ChatView
	_, err := c.call(ctx, http.MethodPost, "/chat/open", map[string]string{"counterparty_id": counterpartyID}, &view)
	return view, err
}

// CloseChat closes the open chat
func (c *Client) CloseChat(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodPost, "/chat/close", nil, nil)
	return err
}

// Chat returns the open chat
func (c *Client) Chat(ctx context.Context) (services.ChatView, error) {
	var view services.ChatView
	_, err := c.call(ctx, http.MethodGet, "/chat", nil, &view)
	return view, err
}

// Messages returns the last limit messages of the open chat
func (c *Client) Messages(ctx context.Context, limit int) ([]models.Message, error) {
	var msgs []models.Message
	_, err := c.call(ctx, http.MethodGet, "/chat/messages?limit="+strconv.Itoa(limit), nil, &msgs)
	return msgs, err
}

// SendMessage sends text in the open chat
func (c *Client) SendMessage(ctx context.Context, text string) (string, error) {
	return c.call(ctx, http.MethodPost, "/chat/send", map[string]string{"message": text}, nil)
}

// RequestSession pays for a session in the open chat. The booking is
// returned with the error when the bridge recorded one.
func (c *Client) RequestSession(ctx context.Context) (models.Booking, error) {
	var booking models.Booking
	_, err := c.call(ctx, http.MethodPost, "/chat/request", nil, &booking)
	return booking, err
}

// Wallet returns the wallet, re-fetching it when refresh is set
func (c *Client) Wallet(ctx context.Context, refresh bool) (models.Wallet, error) {
	var wallet models.Wallet
	var err error
	if refresh {
		_, err = c.call(ctx, http.MethodPost, "/wallet/refresh", nil, &wallet)
	} else {
		_, err = c.call(ctx, http.MethodGet, "/wallet", nil, &wallet)
	}
	return wallet, err
}

// AddMoney tops up the wallet
func (c *Client) AddMoney(ctx context.Context, amount float64) (models.Wallet, error) {
	var wallet models.Wallet
	_, err := c.call(ctx, http.MethodPost, "/wallet/add", map[string]float64{"amount": amount}, &wallet)
	return wallet, err
}

// Transactions returns the wallet history
func (c *Client) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	_, err := c.call(ctx, http.MethodGet, "/wallet/transactions", nil, &txs)
	return txs, err
}

// Bookings lists the booking ledger
func (c *Client) Bookings(ctx context.Context, counterpartyID string, limit int) ([]models.Booking, error) {
	q := url.Values{}
	if counterpartyID != "" {
		q.Set("counterparty", counterpartyID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/bookings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var bookings []models.Booking
	_, err := c.call(ctx, http.MethodGet, path, nil, &bookings)
	return bookings, err
}

// call performs a request and decodes the data field into out. Data is
// decoded on failures too, so callers can inspect partial results.
func (c *Client) call(ctx context.Context, method, path string, in, out any) (string, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return "", errors.Wrap(err, "JSON serialization error")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return "", errors.Wrap(err, "request error")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request error")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", &BridgeError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", errors.Wrap(err, "response decoding error")
		}
	}

	if resp.StatusCode >= 300 || !env.Success {
		return env.Message, &BridgeError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env.Message, nil
}
