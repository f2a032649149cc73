package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbenaiss/lexchat/models"
	"github.com/pkg/errors"
)

type handler struct {
	client *Client
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// bridgeFailure turns a bridge answer into a tool error the model can read
func bridgeFailure(err error) (*mcp.CallToolResult, error) {
	var be *BridgeError
	if errors.As(err, &be) {
		return mcp.NewToolResultError(be.Message), nil
	}
	return nil, err
}

func (h *handler) getStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.client.Status(ctx)
	if err != nil {
		return bridgeFailure(err)
	}
	return jsonResult(st)
}

func (h *handler) login(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email, ok := request.Params.Arguments["email"].(string)
	if !ok {
		return nil, errors.New("email must be a string")
	}
	password, ok := request.Params.Arguments["password"].(string)
	if !ok {
		return nil, errors.New("password must be a string")
	}

	id, err := h.client.Login(ctx, email, password)
	if err != nil {
		return bridgeFailure(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Logged in as %s (%s)", id.UserID, id.Kind)), nil
}

func (h *handler) listLawyers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var query string
	if q, ok := request.Params.Arguments["query"].(string); ok {
		query = strings.ToLower(strings.TrimSpace(q))
	}

	lawyers, err := h.client.Lawyers(ctx)
	if err != nil {
		return bridgeFailure(err)
	}

	if query != "" {
		filtered := lawyers[:0]
		for _, l := range lawyers {
			if matchesLawyer(l, query) {
				filtered = append(filtered, l)
			}
		}
		lawyers = filtered
	}
	return jsonResult(lawyers)
}

func matchesLawyer(l models.Lawyer, query string) bool {
	if strings.Contains(strings.ToLower(l.Name), query) || strings.Contains(strings.ToLower(l.Location), query) {
		return true
	}
	for _, e := range l.Expertise {
		if strings.Contains(strings.ToLower(e), query) {
			return true
		}
	}
	return false
}

func (h *handler) openChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := request.Params.Arguments["counterparty_id"].(string)
	if !ok || id == "" {
		return nil, errors.New("counterparty_id must be a non-empty string")
	}

	view, err := h.client.OpenChat(ctx, id)
	if err != nil {
		return bridgeFailure(err)
	}
	return jsonResult(view)
}

func (h *handler) getChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.client.Chat(ctx)
	if err != nil {
		return bridgeFailure(err)
	}
	return jsonResult(view)
}

func (h *handler) listMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 20
	if l, ok := request.Params.Arguments["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	msgs, err := h.client.Messages(ctx, limit)
	if err != nil {
		return bridgeFailure(err)
	}
	return jsonResult(msgs)
}

func (h *handler) sendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, ok := request.Params.Arguments["message"].(string)
	if !ok {
		return nil, errors.New("message must be a string")
	}

	msg, err := h.client.SendMessage(ctx, message)
	if err != nil {
		return bridgeFailure(err)
	}
	return mcp.NewToolResultText(msg), nil
}

func (h *handler) requestSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	booking, err := h.client.RequestSession(ctx)
	if err != nil {
		var be *BridgeError
		if errors.As(err, &be) && booking.ID != "" {
			return mcp.NewToolResultError(fmt.Sprintf("%s (booking %s: %s)", be.Message, booking.ID, booking.Outcome)), nil
		}
		return bridgeFailure(err)
	}
	return jsonResult(booking)
}

func (h *handler) closeChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.client.CloseChat(ctx); err != nil {
		return bridgeFailure(err)
	}
	return mcp.NewToolResultText("Chat closed"), nil
}

func (h *handler) getWallet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refresh, _ := request.Params.Arguments["refresh"].(bool)

	wallet, err := h.client.Wallet(ctx, refresh)
	if err != nil {
		return bridgeFailure(err)
	}
	return jsonResult(wallet)
}

func (h *handler) addMoney(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amount, ok := request.Params.Arguments["amount"].(float64)
	if !ok || amount <= 0 {
		return nil, errors.New("amount must be a positive number")
	}

	wallet, err := h.client.AddMoney(ctx, amount)
	if err != nil {
		return bridgeFailure(err)
	}
	return jsonResult(wallet)
}

func (h *handler) listTransactions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	txs, err := h.client.Transactions(ctx)
	if err != nil {
		return bridgeFailure(err)
	}
	return jsonResult(txs)
}

func (h *handler) listBookings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counterpartyID, _ := request.Params.Arguments["counterparty_id"].(string)
	limit := 20
	if l, ok := request.Params.Arguments["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	bookings, err := h.client.Bookings(ctx, counterpartyID, limit)
	if err != nil {
		return bridgeFailure(err)
	}
	return jsonResult(bookings)
}
