package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mbenaiss/lexchat/auth"
	"github.com/mbenaiss/lexchat/backend"
	"github.com/mbenaiss/lexchat/chat"
	"github.com/mbenaiss/lexchat/services"
	"github.com/pkg/errors"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated), backend.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.Is(err, chat.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, chat.ErrSessionSetupFailed),
		errors.Is(err, chat.ErrSessionInProgress),
		errors.Is(err, chat.ErrCannotSend):
		return http.StatusConflict
	case errors.Is(err, chat.ErrNotClient):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNoChat):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, chat.ErrBookingFailed):
		return http.StatusBadGateway
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, what string, err error) {
	code := statusFor(err)
	msg := fmt.Sprintf("%s: %v", what, err)
	switch code {
	case http.StatusUnauthorized:
		msg = "Login required"
	case http.StatusConflict, http.StatusPaymentRequired:
		msg = err.Error()
	}
	if code >= http.StatusInternalServerError {
		s.logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(what)
	}
	c.JSON(code, Response{
		Success: false,
		Message: msg,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    s.service.GetStatus(),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "Email and password are required",
		})
		return
	}

	id, err := s.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, "Failed to login", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Login successful",
		Data:    id,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.service.Logout(c.Request.Context()); err != nil {
		s.fail(c, "Failed to logout", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Logged out",
	})
}

func (s *Server) handleGetLawyers(c *gin.Context) {
	lawyers, err := s.service.ListLawyers(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to get lawyers", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    lawyers,
	})
}

func (s *Server) handleOpenChat(c *gin.Context) {
	var req OpenChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CounterpartyID == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "counterparty_id is required",
		})
		return
	}

	view, err := s.service.OpenChat(c.Request.Context(), req.CounterpartyID)
	if err != nil {
		s.fail(c, "Failed to open chat", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    view,
	})
}

func (s *Server) handleCloseChat(c *gin.Context) {
	if err := s.service.CloseChat(); err != nil {
		s.fail(c, "Failed to close chat", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Chat closed",
	})
}

func (s *Server) handleGetChat(c *gin.Context) {
	view, err := s.service.GetChat()
	if err != nil {
		s.fail(c, "Failed to get chat", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    view,
	})
}

func (s *Server) handleGetMessages(c *gin.Context) {
	limit := 50 // Default limit
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	messages, err := s.service.GetMessages(limit)
	if err != nil {
		s.fail(c, "Failed to get messages", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    messages,
	})
}

func (s *Server) handleSendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusOK, Response{
			Success: true,
			Message: "Nothing to send",
		})
		return
	}

	if err := s.service.SendMessage(c.Request.Context(), req.Message); err != nil {
		s.fail(c, "Failed to send message", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Message sent successfully",
	})
}

func (s *Server) handleRequestSession(c *gin.Context) {
	booking, err := s.service.RequestSession(c.Request.Context())
	if err != nil {
		code := statusFor(err)
		msg := err.Error()
		if code == http.StatusUnauthorized {
			msg = "Login required"
		}
		var data any
		if booking.ID != "" {
			data = booking
		}
		c.JSON(code, Response{
			Success: false,
			Message: msg,
			Data:    data,
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Chat request sent",
		Data:    booking,
	})
}

func (s *Server) handleTyping(c *gin.Context) {
	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	if err := s.service.SetTyping(c.Request.Context(), req.Typing); err != nil {
		s.fail(c, "Failed to update typing", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

func (s *Server) handleGetWallet(c *gin.Context) {
	wallet, err := s.service.GetWallet(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to get wallet", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    wallet,
	})
}

func (s *Server) handleRefreshWallet(c *gin.Context) {
	wallet, err := s.service.RefreshWallet(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to refresh wallet", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    wallet,
	})
}

func (s *Server) handleAddMoney(c *gin.Context) {
	var req AddMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "A positive amount is required",
		})
		return
	}

	wallet, err := s.service.AddMoney(c.Request.Context(), req.Amount)
	if err != nil {
		s.fail(c, "Failed to add money", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Money added",
		Data:    wallet,
	})
}

func (s *Server) handleGetTransactions(c *gin.Context) {
	txs, err := s.service.GetTransactions(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to get transactions", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    txs,
	})
}

func (s *Server) handleGetBookings(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	bookings, err := s.service.GetBookings(c.Request.Context(), c.Query("counterparty"), limit)
	if err != nil {
		s.fail(c, "Failed to get bookings", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    bookings,
	})
}
