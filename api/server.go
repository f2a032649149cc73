package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mbenaiss/lexchat/services"
	"github.com/rs/zerolog"
)

// Server represents the API handler
type Server struct {
	service services.Service
	router  *gin.Engine
	server  *http.Server
	logger  zerolog.Logger
}

// NewServer creates a new API server
func NewServer(service services.Service, port string, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		service: service,
		router:  router,
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "api").Logger(),
	}

	router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(router)

	return s
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OpenChatRequest selects the counterparty of the chat to open
type OpenChatRequest struct {
	CounterpartyID string `json:"counterparty_id"`
}

// SendMessageRequest represents the request body for sending messages
type SendMessageRequest struct {
	Message string `json:"message"`
}

// TypingRequest toggles the typing indicator
type TypingRequest struct {
	Typing bool `json:"typing"`
}

// AddMoneyRequest represents a wallet top-up
type AddMoneyRequest struct {
	Amount float64 `json:"amount"`
}

// Response represents a generic API response
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RegisterRoutes registers all API routes
func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.POST("/login", s.handleLogin)
		api.POST("/logout", s.handleLogout)
		api.GET("/lawyers", s.handleGetLawyers)

		api.POST("/chat/open", s.handleOpenChat)
		api.POST("/chat/close", s.handleCloseChat)
		api.GET("/chat", s.handleGetChat)
		api.GET("/chat/messages", s.handleGetMessages)
		api.POST("/chat/send", s.handleSendMessage)
		api.POST("/chat/request", s.handleRequestSession)
		api.POST("/chat/typing", s.handleTyping)

		api.GET("/wallet", s.handleGetWallet)
		api.POST("/wallet/refresh", s.handleRefreshWallet)
		api.POST("/wallet/add", s.handleAddMoney)
		api.GET("/wallet/transactions", s.handleGetTransactions)

		api.GET("/bookings", s.handleGetBookings)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
