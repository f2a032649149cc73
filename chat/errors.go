package chat

import "github.com/pkg/errors"

var (
	// ErrCannotSend is returned when a message is sent outside an active session
	ErrCannotSend = errors.New("cannot send: chat is not active")
	// ErrNotConnected is returned when the session is active but the transport is down
	ErrNotConnected = errors.New("not connected to chat server")
	// ErrInsufficientFunds is returned when the wallet does not cover the price
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	// ErrBookingFailed is returned when the paid appointment could not be booked
	ErrBookingFailed = errors.New("booking failed")
	// ErrSessionSetupFailed is returned when payment went through but no session could be attached
	ErrSessionSetupFailed = errors.New("payment succeeded but session setup failed, please refresh")
	// ErrSessionInProgress is returned when paying while a session is pending or active
	ErrSessionInProgress = errors.New("a chat request is already in progress")
	// ErrNotClient is returned when a lawyer identity tries to book
	ErrNotClient = errors.New("only clients can request a consultation")
	// ErrDisposed is returned by a controller after Close
	ErrDisposed = errors.New("chat controller closed")
)
