package chat

import "time"

// NoticeLevel is the severity of a user-visible notice
type NoticeLevel string

const (
	LevelInfo    NoticeLevel = "info"
	LevelWarning NoticeLevel = "warning"
	LevelError   NoticeLevel = "error"
)

// NoticeCode identifies what a notice is about
type NoticeCode string

const (
	CodeCannotSend         NoticeCode = "cannot_send"
	CodeInsufficientFunds  NoticeCode = "insufficient_funds"
	CodeBookingFailed      NoticeCode = "booking_failed"
	CodeSessionSetupFailed NoticeCode = "session_setup_failed"
	CodeNetwork            NoticeCode = "network"
	CodeTransport          NoticeCode = "transport"
	CodeRequestSent        NoticeCode = "request_sent"
	CodeNewMessage         NoticeCode = "new_message"
)

// Notice is a transient message meant for the user, like a toast
type Notice struct {
	Level NoticeLevel `json:"level"`
	Code  NoticeCode  `json:"code"`
	Text  string      `json:"text"`
	At    time.Time   `json:"at"`
}
