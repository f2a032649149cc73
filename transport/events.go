package transport

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Event names exchanged with the socket server
const (
	EventAuthenticate = "authenticate"
	EventJoinRoom     = "joinRoom"
	EventSendMessage  = "sendMessage"
	EventTyping       = "typing"
	EventStopTyping   = "stopTyping"

	EventAuthenticated          = "authenticated"
	EventAuthError              = "authError"
	EventReceiveMessage         = "receiveMessage"
	EventChatRequestUpdate      = "chatRequestUpdate"
	EventUserTyping             = "userTyping"
	EventUserStoppedTyping      = "userStoppedTyping"
	EventNewMessageNotification = "newMessageNotification"
)

// Frame is the envelope of every socket message
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an inbound frame handed to subscribers
type Event struct {
	Name string
	Data json.RawMessage
}

// Handler receives inbound events in arrival order
type Handler func(Event)

// AuthPayload identifies the client on the channel
type AuthPayload struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Token  string `json:"token,omitempty"`
}

// RoomPayload subscribes the connection to one chat
type RoomPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
}

// OutboundMessage is a chat message emitted by this client
type OutboundMessage struct {
	ChatID   string `json:"chatId"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
	UserID   string `json:"userId"`
	LawyerID string `json:"lawyerId"`
	ClientID string `json:"clientId,omitempty"`
}

// TypingPayload announces that a participant is typing
type TypingPayload struct {
	ChatID string `json:"chatId"`
	User   string `json:"user,omitempty"`
}

// InboundMessage is a receiveMessage payload
type InboundMessage struct {
	ChatID    string    `json:"chatId"`
	Sender    string    `json:"sender"`
	SenderID  string    `json:"senderId,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	ClientID  string    `json:"clientId,omitempty"`
}

// ChatRequestUpdate is a chatRequestUpdate payload
type ChatRequestUpdate struct {
	ChatID  string `json:"chatId"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// MessageNotification is a newMessageNotification payload, sent for chats
// whose room is not joined
type MessageNotification struct {
	ChatID     string `json:"chatId"`
	SenderName string `json:"senderName,omitempty"`
	Text       string `json:"text,omitempty"`
}

// AuthError is an authError payload
type AuthError struct {
	Message string `json:"message"`
}

// Decode unmarshals the event payload into v
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return errors.Errorf("event %s has no payload", e.Name)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return errors.Wrapf(err, "decode %s", e.Name)
	}
	return nil
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", event)
	}
	return json.Marshal(Frame{Event: event, Data: data})
}
