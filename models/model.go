package models

import "time"

// SessionStatus is the lifecycle status of a consultation chat
type SessionStatus string

const (
	StatusNone     SessionStatus = "none"
	StatusPending  SessionStatus = "pending"
	StatusActive   SessionStatus = "active"
	StatusEnded    SessionStatus = "ended"
	StatusDeclined SessionStatus = "declined"
)

// ParseSessionStatus maps a backend status string onto a SessionStatus.
// The backend calls an accepted request "accepted" and a closed one "completed".
func ParseSessionStatus(s string) SessionStatus {
	switch s {
	case "pending", "requested":
		return StatusPending
	case "active", "accepted":
		return StatusActive
	case "ended", "completed", "closed", "expired":
		return StatusEnded
	case "declined", "rejected":
		return StatusDeclined
	default:
		return StatusNone
	}
}

// Sender identifies who wrote a message relative to the current user
type Sender string

const (
	SenderSelf         Sender = "self"
	SenderCounterparty Sender = "counterparty"
	SenderSystem       Sender = "system"
)

// Counterparty is the display identity of the other participant
type Counterparty struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Session represents a client-lawyer chat pairing
type Session struct {
	ID           string        `json:"id"`
	Counterparty Counterparty  `json:"counterparty"`
	Status       SessionStatus `json:"status"`
	Price        float64       `json:"price"`
}

// Message represents an entry of a session log
type Message struct {
	SessionID string    `json:"session_id"`
	ClientID  string    `json:"client_id,omitempty"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSummary is a row of the current user's chat list
type SessionSummary struct {
	ID           string    `json:"_id"`
	UserID       string    `json:"userId"`
	LawyerID     string    `json:"lawyerId"`
	Status       string    `json:"status"`
	LastActivity time.Time `json:"lastActivity"`
	LastMessage  string    `json:"lastMessage"`
}

// CounterpartyID returns the id of the other participant as seen by kind
func (s SessionSummary) CounterpartyID(kind IdentityKind) string {
	if kind == KindLawyer {
		return s.UserID
	}
	return s.LawyerID
}

// ChatHistory is the payload of a single chat fetch
type ChatHistory struct {
	Messages          []HistoryMessage `json:"messages"`
	AppointmentActive bool             `json:"appointmentActive"`
	Status            string           `json:"status,omitempty"`
}

// HistoryMessage is a message as stored by the backend
type HistoryMessage struct {
	Sender    string    `json:"sender"`
	SenderID  string    `json:"senderId,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	ClientID  string    `json:"clientId,omitempty"`
}

// Appointment is a paid consultation slot
type Appointment struct {
	ID       string `json:"_id"`
	UserID   string `json:"userId"`
	LawyerID string `json:"lawyerId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Notes    string `json:"notes,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Wallet holds the user's balance
type Wallet struct {
	Balance float64 `json:"balance"`
}

// Transaction is a wallet movement
type Transaction struct {
	ID        string    `json:"_id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Lawyer is an entry of the lawyer directory
type Lawyer struct {
	ID         string   `json:"_id"`
	Name       string   `json:"name"`
	Image      string   `json:"image,omitempty"`
	Experience string   `json:"experience,omitempty"`
	Location   string   `json:"location,omitempty"`
	Expertise  []string `json:"expertise,omitempty"`
	Rating     float64  `json:"rating,omitempty"`
	Price      float64  `json:"price,omitempty"`
}

// Counterparty returns the display identity of the lawyer
func (l Lawyer) Counterparty() Counterparty {
	return Counterparty{ID: l.ID, Name: l.Name, Image: l.Image}
}

// BookingOutcome records how far a payment action got
type BookingOutcome string

const (
	BookingRejected    BookingOutcome = "rejected"
	BookingBooked      BookingOutcome = "booked"
	BookingSettled     BookingOutcome = "settled"
	BookingSetupFailed BookingOutcome = "setup_failed"
)

// Booking is a ledger entry describing one payment action
type Booking struct {
	ID             string         `json:"id"`
	CounterpartyID string         `json:"counterparty_id"`
	AppointmentID  string         `json:"appointment_id,omitempty"`
	SessionID      string         `json:"session_id,omitempty"`
	Price          float64        `json:"price"`
	Outcome        BookingOutcome `json:"outcome"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Status represents the status of the bridge
type Status struct {
	LoggedIn      bool          `json:"logged_in"`
	UserID        string        `json:"user_id,omitempty"`
	Role          IdentityKind  `json:"role,omitempty"`
	Connected     bool          `json:"connected"`
	OpenChat      string        `json:"open_chat,omitempty"`
	SessionStatus SessionStatus `json:"session_status,omitempty"`
}
