package models

// IdentityKind discriminates who the authenticated user is
type IdentityKind string

const (
	KindClient IdentityKind = "user"
	KindLawyer IdentityKind = "lawyer"
)

// Identity is the authenticated user, resolved once at login
type Identity struct {
	Kind   IdentityKind `json:"role"`
	UserID string       `json:"user_id"`
	Name   string       `json:"name,omitempty"`
	Email  string       `json:"email,omitempty"`
	Token  string       `json:"-"`
}

// IsLawyer reports whether the identity belongs to a lawyer
func (i Identity) IsLawyer() bool {
	return i.Kind == KindLawyer
}

// Valid reports whether the identity carries enough to talk to the backend
func (i Identity) Valid() bool {
	return i.UserID != "" && i.Token != "" && (i.Kind == KindClient || i.Kind == KindLawyer)
}
