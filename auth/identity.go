// Package auth resolves the authenticated identity once, at login or startup.
// Everything downstream works with models.Identity and never inspects raw
// role strings again.
package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mbenaiss/lexchat/backend"
	"github.com/mbenaiss/lexchat/models"
	"github.com/pkg/errors"
)

// ErrNotAuthenticated is returned when no usable identity can be resolved
var ErrNotAuthenticated = errors.New("not authenticated")

// ParseKind maps a role or source string onto an IdentityKind
func ParseKind(role string) (models.IdentityKind, bool) {
	r := strings.ToLower(strings.TrimSpace(role))
	switch {
	case r == "lawyer" || r == "advocate" || strings.Contains(r, "lawyer"):
		return models.KindLawyer, true
	case r == "user" || r == "client":
		return models.KindClient, true
	}
	return "", false
}

// FromLogin builds the identity returned by the login endpoint
func FromLogin(resp backend.LoginResponse) (models.Identity, error) {
	userID := resp.UserID
	role := resp.Role
	if userID == "" && resp.LawyerID != "" {
		userID = resp.LawyerID
		if role == "" {
			role = "lawyer"
		}
	}

	id, err := FromToken(resp.Token, userID, role)
	if err != nil {
		return models.Identity{}, err
	}
	if resp.Name != "" {
		id.Name = resp.Name
	}
	if resp.Email != "" {
		id.Email = resp.Email
	}
	return id, nil
}

// FromToken resolves an identity from a bearer token. JWT claims are read
// without verification (the backend verifies); userID and role are used when
// the token is opaque or lacks the claims.
func FromToken(token, userID, role string) (models.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return models.Identity{}, errors.Wrap(ErrNotAuthenticated, "missing token")
	}

	id := models.Identity{Token: token, UserID: userID}
	roleSource := role

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if id.UserID == "" {
			id.UserID = firstClaim(claims, "userId", "id", "sub", "lawyerId")
		}
		if claimRole := firstClaim(claims, "role", "source"); claimRole != "" {
			roleSource = claimRole
		}
		id.Name = firstClaim(claims, "name")
		id.Email = firstClaim(claims, "email")
	}

	kind, ok := ParseKind(roleSource)
	if !ok {
		kind = models.KindClient
	}
	id.Kind = kind

	if !id.Valid() {
		return models.Identity{}, errors.Wrap(ErrNotAuthenticated, "token carries no user id")
	}
	return id, nil
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
