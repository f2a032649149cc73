package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSessionStatus(t *testing.T) {
	cases := map[string]SessionStatus{
		"pending":   StatusPending,
		"accepted":  StatusActive,
		"active":    StatusActive,
		"completed": StatusEnded,
		"declined":  StatusDeclined,
		"rejected":  StatusDeclined,
		"":          StatusNone,
		"weird":     StatusNone,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseSessionStatus(in), in)
	}
}

func TestIdentityValid(t *testing.T) {
	assert.True(t, Identity{Kind: KindClient, UserID: "u1", Token: "t"}.Valid())
	assert.False(t, Identity{Kind: KindClient, UserID: "u1"}.Valid())
	assert.False(t, Identity{Kind: "admin", UserID: "u1", Token: "t"}.Valid())
	assert.True(t, Identity{Kind: KindLawyer}.IsLawyer())
}
