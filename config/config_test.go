package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "http://localhost:5000/api", c.APIBaseURL)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, float64(500), c.ConsultationPrice)
	assert.Equal(t, "@every 30s", c.WalletPollSpec)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SOCKET_URL", "ws://example.test/socket")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("CONSULTATION_PRICE", "750")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "ws://example.test/socket", c.SocketURL)
	assert.Equal(t, 3*time.Second, c.RequestTimeout)
	assert.Equal(t, float64(750), c.ConsultationPrice)
}

func TestLoadRejectsNegativePrice(t *testing.T) {
	t.Setenv("CONSULTATION_PRICE", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
