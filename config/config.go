package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config struct to hold the configuration
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	StoreDir string `envconfig:"STORE_DIR" default:"./store"`

	APIBaseURL     string        `envconfig:"API_BASE_URL" default:"http://localhost:5000/api"`
	SocketURL      string        `envconfig:"SOCKET_URL" default:"ws://localhost:5000/socket"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`

	AuthToken string `envconfig:"AUTH_TOKEN"`
	UserID    string `envconfig:"USER_ID"`
	UserRole  string `envconfig:"USER_ROLE" default:"user"`

	ConsultationPrice float64 `envconfig:"CONSULTATION_PRICE" default:"500"`
	WalletPollSpec    string  `envconfig:"WALLET_POLL_SPEC" default:"@every 30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"true"`

	BridgeURL string `envconfig:"BRIDGE_URL" default:"http://localhost:8080/api"`
}

// Load function to load the configuration from the environment variables
func Load() (Config, error) {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file found")
	}

	var c Config
	err = envconfig.Process("", &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to get envconfig")
	}

	if c.ConsultationPrice < 0 {
		return Config{}, errors.Errorf("invalid CONSULTATION_PRICE %v", c.ConsultationPrice)
	}

	return c, nil
}
