package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      string `envconfig:"BRAZADASH_ENV" json:"env"`
	Port     int    `envconfig:"BRAZADASH_PORT" json:"port"`
	LogJSON  bool   `envconfig:"BRAZADASH_LOG_JSON" json:"logJson"`
	LogLevel string `envconfig:"BRAZADASH_LOG_LEVEL" json:"logLevel"`

	DBDriver    string `envconfig:"BRAZADASH_DB_DRIVER" json:"dbDriver"`
	DatabaseURL string `envconfig:"BRAZADASH_DATABASE_URL" json:"-"`

	JWTSecret     string `envconfig:"BRAZADASH_JWT_SECRET" json:"-"`
	PublicBaseURL string `envconfig:"BRAZADASH_PUBLIC_BASE_URL" json:"publicBaseUrl"`
	UploadsDir    string `envconfig:"BRAZADASH_UPLOADS_DIR" json:"uploadsDir"`

	Currency   string  `envconfig:"BRAZADASH_CURRENCY" json:"currency"`
	BookingFee float64 `envconfig:"BRAZADASH_BOOKING_FEE" json:"bookingFee"`

	StripeSecretKey      string        `envconfig:"STRIPE_SECRET_KEY" json:"-"`
	StripePublishableKey string        `envconfig:"STRIPE_PUBLISHABLE_KEY" json:"-"`
	StripeAPIBase        string        `envconfig:"STRIPE_API_BASE" json:"stripeApiBase,omitempty"`
	ConnectorURL         string        `envconfig:"BRAZADASH_CONNECTOR_URL" json:"connectorUrl,omitempty"`
	ConnectorToken       string        `envconfig:"BRAZADASH_CONNECTOR_TOKEN" json:"-"`
	CredentialTTL        time.Duration `envconfig:"BRAZADASH_CREDENTIAL_TTL" json:"credentialTtl"`

	KafkaBrokers      string `envconfig:"KAFKA_BROKERS" json:"kafkaBrokers,omitempty"`
	NotificationTopic string `envconfig:"BRAZADASH_NOTIFICATION_TOPIC" json:"notificationTopic"`

	ReportTimezone  string        `envconfig:"BRAZADASH_REPORT_TZ" json:"reportTimezone"`
	PollInterval    time.Duration `envconfig:"BRAZADASH_POLL_INTERVAL" json:"pollInterval"`
	PollMaxAttempts int           `envconfig:"BRAZADASH_POLL_MAX_ATTEMPTS" json:"pollMaxAttempts"`
}

func Default() Config {
	return Config{
		Env:               "dev",
		Port:              5000,
		LogJSON:           true,
		LogLevel:          "info",
		DBDriver:          "memory",
		PublicBaseURL:     "http://localhost:5000",
		UploadsDir:        "./uploads",
		Currency:          "usd",
		BookingFee:        2.99,
		CredentialTTL:     5 * time.Minute,
		NotificationTopic: "notification-events",
		ReportTimezone:    "America/Los_Angeles",
		PollInterval:      2 * time.Second,
		PollMaxAttempts:   150,
	}
}

// Load overlays environment variables on top of Default. Unset variables keep
// their default value.
func Load() (Config, error) {
	c := Default()
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "memory", "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.DBDriver != "memory" && c.DatabaseURL == "" {
		return fmt.Errorf("BRAZADASH_DATABASE_URL required for driver %s", c.DBDriver)
	}
	if c.JWTSecret == "" && c.Env != "dev" {
		return fmt.Errorf("BRAZADASH_JWT_SECRET required outside dev")
	}
	if c.PollMaxAttempts <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("poll interval and attempts must be positive")
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		return fmt.Errorf("report timezone: %w", err)
	}
	return nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
