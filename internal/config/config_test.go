package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.Port != 5000 || c.DBDriver != "memory" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.CredentialTTL != 5*time.Minute {
		t.Fatalf("credential ttl = %v", c.CredentialTTL)
	}
	if c.PollInterval != 2*time.Second || c.PollMaxAttempts != 150 {
		t.Fatalf("poll settings = %v / %d", c.PollInterval, c.PollMaxAttempts)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BRAZADASH_PORT", "8081")
	t.Setenv("BRAZADASH_BOOKING_FEE", "3.5")
	t.Setenv("BRAZADASH_CREDENTIAL_TTL", "30s")
	c, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.Port != 8081 {
		t.Fatalf("port = %d", c.Port)
	}
	if c.BookingFee != 3.5 {
		t.Fatalf("booking fee = %v", c.BookingFee)
	}
	if c.CredentialTTL != 30*time.Second {
		t.Fatalf("ttl = %v", c.CredentialTTL)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.DBDriver = "postgres"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for postgres without url")
	}
	c = Default()
	c.Env = "prod"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing jwt secret outside dev")
	}
	c = Default()
	c.DBDriver = "mongo"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
