package stripepay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type Credentials struct {
	PublishableKey string `json:"publishable"`
	SecretKey      string `json:"secret"`
}

type CredentialSource interface {
	Fetch(ctx context.Context) (Credentials, error)
}

// EnvSource serves keys fixed at startup.
type EnvSource struct {
	Publishable string
	Secret      string
}

func (s EnvSource) Fetch(context.Context) (Credentials, error) {
	if strings.TrimSpace(s.Secret) == "" {
		return Credentials{}, fmt.Errorf("stripe secret key not configured")
	}
	return Credentials{PublishableKey: s.Publishable, SecretKey: s.Secret}, nil
}

// ConnectorSource reads keys from the settings connector. The endpoint
// answers {"publishable": "...", "secret": "..."}.
type ConnectorSource struct {
	URL   string
	Token string
	HTTP  *http.Client
}

func (s *ConnectorSource) Fetch(ctx context.Context) (Credentials, error) {
	hc := s.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 8 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Credentials{}, err
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Credentials{}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Credentials{}, fmt.Errorf("connector error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out Credentials
	if err := json.Unmarshal(body, &out); err != nil {
		return Credentials{}, err
	}
	if strings.TrimSpace(out.SecretKey) == "" {
		return Credentials{}, fmt.Errorf("connector returned no secret key")
	}
	return out, nil
}

// CredentialCache refetches from Source only once the cached value has
// expired. A failed fetch leaves the previous value in place but expired, so
// the next call tries again.
type CredentialCache struct {
	Source CredentialSource
	TTL    time.Duration
	Now    func() time.Time

	mu        sync.Mutex
	creds     Credentials
	expiresAt time.Time
}

func NewCredentialCache(src CredentialSource, ttl time.Duration) *CredentialCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CredentialCache{Source: src, TTL: ttl}
}

func (c *CredentialCache) Get(ctx context.Context) (Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !c.expiresAt.IsZero() && now.Before(c.expiresAt) {
		return c.creds, nil
	}
	creds, err := c.Source.Fetch(ctx)
	if err != nil {
		return Credentials{}, err
	}
	c.creds = creds
	c.expiresAt = now.Add(c.TTL)
	return creds, nil
}

func (c *CredentialCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
