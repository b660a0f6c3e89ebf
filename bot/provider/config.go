package provider

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

const (
	defaultBaseURL   = "https://parser-api.com"
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "autocheck-bot/1.0"
)

// Config is loaded per provider with its own prefix (GIBDD, NSIS, EAISTO).
type Config struct {
	APIKey     string        `envconfig:"API_KEY" split_words:"true"`
	BaseURL    string        `envconfig:"BASE_URL" split_words:"true" default:"https://parser-api.com"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
	VINParam   string        `envconfig:"VIN_PARAM" split_words:"true" default:"vin"`
	PlateParam string        `envconfig:"PLATE_PARAM" split_words:"true" default:"regnum"`
	UserAgent  string        `envconfig:"USER_AGENT" split_words:"true" default:"autocheck-bot/1.0"`
}

// Option customizes a provider client.
type Option func(*transport)

func WithHTTPClient(client *http.Client) Option {
	return func(t *transport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(t *transport) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			t.userAgent = trimmed
		}
	}
}

func (c Config) paramFor(kind contractx.IdentifierKind) string {
	if kind == contractx.KindPlate {
		if p := strings.TrimSpace(c.PlateParam); p != "" {
			return p
		}
		return "regnum"
	}
	if p := strings.TrimSpace(c.VINParam); p != "" {
		return p
	}
	return "vin"
}

func newTransport(name contractx.ProviderID, cfg Config, opts ...Option) (*transport, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s api key is required", contractx.ErrConfiguration, name)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid %s base url: %v", contractx.ErrConfiguration, name, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	t := &transport{
		name:      name,
		apiKey:    apiKey,
		baseURL:   baseURL,
		timeout:   timeout,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	opts = append([]Option{WithUserAgent(cfg.UserAgent)}, opts...)
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}
