package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const DefaultViaCEPURL = "https://viacep.com.br"

// ViaCEPClient resolves postal codes with the ViaCEP web service. Concurrent
// lookups of the same code share one request, and a run of transport
// failures opens the breaker so the page fails fast.
type ViaCEPClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*domain.Address]
	sfg     singleflight.Group
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// consecutive failures before the breaker opens
	MaxFailures uint32
	// how long the breaker stays open
	OpenTimeout time.Duration
	Transport   http.RoundTripper
	Logger      *slog.Logger
}

func NewViaCEPClient(cfg ClientConfig) *ViaCEPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultViaCEPURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &ViaCEPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(cfg.Transport),
		},
		cb: gobreaker.NewCircuitBreaker[*domain.Address](gobreaker.Settings{
			Name:    "viacep",
			Timeout: cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
			// an unknown code is a valid answer
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (c *ViaCEPClient) Resolve(ctx context.Context, cep string) (*domain.Address, error) {
	v, err, _ := c.sfg.Do(cep, func() (interface{}, error) {
		return c.cb.Execute(func() (*domain.Address, error) {
			return c.fetch(ctx, cep)
		})
	})
	if err != nil {
		return nil, err
	}
	addr := *v.(*domain.Address)
	return &addr, nil
}

// viaCEPResponse accepts erro as either a bool or the string "true".
type viaCEPResponse struct {
	domain.Address
	Erro flag `json:"erro"`
}

type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "true":
		*f = true
	case "false", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid erro flag %s", b)
	}
	return nil
}

func (c *ViaCEPClient) fetch(ctx context.Context, cep string) (*domain.Address, error) {
	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("viacep request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("viacep returned status %d", resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode viacep response failed: %w", err)
	}
	if body.Erro {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cep)
	}
	addr := body.Address
	return &addr, nil
}
