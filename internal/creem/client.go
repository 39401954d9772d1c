package creem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/antigravity/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrUnavailable covers every upstream failure: transport errors, non-2xx
// responses, and responses lacking a usable checkout URL.
var ErrUnavailable = errors.New("creem: upstream unavailable")

// CheckoutRequest is the payload for checkout session creation.
type CheckoutRequest struct {
	ProductID  string            `json:"product_id"`
	RequestID  string            `json:"request_id"`
	SuccessURL string            `json:"success_url,omitempty"`
	Customer   *Customer         `json:"customer,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Customer identifies the buyer on the checkout session.
type Customer struct {
	Email string `json:"email"`
}

// CheckoutSession is the upstream response for a created session.
type CheckoutSession struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

// Client creates checkout sessions against the Creem API.
type Client interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// Params lists the dependencies of the Creem client.
type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds the HTTP-backed Creem client.
func NewClient(p Params) Client {
	return &client{
		baseURL: strings.TrimRight(p.Config.CreemAPIBase, "/"),
		apiKey:  p.Config.CreemAPIKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     p.Log.Named("creem"),
	}
}

func (c *client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("creem: encode checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creem: build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn("checkout call failed", zap.Error(err))
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("checkout call rejected", zap.Int("status", resp.StatusCode))
		return nil, ErrUnavailable
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		c.log.Warn("checkout response undecodable", zap.Error(err))
		return nil, ErrUnavailable
	}
	if strings.TrimSpace(session.CheckoutURL) == "" {
		return nil, ErrUnavailable
	}
	return &session, nil
}
