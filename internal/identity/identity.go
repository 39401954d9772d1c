package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/antigravity/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned for every credential failure: missing or
// malformed token, provider transport failure, non-200 response, or a
// response lacking a user id.
var ErrUnauthorized = errors.New("identity: unauthorized")

// User is the authenticated caller.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Service resolves bearer tokens against the identity provider.
type Service interface {
	Resolve(ctx context.Context, token string) (*User, error)
}

// Params lists the dependencies of the identity service.
type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type service struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

// New builds the provider-backed identity Service.
func New(p Params) Service {
	return &service{
		baseURL: strings.TrimRight(p.Config.AuthBaseURL, "/"),
		apiKey:  p.Config.AuthAPIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     p.Log.Named("identity"),
	}
}

func (s *service) Resolve(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, ErrUnauthorized
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("identity provider unreachable", zap.Error(err))
		return nil, ErrUnauthorized
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnauthorized
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(user.ID) == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}
