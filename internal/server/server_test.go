package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/antigravity/internal/checkout"
	"github.com/smallbiznis/antigravity/internal/config"
	"github.com/smallbiznis/antigravity/internal/creem"
	"github.com/smallbiznis/antigravity/internal/identity"
	"github.com/smallbiznis/antigravity/internal/observability"
	"github.com/smallbiznis/antigravity/internal/observability/metrics"
	"github.com/smallbiznis/antigravity/internal/server"
	"github.com/smallbiznis/antigravity/internal/store/domain"
	"github.com/smallbiznis/antigravity/internal/store/memory"
	"github.com/smallbiznis/antigravity/internal/webhook"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testToken  = "token_u1"
	testSecret = "whsec_test"
)

type testEnv struct {
	engine *gin.Engine
	store  *memory.Store
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "user_1", "email": "user@example.com"}`))
	}))
	t.Cleanup(authUpstream.Close)

	creemUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkouts" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chk_test", "checkout_url": "https://pay.example.com/chk_test"}`))
	}))
	t.Cleanup(creemUpstream.Close)

	cfg := config.Config{
		AppName:            "antigravity-test",
		Environment:        "test",
		AuthBaseURL:        authUpstream.URL,
		AuthAPIKey:         "anon_key",
		CreemAPIBase:       creemUpstream.URL,
		CreemAPIKey:        "sk_test",
		CreemWebhookSecret: testSecret,
		FrontendBaseURL:    "https://app.example.com",
	}

	metricsCfg := metrics.Config{ServiceName: cfg.AppName}
	provider, err := metrics.NewProvider(nil, metricsCfg, zap.NewNop())
	require.NoError(t, err)
	appMetrics, err := metrics.New(metricsCfg, provider)
	require.NoError(t, err)
	httpMetrics, err := metrics.NewHTTPMetrics(metricsCfg, provider)
	require.NoError(t, err)

	obsCfg := observability.Config{ServiceName: cfg.AppName, Environment: cfg.Environment, LogLevel: "info"}
	engine := server.NewEngine(obsCfg, httpMetrics)

	memStore := memory.New()
	memStore.AddProduct(domain.Product{
		ID:             "prod_1",
		Name:           "Starter",
		PriceCents:     1500,
		Currency:       "USD",
		CreemProductID: "creem_prod_1",
		Active:         true,
	})

	identitySvc := identity.New(identity.Params{Config: cfg, Log: zap.NewNop()})
	creemClient := creem.NewClient(creem.Params{Config: cfg, Log: zap.NewNop()})
	checkoutSvc := checkout.New(checkout.Params{
		Config: cfg,
		Holder: config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig()),
		Store:  memStore,
		Creem:  creemClient,
		Log:    zap.NewNop(),
	})
	webhookSvc := webhook.New(webhook.Params{
		Config:  cfg,
		Store:   memStore,
		Metrics: appMetrics,
		Log:     zap.NewNop(),
	})

	server.NewServer(server.ServerParams{
		Gin:         engine,
		Cfg:         cfg,
		IdentitySvc: identitySvc,
		CheckoutSvc: checkoutSvc,
		WebhookSvc:  webhookSvc,
		ObsMetrics:  appMetrics,
		Log:         zap.NewNop(),
	})

	return &testEnv{engine: engine, store: memStore}
}

func (e *testEnv) do(method, path, token string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func TestMeRequiresValidToken(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(http.MethodGet, "/api/me", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/me", "token_bad", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/me", testToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "user_1", user["id"])
	require.Equal(t, "user@example.com", user["email"])
}

func TestCheckoutRejectsUnauthenticatedWithoutSideEffects(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(http.MethodPost, "/api/checkout", "", []byte(`{"product_id": "prod_1"}`), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, env.store.OrderCount())
}

func TestCheckoutUnknownProductReturnsNotFound(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(http.MethodPost, "/api/checkout", testToken, []byte(`{"product_id": "prod_missing"}`), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Zero(t, env.store.OrderCount())
}

func TestCheckoutMissingProductIDReturnsBadRequest(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(http.MethodPost, "/api/checkout", testToken, []byte(`{}`), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsBadSignatures(t *testing.T) {
	env := setupEnv(t)
	body := []byte(`{"eventType": "checkout.completed"}`)

	rec := env.do(http.MethodPost, "/api/webhooks/creem", "", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/webhooks/creem", "", body, map[string]string{
		"creem-signature": "deadbeef",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, env.store.EntitlementCount())
}

func TestCheckoutToEntitlementFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	rec := env.do(http.MethodPost, "/api/checkout", testToken, []byte(`{"product_id": "prod_1"}`), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		CheckoutURL string `json:"checkout_url"`
		RequestID   string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, "https://pay.example.com/chk_test", result.CheckoutURL)
	require.NotEmpty(t, result.RequestID)

	order, err := env.store.GetOrderByRequestID(ctx, result.RequestID)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.NotNil(t, order.CreemCheckoutID)
	require.Equal(t, "chk_test", *order.CreemCheckoutID)

	event := []byte(`{
		"id": "evt_1",
		"eventType": "checkout.completed",
		"object": {
			"id": "chk_test",
			"request_id": "` + result.RequestID + `",
			"order": {"id": "ord_1", "status": "paid", "amount": 1500, "currency": "USD"}
		}
	}`)
	headers := map[string]string{"creem-signature": creem.Sign(testSecret, event)}

	rec = env.do(http.MethodPost, "/api/webhooks/creem", "", event, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok": true}`, rec.Body.String())

	order, err = env.store.GetOrderByRequestID(ctx, result.RequestID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, order.Status)
	require.NotNil(t, order.AmountCents)
	require.Equal(t, int64(1500), *order.AmountCents)
	require.Equal(t, 1, env.store.EntitlementCount())

	// redelivery: acknowledged, entitlement count unchanged
	rec = env.do(http.MethodPost, "/api/webhooks/creem", "", event, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok": true}`, rec.Body.String())
	require.Equal(t, 1, env.store.EntitlementCount())
}
