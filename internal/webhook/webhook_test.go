package webhook_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/smallbiznis/antigravity/internal/config"
	"github.com/smallbiznis/antigravity/internal/creem"
	"github.com/smallbiznis/antigravity/internal/store/domain"
	"github.com/smallbiznis/antigravity/internal/store/memory"
	"github.com/smallbiznis/antigravity/internal/webhook"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "whsec_test"

func newService(store *memory.Store) webhook.Service {
	return webhook.New(webhook.Params{
		Config: config.Config{CreemWebhookSecret: testSecret},
		Store:  store,
		Log:    zap.NewNop(),
	})
}

func signedBody(body string) ([]byte, string) {
	raw := []byte(body)
	return raw, creem.Sign(testSecret, raw)
}

func completedEvent(eventID, requestID string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"eventType": "checkout.completed",
		"object": {
			"id": "chk_test",
			"request_id": %q,
			"order": {"id": "ord_1", "status": "paid", "amount": 1500, "currency": "USD"}
		}
	}`, eventID, requestID)
}

func TestIngestRejectsMissingSignature(t *testing.T) {
	svc := newService(memory.New())
	err := svc.Ingest(context.Background(), []byte(`{}`), "")
	require.ErrorIs(t, err, webhook.ErrMissingSignature)
}

func TestIngestRejectsInvalidSignature(t *testing.T) {
	svc := newService(memory.New())
	err := svc.Ingest(context.Background(), []byte(`{}`), "deadbeef")
	require.ErrorIs(t, err, webhook.ErrInvalidSignature)
}

func TestIngestRejectsMalformedBody(t *testing.T) {
	svc := newService(memory.New())
	raw, sig := signedBody(`{"eventType": `)
	err := svc.Ingest(context.Background(), raw, sig)
	require.ErrorIs(t, err, webhook.ErrInvalidPayload)
}

func TestIngestAppliesPaidEffectOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	order, err := store.CreateOrderPending(ctx, "user_1", "prod_1", "req_1")
	require.NoError(t, err)

	raw, sig := signedBody(completedEvent("evt_1", "req_1"))
	require.NoError(t, svc.Ingest(ctx, raw, sig))

	updated, err := store.GetOrderByRequestID(ctx, "req_1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPaid, updated.Status)
	require.Equal(t, order.ID, updated.ID)
	require.NotNil(t, updated.AmountCents)
	require.Equal(t, int64(1500), *updated.AmountCents)
	require.NotNil(t, updated.Currency)
	require.Equal(t, "USD", *updated.Currency)
	require.NotNil(t, updated.CreemCheckoutID)
	require.Equal(t, "chk_test", *updated.CreemCheckoutID)
	require.NotNil(t, updated.CreemOrderID)
	require.Equal(t, "ord_1", *updated.CreemOrderID)
	require.Equal(t, 1, store.EntitlementCount())

	// redelivery acks without reapplying
	require.NoError(t, svc.Ingest(ctx, raw, sig))
	require.Equal(t, 1, store.EntitlementCount())
}

func TestIngestIgnoresIrrelevantEventTypesButMarksSeen(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	raw, sig := signedBody(`{"id": "evt_refund", "eventType": "refund.created"}`)
	require.NoError(t, svc.Ingest(ctx, raw, sig))

	seen, err := store.WebhookEventSeen(ctx, "evt_refund")
	require.NoError(t, err)
	require.True(t, seen)
	require.Zero(t, store.EntitlementCount())
}

func TestIngestAcksUnmatchedOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	raw, sig := signedBody(completedEvent("evt_1", "req_unknown"))
	require.NoError(t, svc.Ingest(ctx, raw, sig))
	require.Zero(t, store.EntitlementCount())
}

func TestIngestSkipsNonPaidStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	_, err := store.CreateOrderPending(ctx, "user_1", "prod_1", "req_1")
	require.NoError(t, err)

	raw, sig := signedBody(`{
		"id": "evt_1",
		"eventType": "checkout.completed",
		"object": {"request_id": "req_1", "order": {"status": "unpaid"}}
	}`)
	require.NoError(t, svc.Ingest(ctx, raw, sig))

	order, err := store.GetOrderByRequestID(ctx, "req_1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.Zero(t, store.EntitlementCount())
}

func TestIngestFallsBackToEventIDAndContentHash(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	raw, sig := signedBody(`{"eventId": "evt_alt", "eventType": "ping"}`)
	require.NoError(t, svc.Ingest(ctx, raw, sig))
	seen, err := store.WebhookEventSeen(ctx, "evt_alt")
	require.NoError(t, err)
	require.True(t, seen)

	raw, sig = signedBody(`{"eventType": "ping"}`)
	require.NoError(t, svc.Ingest(ctx, raw, sig))
	seen, err = store.WebhookEventSeen(ctx, creem.ContentHash(raw))
	require.NoError(t, err)
	require.True(t, seen)
}

func TestIngestCoercesAmountVariants(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		order  string
		expect *int64
	}{
		{"numeric amount", `{"status": "paid", "amount": 1500}`, ptr(1500)},
		{"string amount", `{"status": "paid", "amount": "1500"}`, ptr(1500)},
		{"amount_cents fallback", `{"status": "paid", "amount_cents": 2500}`, ptr(2500)},
		{"malformed amount", `{"status": "paid", "amount": "a lot"}`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.New()
			svc := newService(store)

			_, err := store.CreateOrderPending(ctx, "user_1", "prod_1", "req_1")
			require.NoError(t, err)

			raw, sig := signedBody(fmt.Sprintf(`{
				"id": "evt_1",
				"eventType": "checkout.completed",
				"object": {"request_id": "req_1", "order": %s}
			}`, tc.order))
			require.NoError(t, svc.Ingest(ctx, raw, sig))

			order, err := store.GetOrderByRequestID(ctx, "req_1")
			require.NoError(t, err)
			require.Equal(t, domain.OrderStatusPaid, order.Status)
			if tc.expect == nil {
				require.Nil(t, order.AmountCents)
			} else {
				require.NotNil(t, order.AmountCents)
				require.Equal(t, *tc.expect, *order.AmountCents)
			}
		})
	}
}

func ptr(v int64) *int64 { return &v }
