package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/smallbiznis/antigravity/internal/config"
	"github.com/smallbiznis/antigravity/internal/creem"
	"github.com/smallbiznis/antigravity/internal/observability/metrics"
	storedomain "github.com/smallbiznis/antigravity/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrMissingSignature = errors.New("webhook: missing signature")
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrInvalidPayload   = errors.New("webhook: invalid payload")
)

const eventTypeCheckoutCompleted = "checkout.completed"

// Service verifies, deduplicates, and applies payment events. Ingest
// returns nil for every condition the sender cannot act on; only
// authenticity and parsing failures are errors.
type Service interface {
	Ingest(ctx context.Context, raw []byte, signature string) error
}

// Params lists the dependencies of the webhook service.
type Params struct {
	fx.In

	Config  config.Config
	Store   storedomain.Store
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

type service struct {
	secret  string
	store   storedomain.Store
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New builds the webhook Service.
func New(p Params) Service {
	return &service{
		secret:  p.Config.CreemWebhookSecret,
		store:   p.Store,
		metrics: p.Metrics,
		log:     p.Log.Named("webhook"),
	}
}

func (s *service) Ingest(ctx context.Context, raw []byte, signature string) error {
	if strings.TrimSpace(signature) == "" {
		return ErrMissingSignature
	}
	if !creem.VerifySignature(s.secret, raw, signature) {
		return ErrInvalidSignature
	}

	var payload eventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ErrInvalidPayload
	}

	eventKey := payload.eventKey(raw)
	eventType := payload.EventType

	seen, err := s.store.WebhookEventSeen(ctx, eventKey)
	if err != nil {
		return err
	}
	if seen {
		s.metrics.RecordWebhookEvent(ctx, eventType, "duplicate")
		return nil
	}

	won, err := s.store.MarkWebhookEventSeen(ctx, eventKey)
	if err != nil {
		return err
	}
	if !won {
		s.metrics.RecordWebhookEvent(ctx, eventType, "duplicate")
		return nil
	}

	if eventType != eventTypeCheckoutCompleted {
		s.metrics.RecordWebhookEvent(ctx, eventType, "ignored")
		return nil
	}

	return s.applyCheckoutCompleted(ctx, payload)
}

// applyCheckoutCompleted marks the matching local order paid and grants
// the entitlement. Unmatched orders and non-paid statuses are acknowledged
// without effect.
func (s *service) applyCheckoutCompleted(ctx context.Context, payload eventPayload) error {
	obj := payload.Object
	requestID := asString(obj.RequestID)
	paidStatus := asString(obj.Order.Status)

	if requestID == "" || paidStatus != string(storedomain.OrderStatusPaid) {
		s.metrics.RecordWebhookEvent(ctx, payload.EventType, "ignored")
		return nil
	}

	order, err := s.store.GetOrderByRequestID(ctx, requestID)
	if err != nil {
		return err
	}
	if order == nil {
		s.log.Info("completed checkout without matching order",
			zap.String("request_id", requestID),
		)
		s.metrics.RecordWebhookEvent(ctx, payload.EventType, "unmatched")
		return nil
	}

	checkoutID := asString(obj.ID)
	if checkoutID == "" {
		checkoutID = asString(obj.CheckoutID)
	}

	paid := storedomain.MarkPaid{
		CheckoutID:      checkoutID,
		ProviderOrderID: asString(obj.Order.ID),
		AmountCents:     asInt64(obj.Order.Amount, obj.Order.AmountCents),
	}
	if currency := asString(obj.Order.Currency); currency != "" {
		paid.Currency = &currency
	}

	if err := s.store.MarkOrderPaid(ctx, requestID, paid); err != nil {
		return err
	}
	if err := s.store.GrantEntitlement(ctx, order.UserID, order.ProductID); err != nil {
		return err
	}

	s.log.Info("order reconciled",
		zap.String("request_id", requestID),
		zap.String("user_id", order.UserID),
		zap.String("product_id", order.ProductID),
	)
	s.metrics.RecordWebhookEvent(ctx, payload.EventType, "applied")
	s.metrics.RecordOrderReconciled(ctx, string(storedomain.OrderStatusPaid))
	s.metrics.RecordEntitlementGrant(ctx, order.ProductID)
	return nil
}

type eventPayload struct {
	ID        json.RawMessage `json:"id"`
	EventID   json.RawMessage `json:"eventId"`
	EventType string          `json:"eventType"`
	Object    eventObject     `json:"object"`
}

type eventObject struct {
	ID         json.RawMessage `json:"id"`
	CheckoutID json.RawMessage `json:"checkout_id"`
	RequestID  json.RawMessage `json:"request_id"`
	Order      eventOrder      `json:"order"`
}

type eventOrder struct {
	ID          json.RawMessage `json:"id"`
	Status      json.RawMessage `json:"status"`
	Amount      json.RawMessage `json:"amount"`
	AmountCents json.RawMessage `json:"amount_cents"`
	Currency    json.RawMessage `json:"currency"`
}

// eventKey prefers the payload's event identifier and falls back to a
// content hash of the raw body.
func (p eventPayload) eventKey(raw []byte) string {
	if key := asString(p.ID); key != "" {
		return key
	}
	if key := asString(p.EventID); key != "" {
		return key
	}
	return creem.ContentHash(raw)
}

// asString renders a scalar JSON value as a string; objects, arrays, and
// null render as "".
func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// asInt64 coerces the first well-formed integer among the candidates,
// accepting numeric and string encodings; anything else is nil.
func asInt64(candidates ...json.RawMessage) *int64 {
	for _, raw := range candidates {
		value := asString(raw)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		return &parsed
	}
	return nil
}
