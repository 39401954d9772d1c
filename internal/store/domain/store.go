package domain

import (
	"context"
	"fmt"
)

// MarkPaid carries the payment fields extracted from a completed checkout
// event.
type MarkPaid struct {
	CheckoutID      string
	ProviderOrderID string
	AmountCents     *int64
	Currency        *string
}

// Store is the persistence contract shared by the durable and in-memory
// implementations. Every operation is independently atomic against the
// backing store.
type Store interface {
	// GetProduct returns nil, nil when the product is missing or inactive.
	GetProduct(ctx context.Context, id string) (*Product, error)

	// CreateOrderPending inserts a new order with status pending.
	CreateOrderPending(ctx context.Context, userID, productID, requestID string) (*Order, error)

	// UpdateOrderFailed sets status failed. Unknown request ids are a no-op.
	UpdateOrderFailed(ctx context.Context, requestID string) error

	// UpdateOrderCheckoutID records the external checkout session reference.
	UpdateOrderCheckoutID(ctx context.Context, requestID, checkoutID string) error

	// GetOrderByRequestID returns nil, nil when no order matches.
	GetOrderByRequestID(ctx context.Context, requestID string) (*Order, error)

	// MarkOrderPaid sets status paid and fills payment fields. Unknown
	// request ids are a no-op; a second application overwrites idempotently.
	MarkOrderPaid(ctx context.Context, requestID string, paid MarkPaid) error

	// GrantEntitlement upserts (userID, productID). A uniqueness conflict
	// is swallowed, not raised.
	GrantEntitlement(ctx context.Context, userID, productID string) error

	// WebhookEventSeen reports whether the event key is already recorded.
	WebhookEventSeen(ctx context.Context, eventKey string) (bool, error)

	// MarkWebhookEventSeen records the event key with a single conditional
	// insert and reports whether this caller won it. Losing the race is
	// (false, nil), never an error.
	MarkWebhookEventSeen(ctx context.Context, eventKey string) (bool, error)
}

// StoreError wraps a backing-store failure with the failing operation name.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
