package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// Product is a purchasable catalog entry. The checkout flow treats the
// catalog as read-only input.
type Product struct {
	ID             string            `json:"id" gorm:"primaryKey;size:64"`
	Name           string            `json:"name" gorm:"size:255"`
	Description    string            `json:"description"`
	PriceCents     int64             `json:"price_cents"`
	Currency       string            `json:"currency" gorm:"size:8"`
	CreemProductID string            `json:"creem_product_id" gorm:"size:128"`
	Active         bool              `json:"active"`
	Metadata       datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Order tracks a single checkout attempt, keyed for idempotency by
// request_id.
type Order struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID          string       `json:"user_id" gorm:"size:64;index"`
	ProductID       string       `json:"product_id" gorm:"size:64"`
	RequestID       string       `json:"request_id" gorm:"size:64;uniqueIndex"`
	Status          OrderStatus  `json:"status" gorm:"size:16"`
	CreemCheckoutID *string      `json:"creem_checkout_id" gorm:"size:128"`
	CreemOrderID    *string      `json:"creem_order_id" gorm:"size:128"`
	AmountCents     *int64       `json:"amount_cents"`
	Currency        *string      `json:"currency" gorm:"size:8"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// Entitlement records paid access for (user, product). Grants are
// set-semantics: a duplicate grant is a silent no-op.
type Entitlement struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID    string       `json:"user_id" gorm:"size:64;uniqueIndex:idx_entitlements_user_product"`
	ProductID string       `json:"product_id" gorm:"size:64;uniqueIndex:idx_entitlements_user_product"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Entitlement) TableName() string { return "entitlements" }

// WebhookEvent is the dedup ledger. Existence of a key means the event
// has already been processed.
type WebhookEvent struct {
	EventKey   string    `json:"event_key" gorm:"primaryKey;size:128"`
	ReceivedAt time.Time `json:"received_at"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
