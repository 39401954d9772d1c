package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/antigravity/internal/store/domain"
	"github.com/smallbiznis/antigravity/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Params lists the dependencies of the durable store.
type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Node *snowflake.Node
}

type store struct {
	db   *gorm.DB
	log  *zap.Logger
	node *snowflake.Node
}

// New builds the gorm-backed Store.
func New(p Params) domain.Store {
	return &store{
		db:   p.DB,
		log:  p.Log.Named("store"),
		node: p.Node,
	}
}

func (s *store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStoreError("get_product", err)
	}
	return &product, nil
}

func (s *store) CreateOrderPending(ctx context.Context, userID, productID, requestID string) (*domain.Order, error) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:        s.node.Generate(),
		UserID:    userID,
		ProductID: productID,
		RequestID: requestID,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, domain.NewStoreError("create_order_pending", err)
	}
	return &order, nil
}

func (s *store) UpdateOrderFailed(ctx context.Context, requestID string) error {
	err := s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("request_id = ?", requestID).
		Updates(map[string]interface{}{
			"status":     domain.OrderStatusFailed,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return domain.NewStoreError("update_order_failed", err)
	}
	return nil
}

func (s *store) UpdateOrderCheckoutID(ctx context.Context, requestID, checkoutID string) error {
	err := s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("request_id = ?", requestID).
		Updates(map[string]interface{}{
			"creem_checkout_id": checkoutID,
			"updated_at":        time.Now().UTC(),
		}).Error
	if err != nil {
		return domain.NewStoreError("update_order_checkout_id", err)
	}
	return nil
}

func (s *store) GetOrderByRequestID(ctx context.Context, requestID string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStoreError("get_order_by_request_id", err)
	}
	return &order, nil
}

func (s *store) MarkOrderPaid(ctx context.Context, requestID string, paid domain.MarkPaid) error {
	updates := map[string]interface{}{
		"status":     domain.OrderStatusPaid,
		"updated_at": time.Now().UTC(),
	}
	if paid.CheckoutID != "" {
		updates["creem_checkout_id"] = paid.CheckoutID
	}
	if paid.ProviderOrderID != "" {
		updates["creem_order_id"] = paid.ProviderOrderID
	}
	if paid.AmountCents != nil {
		updates["amount_cents"] = *paid.AmountCents
	}
	if paid.Currency != nil {
		updates["currency"] = *paid.Currency
	}

	err := s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("request_id = ?", requestID).
		Updates(updates).Error
	if err != nil {
		return domain.NewStoreError("mark_order_paid", err)
	}
	return nil
}

func (s *store) GrantEntitlement(ctx context.Context, userID, productID string) error {
	entitlement := domain.Entitlement{
		ID:        s.node.Generate(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entitlement).Error
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return domain.NewStoreError("grant_entitlement", err)
	}
	return nil
}

func (s *store) WebhookEventSeen(ctx context.Context, eventKey string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.WebhookEvent{}).
		Where("event_key = ?", eventKey).
		Count(&count).Error
	if err != nil {
		return false, domain.NewStoreError("webhook_event_seen", err)
	}
	return count > 0, nil
}

func (s *store) MarkWebhookEventSeen(ctx context.Context, eventKey string) (bool, error) {
	event := domain.WebhookEvent{
		EventKey:   eventKey,
		ReceivedAt: time.Now().UTC(),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&event)
	if result.Error != nil {
		if db.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, domain.NewStoreError("mark_webhook_event_seen", result.Error)
	}
	return result.RowsAffected > 0, nil
}

var _ domain.Store = (*store)(nil)
