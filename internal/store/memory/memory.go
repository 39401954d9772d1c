package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/antigravity/internal/store/domain"
)

var errDuplicateRequestID = errors.New("duplicate request_id")

// Store is a mutex-guarded in-memory implementation of domain.Store. It
// replicates the durable store's idempotency and not-found behavior so
// tests are implementation-agnostic.
type Store struct {
	mu sync.Mutex

	nextID       int64
	products     map[string]domain.Product
	orders       map[string]domain.Order
	entitlements map[[2]string]domain.Entitlement
	events       map[string]domain.WebhookEvent
}

// New builds an empty in-memory store.
func New() *Store {
	return &Store{
		nextID:       1,
		products:     make(map[string]domain.Product),
		orders:       make(map[string]domain.Order),
		entitlements: make(map[[2]string]domain.Entitlement),
		events:       make(map[string]domain.WebhookEvent),
	}
}

// AddProduct seeds a catalog entry.
func (s *Store) AddProduct(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
}

// EntitlementCount reports how many grants exist, for assertions.
func (s *Store) EntitlementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entitlements)
}

// OrderCount reports how many orders exist, for assertions.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok || !product.Active {
		return nil, nil
	}
	copy := product
	return &copy, nil
}

func (s *Store) CreateOrderPending(ctx context.Context, userID, productID, requestID string) (*domain.Order, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[requestID]; exists {
		return nil, domain.NewStoreError("create_order_pending", errDuplicateRequestID)
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        s.generateID(),
		UserID:    userID,
		ProductID: productID,
		RequestID: requestID,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.orders[requestID] = order
	copy := order
	return &copy, nil
}

func (s *Store) UpdateOrderFailed(ctx context.Context, requestID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[requestID]
	if !ok {
		return nil
	}
	order.Status = domain.OrderStatusFailed
	order.UpdatedAt = time.Now().UTC()
	s.orders[requestID] = order
	return nil
}

func (s *Store) UpdateOrderCheckoutID(ctx context.Context, requestID, checkoutID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[requestID]
	if !ok {
		return nil
	}
	order.CreemCheckoutID = &checkoutID
	order.UpdatedAt = time.Now().UTC()
	s.orders[requestID] = order
	return nil
}

func (s *Store) GetOrderByRequestID(ctx context.Context, requestID string) (*domain.Order, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[requestID]
	if !ok {
		return nil, nil
	}
	copy := order
	return &copy, nil
}

func (s *Store) MarkOrderPaid(ctx context.Context, requestID string, paid domain.MarkPaid) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[requestID]
	if !ok {
		return nil
	}
	order.Status = domain.OrderStatusPaid
	if paid.CheckoutID != "" {
		checkoutID := paid.CheckoutID
		order.CreemCheckoutID = &checkoutID
	}
	if paid.ProviderOrderID != "" {
		providerOrderID := paid.ProviderOrderID
		order.CreemOrderID = &providerOrderID
	}
	if paid.AmountCents != nil {
		amount := *paid.AmountCents
		order.AmountCents = &amount
	}
	if paid.Currency != nil {
		currency := *paid.Currency
		order.Currency = &currency
	}
	order.UpdatedAt = time.Now().UTC()
	s.orders[requestID] = order
	return nil
}

func (s *Store) GrantEntitlement(ctx context.Context, userID, productID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{userID, productID}
	if _, exists := s.entitlements[key]; exists {
		return nil
	}
	s.entitlements[key] = domain.Entitlement{
		ID:        s.generateID(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *Store) WebhookEventSeen(ctx context.Context, eventKey string) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	_, seen := s.events[eventKey]
	return seen, nil
}

func (s *Store) MarkWebhookEventSeen(ctx context.Context, eventKey string) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.events[eventKey]; seen {
		return false, nil
	}
	s.events[eventKey] = domain.WebhookEvent{
		EventKey:   eventKey,
		ReceivedAt: time.Now().UTC(),
	}
	return true, nil
}

func (s *Store) generateID() snowflake.ID {
	id := s.nextID
	s.nextID++
	return snowflake.ID(id)
}

var _ domain.Store = (*Store)(nil)
