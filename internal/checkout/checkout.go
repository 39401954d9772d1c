package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/antigravity/internal/config"
	"github.com/smallbiznis/antigravity/internal/creem"
	"github.com/smallbiznis/antigravity/internal/identity"
	storedomain "github.com/smallbiznis/antigravity/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	// ErrProductNotFound covers unknown and inactive products.
	ErrProductNotFound = errors.New("checkout: product not found")

	// ErrCheckoutUnavailable is returned when the payment processor call
	// fails; the order has already been marked failed.
	ErrCheckoutUnavailable = errors.New("checkout: upstream unavailable")
)

// Result is the successful outcome of a checkout creation.
type Result struct {
	CheckoutURL string `json:"checkout_url"`
	RequestID   string `json:"request_id"`
}

// Service turns an authenticated checkout request into a pending order plus
// an external checkout session.
type Service interface {
	CreateCheckout(ctx context.Context, user identity.User, productID string) (*Result, error)
}

// Params lists the dependencies of the checkout service.
type Params struct {
	fx.In

	Config config.Config
	Holder *config.CheckoutConfigHolder
	Store  storedomain.Store
	Creem  creem.Client
	Log    *zap.Logger
}

type service struct {
	cfg    config.Config
	holder *config.CheckoutConfigHolder
	store  storedomain.Store
	creem  creem.Client
	log    *zap.Logger
}

// New builds the checkout Service.
func New(p Params) Service {
	return &service{
		cfg:    p.Config,
		holder: p.Holder,
		store:  p.Store,
		creem:  p.Creem,
		log:    p.Log.Named("checkout"),
	}
}

// CreateCheckout persists a pending order before calling the payment
// processor, so a crash or upstream failure always leaves a record that
// can be failed explicitly instead of lost.
func (s *service) CreateCheckout(ctx context.Context, user identity.User, productID string) (*Result, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")

	if _, err := s.store.CreateOrderPending(ctx, user.ID, product.ID, requestID); err != nil {
		return nil, err
	}

	session, err := s.creem.CreateCheckout(ctx, creem.CheckoutRequest{
		ProductID:  product.CreemProductID,
		RequestID:  requestID,
		SuccessURL: s.successURL(),
		Customer:   &creem.Customer{Email: user.Email},
		Metadata: map[string]string{
			"user_id":    user.ID,
			"product_id": product.ID,
			"request_id": requestID,
		},
	})
	if err != nil {
		s.log.Warn("checkout session creation failed",
			zap.String("product_id", product.ID),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		if failErr := s.store.UpdateOrderFailed(ctx, requestID); failErr != nil {
			s.log.Error("marking order failed did not succeed",
				zap.String("request_id", requestID),
				zap.Error(failErr),
			)
		}
		return nil, ErrCheckoutUnavailable
	}

	if err := s.store.UpdateOrderCheckoutID(ctx, requestID, session.ID); err != nil {
		return nil, err
	}

	return &Result{CheckoutURL: session.CheckoutURL, RequestID: requestID}, nil
}

func (s *service) successURL() string {
	base := strings.TrimRight(s.cfg.FrontendBaseURL, "/")
	if base == "" {
		return ""
	}
	path := s.holder.Current().SuccessPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
