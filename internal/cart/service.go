package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	CartKey(cartID string) string
}

// Service owns the demo cart store. Carts live in Redis with a TTL; a real
// deployment would plug its own cart/order system in behind this interface.
type Service interface {
	Create(ctx context.Context, crt Cart) (*Cart, error)
	Get(ctx context.Context, cartID string) (*Cart, error)
}

type service struct {
	store  store
	ttl    time.Duration
	logger *logger.Logger
}

// NewService builds the Redis-backed cart service.
func NewService(store store, cfg config.CartConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("cart logger required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{store: store, ttl: ttl, logger: logg}, nil
}

func (s *service) Create(ctx context.Context, crt Cart) (*Cart, error) {
	if crt.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart subtotal cannot be negative")
	}
	if strings.TrimSpace(crt.ID) == "" {
		crt.ID = "cart-" + uuid.NewString()
	}
	if crt.Items == nil {
		crt.Items = []LineItem{}
	}

	payload, err := json.Marshal(crt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.store.Set(ctx, s.store.CartKey(crt.ID), string(payload), s.ttl); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cart")
	}

	ctx = s.logger.WithCartID(ctx, crt.ID)
	s.logger.Info(ctx, "cart.created")
	return &crt, nil
}

func (s *service) Get(ctx context.Context, cartID string) (*Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}

	stored, err := s.store.Get(ctx, s.store.CartKey(cartID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var crt Cart
	if err := json.Unmarshal([]byte(stored), &crt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return &crt, nil
}
