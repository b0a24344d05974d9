package risewebhook

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/giftcard-checkout-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/giftcard-checkout-backend/pkg/errors"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/logger"
	"github.com/angelmondragon/giftcard-checkout-backend/pkg/metrics"
)

// Event types published by the gift-card service.
const (
	EventGiftCardInitialized      = "wix.rise.v1.gift_card_initialized"
	EventGiftCardUpdated          = "wix.rise.v1.gift_card_updated"
	EventGiftCardDisabled         = "wix.rise.v1.gift_card_disabled"
	EventGiftCardTransactionAdded = "wix.rise.v1.gift_card_transaction_added"
)

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookEventKey(eventID string) string
}

// Result reports how a webhook delivery was handled.
type Result struct {
	EventType string `json:"event_type"`
	EventID   string `json:"event_id,omitempty"`
	Deduped   bool   `json:"deduped"`
	Handled   bool   `json:"handled"`
}

// Service verifies, dedupes, and records gift-card webhook deliveries.
// The payload is a JWT signed by the service with its RS256 key; the
// native-store sync that a full integration would drive from these events
// is out of scope here, so handling is observation only.
type Service struct {
	publicKey *rsa.PublicKey
	dedupe    dedupeStore
	dedupeTTL time.Duration
	logger    *logger.Logger
	metrics   *metrics.CheckoutMetrics
}

// NewService builds the webhook receiver. An empty public key disables
// signature verification, which is only acceptable for local development.
func NewService(cfg config.WebhookConfig, store dedupeStore, logg *logger.Logger, met *metrics.CheckoutMetrics) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("webhook dedupe store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("webhook logger required")
	}

	var publicKey *rsa.PublicKey
	if pem := strings.TrimSpace(cfg.RisePublicKeyPEM); pem != "" {
		parsed, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("parsing rise webhook public key: %w", err)
		}
		publicKey = parsed
	} else {
		logg.Warn(context.Background(), "rise webhook signature verification disabled, set the public key to enable it")
	}

	ttl := cfg.DedupeTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Service{
		publicKey: publicKey,
		dedupe:    store,
		dedupeTTL: ttl,
		logger:    logg,
		metrics:   met,
	}, nil
}

// HandleDelivery verifies the signed payload, unwraps the nested event,
// dedupes it on the event id, and records it.
func (s *Service) HandleDelivery(ctx context.Context, payload []byte) (*Result, error) {
	claims, err := s.verify(strings.TrimSpace(string(payload)))
	if err != nil {
		return nil, err
	}

	eventType, event, err := unwrapEvent(claims)
	if err != nil {
		return nil, err
	}

	result := &Result{EventType: eventType, EventID: event.ID}

	if event.ID != "" {
		fresh, dedupeErr := s.dedupe.SetNX(ctx, s.dedupe.WebhookEventKey(event.ID), "1", s.dedupeTTL)
		if dedupeErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, dedupeErr, "check webhook dedupe")
		}
		if !fresh {
			result.Deduped = true
			s.metrics.IncWebhookEvent(eventType, "deduped")
			return result, nil
		}
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"event_type": eventType,
		"event_id":   event.ID,
	})

	switch eventType {
	case EventGiftCardInitialized, EventGiftCardUpdated, EventGiftCardDisabled:
		if card := event.ActionEvent.Body.GiftCard; card != nil {
			ctx = s.logger.WithField(ctx, "gift_card_id", card.ID)
		}
		s.logger.Info(ctx, "webhook.gift_card_event")
		result.Handled = true
		s.metrics.IncWebhookEvent(eventType, "processed")
	case EventGiftCardTransactionAdded:
		s.logger.Info(ctx, "webhook.gift_card_transaction")
		result.Handled = true
		s.metrics.IncWebhookEvent(eventType, "processed")
	default:
		s.logger.Info(ctx, "webhook.ignored_event")
		s.metrics.IncWebhookEvent(eventType, "ignored")
	}

	return result, nil
}

func (s *Service) verify(token string) (jwt.MapClaims, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload is empty")
	}

	claims := jwt.MapClaims{}

	if s.publicKey == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
		}
		return claims, nil
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid webhook signature")
	}
	return claims, nil
}

type giftCardPayload struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Balance string `json:"balance"`
}

type webhookEvent struct {
	ID          string `json:"id"`
	ActionEvent struct {
		Body struct {
			GiftCard *giftCardPayload `json:"giftCard"`
		} `json:"body"`
	} `json:"actionEvent"`
}

// unwrapEvent digs through the double-encoded delivery: the JWT's "data"
// claim is a JSON string whose "data" field is itself JSON-encoded.
func unwrapEvent(claims jwt.MapClaims) (string, *webhookEvent, error) {
	outer, ok := claims["data"].(string)
	if !ok || outer == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing data claim")
	}

	var envelope struct {
		EventType string `json:"eventType"`
		Data      string `json:"data"`
	}
	if err := json.Unmarshal([]byte(outer), &envelope); err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook envelope")
	}

	var event webhookEvent
	if envelope.Data != "" {
		if err := json.Unmarshal([]byte(envelope.Data), &event); err != nil {
			return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook event")
		}
	}

	return envelope.EventType, &event, nil
}
