package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"facelyze-api/internal/config"
	"facelyze-api/internal/model"
	"facelyze-api/internal/repository"
)

const eventPaymentCaptured = "payment.captured"

const (
	WebhookCredited  = "credited"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

type StoreService struct {
	products      *repository.ProductRepository
	ledger        *repository.TokenLedgerRepository
	packs         []config.PackConfig
	webhookSecret string
	metrics       Metrics
	logger        *zap.Logger
}

type Pack struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Tokens     int    `json:"tokens"`
	PriceCents int    `json:"price_cents"`
	Currency   string `json:"currency"`
	Popular    bool   `json:"popular"`
}

type WebhookOutcome struct {
	Status    string `json:"status"`
	PaymentID string `json:"payment_id,omitempty"`
	UserID    uint   `json:"user_id,omitempty"`
	Tokens    int    `json:"tokens,omitempty"`
	Balance   int    `json:"balance,omitempty"`
}

type paymentEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string            `json:"id"`
				Amount   int               `json:"amount"`
				Currency string            `json:"currency"`
				Status   string            `json:"status"`
				Notes    map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func NewStoreService(
	products *repository.ProductRepository,
	ledger *repository.TokenLedgerRepository,
	payment config.PaymentConfig,
	metrics Metrics,
	logger *zap.Logger,
) *StoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreService{
		products:      products,
		ledger:        ledger,
		packs:         payment.Packs,
		webhookSecret: payment.WebhookSecret,
		metrics:       orNoop(metrics),
		logger:        logger.Named("store"),
	}
}

func (s *StoreService) Packs() []Pack {
	out := make([]Pack, 0, len(s.packs))
	for _, p := range s.packs {
		out = append(out, Pack{
			ID:         p.ID,
			Title:      p.Title,
			Tokens:     p.Tokens,
			PriceCents: p.PriceCents,
			Currency:   p.Currency,
			Popular:    p.Popular,
		})
	}
	return out
}

func (s *StoreService) Products() ([]model.Product, error) {
	return s.products.List()
}

// HandlePaymentWebhook credits the pack named in a captured payment's notes.
// Redelivered events are acknowledged without a second credit.
func (s *StoreService) HandlePaymentWebhook(body []byte, signature string) (*WebhookOutcome, error) {
	if !s.validSignature(body, signature) {
		return nil, ErrInvalidSignature
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: malformed event", ErrInvalidInput)
	}
	if event.Event != eventPaymentCaptured {
		return &WebhookOutcome{Status: WebhookIgnored}, nil
	}

	payment := event.Payload.Payment.Entity
	if payment.ID == "" {
		return nil, fmt.Errorf("%w: payment id missing", ErrInvalidInput)
	}
	userID, err := noteUserID(payment.Notes)
	if err != nil {
		return nil, err
	}
	pack, ok := s.findPack(payment.Notes["pack"])
	if !ok {
		return nil, ErrUnknownPack
	}
	if payment.Amount < pack.PriceCents {
		s.logger.Warn("payment amount below pack price",
			zap.String("payment_id", payment.ID), zap.Int("amount", payment.Amount), zap.String("pack", pack.ID))
		return nil, fmt.Errorf("%w: amount below pack price", ErrInvalidInput)
	}

	balance, err := s.ledger.Credit(repository.CreditInput{
		UserID:    userID,
		Amount:    pack.Tokens,
		Reason:    model.ReasonPurchase,
		Reference: "payment:" + payment.ID,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateReference):
		s.logger.Info("duplicate payment event", zap.String("payment_id", payment.ID))
		return &WebhookOutcome{Status: WebhookDuplicate, PaymentID: payment.ID, UserID: userID}, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, err
	}

	s.metrics.Credited(model.ReasonPurchase, pack.Tokens)
	s.logger.Info("tokens purchased",
		zap.String("payment_id", payment.ID), zap.Uint("user_id", userID),
		zap.String("pack", pack.ID), zap.Int("tokens", pack.Tokens))
	return &WebhookOutcome{
		Status:    WebhookCredited,
		PaymentID: payment.ID,
		UserID:    userID,
		Tokens:    pack.Tokens,
		Balance:   balance.Tokens,
	}, nil
}

// validSignature checks the hex HMAC-SHA256 of the raw body. An unset secret
// rejects everything.
func (s *StoreService) validSignature(body []byte, signature string) bool {
	if s.webhookSecret == "" || signature == "" {
		return false
	}
	given, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), given)
}

func (s *StoreService) findPack(id string) (config.PackConfig, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range s.packs {
		if strings.ToLower(p.ID) == id {
			return p, true
		}
	}
	return config.PackConfig{}, false
}

func noteUserID(notes map[string]string) (uint, error) {
	raw := notes["user_id"]
	if raw == "" {
		raw = notes["userId"]
	}
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: user id missing from payment notes", ErrInvalidInput)
	}
	return uint(id), nil
}

// SignPayload is the signature a webhook sender computes for body.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
