package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facelyze-api/internal/model"
)

func capturedEvent(paymentID string, userID uint, pack string, amount int) []byte {
	return []byte(fmt.Sprintf(`{
  "event": "payment.captured",
  "payload": {"payment": {"entity": {
    "id": %q, "amount": %d, "currency": "USD", "status": "captured",
    "notes": {"user_id": "%d", "pack": %q}
  }}}
}`, paymentID, amount, userID, pack))
}

func TestPacksFromConfig(t *testing.T) {
	h := newHarness(t)

	packs := h.store.Packs()
	require.Len(t, packs, 3)
	assert.Equal(t, "pro", packs[1].ID)
	assert.Equal(t, 50, packs[1].Tokens)
	assert.True(t, packs[1].Popular)
}

func TestWebhookCreditsOnce(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	body := capturedEvent("pay_123", user.ID, "pro", 999)

	out, err := h.store.HandlePaymentWebhook(body, SignPayload("whsec", body))
	require.NoError(t, err)
	assert.Equal(t, WebhookCredited, out.Status)
	assert.Equal(t, 60, out.Balance)

	out, err = h.store.HandlePaymentWebhook(body, SignPayload("whsec", body))
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, out.Status)
	assert.Equal(t, 60, h.tokens(t, user.ID))

	entries, err := h.wallet.Ledger(user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonPurchase, entries[0].Reason)
	assert.Equal(t, "payment:pay_123", entries[0].Reference)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	body := capturedEvent("pay_1", user.ID, "basic", 499)

	_, err := h.store.HandlePaymentWebhook(body, SignPayload("wrong", body))
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = h.store.HandlePaymentWebhook(body, "zz-not-hex")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = h.store.HandlePaymentWebhook(body, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, 10, h.tokens(t, user.ID))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	h := newHarness(t)
	body := []byte(`{"event": "payment.failed", "payload": {}}`)

	out, err := h.store.HandlePaymentWebhook(body, SignPayload("whsec", body))
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, out.Status)
}

func TestWebhookValidatesPayload(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")

	cases := []struct {
		name string
		body []byte
		want error
	}{
		{"unknown pack", capturedEvent("pay_a", user.ID, "mega", 9999), ErrUnknownPack},
		{"underpaid", capturedEvent("pay_b", user.ID, "premium", 100), ErrInvalidInput},
		{"no user", capturedEvent("pay_c", 0, "basic", 499), ErrInvalidInput},
		{"missing user", capturedEvent("pay_d", 9999, "basic", 499), ErrUserNotFound},
		{"malformed", []byte(`{not json`), ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.store.HandlePaymentWebhook(tc.body, SignPayload("whsec", tc.body))
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 10, h.tokens(t, user.ID))
}

func TestWebhookAcceptsCamelCaseUserNote(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")
	body := []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","amount":499,"notes":{"userId":"%d","pack":"Basic"}}}}}`, user.ID))

	out, err := h.store.HandlePaymentWebhook(body, SignPayload("whsec", body))
	require.NoError(t, err)
	assert.Equal(t, 25, out.Balance)
}
