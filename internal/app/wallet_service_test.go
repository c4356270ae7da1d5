package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminGrantIsIdempotent(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")

	balance, err := h.wallet.AdminGrant(GrantInput{Username: "mia", Amount: 5, Reference: "support-42"})
	require.NoError(t, err)
	assert.Equal(t, 15, balance.Tokens)

	_, err = h.wallet.AdminGrant(GrantInput{Username: "mia", Amount: 5, Reference: "support-42"})
	assert.ErrorIs(t, err, ErrReferenceUsed)

	got, err := h.wallet.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Tokens)
}

func TestAdminGrantValidation(t *testing.T) {
	h := newHarness(t)
	h.register(t, "mia")

	_, err := h.wallet.AdminGrant(GrantInput{Username: "mia", Amount: 0, Reference: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.wallet.AdminGrant(GrantInput{Username: "mia", Amount: 3})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.wallet.AdminGrant(GrantInput{Username: "ghost", Amount: 3, Reference: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBalanceUnknownUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.wallet.Balance(77)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
