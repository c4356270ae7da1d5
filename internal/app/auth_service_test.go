package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"facelyze-api/internal/model"
	"facelyze-api/internal/pkg/jwtutil"
)

func TestRegisterGrantsInitialTokens(t *testing.T) {
	h := newHarness(t)

	res, err := h.auth.Register(RegisterInput{Username: "mia", Email: "Mia@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, 10, res.User.Tokens)
	assert.Equal(t, "mia@example.com", res.User.Email)
	assert.Equal(t, "mia", res.User.DisplayName)

	claims, err := jwtutil.ParseToken("test-secret", res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	entries, err := h.wallet.Ledger(res.User.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ReasonSignupGrant, entries[0].Reason)
	assert.Equal(t, 10, entries[0].Delta)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	h := newHarness(t)
	h.register(t, "mia")

	_, err := h.auth.Register(RegisterInput{Username: "mia", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = h.auth.Register(RegisterInput{Username: "mia2", Email: "mia@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = h.auth.Register(RegisterInput{Username: "al", Email: "al@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.auth.Register(RegisterInput{Username: "alex", Email: "alex@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// raceSignup inserts rival right before the next user insert, the way a
// concurrent request would after both passed the duplicate checks.
func raceSignup(t *testing.T, h *harness, rival model.User) {
	t.Helper()
	sqlDB, err := h.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(2)

	raced := false
	require.NoError(t, h.db.Callback().Create().Before("gorm:create").Register("test:signup_race", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "users" {
			return
		}
		raced = true
		rival.PasswordHash = "x"
		require.NoError(t, h.db.Session(&gorm.Session{NewDB: true}).Create(&rival).Error)
	}))
	t.Cleanup(func() { _ = h.db.Callback().Create().Remove("test:signup_race") })
}

func TestRegisterRaceReportsTakenEmail(t *testing.T) {
	h := newHarness(t)
	raceSignup(t, h, model.User{Username: "rival", Email: "mia@example.com"})

	_, err := h.auth.Register(RegisterInput{Username: "mia", Email: "mia@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailExists)

	var count int64
	require.NoError(t, h.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterRaceReportsTakenUsername(t *testing.T) {
	h := newHarness(t)
	raceSignup(t, h, model.User{Username: "mia", Email: "rival@example.com"})

	_, err := h.auth.Register(RegisterInput{Username: "mia", Email: "mia@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")

	res, err := h.auth.Login(LoginInput{Username: "mia", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	res, err = h.auth.Login(LoginInput{Username: "mia@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	_, err = h.auth.Login(LoginInput{Username: "mia", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = h.auth.Login(LoginInput{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGetUserByID(t *testing.T) {
	h := newHarness(t)
	user := h.register(t, "mia")

	got, err := h.auth.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "mia", got.Username)

	_, err = h.auth.GetUserByID(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
