package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"facelyze-api/internal/ai"
	"facelyze-api/internal/cache"
	"facelyze-api/internal/config"
	"facelyze-api/internal/media"
	"facelyze-api/internal/model"
	"facelyze-api/internal/platform/database"
	"facelyze-api/internal/repository"
	"facelyze-api/internal/vision"
)

const faceJSON = `{
  "aestheticScore": 74,
  "overallImpression": {"rating": 76, "text": "Friendly, balanced face."},
  "specificRatings": {"overall": 74, "potential": 82, "masculinity": 55, "jawline": 68, "cheekbones": 71, "skinQuality": 63},
  "featureAnalysis": [
    {"feature": "Eyes", "rating": 80, "analysis": "Bright and well spaced."},
    {"feature": "Jawline", "rating": 68, "analysis": "Soft definition."}
  ],
  "skincareRecommendations": [{"recommendation": "Use SPF 30 daily", "reason": "Protects against sun damage."}],
  "personalizedPlan": [{"step": "Posture", "description": "Practice chin tucks."}]
}`

type scriptedProvider struct {
	mu       sync.Mutex
	replies  map[string]string
	err      error
	requests []ai.Request
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{replies: map[string]string{
		ai.FlowAnalyzeFace:          faceJSON,
		ai.FlowScoreAesthetic:       `{"aestheticScore": 7.5, "reason": "Even lighting and symmetry."}`,
		ai.FlowAnalyzeFeatures:      `{"featureAnalysis": [{"featureName": "Eyes", "score": 80, "feedback": "Bright."}]}`,
		ai.FlowAdvisorySteps:        `{"steps": [{"title": "Sleep", "description": "Eight hours a night."}]}`,
		ai.FlowAdvisoryContent:      `{"principles": [{"title": "Consistency", "description": "Small daily habits."}], "bookRecommendations": []}`,
		ai.FlowLearningPlan:         `{"plan": [{"step": "Cleanse", "category": "Skincare", "description": "Twice a day."}]}`,
		ai.FlowPersonalizedLearning: `{"skincareRecommendations": ["SPF"], "makeupTechniques": ["Contour"], "lifestyleAdjustments": ["Sleep"]}`,
	}}
}

func (p *scriptedProvider) Generate(_ context.Context, req ai.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return "", p.err
	}
	reply, ok := p.replies[req.Flow]
	if !ok {
		return "", fmt.Errorf("no reply scripted for %s", req.Flow)
	}
	return reply, nil
}

func (p *scriptedProvider) calls(flow string) []ai.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ai.Request
	for _, r := range p.requests {
		if r.Flow == flow {
			out = append(out, r)
		}
	}
	return out
}

type memPublisher struct {
	mu        sync.Mutex
	published []model.Analysis
	err       error
}

func (p *memPublisher) Publish(_ context.Context, analysis model.Analysis) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, analysis)
	return nil
}

type rejectAll struct{}

func (rejectAll) Screen(media.Photo) (vision.Verdict, error) {
	return vision.Verdict{Accepted: false}, nil
}

type harness struct {
	db        *gorm.DB
	redis     *miniredis.Miniredis
	users     *repository.UserRepository
	analyses  *repository.AnalysisRepository
	ledger    *repository.TokenLedgerRepository
	provider  *scriptedProvider
	publisher *memPublisher
	previews  *cache.PreviewStore
	history   *cache.HistoryCache

	auth     *AuthService
	wallet   *WalletService
	analysis *AnalysisService
	coaching *CoachingService
	store    *StoreService
}

type harnessOption func(*AnalysisDeps)

func withoutPublisher() harnessOption {
	return func(d *AnalysisDeps) { d.Publisher = nil }
}

func withScreener(s vision.Screener) harnessOption {
	return func(d *AnalysisDeps) { d.Screener = s }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(context.Background(), "sqlite", fmt.Sprintf("file:app_%s?mode=memory&cache=shared", name), nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	srv := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	h := &harness{
		db:        db,
		redis:     srv,
		users:     repository.NewUserRepository(db),
		analyses:  repository.NewAnalysisRepository(db),
		ledger:    repository.NewTokenLedgerRepository(db),
		provider:  newScriptedProvider(),
		publisher: &memPublisher{},
		previews:  cache.NewPreviewStore(client, 30*time.Minute),
		history:   cache.NewHistoryCache(client, time.Minute, 10*time.Second),
	}
	flows := ai.NewFlows(h.provider, nil, time.Second)

	deps := AnalysisDeps{
		Users:     h.users,
		Analyses:  h.analyses,
		Ledger:    h.ledger,
		Flows:     flows,
		Publisher: h.publisher,
		History:   h.history,
		Previews:  h.previews,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	h.auth = NewAuthService(h.users, h.ledger, nil, "test-secret", time.Hour, cfg.Tokens.InitialGrant)
	h.wallet = NewWalletService(h.users, h.ledger, nil)
	h.analysis = NewAnalysisService(deps, Pricing{
		AnalysisCost:    cfg.Tokens.AnalysisCost,
		QuickCost:       cfg.Tokens.QuickCost,
		PromoMilestones: cfg.Tokens.PromoMilestones,
	}, 256)
	h.coaching = NewCoachingService(h.users, h.analyses, flows, cache.NewContentCache(client, time.Hour), nil, nil)
	h.store = NewStoreService(repository.NewProductRepository(db), h.ledger, cfg.Payment, nil, nil)
	return h
}

func testConfig() config.Config {
	return config.Config{
		Tokens: config.TokensConfig{InitialGrant: 10, AnalysisCost: 3, QuickCost: 1, PromoMilestones: []int{1, 3}},
		Payment: config.PaymentConfig{
			WebhookSecret: "whsec",
			Packs: []config.PackConfig{
				{ID: "basic", Title: "Basic", Tokens: 15, PriceCents: 499, Currency: "USD"},
				{ID: "pro", Title: "Pro", Tokens: 50, PriceCents: 999, Currency: "USD", Popular: true},
				{ID: "premium", Title: "Premium", Tokens: 120, PriceCents: 1999, Currency: "USD"},
			},
		},
	}
}

func (h *harness) register(t *testing.T, username string) *model.User {
	t.Helper()
	res, err := h.auth.Register(RegisterInput{Username: username, Email: username + "@example.com", Password: "password123"})
	require.NoError(t, err)
	return res.User
}

func (h *harness) setTokens(t *testing.T, userID uint, tokens int) {
	t.Helper()
	require.NoError(t, h.db.Model(&model.User{}).Where("id = ?", userID).Update("tokens", tokens).Error)
}

func (h *harness) tokens(t *testing.T, userID uint) int {
	t.Helper()
	user, err := h.users.GetByID(userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.Tokens
}

func testPhoto(t *testing.T) media.Photo {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return media.Photo{MIMEType: media.MIMEPNG, Data: buf.Bytes()}
}

var errBroker = errors.New("broker down")
