package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"facelyze-api/internal/ai"
	"facelyze-api/internal/media"
	"facelyze-api/internal/model"
	"facelyze-api/internal/repository"
	"facelyze-api/internal/vision"
)

const historyWindow = 100

type AnalysisPublisher interface {
	Publish(ctx context.Context, analysis model.Analysis) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, userID uint) ([]model.AnalysisSummary, bool, error)
	SetHistory(ctx context.Context, userID uint, summaries []model.AnalysisSummary) error
	DeleteHistory(ctx context.Context, userID uint) error
	MarkDirty(ctx context.Context, userID uint) error
	IsDirty(ctx context.Context, userID uint) (bool, error)
}

type PreviewStore interface {
	Put(ctx context.Context, id string, payload []byte) error
	Take(ctx context.Context, id string) ([]byte, bool, error)
	TTL() time.Duration
}

// Pricing is what each paid operation costs in tokens.
type Pricing struct {
	AnalysisCost    int
	QuickCost       int
	PromoMilestones []int
}

type AnalysisDeps struct {
	Users     *repository.UserRepository
	Analyses  *repository.AnalysisRepository
	Ledger    *repository.TokenLedgerRepository
	Flows     *ai.Flows
	Screener  vision.Screener
	Publisher AnalysisPublisher
	History   HistoryCache
	Previews  PreviewStore
	Metrics   Metrics
	Logger    *zap.Logger
}

type AnalysisService struct {
	users     *repository.UserRepository
	analyses  *repository.AnalysisRepository
	ledger    *repository.TokenLedgerRepository
	flows     *ai.Flows
	screener  vision.Screener
	publisher AnalysisPublisher
	history   HistoryCache
	previews  PreviewStore
	metrics   Metrics
	logger    *zap.Logger

	pricing      Pricing
	maxPhotoSide int
}

// AnalysisResult is returned after a paid analysis.
type AnalysisResult struct {
	Analysis  model.Analysis     `json:"analysis"`
	Face      *ai.FaceAnalysis   `json:"result"`
	Balance   repository.Balance `json:"balance"`
	ShowPromo bool               `json:"show_promo"`
}

// GuestPreview is the unlocked part of a guest analysis.
type GuestPreview struct {
	PreviewID         string        `json:"preview_id"`
	AestheticScore    float64       `json:"aesthetic_score"`
	OverallImpression ai.Impression `json:"overall_impression"`
	ExpiresAt         time.Time     `json:"expires_at"`
	Cost              int           `json:"cost"`
}

type QuickScoreResult struct {
	Score   *ai.AestheticScore `json:"result"`
	Balance repository.Balance `json:"balance"`
}

type FeatureBreakdownResult struct {
	Breakdown *ai.FeatureBreakdown `json:"result"`
	Balance   repository.Balance   `json:"balance"`
}

type previewEntry struct {
	PhotoDataURI string           `json:"photo_data_uri"`
	Face         *ai.FaceAnalysis `json:"face"`
	CreatedAt    time.Time        `json:"created_at"`
}

func NewAnalysisService(deps AnalysisDeps, pricing Pricing, maxPhotoSide int) *AnalysisService {
	screener := deps.Screener
	if screener == nil {
		screener = vision.PassThrough{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if pricing.QuickCost <= 0 {
		pricing.QuickCost = 1
	}
	return &AnalysisService{
		users:        deps.Users,
		analyses:     deps.Analyses,
		ledger:       deps.Ledger,
		flows:        deps.Flows,
		screener:     screener,
		publisher:    deps.Publisher,
		history:      deps.History,
		previews:     deps.Previews,
		metrics:      orNoop(deps.Metrics),
		logger:       logger.Named("analysis"),
		pricing:      pricing,
		maxPhotoSide: maxPhotoSide,
	}
}

// Analyze runs the full face analysis for a signed-in user and charges for it.
func (s *AnalysisService) Analyze(ctx context.Context, userID uint, photo media.Photo) (*AnalysisResult, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.requireBalance(userID, s.pricing.AnalysisCost)
	if err != nil {
		s.metrics.AnalysisOutcome("full", outcomeOf(err))
		return nil, err
	}

	photo, err = s.prepare(photo)
	if err != nil {
		s.metrics.AnalysisOutcome("full", outcomeOf(err))
		return nil, err
	}

	face, err := s.flows.AnalyzeFace(ctx, photo, user.AestheticGoal)
	if err != nil {
		err = mapModelError(err)
		s.metrics.AnalysisOutcome("full", outcomeOf(err))
		return nil, err
	}

	result, err := s.complete(ctx, userID, user.AestheticGoal, photo, face)
	s.metrics.AnalysisOutcome("full", outcomeOf(err))
	return result, err
}

// AnalyzeGuest analyses without an account. Only the score and overall
// impression are revealed; the rest waits in the preview store for a claim.
func (s *AnalysisService) AnalyzeGuest(ctx context.Context, photo media.Photo) (*GuestPreview, error) {
	photo, err := s.prepare(photo)
	if err != nil {
		s.metrics.AnalysisOutcome("guest", outcomeOf(err))
		return nil, err
	}

	face, err := s.flows.AnalyzeFace(ctx, photo, "")
	if err != nil {
		err = mapModelError(err)
		s.metrics.AnalysisOutcome("guest", outcomeOf(err))
		return nil, err
	}

	now := time.Now()
	entry := previewEntry{PhotoDataURI: photo.DataURI(), Face: face, CreatedAt: now}
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal preview failed: %w", err)
	}
	id := uuid.NewString()
	if err := s.previews.Put(ctx, id, payload); err != nil {
		return nil, err
	}
	s.metrics.AnalysisOutcome("guest", "ok")

	score, impression := face.Preview()
	return &GuestPreview{
		PreviewID:         id,
		AestheticScore:    score,
		OverallImpression: impression,
		ExpiresAt:         now.Add(s.previews.TTL()),
		Cost:              s.pricing.AnalysisCost,
	}, nil
}

// ClaimPreview pays for a guest preview and turns it into a saved analysis.
func (s *AnalysisService) ClaimPreview(ctx context.Context, userID uint, previewID string) (*AnalysisResult, error) {
	if userID == 0 || previewID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := uuid.Parse(previewID); err != nil {
		return nil, ErrPreviewNotFound
	}

	payload, ok, err := s.previews.Take(ctx, previewID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPreviewNotFound
	}

	result, err := s.claim(ctx, userID, payload)
	if err != nil {
		// nothing was charged; keep it claimable for a retry or after a purchase
		if putErr := s.previews.Put(context.WithoutCancel(ctx), previewID, payload); putErr != nil {
			s.logger.Warn("restore preview failed", zap.String("preview_id", previewID), zap.Error(putErr))
		}
	}
	s.metrics.AnalysisOutcome("claim", outcomeOf(err))
	return result, err
}

func (s *AnalysisService) claim(ctx context.Context, userID uint, payload []byte) (*AnalysisResult, error) {
	var entry previewEntry
	if err := json.Unmarshal(payload, &entry); err != nil || entry.Face == nil {
		return nil, ErrPreviewNotFound
	}
	photo, err := media.ParseDataURI(entry.PhotoDataURI)
	if err != nil {
		return nil, ErrPreviewNotFound
	}
	if _, err := s.requireBalance(userID, s.pricing.AnalysisCost); err != nil {
		return nil, err
	}
	return s.complete(ctx, userID, "", photo, entry.Face)
}

// History lists the user's analyses newest first. The cache is skipped while a
// freshly enqueued analysis may still be on its way to the database.
func (s *AnalysisService) History(ctx context.Context, userID uint, limit int) ([]model.AnalysisSummary, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 || limit > historyWindow {
		limit = 20
	}

	dirty := false
	if s.history != nil {
		var err error
		dirty, err = s.history.IsDirty(ctx, userID)
		if err != nil {
			s.logger.Warn("history dirty check failed", zap.Uint("user_id", userID), zap.Error(err))
			dirty = true
		}
		if !dirty {
			cached, ok, err := s.history.GetHistory(ctx, userID)
			if err != nil {
				s.logger.Warn("history cache read failed", zap.Uint("user_id", userID), zap.Error(err))
			}
			s.metrics.CacheLookup("history", ok)
			if ok {
				return head(cached, limit), nil
			}
		}
	}

	records, err := s.analyses.ListByUserID(userID, historyWindow)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.AnalysisSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, records[i].Summary())
	}

	if s.history != nil && !dirty {
		if err := s.history.SetHistory(ctx, userID, summaries); err != nil {
			s.logger.Warn("history cache write failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return head(summaries, limit), nil
}

func (s *AnalysisService) Get(userID uint, publicID string) (*model.Analysis, error) {
	if userID == 0 || publicID == "" {
		return nil, ErrInvalidInput
	}
	analysis, err := s.analyses.GetByPublicIDAndUserID(publicID, userID)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, ErrAnalysisNotFound
	}
	return analysis, nil
}

func (s *AnalysisService) QuickScore(ctx context.Context, userID uint, photo media.Photo) (*QuickScoreResult, error) {
	var score *ai.AestheticScore
	balance, err := s.quick(ctx, userID, photo, "quick_score", func(p media.Photo) error {
		var err error
		score, err = s.flows.ScoreAesthetic(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &QuickScoreResult{Score: score, Balance: balance}, nil
}

func (s *AnalysisService) FeatureBreakdown(ctx context.Context, userID uint, photo media.Photo) (*FeatureBreakdownResult, error) {
	var breakdown *ai.FeatureBreakdown
	balance, err := s.quick(ctx, userID, photo, "features", func(p media.Photo) error {
		var err error
		breakdown, err = s.flows.AnalyzeFeatures(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &FeatureBreakdownResult{Breakdown: breakdown, Balance: balance}, nil
}

func (s *AnalysisService) quick(ctx context.Context, userID uint, photo media.Photo, kind string, run func(media.Photo) error) (balance repository.Balance, err error) {
	defer func() { s.metrics.AnalysisOutcome(kind, outcomeOf(err)) }()

	if userID == 0 {
		return repository.Balance{}, ErrInvalidInput
	}
	if _, err := s.requireBalance(userID, s.pricing.QuickCost); err != nil {
		return repository.Balance{}, err
	}
	photo, err = s.prepare(photo)
	if err != nil {
		return repository.Balance{}, err
	}
	if err := run(photo); err != nil {
		return repository.Balance{}, mapModelError(err)
	}
	return s.charge(repository.ChargeInput{
		UserID:    userID,
		Cost:      s.pricing.QuickCost,
		Reason:    model.ReasonQuickFlow,
		Reference: kind + ":" + uuid.NewString(),
	})
}

// complete charges for a validated result and hands the record to the
// persist queue.
func (s *AnalysisService) complete(ctx context.Context, userID uint, goal string, photo media.Photo, face *ai.FaceAnalysis) (*AnalysisResult, error) {
	raw, err := json.Marshal(face)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis result failed: %w", err)
	}

	publicID := uuid.NewString()
	balance, err := s.charge(repository.ChargeInput{
		UserID:        userID,
		Cost:          s.pricing.AnalysisCost,
		Reason:        model.ReasonAnalysis,
		Reference:     "analysis:" + publicID,
		CountAnalysis: true,
	})
	if err != nil {
		return nil, err
	}

	record := model.Analysis{
		PublicID:       publicID,
		UserID:         userID,
		PhotoDataURI:   photo.DataURI(),
		Goal:           goal,
		AestheticScore: face.Score(),
		Result:         raw,
		CreatedAt:      time.Now(),
	}
	s.persist(ctx, record)

	return &AnalysisResult{
		Analysis:  record,
		Face:      face,
		Balance:   balance,
		ShowPromo: s.isPromoMilestone(balance.AnalysisCount),
	}, nil
}

// persist enqueues the record, falling back to a direct insert so a paid
// analysis is never lost.
func (s *AnalysisService) persist(ctx context.Context, record model.Analysis) {
	ctx = context.WithoutCancel(ctx)
	if s.history != nil {
		if err := s.history.MarkDirty(ctx, record.UserID); err != nil {
			s.logger.Warn("mark history dirty failed", zap.Uint("user_id", record.UserID), zap.Error(err))
		}
		_ = s.history.DeleteHistory(ctx, record.UserID)
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, record)
		if err == nil {
			return
		}
		s.logger.Warn("enqueue analysis failed, writing directly",
			zap.String("analysis_id", record.PublicID), zap.Error(err))
	}
	if err := s.analyses.Create(&record); err != nil {
		s.logger.Error("persist analysis failed",
			zap.String("analysis_id", record.PublicID), zap.Uint("user_id", record.UserID), zap.Error(err))
	}
}

func (s *AnalysisService) charge(input repository.ChargeInput) (repository.Balance, error) {
	balance, err := s.ledger.Charge(input)
	switch {
	case errors.Is(err, repository.ErrInsufficientBalance):
		return repository.Balance{}, ErrInsufficientTokens
	case errors.Is(err, repository.ErrNotFound):
		return repository.Balance{}, ErrUserNotFound
	case err != nil:
		return repository.Balance{}, err
	}
	s.metrics.Charged(input.Reason, input.Cost)
	return balance, nil
}

// requireBalance rejects early so no model call is spent on an account that
// cannot pay. The charge itself re-checks atomically.
func (s *AnalysisService) requireBalance(userID uint, cost int) (*model.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Tokens < cost {
		return nil, ErrInsufficientTokens
	}
	return user, nil
}

func (s *AnalysisService) prepare(photo media.Photo) (media.Photo, error) {
	normalized, err := media.Normalize(photo, s.maxPhotoSide)
	if err != nil {
		return media.Photo{}, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}
	verdict, err := s.screener.Screen(normalized)
	if err != nil {
		return media.Photo{}, err
	}
	if !verdict.Accepted {
		return media.Photo{}, ErrPhotoRejected
	}
	return normalized, nil
}

func (s *AnalysisService) isPromoMilestone(count int) bool {
	for _, m := range s.pricing.PromoMilestones {
		if m == count {
			return true
		}
	}
	return false
}

func head(list []model.AnalysisSummary, n int) []model.AnalysisSummary {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientTokens):
		return "insufficient_tokens"
	case errors.Is(err, ErrPhotoRejected):
		return "rejected"
	case errors.Is(err, ErrInvalidPhoto):
		return "invalid_photo"
	case errors.Is(err, ErrModelOutputInvalid):
		return "invalid_output"
	case errors.Is(err, ErrModelUnavailable):
		return "unavailable"
	case errors.Is(err, ErrPreviewNotFound):
		return "preview_missing"
	default:
		return "error"
	}
}
