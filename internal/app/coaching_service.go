package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"facelyze-api/internal/ai"
	"facelyze-api/internal/repository"
)

const (
	maxGoalLength        = 500
	maxPreferencesLength = 1000
	advisoryContentKey   = "advisory"
)

type ContentCache interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Set(ctx context.Context, name string, payload []byte) error
}

// CoachingService serves goal-driven advice that is not tied to a new photo.
type CoachingService struct {
	users    *repository.UserRepository
	analyses *repository.AnalysisRepository
	flows    *ai.Flows
	content  ContentCache
	metrics  Metrics
	logger   *zap.Logger
}

type RecommendationsInput struct {
	UserID      uint
	AnalysisID  string
	Preferences string
}

func NewCoachingService(
	users *repository.UserRepository,
	analyses *repository.AnalysisRepository,
	flows *ai.Flows,
	content ContentCache,
	metrics Metrics,
	logger *zap.Logger,
) *CoachingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoachingService{
		users:    users,
		analyses: analyses,
		flows:    flows,
		content:  content,
		metrics:  orNoop(metrics),
		logger:   logger.Named("coaching"),
	}
}

// SaveGoal stores the user's aesthetic goal. An empty goal clears it.
func (s *CoachingService) SaveGoal(userID uint, goal string) (string, error) {
	goal = strings.TrimSpace(goal)
	if userID == 0 || utf8.RuneCountInString(goal) > maxGoalLength {
		return "", ErrInvalidInput
	}
	if err := s.users.UpdateGoal(userID, goal); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return goal, nil
}

// LearningPlan saves the goal first so later analyses are tailored to it even
// if plan generation fails.
func (s *CoachingService) LearningPlan(ctx context.Context, userID uint, goal string) (*ai.LearningPlan, error) {
	goal, err := s.SaveGoal(userID, goal)
	if err != nil {
		return nil, err
	}
	if goal == "" {
		return nil, ErrInvalidInput
	}
	plan, err := s.flows.LearningPlan(ctx, goal)
	if err != nil {
		return nil, mapModelError(err)
	}
	return plan, nil
}

func (s *CoachingService) AdvisorySteps(ctx context.Context, goal string) (*ai.AdvisorySteps, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" || utf8.RuneCountInString(goal) > maxGoalLength {
		return nil, ErrInvalidInput
	}
	steps, err := s.flows.AdvisorySteps(ctx, goal)
	if err != nil {
		return nil, mapModelError(err)
	}
	return steps, nil
}

// AdvisoryContent is the same for everyone, so it is generated once per
// cache lifetime.
func (s *CoachingService) AdvisoryContent(ctx context.Context) (*ai.AdvisoryContent, error) {
	if s.content != nil {
		raw, ok, err := s.content.Get(ctx, advisoryContentKey)
		if err != nil {
			s.logger.Warn("advisory cache read failed", zap.Error(err))
		}
		s.metrics.CacheLookup("advisory", ok)
		if ok {
			var cached ai.AdvisoryContent
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	content, err := s.flows.AdvisoryContent(ctx)
	if err != nil {
		return nil, mapModelError(err)
	}
	if s.content != nil {
		if raw, err := json.Marshal(content); err == nil {
			if err := s.content.Set(ctx, advisoryContentKey, raw); err != nil {
				s.logger.Warn("advisory cache write failed", zap.Error(err))
			}
		}
	}
	return content, nil
}

// Recommendations builds personalized learning content from a saved analysis.
func (s *CoachingService) Recommendations(ctx context.Context, input RecommendationsInput) (*ai.PersonalizedLearning, error) {
	preferences := strings.TrimSpace(input.Preferences)
	if input.UserID == 0 || input.AnalysisID == "" || utf8.RuneCountInString(preferences) > maxPreferencesLength {
		return nil, ErrInvalidInput
	}

	analysis, err := s.analyses.GetByPublicIDAndUserID(input.AnalysisID, input.UserID)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, ErrAnalysisNotFound
	}

	var face ai.FaceAnalysis
	if err := json.Unmarshal(analysis.Result, &face); err != nil {
		s.logger.Error("stored analysis is unreadable", zap.String("analysis_id", analysis.PublicID), zap.Error(err))
		return nil, ErrAnalysisNotFound
	}

	out, err := s.flows.PersonalizedLearning(ctx, ai.PersonalizedLearningInput{
		AestheticScore:  face.Score(),
		FeatureAnalysis: face.FeatureMap(),
		Preferences:     preferences,
	})
	if err != nil {
		return nil, mapModelError(err)
	}
	return out, nil
}
