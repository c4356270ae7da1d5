package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"facelyze-api/internal/media"
)

const (
	FlowAnalyzeFace          = "analyze_face"
	FlowScoreAesthetic       = "score_aesthetic"
	FlowAnalyzeFeatures      = "analyze_features"
	FlowAdvisorySteps        = "advisory_steps"
	FlowAdvisoryContent      = "advisory_content"
	FlowLearningPlan         = "learning_plan"
	FlowPersonalizedLearning = "personalized_learning"
)

var breakdownFeatures = []string{"Forehead", "Eyes", "Nose", "Cheeks", "Jawline", "Lips"}

// CallRecorder receives the outcome of every model call.
type CallRecorder interface {
	ObserveModelCall(flow string, elapsed time.Duration, err error)
}

// Flows renders prompts, calls the provider and validates what comes back.
type Flows struct {
	provider Provider
	validate *validator.Validate
	recorder CallRecorder
	timeout  time.Duration
}

func NewFlows(provider Provider, recorder CallRecorder, timeout time.Duration) *Flows {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Flows{
		provider: provider,
		validate: newValidator(),
		recorder: recorder,
		timeout:  timeout,
	}
}

func (f *Flows) AnalyzeFace(ctx context.Context, photo media.Photo, goal string) (*FaceAnalysis, error) {
	prompt, err := render(faceAnalysisPrompt, struct{ Goal string }{strings.TrimSpace(goal)})
	if err != nil {
		return nil, err
	}
	var out FaceAnalysis
	err = f.call(ctx, Request{
		Flow:   FlowAnalyzeFace,
		System: aestheticianSystem,
		Prompt: prompt,
		Images: []Image{{MIMEType: photo.MIMEType, Data: photo.Data}},
		JSON:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Flows) ScoreAesthetic(ctx context.Context, photo media.Photo) (*AestheticScore, error) {
	prompt, err := render(aestheticScorePrompt, nil)
	if err != nil {
		return nil, err
	}
	var out AestheticScore
	err = f.call(ctx, Request{
		Flow:   FlowScoreAesthetic,
		System: aestheticianSystem,
		Prompt: prompt,
		Images: []Image{{MIMEType: photo.MIMEType, Data: photo.Data}},
		JSON:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Flows) AnalyzeFeatures(ctx context.Context, photo media.Photo) (*FeatureBreakdown, error) {
	prompt, err := render(featureBreakdownPrompt, struct{ Features []string }{breakdownFeatures})
	if err != nil {
		return nil, err
	}
	var out FeatureBreakdown
	err = f.call(ctx, Request{
		Flow:   FlowAnalyzeFeatures,
		System: aestheticianSystem,
		Prompt: prompt,
		Images: []Image{{MIMEType: photo.MIMEType, Data: photo.Data}},
		JSON:   true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Flows) AdvisorySteps(ctx context.Context, goal string) (*AdvisorySteps, error) {
	prompt, err := render(advisoryStepsPrompt, struct{ Goal string }{goal})
	if err != nil {
		return nil, err
	}
	var out AdvisorySteps
	if err := f.call(ctx, Request{Flow: FlowAdvisorySteps, System: advisorSystem, Prompt: prompt, JSON: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Flows) AdvisoryContent(ctx context.Context) (*AdvisoryContent, error) {
	prompt, err := render(advisoryContentPrompt, nil)
	if err != nil {
		return nil, err
	}
	var out AdvisoryContent
	if err := f.call(ctx, Request{Flow: FlowAdvisoryContent, System: advisorSystem, Prompt: prompt, JSON: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Flows) LearningPlan(ctx context.Context, goal string) (*LearningPlan, error) {
	prompt, err := render(learningPlanPrompt, struct {
		Goal       string
		Categories []string
	}{goal, LearningCategories})
	if err != nil {
		return nil, err
	}
	var out LearningPlan
	if err := f.call(ctx, Request{Flow: FlowLearningPlan, System: advisorSystem, Prompt: prompt, JSON: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Flows) PersonalizedLearning(ctx context.Context, in PersonalizedLearningInput) (*PersonalizedLearning, error) {
	prompt, err := render(personalizedLearningPrompt, struct {
		Score       string
		Features    string
		Preferences string
	}{
		Score:       formatScore(in.AestheticScore),
		Features:    featureLines(in.FeatureAnalysis),
		Preferences: strings.TrimSpace(in.Preferences),
	})
	if err != nil {
		return nil, err
	}
	var out PersonalizedLearning
	if err := f.call(ctx, Request{Flow: FlowPersonalizedLearning, System: advisorSystem, Prompt: prompt, JSON: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *Flows) call(ctx context.Context, req Request, out interface{}) (err error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if f.recorder != nil {
			f.recorder.ObserveModelCall(req.Flow, time.Since(start), err)
		}
	}()

	raw, err := f.provider.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%s: %w", req.Flow, err)
	}
	return decodeInto(f.validate, raw, out)
}

// featureLines renders the feature map as "- name: analysis" lines in name order.
func featureLines(features map[string]string) string {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, features[name]))
	}
	return strings.Join(lines, "\n")
}

func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.1f", score)
}
