package ai

// Scores are pointers so that a reply which leaves a number out fails
// validation instead of reading as zero.

// FaceAnalysis is the full dashboard analysis of one photo.
type FaceAnalysis struct {
	AestheticScore          *float64         `json:"aestheticScore" validate:"required,gte=0,lte=100"`
	OverallImpression       *Impression      `json:"overallImpression" validate:"required"`
	SpecificRatings         *SpecificRatings `json:"specificRatings" validate:"required"`
	FeatureAnalysis         []FeatureNote    `json:"featureAnalysis" validate:"required,min=1,dive"`
	SkincareRecommendations []SkincareTip    `json:"skincareRecommendations" validate:"required,dive"`
	PersonalizedPlan        []PlanStep       `json:"personalizedPlan,omitempty" validate:"omitempty,dive"`
}

type Impression struct {
	Rating *float64 `json:"rating" validate:"required,gte=0,lte=100"`
	Text   string   `json:"text" validate:"required"`
}

type SpecificRatings struct {
	Overall     *float64 `json:"overall" validate:"required,gte=0,lte=100"`
	Potential   *float64 `json:"potential" validate:"required,gte=0,lte=100"`
	Masculinity *float64 `json:"masculinity" validate:"required,gte=0,lte=100"`
	Jawline     *float64 `json:"jawline" validate:"required,gte=0,lte=100"`
	Cheekbones  *float64 `json:"cheekbones" validate:"required,gte=0,lte=100"`
	SkinQuality *float64 `json:"skinQuality" validate:"required,gte=0,lte=100"`
}

type FeatureNote struct {
	Feature  string   `json:"feature" validate:"required"`
	Rating   *float64 `json:"rating" validate:"required,gte=0,lte=100"`
	Analysis string   `json:"analysis" validate:"required"`
}

type SkincareTip struct {
	Recommendation string `json:"recommendation" validate:"required"`
	Reason         string `json:"reason"`
}

type PlanStep struct {
	Step        string `json:"step" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Score is the overall aesthetic score, 0 when absent.
func (f *FaceAnalysis) Score() float64 {
	return deref(f.AestheticScore)
}

// Preview is the part of an analysis shown before it is paid for.
func (f *FaceAnalysis) Preview() (float64, Impression) {
	if f.OverallImpression == nil {
		return f.Score(), Impression{}
	}
	return f.Score(), *f.OverallImpression
}

// FeatureMap flattens the per-feature analysis for the recommendations flow.
func (f *FaceAnalysis) FeatureMap() map[string]string {
	out := make(map[string]string, len(f.FeatureAnalysis))
	for _, n := range f.FeatureAnalysis {
		out[n.Feature] = n.Analysis
	}
	return out
}

type AestheticScore struct {
	AestheticScore *float64 `json:"aestheticScore" validate:"required,gte=1,lte=10"`
	Reason         string   `json:"reason" validate:"required"`
}

func (a *AestheticScore) Value() float64 {
	return deref(a.AestheticScore)
}

type FeatureBreakdown struct {
	FeatureAnalysis []FeatureScore `json:"featureAnalysis" validate:"required,min=1,dive"`
}

type FeatureScore struct {
	FeatureName string   `json:"featureName" validate:"required"`
	Score       *float64 `json:"score" validate:"required,gte=0,lte=100"`
	Feedback    string   `json:"feedback" validate:"required"`
}

type AdvisorySteps struct {
	Steps []AdvisoryStep `json:"steps" validate:"required,min=1,dive"`
}

type AdvisoryStep struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type AdvisoryContent struct {
	Principles          []AdvisoryStep `json:"principles" validate:"required,min=1,dive"`
	BookRecommendations []Book         `json:"bookRecommendations" validate:"required,dive"`
}

type Book struct {
	Title   string `json:"title" validate:"required"`
	Author  string `json:"author" validate:"required"`
	Summary string `json:"summary"`
}

var LearningCategories = []string{"Skincare", "Exercise", "Nutrition", "Grooming", "Lifestyle"}

type LearningPlan struct {
	Plan []LearningStep `json:"plan" validate:"required,min=1,dive"`
}

type LearningStep struct {
	Step        string `json:"step" validate:"required"`
	Category    string `json:"category" validate:"oneof=Skincare Exercise Nutrition Grooming Lifestyle"`
	Description string `json:"description" validate:"required"`
}

type PersonalizedLearningInput struct {
	AestheticScore  float64
	FeatureAnalysis map[string]string
	Preferences     string
}

type PersonalizedLearning struct {
	SkincareRecommendations []string `json:"skincareRecommendations" validate:"required,dive,required"`
	MakeupTechniques        []string `json:"makeupTechniques" validate:"required,dive,required"`
	LifestyleAdjustments    []string `json:"lifestyleAdjustments" validate:"required,dive,required"`
	AdditionalResources     []string `json:"additionalResources,omitempty"`
}
