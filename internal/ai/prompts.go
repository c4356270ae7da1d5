package ai

import (
	"bytes"
	"text/template"
)

const aestheticianSystem = `You are an AI aesthetician. You give honest, kind and specific feedback on facial aesthetics based on generally accepted beauty standards. Never identify the person in a photo. Always answer with a single JSON object and nothing else.`

const advisorSystem = `You are an expert beauty and wellness advisor. Always answer with a single JSON object and nothing else.`

var faceAnalysisPrompt = template.Must(template.New("face_analysis").Parse(`Analyze the face in the attached photo.
{{- if .Goal}}
The user's aesthetic goal is: "{{.Goal}}". Tailor the personalizedPlan to help them reach this goal.
{{- else}}
The user has not set a goal; make the personalizedPlan a general improvement plan.
{{- end}}

Return a JSON object with these keys:
- "aestheticScore": number 0-100, overall aesthetic score.
- "overallImpression": {"rating": number 0-100, "text": short paragraph}.
- "specificRatings": {"overall", "potential", "masculinity", "jawline", "cheekbones", "skinQuality"}, each a number 0-100.
- "featureAnalysis": array of {"feature": name, "rating": number 0-100, "analysis": detailed feedback}, covering at least eyes, nose, lips, jawline and skin.
- "skincareRecommendations": array of {"recommendation": text, "reason": text}.
- "personalizedPlan": array of {"step": short title, "description": text}.`))

var aestheticScorePrompt = template.Must(template.New("aesthetic_score").Parse(`Assign the attached photo an aesthetic score on a scale of 1 to 10, where 1 is the least aesthetic and 10 is the most aesthetic, and explain why it received the score.

Return a JSON object: {"aestheticScore": number 1-10, "reason": brief explanation}.`))

var featureBreakdownPrompt = template.Must(template.New("feature_breakdown").Parse(`Analyze the following facial features in the attached photo. Provide a score from 0-100 on each feature and detailed feedback.

Facial features:
{{- range .Features}}
- {{.}}
{{- end}}

Return a JSON object: {"featureAnalysis": [{"featureName": name, "score": number 0-100, "feedback": text}]}.`))

var advisoryStepsPrompt = template.Must(template.New("advisory_steps").Parse(`A user wants to achieve a specific look.
User's goal: "{{.Goal}}"

Provide a detailed, step-by-step advisory plan to help the user achieve their goal. Break the advice into actionable steps with a clear title and description for each. The advice can cover skincare, makeup, exercises or lifestyle changes.

Return a JSON object: {"steps": [{"title": text, "description": text}]}.`))

var advisoryContentPrompt = template.Must(template.New("advisory_content").Parse(`Write general guidance for someone who wants to improve their appearance and confidence.

Return a JSON object with:
- "principles": array of {"title": text, "description": text}, 4 to 6 core principles of self-improvement in looks and wellbeing.
- "bookRecommendations": array of {"title": text, "author": text, "summary": text}, 3 to 5 well known books on the topic.`))

var learningPlanPrompt = template.Must(template.New("learning_plan").Parse(`Create a personalized improvement plan for a user with this goal: "{{.Goal}}".

Each step must belong to exactly one category: {{range $i, $c := .Categories}}{{if $i}}, {{end}}{{$c}}{{end}}.

Return a JSON object: {"plan": [{"step": short title, "category": one of the categories, "description": text}]}.`))

var personalizedLearningPrompt = template.Must(template.New("personalized_learning").Parse(`Based on the user's aesthetic score of {{.Score}} and the following facial feature analysis:
{{.Features}}
{{- if .Preferences}}
Considering the user's preferences: {{.Preferences}}
{{- end}}

Provide personalized recommendations and educational content on skincare, makeup and lifestyle adjustments to help the user improve their looks.

Return a JSON object with "skincareRecommendations", "makeupTechniques" and "lifestyleAdjustments", each an array of strings, and optionally "additionalResources", an array of links to external resources.`))

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
