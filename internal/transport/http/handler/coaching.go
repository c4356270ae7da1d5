package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facelyze-api/internal/app"
	"facelyze-api/internal/transport/http/response"
)

type CoachingHandler struct {
	coachingService *app.CoachingService
}

type GoalRequest struct {
	Goal string `json:"goal" binding:"max=2000"`
}

type RecommendationsRequest struct {
	AnalysisID  string `json:"analysis_id" binding:"required"`
	Preferences string `json:"preferences"`
}

func NewCoachingHandler(coachingService *app.CoachingService) *CoachingHandler {
	return &CoachingHandler{coachingService: coachingService}
}

func (h *CoachingHandler) SaveGoal(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	goal, err := h.coachingService.SaveGoal(userID, req.Goal)
	if err != nil {
		writeServiceError(c, err, "save goal failed")
		return
	}
	response.OK(c, gin.H{"aesthetic_goal": goal})
}

func (h *CoachingHandler) LearningPlan(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	plan, err := h.coachingService.LearningPlan(c.Request.Context(), userID, req.Goal)
	if err != nil {
		writeServiceError(c, err, "learning plan failed")
		return
	}
	response.OK(c, plan)
}

func (h *CoachingHandler) AdvisorySteps(c *gin.Context) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	steps, err := h.coachingService.AdvisorySteps(c.Request.Context(), req.Goal)
	if err != nil {
		writeServiceError(c, err, "advisory steps failed")
		return
	}
	response.OK(c, steps)
}

func (h *CoachingHandler) AdvisoryContent(c *gin.Context) {
	content, err := h.coachingService.AdvisoryContent(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "advisory content failed")
		return
	}
	response.OK(c, content)
}

func (h *CoachingHandler) Recommendations(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req RecommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	out, err := h.coachingService.Recommendations(c.Request.Context(), app.RecommendationsInput{
		UserID:      userID,
		AnalysisID:  req.AnalysisID,
		Preferences: req.Preferences,
	})
	if err != nil {
		writeServiceError(c, err, "recommendations failed")
		return
	}
	response.OK(c, out)
}
