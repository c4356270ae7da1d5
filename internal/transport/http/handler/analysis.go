package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facelyze-api/internal/app"
	"facelyze-api/internal/transport/http/response"
)

type AnalysisHandler struct {
	analysisService *app.AnalysisService
}

type ClaimPreviewRequest struct {
	PreviewID string `json:"preview_id" binding:"required,uuid"`
}

func NewAnalysisHandler(analysisService *app.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

func (h *AnalysisHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	photo, ok := readPhoto(c)
	if !ok {
		return
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), userID, photo)
	if err != nil {
		writeServiceError(c, err, "analysis failed")
		return
	}
	response.OK(c, result)
}

func (h *AnalysisHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
		return
	}

	analyses, err := h.analysisService.History(c.Request.Context(), userID, limit)
	if err != nil {
		writeServiceError(c, err, "list analyses failed")
		return
	}
	response.OK(c, gin.H{"analyses": analyses})
}

func (h *AnalysisHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	analysis, err := h.analysisService.Get(userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "get analysis failed")
		return
	}
	response.OK(c, analysis)
}

// Guest runs a free analysis without an account and returns only the
// unlocked part of the result.
func (h *AnalysisHandler) Guest(c *gin.Context) {
	photo, ok := readPhoto(c)
	if !ok {
		return
	}

	preview, err := h.analysisService.AnalyzeGuest(c.Request.Context(), photo)
	if err != nil {
		writeServiceError(c, err, "analysis failed")
		return
	}
	response.OK(c, preview)
}

func (h *AnalysisHandler) Claim(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req ClaimPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.analysisService.ClaimPreview(c.Request.Context(), userID, req.PreviewID)
	if err != nil {
		writeServiceError(c, err, "claim preview failed")
		return
	}
	response.OK(c, result)
}

func (h *AnalysisHandler) QuickScore(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	photo, ok := readPhoto(c)
	if !ok {
		return
	}

	result, err := h.analysisService.QuickScore(c.Request.Context(), userID, photo)
	if err != nil {
		writeServiceError(c, err, "quick score failed")
		return
	}
	response.OK(c, result)
}

func (h *AnalysisHandler) Features(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	photo, ok := readPhoto(c)
	if !ok {
		return
	}

	result, err := h.analysisService.FeatureBreakdown(c.Request.Context(), userID, photo)
	if err != nil {
		writeServiceError(c, err, "feature breakdown failed")
		return
	}
	response.OK(c, result)
}
