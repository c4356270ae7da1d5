package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"facelyze-api/internal/vision"
	"facelyze-api/internal/transport/http/response"
)

// VisionHandler exposes the photo prescreen on its own so operators can see
// why a photo was turned away.
type VisionHandler struct {
	screener vision.Screener
}

func NewVisionHandler(screener vision.Screener) *VisionHandler {
	return &VisionHandler{screener: screener}
}

func (h *VisionHandler) Screen(c *gin.Context) {
	photo, ok := readPhoto(c)
	if !ok {
		return
	}

	verdict, err := h.screener.Screen(photo)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "cannot open shared object file") || strings.Contains(msg, "Error loading ONNX shared library") {
			msg = "ONNX Runtime library not found. Set VISION_ONNX_LIB to the path of libonnxruntime.so."
		} else {
			msg = "screening failed: " + msg
		}
		response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, msg)
		return
	}

	response.OK(c, verdict)
}
