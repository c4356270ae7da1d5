package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"facelyze-api/internal/app"
	"facelyze-api/internal/transport/http/response"
)

const (
	HeaderPaymentSignature = "X-Razorpay-Signature"
	maxWebhookBytes        = 1 << 20
)

type StoreHandler struct {
	storeService *app.StoreService
}

func NewStoreHandler(storeService *app.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

func (h *StoreHandler) Packs(c *gin.Context) {
	response.OK(c, gin.H{"packs": h.storeService.Packs()})
}

func (h *StoreHandler) Products(c *gin.Context) {
	products, err := h.storeService.Products()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list products failed")
		return
	}
	response.OK(c, gin.H{"products": products})
}

// Webhook must see the raw body: the signature covers the exact bytes sent.
func (h *StoreHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable body")
		return
	}

	outcome, err := h.storeService.HandlePaymentWebhook(body, c.GetHeader(HeaderPaymentSignature))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidSignature):
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidSignature, err.Error())
		case errors.Is(err, app.ErrUnknownPack):
			response.Error(c, http.StatusBadRequest, response.CodeUnknownPack, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "webhook processing failed")
		}
		return
	}
	response.OK(c, outcome)
}
