package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"facelyze-api/internal/app"
	"facelyze-api/internal/transport/http/response"
)

type AdminHandler struct {
	walletService *app.WalletService
}

type GrantRequest struct {
	Username  string `json:"username" binding:"required"`
	Amount    int    `json:"amount" binding:"required,gt=0"`
	Reference string `json:"reference" binding:"required,max=100"`
}

func NewAdminHandler(walletService *app.WalletService) *AdminHandler {
	return &AdminHandler{walletService: walletService}
}

func (h *AdminHandler) Grant(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	balance, err := h.walletService.AdminGrant(app.GrantInput{
		Username:  req.Username,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
		case errors.Is(err, app.ErrReferenceUsed):
			response.Error(c, http.StatusConflict, response.CodeReferenceUsed, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "grant failed")
		}
		return
	}
	response.OK(c, balance)
}

func (h *AdminHandler) Users(c *gin.Context) {
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid offset")
		return
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
		return
	}

	users, err := h.walletService.ListUsers(offset, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list users failed")
		return
	}
	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}
	response.OK(c, gin.H{"users": out})
}
