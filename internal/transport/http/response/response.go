package response

import "github.com/gin-gonic/gin"

const (
	CodeOK = 0

	CodeBadRequest      = 40000
	CodeUsernameExists  = 40001
	CodeEmailExists     = 40002
	CodeInvalidPhoto    = 40003
	CodePhotoRejected   = 40004
	CodeReferenceUsed   = 40005
	CodeUnknownPack     = 40006
	CodePayloadTooLarge = 40007

	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeInvalidSignature   = 40102

	CodeInsufficientTokens = 40200
	CodeForbidden          = 40300

	CodeAnalysisNotFound = 40401
	CodePreviewNotFound  = 40402
	CodeUserNotFound     = 40403

	CodeInternalServer     = 50000
	CodeModelOutputInvalid = 50201
	CodeModelUnavailable   = 50301
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
