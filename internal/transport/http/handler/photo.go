package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"facelyze-api/internal/media"
	"facelyze-api/internal/transport/http/response"
)

// maxRequestBytes leaves room for base64 overhead on a full size photo.
const maxRequestBytes = 8 << 20

type photoRequest struct {
	PhotoDataURI string `json:"photo_data_uri" binding:"required"`
}

// readPhoto accepts either a JSON body with photo_data_uri or a multipart
// form with a "photo" file. On failure the response is already written.
func readPhoto(c *gin.Context) (media.Photo, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("photo")
		if err != nil {
			if isTooLarge(err) {
				response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "request too large")
				return media.Photo{}, false
			}
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing photo file (form field 'photo')")
			return media.Photo{}, false
		}
		if file.Size > media.MaxPhotoBytes {
			response.Error(c, http.StatusBadRequest, response.CodeInvalidPhoto, media.ErrTooLarge.Error())
			return media.Photo{}, false
		}
		f, err := file.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to open uploaded file")
			return media.Photo{}, false
		}
		defer f.Close()

		photo, err := media.ReadUpload(f)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeInvalidPhoto, err.Error())
			return media.Photo{}, false
		}
		return photo, true
	}

	var req photoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "request too large")
			return media.Photo{}, false
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return media.Photo{}, false
	}
	photo, err := media.ParseDataURI(req.PhotoDataURI)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidPhoto, err.Error())
		return media.Photo{}, false
	}
	return photo, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
