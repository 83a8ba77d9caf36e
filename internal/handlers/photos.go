package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jce-C/megregalo/internal/repository"
	"github.com/Jce-C/megregalo/internal/service"
)

type uploadRequest struct {
	Filename string `json:"filename"`
	DataURL  string `json:"dataUrl"`
}

// GetPhotos always answers with a JSON array; an empty gallery is [].
func (h HandlerSet) GetPhotos(c *gin.Context) {
	photos, err := h.photos.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list photos failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to load photos"})
		return
	}
	c.JSON(http.StatusOK, photos)
}

func (h HandlerSet) UploadPhoto(c *gin.Context) {
	if limit := h.bodyLimit(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": service.ErrTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	photo, err := h.photos.Upload(c.Request.Context(), service.UploadInput{
		Filename: req.Filename,
		DataURL:  req.DataURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": err.Error()})
		case errors.Is(err, service.ErrMissingFields),
			errors.Is(err, service.ErrInvalidDataURL),
			errors.Is(err, service.ErrUnsupportedImage):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			h.log.Error().Err(err).Str("filename", req.Filename).Msg("upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to save photo"})
		}
		return
	}

	c.JSON(http.StatusOK, photo)
}

func (h HandlerSet) DeletePhoto(c *gin.Context) {
	id := c.Param("id")
	if err := h.photos.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "photo not found"})
			return
		}
		h.log.Error().Err(err).Str("photo_id", id).Msg("delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete photo"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// bodyLimit leaves room for base64 growth and the JSON envelope.
func (h HandlerSet) bodyLimit() int64 {
	max := h.cfg.Photos.MaxUploadBytes
	if max <= 0 {
		return 0
	}
	return max*4/3 + 64<<10
}
