package handler

import (
	"fmt"
	"net/http"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/storage"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// ProfileUpdater records a user's new profile picture
type ProfileUpdater interface {
	SetProfileImage(userID, url string) (models.User, error)
}

type UploadHandler struct {
	images   storage.ImageStore
	profiles ProfileUpdater
}

func NewUploadHandler(images storage.ImageStore, profiles ProfileUpdater) *UploadHandler {
	return &UploadHandler{images: images, profiles: profiles}
}

// ProfileImageHandler handles POST /upload/profileImage (multipart field "image")
func (h *UploadHandler) ProfileImageHandler(c *gin.Context) {
	userID := helpers.CurrentUserID(c)
	if userID == "" {
		helpers.RespondError(c, "ProfileImageHandler", fmt.Errorf("handler: %w", biddingerrors.ErrUnauthenticated), nil)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		helpers.HandleBindError(c, "ProfileImageHandler", err)
		return
	}
	file, err := header.Open()
	if err != nil {
		helpers.RespondError(c, "ProfileImageHandler", fmt.Errorf("handler: open upload: %w", err), map[string]any{"user_id": userID})
		return
	}
	defer file.Close()

	url, err := h.images.Save(c.Request.Context(), file, "profile")
	if err != nil {
		helpers.RespondError(c, "ProfileImageHandler", err, map[string]any{
			"user_id":  userID,
			"filename": header.Filename,
		})
		return
	}

	if _, err := h.profiles.SetProfileImage(userID, url); err != nil {
		helpers.RespondError(c, "ProfileImageHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.UploadResponse{URL: url}, "image uploaded successfully")
	helpers.LogSuccess("ProfileImageHandler", "image uploaded successfully", map[string]any{
		"user_id": userID,
		"url":     url,
		"size":    header.Size,
	})
}
