package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/models"
	"github.com/pulsefeed/pulsefeed/utils"
)

// VideoController manages video metadata. Watching a video while authenticated
// feeds the watch_video engagement task.
type VideoController struct {
	db     *gorm.DB
	points *PointsController
}

// NewVideoController creates a VideoController.
func NewVideoController(db *gorm.DB, points *PointsController) *VideoController {
	return &VideoController{db: db, points: points}
}

// List returns paginated videos, newest first.
func (v *VideoController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var total int64
	if err := v.db.Model(&models.Video{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count videos")
		return
	}

	var videos []models.Video
	if err := v.db.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&videos).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to retrieve videos")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      videos,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// Get returns a single video. Authenticated views count toward the
// once-per-day watch_video award.
func (v *VideoController) Get(ctx *gin.Context) {
	var video models.Video
	if err := v.db.Preload("User").First(&video, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "video not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to retrieve video")
		return
	}

	if userID, ok := getUserID(ctx); ok {
		v.points.completeTaskQuiet(ctx, userID, "watch_video")
	}

	utils.Success(ctx, video)
}

// Create stores a new video entry.
func (v *VideoController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Title        string `json:"title" binding:"required,max=255"`
		Description  string `json:"description" binding:"max=1024"`
		URL          string `json:"url" binding:"required,max=512"`
		ThumbnailURL string `json:"thumbnail_url" binding:"max=512"`
		DurationSec  int    `json:"duration_sec" binding:"min=0"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40026, "invalid request payload")
		return
	}

	video := models.Video{
		UserID:       userID,
		Title:        strings.TrimSpace(req.Title),
		Description:  utils.Sanitize(strings.TrimSpace(req.Description)),
		URL:          strings.TrimSpace(req.URL),
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		DurationSec:  req.DurationSec,
	}

	if err := v.db.Create(&video).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to create video")
		return
	}

	utils.Success(ctx, video)
}

// Update modifies a video. Uploaders may edit their own; staff may edit any.
func (v *VideoController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var video models.Video
	if err := v.db.First(&video, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "video not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to retrieve video")
		return
	}

	if video.UserID != userID && !isStaff(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40330, "not your video")
		return
	}

	var req struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnail_url"`
		DurationSec  *int   `json:"duration_sec"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40026, "invalid request payload")
		return
	}

	if strings.TrimSpace(req.Title) != "" {
		video.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		video.Description = utils.Sanitize(strings.TrimSpace(req.Description))
	}
	if strings.TrimSpace(req.URL) != "" {
		video.URL = strings.TrimSpace(req.URL)
	}
	if strings.TrimSpace(req.ThumbnailURL) != "" {
		video.ThumbnailURL = strings.TrimSpace(req.ThumbnailURL)
	}
	if req.DurationSec != nil && *req.DurationSec >= 0 {
		video.DurationSec = *req.DurationSec
	}

	if err := v.db.Save(&video).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update video")
		return
	}

	utils.Success(ctx, video)
}

// Delete removes a video entry.
func (v *VideoController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var video models.Video
	if err := v.db.First(&video, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "video not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to retrieve video")
		return
	}

	if video.UserID != userID && !isStaff(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40330, "not your video")
		return
	}

	if err := v.db.Delete(&video).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to delete video")
		return
	}

	utils.Success(ctx, gin.H{"message": "deleted"})
}
