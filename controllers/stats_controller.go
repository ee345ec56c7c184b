package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/models"
	"github.com/pulsefeed/pulsefeed/utils"
)

// StatsController serves aggregate platform counters for the admin console.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a StatsController.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// Overview returns platform-wide totals plus today's engagement activity.
// Counts are cached for a minute; staleness here is harmless.
func (s *StatsController) Overview(ctx *gin.Context) {
	const cacheKey = "cache:stats:overview"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var userCount, articleCount, videoCount, commentCount int64
	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}
	if err := s.db.Model(&models.Article{}).Count(&articleCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}
	if err := s.db.Model(&models.Video{}).Count(&videoCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}
	if err := s.db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load stats")
		return
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var claimsToday, tasksToday int64
	if err := s.db.Model(&models.PointTransaction{}).
		Where("type = ? AND created_at >= ?", models.TxnDailyClaim, startOfDay).
		Count(&claimsToday).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load engagement stats")
		return
	}
	if err := s.db.Model(&models.PointTransaction{}).
		Where("type = ? AND created_at >= ?", models.TxnTaskCompletion, startOfDay).
		Count(&tasksToday).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load engagement stats")
		return
	}

	type levelRow struct {
		Level string `json:"level"`
		Count int64  `json:"count"`
	}
	var levels []levelRow
	if err := s.db.Model(&models.PointRecord{}).
		Select("level, count(*) as count").
		Group("level").
		Scan(&levels).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load level stats")
		return
	}

	payload := gin.H{
		"users":        userCount,
		"articles":     articleCount,
		"videos":       videoCount,
		"comments":     commentCount,
		"claims_today": claimsToday,
		"tasks_today":  tasksToday,
		"levels":       levels,
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Minute)
	utils.Success(ctx, payload)
}

// Leaderboard returns the top point holders.
func (s *StatsController) Leaderboard(ctx *gin.Context) {
	const cacheKey = "cache:stats:leaderboard"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	type row struct {
		UserID      uint   `json:"user_id"`
		Username    string `json:"username"`
		TotalPoints int    `json:"total_points"`
		DailyStreak int    `json:"daily_streak"`
		Level       string `json:"level"`
	}
	var rows []row
	err := s.db.Model(&models.PointRecord{}).
		Select("point_records.user_id, users.username, point_records.total_points, point_records.daily_streak, point_records.level").
		Joins("JOIN users ON users.id = point_records.user_id").
		Order("point_records.total_points DESC").
		Limit(20).
		Scan(&rows).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load leaderboard")
		return
	}

	payload := gin.H{"items": rows}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Minute)
	utils.Success(ctx, payload)
}
