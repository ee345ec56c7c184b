package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsefeed/pulsefeed/config"
	"github.com/pulsefeed/pulsefeed/middleware"
	"github.com/pulsefeed/pulsefeed/points"
	"github.com/pulsefeed/pulsefeed/utils"
)

// PointsController exposes the engagement engine: daily claim, task
// completion, status and the transaction ledger.
type PointsController struct {
	engine *points.Engine
}

// NewPointsController creates a new controller instance.
func NewPointsController(engine *points.Engine) *PointsController {
	return &PointsController{engine: engine}
}

// ClaimDaily awards the once-per-24h reward with streak bonus scaling.
func (p *PointsController) ClaimDaily(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res, err := p.engine.ClaimDaily(ctx.Request.Context(), userID)
	if err != nil {
		var ace *points.AlreadyClaimedError
		if errors.As(err, &ace) {
			middleware.ClaimsRejected.Inc()
			utils.Error(ctx, http.StatusBadRequest, 40030,
				fmt.Sprintf("already claimed, next claim in %dh %dm", ace.RemainingHours, ace.RemainingMinutes))
			return
		}
		if errors.Is(err, points.ErrAlreadyClaimed) {
			middleware.ClaimsRejected.Inc()
			utils.Error(ctx, http.StatusBadRequest, 40030, "already claimed today")
			return
		}
		utils.Sugar.Errorf("daily claim failed user=%d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to process claim")
		return
	}

	middleware.ClaimsGranted.Inc()
	invalidateStatusCache(userID)

	utils.Success(ctx, gin.H{
		"points_awarded": res.Points,
		"total_points":   res.TotalPoints,
		"daily_streak":   res.DailyStreak,
		"level":          res.Level,
	})
}

// Status returns the point record plus claim availability, creating a default
// record for first-time users.
func (p *PointsController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	cacheKey := statusCacheKey(userID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	st, err := p.engine.Status(ctx.Request.Context(), userID)
	if err != nil {
		utils.Sugar.Errorf("points status failed user=%d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load points status")
		return
	}

	payload := gin.H{
		"total_points":      st.Record.TotalPoints,
		"daily_streak":      st.Record.DailyStreak,
		"level":             st.Record.Level,
		"last_claim_at":     st.Record.LastClaimAt,
		"can_claim":         st.CanClaim,
		"remaining_hours":   st.Window.RemainingHours,
		"remaining_minutes": st.Window.RemainingMinutes,
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	ttl := time.Duration(config.Get().StatusCacheSeconds) * time.Second
	utils.CacheSetJSON(cacheKey, wrapper, ttl)
	utils.Success(ctx, payload)
}

// CompleteTask awards a flat amount for a named activity, once per calendar day.
func (p *PointsController) CompleteTask(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		TaskType string `json:"task_type" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid request payload")
		return
	}

	taskType := strings.TrimSpace(req.TaskType)
	award, known := config.Get().TaskRewards[taskType]
	if !known {
		utils.Error(ctx, http.StatusBadRequest, 40033, "unknown task type")
		return
	}

	res, err := p.engine.CompleteTask(ctx.Request.Context(), userID, taskType, award)
	if err != nil {
		if errors.Is(err, points.ErrTaskAlreadyCompleted) {
			utils.Error(ctx, http.StatusBadRequest, 40031, "task already completed today")
			return
		}
		utils.Sugar.Errorf("task completion failed user=%d task=%s: %v", userID, taskType, err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to complete task")
		return
	}

	middleware.TasksCompleted.WithLabelValues(taskType).Inc()
	invalidateStatusCache(userID)

	utils.Success(ctx, gin.H{
		"points_awarded": res.Points,
		"total_points":   res.TotalPoints,
		"level":          res.Level,
	})
}

// Transactions pages through the caller's audit ledger. Staff may inspect any
// user via the user_id query parameter.
func (p *PointsController) Transactions(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if v := strings.TrimSpace(ctx.Query("user_id")); v != "" && isStaff(ctx) {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			userID = uint(n)
		}
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	txns, total, err := p.engine.Transactions(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		utils.Sugar.Errorf("list transactions failed user=%d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to list transactions")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      txns,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// completeTaskQuiet runs a task award for engagement hooks on content reads.
// Duplicate completions and failures are expected and only logged.
func (p *PointsController) completeTaskQuiet(ctx *gin.Context, userID uint, taskType string) {
	award, known := config.Get().TaskRewards[taskType]
	if !known {
		return
	}
	_, err := p.engine.CompleteTask(ctx.Request.Context(), userID, taskType, award)
	if err != nil {
		if !errors.Is(err, points.ErrTaskAlreadyCompleted) {
			utils.Sugar.Warnf("engagement hook failed user=%d task=%s: %v", userID, taskType, err)
		}
		return
	}
	middleware.TasksCompleted.WithLabelValues(taskType).Inc()
	invalidateStatusCache(userID)
}

func statusCacheKey(userID uint) string {
	return "cache:points:status:" + strconv.Itoa(int(userID))
}

func invalidateStatusCache(userID uint) {
	utils.InvalidateByPrefix(statusCacheKey(userID))
}
