package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pulsefeed/pulsefeed/middleware"
	"github.com/pulsefeed/pulsefeed/models"
	"github.com/pulsefeed/pulsefeed/points"
)

// newPointsTestRouter builds a router over an in-memory database with a stub
// auth middleware, exercising the real engine and store underneath.
func newPointsTestRouter(t *testing.T, userID uint) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	nopLog := zap.NewNop().Sugar()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.PointRecord{}, &models.PointTransaction{}, &models.DailyTask{}))

	engine := points.NewEngine(points.NewGormStore(db), points.Config{}, nopLog)
	pc := NewPointsController(engine)

	r := gin.New()
	stubAuth := func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Set(middleware.ContextRoleKey, models.RoleUser)
		ctx.Next()
	}
	grp := r.Group("/api/v1/points", stubAuth)
	grp.POST("/claim", pc.ClaimDaily)
	grp.GET("/status", pc.Status)
	grp.POST("/tasks", pc.CompleteTask)
	grp.GET("/transactions", pc.Transactions)
	return r
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestClaimEndpointAwardsOncePerWindow(t *testing.T) {
	r := newPointsTestRouter(t, 7)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/points/claim", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, env.Code)

	var claim struct {
		PointsAwarded int    `json:"points_awarded"`
		TotalPoints   int    `json:"total_points"`
		DailyStreak   int    `json:"daily_streak"`
		Level         string `json:"level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &claim))
	assert.Equal(t, 50, claim.PointsAwarded)
	assert.Equal(t, 50, claim.TotalPoints)
	assert.Equal(t, 1, claim.DailyStreak)
	assert.Equal(t, "Bronze", claim.Level)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/points/claim", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40030, env.Code)
	assert.Contains(t, env.Message, "next claim in")
}

func TestStatusEndpointInitializesNewUser(t *testing.T) {
	r := newPointsTestRouter(t, 8)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/points/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, env.Code)

	var status struct {
		TotalPoints int    `json:"total_points"`
		DailyStreak int    `json:"daily_streak"`
		Level       string `json:"level"`
		CanClaim    bool   `json:"can_claim"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 0, status.TotalPoints)
	assert.Equal(t, 0, status.DailyStreak)
	assert.Equal(t, "Bronze", status.Level)
	assert.True(t, status.CanClaim)
}

func TestTaskEndpointSingleAwardPerDay(t *testing.T) {
	r := newPointsTestRouter(t, 9)

	body := gin.H{"task_type": "watch_video"}
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/points/tasks", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, env.Code)

	var task struct {
		PointsAwarded int `json:"points_awarded"`
		TotalPoints   int `json:"total_points"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, 15, task.PointsAwarded)
	assert.Equal(t, 15, task.TotalPoints)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/points/tasks", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40031, env.Code)
}

func TestTaskEndpointRejectsUnknownType(t *testing.T) {
	r := newPointsTestRouter(t, 10)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/points/tasks", gin.H{"task_type": "fly_to_moon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40033, env.Code)
}

func TestTransactionsEndpointListsLedger(t *testing.T) {
	r := newPointsTestRouter(t, 11)

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/points/claim", nil)
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/points/tasks", gin.H{"task_type": "read_article"})

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/points/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, env.Code)

	var list struct {
		Items []struct {
			Points int    `json:"points"`
			Type   string `json:"type"`
		} `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 2)
	assert.EqualValues(t, 2, list.Pagination.Total)
	// Newest first: the task completion follows the claim.
	assert.Equal(t, models.TxnTaskCompletion, list.Items[0].Type)
	assert.Equal(t, models.TxnDailyClaim, list.Items[1].Type)
}
