package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/config"
	"github.com/pulsefeed/pulsefeed/controllers"
	"github.com/pulsefeed/pulsefeed/middleware"
	"github.com/pulsefeed/pulsefeed/points"
	"github.com/pulsefeed/pulsefeed/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/uploads", "./uploads")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine := points.NewEngine(points.NewGormStore(db), points.Config{
		BasePoints:      cfg.ClaimBasePoints,
		StreakBonusStep: cfg.ClaimStreakBonus,
	}, utils.Sugar)

	authController := controllers.NewAuthController(db)
	pointsController := controllers.NewPointsController(engine)
	articleController := controllers.NewArticleController(db, pointsController)
	videoController := controllers.NewVideoController(db, pointsController)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public content reads carry optional identity so signed-in viewers earn
	// their once-per-day engagement awards.
	api.GET("/articles", articleController.List)
	api.GET("/articles/:id", middleware.OptionalAuth(), articleController.Get)
	api.GET("/videos", videoController.List)
	api.GET("/videos/:id", middleware.OptionalAuth(), videoController.Get)
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/stats", statsController.Overview)
	api.GET("/leaderboard", statsController.Leaderboard)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.POST("/points/claim", pointsController.ClaimDaily)
	protected.GET("/points/status", pointsController.Status)
	protected.POST("/points/tasks", pointsController.CompleteTask)
	protected.GET("/points/transactions", pointsController.Transactions)

	protected.POST("/articles", articleController.Create)
	protected.PUT("/articles/:id", articleController.Update)
	protected.DELETE("/articles/:id", articleController.Delete)
	protected.POST("/articles/:id/comments", articleController.CreateComment)
	protected.DELETE("/comments/:comment_id", articleController.DeleteComment)
	protected.POST("/upload", articleController.UploadCover)

	protected.POST("/videos", videoController.Create)
	protected.PUT("/videos/:id", videoController.Update)
	protected.DELETE("/videos/:id", videoController.Delete)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/users", authController.ListUsers)
	admin.GET("/stats", statsController.Overview)
	admin.PUT("/users/:id/role", middleware.SuperAdminRequired(), authController.UpdateUserRole)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
