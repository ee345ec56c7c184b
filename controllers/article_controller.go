package controllers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/models"
	"github.com/pulsefeed/pulsefeed/utils"
)

// ArticleController manages long-form content and its comments. Reading an
// article while authenticated feeds the read_article engagement task.
type ArticleController struct {
	db     *gorm.DB
	points *PointsController
}

// NewArticleController creates an ArticleController.
func NewArticleController(db *gorm.DB, points *PointsController) *ArticleController {
	return &ArticleController{db: db, points: points}
}

// List returns paginated articles, optionally filtered by category or author.
func (a *ArticleController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	category := strings.TrimSpace(ctx.Query("category"))

	query := a.db.Model(&models.Article{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if v := strings.TrimSpace(ctx.Query("user_id")); v != "" {
		if authorID, err := strconv.ParseUint(v, 10, 64); err == nil {
			query = query.Where("user_id = ?", authorID)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to count articles")
		return
	}

	var articles []models.Article
	if err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&articles).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to retrieve articles")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      articles,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// Get returns a single article with comments. If the caller carries a valid
// token, the read counts toward the once-per-day read_article award.
func (a *ArticleController) Get(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))

	var article models.Article
	err := a.db.Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Preload("User")
		}).
		First(&article, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "article not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to retrieve article")
		return
	}

	if userID, ok := getUserID(ctx); ok {
		a.points.completeTaskQuiet(ctx, userID, "read_article")
	}

	utils.Success(ctx, article)
}

// Create stores a new article with sanitized HTML content.
func (a *ArticleController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Title    string `json:"title" binding:"required,max=255"`
		Content  string `json:"content" binding:"required"`
		Category string `json:"category" binding:"max=32"`
		CoverURL string `json:"cover_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	article := models.Article{
		UserID:   userID,
		Title:    strings.TrimSpace(req.Title),
		Content:  utils.Sanitize(req.Content),
		Category: strings.TrimSpace(req.Category),
		CoverURL: strings.TrimSpace(req.CoverURL),
	}

	if err := a.db.Create(&article).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to create article")
		return
	}

	utils.Success(ctx, article)
}

// Update modifies an article. Authors may edit their own; staff may edit any.
func (a *ArticleController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var article models.Article
	if err := a.db.First(&article, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "article not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to retrieve article")
		return
	}

	if article.UserID != userID && !isStaff(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40320, "not your article")
		return
	}

	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
		CoverURL string `json:"cover_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	if strings.TrimSpace(req.Title) != "" {
		article.Title = strings.TrimSpace(req.Title)
	}
	if req.Content != "" {
		article.Content = utils.Sanitize(req.Content)
	}
	if strings.TrimSpace(req.Category) != "" {
		article.Category = strings.TrimSpace(req.Category)
	}
	if strings.TrimSpace(req.CoverURL) != "" {
		article.CoverURL = strings.TrimSpace(req.CoverURL)
	}

	if err := a.db.Save(&article).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to update article")
		return
	}

	utils.Success(ctx, article)
}

// Delete removes an article and its comments.
func (a *ArticleController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var article models.Article
	if err := a.db.First(&article, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "article not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to retrieve article")
		return
	}

	if article.UserID != userID && !isStaff(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40320, "not your article")
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", article.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&article).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to delete article")
		return
	}

	utils.Success(ctx, gin.H{"message": "deleted"})
}

// CreateComment adds a comment to an article and feeds the post_comment task.
func (a *ArticleController) CreateComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	articleID, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid article id")
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,max=2048"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	var article models.Article
	if err := a.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "article not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to retrieve article")
		return
	}

	comment := models.Comment{
		ArticleID: uint(articleID),
		UserID:    userID,
		Content:   utils.Sanitize(strings.TrimSpace(req.Content)),
	}
	if err := a.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to create comment")
		return
	}

	a.points.completeTaskQuiet(ctx, userID, "post_comment")

	utils.Success(ctx, comment)
}

// DeleteComment removes a comment. Authors and staff only.
func (a *ArticleController) DeleteComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var comment models.Comment
	if err := a.db.First(&comment, ctx.Param("comment_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40421, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to retrieve comment")
		return
	}

	if comment.UserID != userID && !isStaff(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40321, "not your comment")
		return
	}

	if err := a.db.Delete(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50018, "failed to delete comment")
		return
	}

	utils.Success(ctx, gin.H{"message": "deleted"})
}

// UploadCover accepts an image upload for article covers and returns its URL.
func (a *ArticleController) UploadCover(ctx *gin.Context) {
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "missing file")
		return
	}
	if file.Size > 5<<20 {
		utils.Error(ctx, http.StatusBadRequest, 40024, "file too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		utils.Error(ctx, http.StatusBadRequest, 40025, "unsupported file type")
		return
	}

	name := uuid.NewString() + ext
	dst := filepath.Join("uploads", name)
	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50019, "failed to save file")
		return
	}

	utils.Success(ctx, gin.H{"url": "/uploads/" + name})
}
