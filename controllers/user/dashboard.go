package userControllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vin-devs/learnsite/auth"
	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/models"
)

// PurchasedCourse is a course the user owns plus their progress in it.
type PurchasedCourse struct {
	models.Product
	Progress         int        `json:"progress"`
	CompletedLessons int        `json:"completedLessons"`
	LastAccessed     *time.Time `json:"lastAccessed,omitempty"`
}

// PurchasedBook is a book the user owns plus their reading state.
type PurchasedBook struct {
	models.Product
	ReadingProgress int        `json:"readingProgress"`
	DownloadedAt    *time.Time `json:"downloadedAt,omitempty"`
}

type DashboardStats struct {
	TotalCourses     int     `json:"totalCourses"`
	TotalBooks       int     `json:"totalBooks"`
	CompletedCourses int     `json:"completedCourses"`
	AverageProgress  float64 `json:"averageProgress"`
}

type Dashboard struct {
	Courses []PurchasedCourse `json:"courses"`
	Books   []PurchasedBook   `json:"books"`
	Stats   DashboardStats    `json:"stats"`
}

// buildDashboard joins the user's purchases with the catalog and stored
// progress. Purchases of products no longer in the catalog are left out.
func buildDashboard(ctx context.Context, db *gorm.DB, cat *catalog.Catalog, userID string) (Dashboard, error) {
	d := Dashboard{Courses: []PurchasedCourse{}, Books: []PurchasedBook{}}

	var purchases []models.Purchase
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&purchases).Error; err != nil {
		return d, err
	}
	var courseRows []models.CourseProgress
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&courseRows).Error; err != nil {
		return d, err
	}
	var bookRows []models.BookProgress
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&bookRows).Error; err != nil {
		return d, err
	}

	courseProgress := make(map[string]models.CourseProgress, len(courseRows))
	for _, p := range courseRows {
		courseProgress[p.ProductID] = p
	}
	bookProgress := make(map[string]models.BookProgress, len(bookRows))
	for _, p := range bookRows {
		bookProgress[p.ProductID] = p
	}

	progressSum := 0
	for _, purchase := range purchases {
		product, ok := cat.Get(purchase.ProductID)
		if !ok {
			continue
		}
		switch product.Kind {
		case models.KindCourse:
			entry := PurchasedCourse{Product: product}
			if p, ok := courseProgress[product.ID]; ok {
				entry.Progress = p.Progress
				entry.CompletedLessons = p.CompletedLessons
				accessed := p.LastAccessed
				entry.LastAccessed = &accessed
			}
			if entry.Progress >= 100 {
				d.Stats.CompletedCourses++
			}
			progressSum += entry.Progress
			d.Courses = append(d.Courses, entry)
		case models.KindBook:
			entry := PurchasedBook{Product: product}
			if p, ok := bookProgress[product.ID]; ok {
				entry.ReadingProgress = p.ReadingProgress
				entry.DownloadedAt = p.DownloadedAt
			}
			d.Books = append(d.Books, entry)
		}
	}

	d.Stats.TotalCourses = len(d.Courses)
	d.Stats.TotalBooks = len(d.Books)
	if d.Stats.TotalCourses > 0 {
		d.Stats.AverageProgress = float64(progressSum) / float64(d.Stats.TotalCourses)
	}
	return d, nil
}

// GET /user/dashboard
func GetDashboard(db *gorm.DB, cat *catalog.Catalog, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := auth.SessionFrom(c)
		d, err := buildDashboard(c.Request.Context(), db, cat, session.UserID)
		if err != nil {
			log.Error("❌ failed to build dashboard", zap.String("user_id", session.UserID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

type ProgressInput struct {
	CompletedLessons *int `json:"completedLessons"`
	ReadingProgress  *int `json:"readingProgress"`
	Downloaded       bool `json:"downloaded"`
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// PUT /user/progress/:productId
// Courses take completedLessons; books take readingProgress (percent) and
// an optional downloaded flag.
func UpdateProgress(db *gorm.DB, cat *catalog.Catalog, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := auth.SessionFrom(c)
		productID := c.Param("productId")
		ctx := c.Request.Context()

		var input ProgressInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		product, found := cat.Get(productID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}

		var purchase models.Purchase
		err := db.WithContext(ctx).Where("user_id = ? AND product_id = ?", session.UserID, product.ID).First(&purchase).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Product not purchased"})
			return
		}
		if err != nil {
			log.Error("❌ failed to check purchase", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update progress"})
			return
		}

		now := time.Now()
		var saved any
		switch product.Kind {
		case models.KindCourse:
			if input.CompletedLessons == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "completedLessons is required for courses"})
				return
			}
			details, _ := product.CourseDetails()
			total := 0
			if details != nil {
				total = details.LessonsCount
			}
			row := models.CourseProgress{UserID: session.UserID, ProductID: product.ID}
			err = db.WithContext(ctx).Where(row).FirstOrInit(&row).Error
			if err == nil {
				row.CompletedLessons = clamp(*input.CompletedLessons, 0, total)
				row.Progress = models.ProgressPercent(row.CompletedLessons, total)
				row.LastAccessed = now
				err = db.WithContext(ctx).Save(&row).Error
			}
			saved = row
		case models.KindBook:
			if input.ReadingProgress == nil && !input.Downloaded {
				c.JSON(http.StatusBadRequest, gin.H{"error": "readingProgress or downloaded is required for books"})
				return
			}
			row := models.BookProgress{UserID: session.UserID, ProductID: product.ID}
			err = db.WithContext(ctx).Where(row).FirstOrInit(&row).Error
			if err == nil {
				if input.ReadingProgress != nil {
					row.ReadingProgress = clamp(*input.ReadingProgress, 0, 100)
				}
				if input.Downloaded && row.DownloadedAt == nil {
					row.DownloadedAt = &now
				}
				err = db.WithContext(ctx).Save(&row).Error
			}
			saved = row
		}
		if err != nil {
			log.Error("❌ failed to save progress", zap.String("product_id", product.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update progress"})
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}
