package models

import "time"

// CourseProgress is the persisted learning progress for a purchased course.
type CourseProgress struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	UserID           string    `gorm:"uniqueIndex:idx_course_progress;not null" json:"-"`
	ProductID        string    `gorm:"uniqueIndex:idx_course_progress;not null" json:"productId"`
	CompletedLessons int       `json:"completedLessons"`
	Progress         int       `json:"progress"` // percent, 0-100
	LastAccessed     time.Time `json:"lastAccessed"`
}

// BookProgress is the persisted reading progress for a purchased book.
type BookProgress struct {
	ID              uint       `gorm:"primaryKey" json:"-"`
	UserID          string     `gorm:"uniqueIndex:idx_book_progress;not null" json:"-"`
	ProductID       string     `gorm:"uniqueIndex:idx_book_progress;not null" json:"productId"`
	ReadingProgress int        `json:"readingProgress"`
	DownloadedAt    *time.Time `json:"downloadedAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ProgressPercent converts completed lessons to a 0-100 percentage.
func ProgressPercent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return completed * 100 / total
}
