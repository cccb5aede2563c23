package models

import "time"

// Device is an anonymous browser session. It owns device-local storage
// (cart, signed-in user) until it expires.
type Device struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&CourseDetails{},
		&BookDetails{},
		&Category{},
		&User{},
		&Purchase{},
		&CourseProgress{},
		&BookProgress{},
		&Order{},
		&OrderItem{},
		&Device{},
	}
}
