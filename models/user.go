package models

import "time"

type User struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `json:"name"`
	Avatar       string     `json:"avatar,omitempty"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Purchases    []Purchase `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Purchase grants a user access to one product.
type Purchase struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_purchase_user_product;not null" json:"-"`
	ProductID string    `gorm:"uniqueIndex:idx_purchase_user_product;not null" json:"productId"`
	OrderID   string    `json:"orderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the public user object handed to clients and kept in
// device-local storage. It never carries the password hash.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Purchases []string  `json:"purchases"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile expects Purchases to be preloaded.
func (u *User) Profile() Profile {
	purchases := make([]string, 0, len(u.Purchases))
	for _, p := range u.Purchases {
		purchases = append(purchases, p.ProductID)
	}
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		Purchases: purchases,
		CreatedAt: u.CreatedAt,
	}
}

// Owns reports whether the user purchased the product.
func (u *User) Owns(productID string) bool {
	for _, p := range u.Purchases {
		if p.ProductID == productID {
			return true
		}
	}
	return false
}
