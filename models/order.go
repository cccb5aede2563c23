package models

import "time"

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // Placed, payment not settled
	OrderStatusCompleted OrderStatus = "completed" // Paid, content unlocked
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Order struct {
	ID            string        `gorm:"primaryKey" json:"orderId"`
	UserID        *string       `gorm:"index" json:"userId,omitempty"`
	Email         string        `gorm:"not null" json:"email"`
	FirstName     string        `json:"firstName,omitempty"`
	LastName      string        `json:"lastName,omitempty"`
	Country       string        `json:"country,omitempty"`
	Address       string        `json:"address,omitempty"`
	City          string        `json:"city,omitempty"`
	PostalCode    string        `json:"postalCode,omitempty"`
	Items         []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	PromoCode     string        `json:"promoCode,omitempty"`
	PaymentMethod string        `json:"paymentMethod"`
	PaymentRef    string        `json:"paymentRef,omitempty"`
	Status        OrderStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	OrderID   string  `gorm:"index" json:"-"`
	ProductID string  `json:"id"`
	Title     string  `json:"title"`
	Kind      Kind    `gorm:"type:varchar(10)" json:"kind"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}
