package checkout

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vin-devs/learnsite/cart"
	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/messaging"
	"github.com/vin-devs/learnsite/models"
	"github.com/vin-devs/learnsite/payment"
	"github.com/vin-devs/learnsite/pricing"
)

var (
	ErrEmptyCart      = errors.New("checkout: cart is empty")
	ErrUnknownProduct = errors.New("checkout: product no longer available")
	ErrOrderNotFound  = errors.New("checkout: order not found")
	ErrInvalidStatus  = errors.New("checkout: invalid order status")
)

// Service places and settles orders.
type Service struct {
	db        *gorm.DB
	carts     *cart.Service
	catalog   *catalog.Catalog
	publisher messaging.Publisher
	log       *zap.Logger
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(db *gorm.DB, carts *cart.Service, cat *catalog.Catalog, publisher messaging.Publisher, log *zap.Logger) *Service {
	return &Service{
		db:        db,
		carts:     carts,
		catalog:   cat,
		publisher: publisher,
		log:       log,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) newOrderID() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return NewOrderID(s.now(), s.rng)
}

// Quote prices the device's cart with an optional promo code.
func (s *Service) Quote(ctx context.Context, deviceID, promo string) (cart.Snapshot, pricing.Summary, error) {
	snap, err := s.carts.Snapshot(ctx, deviceID)
	if err != nil {
		return cart.Snapshot{}, pricing.Summary{}, err
	}
	return snap, pricing.Compute(snap.TotalPrice, promo), nil
}

// orderItems prices cart lines from the catalog rather than trusting the
// stored line price.
func (s *Service) orderItems(lines []cart.LineItem) ([]models.OrderItem, float64, error) {
	items := make([]models.OrderItem, 0, len(lines))
	subtotal := 0.0
	for _, line := range lines {
		p, ok := s.catalog.Get(line.ProductID)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrUnknownProduct, line.ProductID)
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Title:     p.Title,
			Kind:      p.Kind,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
		subtotal += p.Price * float64(line.Quantity)
	}
	return items, subtotal, nil
}

// PlaceOrder turns the device's cart into a pending order and clears the
// cart. userID may be empty for guest checkout. form must already be valid.
func (s *Service) PlaceOrder(ctx context.Context, deviceID, userID string, form Form) (*models.Order, error) {
	var order *models.Order
	err := s.carts.Do(ctx, deviceID, func(c *cart.Cart) error {
		if c.IsEmpty() {
			return ErrEmptyCart
		}
		items, subtotal, err := s.orderItems(c.Items())
		if err != nil {
			return err
		}

		summary := pricing.Compute(subtotal, form.PromoCode)
		sub, tax, discount, total := summary.Amounts()
		order = &models.Order{
			ID:            s.newOrderID(),
			Email:         form.Email,
			FirstName:     form.FirstName,
			LastName:      form.LastName,
			Country:       form.Country,
			Address:       form.Address,
			City:          form.City,
			PostalCode:    form.PostalCode,
			Items:         items,
			Subtotal:      sub,
			Tax:           tax,
			Discount:      discount,
			Total:         total,
			PaymentMethod: form.PaymentMethod,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPending,
			CreatedAt:     s.now(),
		}
		if summary.PromoApplied {
			order.PromoCode = pricing.PromoCode
		}
		if userID != "" {
			order.UserID = &userID
		}

		if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		c.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("✅ order placed", zap.String("order_id", order.ID), zap.Float64("total", order.Total),
		zap.Int("items", len(order.Items)))

	event := messaging.OrderPlaced{
		OrderID:       order.ID,
		Email:         order.Email,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		PlacedAt:      order.CreatedAt,
	}
	if order.UserID != nil {
		event.UserID = *order.UserID
	}
	for _, it := range order.Items {
		event.ProductIDs = append(event.ProductIDs, it.ProductID)
	}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicOrderPlaced, order.ID, event); err != nil {
		s.log.Error("❌ failed to publish order event", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

// Order loads an order with its items.
func (s *Service) Order(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return &order, nil
}

// UserOrders lists a user's orders, newest first.
func (s *Service) UserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for %s: %w", userID, err)
	}
	return orders, nil
}

// AllOrders lists every order, newest first.
func (s *Service) AllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

// Settle applies a payment outcome to its order. A successful payment
// completes the order and grants the purchased products. Only an order that
// is still pending and unpaid accepts an outcome, so late or repeated
// outcomes leave completed, refunded and cancelled orders untouched.
func (s *Service) Settle(ctx context.Context, a payment.Attempt) error {
	if !a.Status.Settled() {
		return nil
	}

	order, err := s.Order(ctx, a.Request.OrderID)
	if err != nil {
		return err
	}

	applied := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"payment_method": a.Method}
		if a.Status == payment.StatusSuccess {
			updates["status"] = models.OrderStatusCompleted
			updates["payment_status"] = models.PaymentStatusPaid
			updates["payment_ref"] = a.Reference
		} else {
			updates["payment_status"] = models.PaymentStatusFailed
		}
		// The state check and the write are one statement.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND payment_status <> ?", order.ID, models.OrderStatusPending, models.PaymentStatusPaid).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if a.Status != payment.StatusSuccess || order.UserID == nil {
			return nil
		}
		for _, it := range order.Items {
			p := models.Purchase{UserID: *order.UserID, ProductID: it.ProductID, OrderID: order.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to settle order %s: %w", order.ID, err)
	}
	if !applied {
		s.log.Warn("⚠️ payment outcome for closed order ignored",
			zap.String("order_id", order.ID),
			zap.String("attempt_id", a.ID),
			zap.String("status", string(a.Status)),
		)
		return nil
	}

	event := messaging.PaymentStatusChanged{
		AttemptID: a.ID,
		OrderID:   order.ID,
		Method:    a.Method,
		Status:    string(a.Status),
		Reference: a.Reference,
		At:        a.UpdatedAt,
	}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicPaymentStatus, order.ID, event); err != nil {
		s.log.Error("❌ failed to publish payment event", zap.String("order_id", order.ID), zap.Error(err))
	}
	return nil
}

// ParseOrderStatus maps admin input onto an order status.
func ParseOrderStatus(s string) (models.OrderStatus, error) {
	switch models.OrderStatus(s) {
	case models.OrderStatusPending, models.OrderStatusCompleted, models.OrderStatusCancelled, models.OrderStatusRefunded:
		return models.OrderStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// UpdateStatus sets an order's status. Refunding also refunds the payment
// and revokes the purchases the order granted.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if _, err := ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": status}
		if status == models.OrderStatusRefunded {
			updates["payment_status"] = models.PaymentStatusRefunded
		}
		res := tx.Model(&models.Order{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		if status == models.OrderStatusRefunded {
			return tx.Where("order_id = ?", id).Delete(&models.Purchase{}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Order(ctx, id)
}

// CannedOrder is the demo order returned for unknown ids in demo mode.
func CannedOrder(id string, now time.Time) models.Order {
	return models.Order{
		ID:    id,
		Email: "user@example.com",
		Total: 149.98,
		Items: []models.OrderItem{
			{ProductID: "course-1", Title: "Complete React Development Bootcamp", Kind: models.KindCourse, Price: 89.99, Quantity: 1},
			{ProductID: "book-1", Title: "Modern JavaScript Handbook", Kind: models.KindBook, Price: 29.99, Quantity: 1},
		},
		Status:        models.OrderStatusCompleted,
		PaymentStatus: models.PaymentStatusPaid,
		CreatedAt:     now,
	}
}

// DeleteOrder removes an order and its lines. Purchases it granted stay.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}
