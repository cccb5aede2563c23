package checkout

import (
	"context"
	"encoding/json"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/cart"
	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/catalog/seed"
	"github.com/vin-devs/learnsite/messaging"
	"github.com/vin-devs/learnsite/models"
	"github.com/vin-devs/learnsite/payment"
	"github.com/vin-devs/learnsite/pricing"
	"github.com/vin-devs/learnsite/storage"
	"github.com/vin-devs/learnsite/testutil"
)

func validForm() Form {
	return Form{
		Email:         "jane@example.com",
		FirstName:     "Jane",
		LastName:      "Doe",
		Country:       "Kenya",
		Address:       "12 Moi Avenue",
		City:          "Nairobi",
		PostalCode:    "00100",
		PaymentMethod: "mpesa",
		AgreeToTerms:  true,
	}
}

func TestForm_Validate(t *testing.T) {
	f := validForm()
	assert.Nil(t, f.Validate())

	padded := validForm()
	padded.Email = "  jane@example.com "
	assert.Nil(t, padded.Validate())
	assert.Equal(t, "jane@example.com", padded.Email)

	var empty Form
	errs := empty.Validate()
	assert.Equal(t, fieldMessages, errs)

	bad := validForm()
	bad.PaymentMethod = "bitcoin"
	bad.PostalCode = "12"
	bad.AgreeToTerms = false
	assert.Equal(t, map[string]string{
		"paymentMethod": "Please select a payment method",
		"postalCode":    "Please enter a valid postal code",
		"agreeToTerms":  "You must agree to the terms and conditions",
	}, bad.Validate())

	assert.Equal(t, "Jane Doe", f.CustomerName())
}

func TestNewOrderID(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	id := NewOrderID(now, rand.New(rand.NewSource(1)))
	assert.Regexp(t, regexp.MustCompile(`^LH-1718000000123-[0-9a-z]{9}$`), id)

	other := NewOrderID(now, rand.New(rand.NewSource(2)))
	assert.NotEqual(t, id, other)
}

type fixture struct {
	svc    *Service
	carts  *cart.Service
	store  storage.Local
	events *messaging.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ds, err := seed.Load()
	require.NoError(t, err)

	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&models.User{ID: "u1", Email: "jane@example.com", PasswordHash: "x"}).Error)

	store := storage.NewMemory()
	carts := cart.NewService(store, zap.NewNop())
	events := &messaging.Recorder{}
	svc := NewService(db, carts, catalog.NewStatic(ds.Products(), ds.Categories), events, zap.NewNop())
	return &fixture{svc: svc, carts: carts, store: store, events: events}
}

func (f *fixture) fill(t *testing.T, device string, items ...cart.NewItem) {
	t.Helper()
	require.NoError(t, f.carts.Do(context.Background(), device, func(c *cart.Cart) error {
		for _, it := range items {
			c.AddItem(it)
		}
		return nil
	}))
}

var (
	react    = cart.NewItem{ProductID: "course-1", Kind: models.KindCourse, Title: "React", Price: 89.99}
	handbook = cart.NewItem{ProductID: "book-1", Kind: models.KindBook, Title: "Handbook", Price: 29.99}
)

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fill(t, "dev-1", react, handbook, handbook)

	form := validForm()
	form.PromoCode = "save10"
	order, err := f.svc.PlaceOrder(ctx, "dev-1", "u1", form)
	require.NoError(t, err)

	assert.Regexp(t, `^LH-\d+-[0-9a-z]{9}$`, order.ID)
	assert.InDelta(t, 149.97, order.Subtotal, 1e-9)
	assert.InDelta(t, 11.9976, order.Tax, 1e-9)
	assert.InDelta(t, 14.997, order.Discount, 1e-9)
	assert.InDelta(t, 146.9676, order.Total, 1e-9)
	assert.Equal(t, pricing.PromoCode, order.PromoCode)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.NotNil(t, order.UserID)
	assert.Equal(t, "u1", *order.UserID)

	stored, err := f.svc.Order(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Complete React Development Bootcamp", stored.Items[0].Title)
	assert.Equal(t, 2, stored.Items[1].Quantity)

	snap, err := f.carts.Snapshot(ctx, "dev-1")
	require.NoError(t, err)
	assert.Zero(t, snap.TotalItems)
	raw, err := f.store.Get(ctx, "dev-1", storage.KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	events := f.events.Messages(messaging.TopicOrderPlaced)
	require.Len(t, events, 1)
	var placed messaging.OrderPlaced
	require.NoError(t, json.Unmarshal(events[0].Payload, &placed))
	assert.Equal(t, []string{"course-1", "book-1"}, placed.ProductIDs)
	assert.Equal(t, "u1", placed.UserID)
}

func TestPlaceOrder_GuestWithoutPromo(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "dev-1", handbook)

	order, err := f.svc.PlaceOrder(context.Background(), "dev-1", "", validForm())
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.Empty(t, order.PromoCode)
	assert.Zero(t, order.Discount)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), "dev-1", "", validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.events.Messages(""))
}

func TestPlaceOrder_UnknownProductKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "dev-1", react, cart.NewItem{ProductID: "course-404", Price: 1})

	_, err := f.svc.PlaceOrder(context.Background(), "dev-1", "", validForm())
	assert.ErrorIs(t, err, ErrUnknownProduct)

	snap, err := f.carts.Snapshot(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalItems)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "dev-1", handbook)
	snap, summary, err := f.svc.Quote(context.Background(), "dev-1", "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalItems)
	assert.True(t, summary.PromoApplied)
	assert.Equal(t, "29.99", summary.Display().Subtotal)
}

func placed(t *testing.T, f *fixture, userID string) *models.Order {
	t.Helper()
	f.fill(t, "dev-1", react, handbook)
	order, err := f.svc.PlaceOrder(context.Background(), "dev-1", userID, validForm())
	require.NoError(t, err)
	return order
}

func purchases(t *testing.T, f *fixture) []string {
	t.Helper()
	var rows []models.Purchase
	require.NoError(t, f.svc.db.Order("id").Find(&rows).Error)
	out := []string{}
	for _, r := range rows {
		out = append(out, r.ProductID)
	}
	return out
}

func TestSettle_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placed(t, f, "u1")

	a := payment.Attempt{ID: "att-1", Method: payment.MethodWallet, Status: payment.StatusSuccess,
		Reference: "PAYPAL-1", Request: payment.Request{OrderID: order.ID}}
	require.NoError(t, f.svc.Settle(ctx, a))
	// Settling twice does not duplicate purchases or events.
	require.NoError(t, f.svc.Settle(ctx, a))

	got, err := f.svc.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, "PAYPAL-1", got.PaymentRef)
	assert.Equal(t, payment.MethodWallet, got.PaymentMethod)

	assert.Equal(t, []string{"course-1", "book-1"}, purchases(t, f))
	assert.Len(t, f.events.Messages(messaging.TopicPaymentStatus), 1)
}

func TestSettle_LateFailureKeepsPaidOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placed(t, f, "u1")

	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{ID: "att-a", Method: payment.MethodWallet,
		Status: payment.StatusSuccess, Reference: "PAYPAL-A", Request: payment.Request{OrderID: order.ID}}))
	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{ID: "att-b", Method: payment.MethodMobileMoney,
		Status: payment.StatusFailed, Request: payment.Request{OrderID: order.ID}}))

	got, err := f.svc.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, payment.MethodWallet, got.PaymentMethod)
	assert.Equal(t, "PAYPAL-A", got.PaymentRef)
	assert.Equal(t, []string{"course-1", "book-1"}, purchases(t, f))
	assert.Len(t, f.events.Messages(messaging.TopicPaymentStatus), 1)
}

func TestSettle_LateSuccessAfterRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placed(t, f, "u1")

	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{ID: "att-a", Status: payment.StatusSuccess,
		Request: payment.Request{OrderID: order.ID}}))
	_, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusRefunded)
	require.NoError(t, err)

	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{ID: "att-c", Status: payment.StatusSuccess,
		Request: payment.Request{OrderID: order.ID}}))

	got, err := f.svc.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, got.Status)
	assert.Equal(t, models.PaymentStatusRefunded, got.PaymentStatus)
	assert.Empty(t, purchases(t, f))

	// Cancelled orders ignore outcomes too.
	other := placed(t, f, "u1")
	_, err = f.svc.UpdateStatus(ctx, other.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{ID: "att-d", Status: payment.StatusSuccess,
		Request: payment.Request{OrderID: other.ID}}))
	got, err = f.svc.Order(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Empty(t, purchases(t, f))
}

func TestSettle_Failure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placed(t, f, "u1")

	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{Status: payment.StatusFailed,
		Request: payment.Request{OrderID: order.ID}}))
	got, err := f.svc.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)
	assert.Empty(t, purchases(t, f))

	// Pending attempts are ignored.
	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{Status: payment.StatusPending,
		Request: payment.Request{OrderID: "nope"}}))
	assert.ErrorIs(t, f.svc.Settle(ctx, payment.Attempt{Status: payment.StatusFailed,
		Request: payment.Request{OrderID: "nope"}}), ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placed(t, f, "u1")
	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{Status: payment.StatusSuccess,
		Request: payment.Request{OrderID: order.ID}}))

	got, err := f.svc.UpdateStatus(ctx, order.ID, models.OrderStatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, got.Status)
	assert.Equal(t, models.PaymentStatusRefunded, got.PaymentStatus)
	assert.Empty(t, purchases(t, f))

	_, err = f.svc.UpdateStatus(ctx, "LH-missing", models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.svc.UpdateStatus(ctx, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	f.svc.now = func() time.Time { return base }
	first := placed(t, f, "u1")
	f.svc.now = func() time.Time { return base.Add(time.Hour) }
	second := placed(t, f, "u1")
	f.svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	placed(t, f, "")

	mine, err := f.svc.UserOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	all, err := f.svc.AllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.Order(ctx, "LH-missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCannedOrder(t *testing.T) {
	o := CannedOrder("LH-anything", time.Now())
	assert.Equal(t, "LH-anything", o.ID)
	assert.Equal(t, 149.98, o.Total)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "course-1", o.Items[0].ProductID)
	assert.Equal(t, models.OrderStatusCompleted, o.Status)
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placed(t, f, "u1")
	require.NoError(t, f.svc.Settle(ctx, payment.Attempt{Status: payment.StatusSuccess,
		Request: payment.Request{OrderID: order.ID}}))

	require.NoError(t, f.svc.DeleteOrder(ctx, order.ID))
	_, err := f.svc.Order(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Len(t, purchases(t, f), 2)

	assert.ErrorIs(t, f.svc.DeleteOrder(ctx, order.ID), ErrOrderNotFound)
}
