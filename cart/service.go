package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vin-devs/learnsite/storage"
)

var ErrUnknownDevice = errors.New("cart: device id required")

const persistTimeout = 5 * time.Second

type entry struct {
	mu   sync.Mutex
	cart *Cart
}

// Service owns one Cart per device, rehydrated from device-local storage on
// first use and written back after every mutation.
type Service struct {
	store storage.Local
	log   *zap.Logger

	mu    sync.Mutex
	carts map[string]*entry
}

func NewService(store storage.Local, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
		carts: make(map[string]*entry),
	}
}

func (s *Service) entry(deviceID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[deviceID]
	if !ok {
		e = &entry{}
		s.carts[deviceID] = e
	}
	return e
}

// load must be called with e.mu held.
func (s *Service) load(ctx context.Context, deviceID string, e *entry) error {
	if e.cart != nil {
		return nil
	}

	var items []LineItem
	raw, err := s.store.Get(ctx, deviceID, storage.KeyCart)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(raw, &items); err != nil {
			s.log.Warn("⚠️ discarding unreadable cart", zap.String("device_id", deviceID), zap.Error(err))
			items = nil
			if err := s.store.Delete(ctx, deviceID, storage.KeyCart); err != nil {
				s.log.Warn("❌ failed to delete unreadable cart", zap.String("device_id", deviceID), zap.Error(err))
			}
		}
	}

	e.cart = New(items, s.persister(deviceID))
	return nil
}

// persister writes the item list back to storage. Failures are logged only;
// the in-memory cart stays authoritative.
func (s *Service) persister(deviceID string) func([]LineItem) {
	return func(items []LineItem) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		raw, err := json.Marshal(items)
		if err == nil {
			err = s.store.Set(ctx, deviceID, storage.KeyCart, raw)
		}
		if err != nil {
			s.log.Error("❌ failed to persist cart", zap.String("device_id", deviceID), zap.Error(err))
		}
	}
}

// Do runs fn with exclusive access to the device's cart.
func (s *Service) Do(ctx context.Context, deviceID string, fn func(*Cart) error) error {
	if deviceID == "" {
		return ErrUnknownDevice
	}
	e := s.entry(deviceID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.load(ctx, deviceID, e); err != nil {
		return err
	}
	return fn(e.cart)
}

// Snapshot reads the device's cart.
func (s *Service) Snapshot(ctx context.Context, deviceID string) (Snapshot, error) {
	var snap Snapshot
	err := s.Do(ctx, deviceID, func(c *Cart) error {
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// Merge moves every line item of from into to, summing quantities, and
// empties from.
func (s *Service) Merge(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return ErrUnknownDevice
	}
	if from == to {
		return nil
	}

	// Lock in a fixed order so concurrent opposite merges cannot deadlock.
	first, second := from, to
	if second < first {
		first, second = second, first
	}
	e1, e2 := s.entry(first), s.entry(second)
	e1.mu.Lock()
	defer e1.mu.Unlock()
	e2.mu.Lock()
	defer e2.mu.Unlock()

	src, dst := e1, e2
	if first != from {
		src, dst = e2, e1
	}
	if err := s.load(ctx, from, src); err != nil {
		return err
	}
	if err := s.load(ctx, to, dst); err != nil {
		return err
	}
	if src.cart.IsEmpty() {
		return nil
	}

	merged := append(dst.cart.Items(), src.cart.Items()...)
	dst.cart.items = New(merged, nil).items
	dst.cart.save()
	src.cart.Clear()

	s.log.Info("✅ cart merged", zap.String("from", from), zap.String("to", to),
		zap.Int("items", dst.cart.TotalItems()))
	return nil
}
