package payment

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Attempt is one payment attempt and its current status.
type Attempt struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Request   Request   `json:"request"`
	Status    Status    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Tries     int       `json:"tries"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const subscriberBuffer = 16

// DefaultRetention is how long a settled attempt stays readable.
const DefaultRetention = time.Hour

// Tracker owns the in-memory attempts and routes provider outcomes to them.
type Tracker struct {
	log       *zap.Logger
	providers map[string]Provider
	now       func() time.Time
	retention time.Duration

	mu       sync.Mutex
	attempts map[string]*Attempt
	inFlight map[string]string // order id -> idle or pending attempt id
	subs     map[chan Attempt]struct{}
	settled  []func(Attempt)
	closed   bool
}

func NewTracker(log *zap.Logger, providers ...Provider) *Tracker {
	t := &Tracker{
		log:       log,
		providers: make(map[string]Provider, len(providers)),
		now:       time.Now,
		retention: DefaultRetention,
		attempts:  make(map[string]*Attempt),
		inFlight:  make(map[string]string),
		subs:      make(map[chan Attempt]struct{}),
	}
	for _, p := range providers {
		t.providers[p.Name()] = p
	}
	return t
}

// SetRetention changes how long settled attempts are kept before eviction.
func (t *Tracker) SetRetention(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retention = d
}

// evict drops settled attempts older than the retention window. Callers
// hold t.mu.
func (t *Tracker) evict(now time.Time) {
	cutoff := now.Add(-t.retention)
	for id, a := range t.attempts {
		if a.Status.Settled() && a.UpdatedAt.Before(cutoff) {
			delete(t.attempts, id)
		}
	}
}

// claim marks id as the order's in-flight attempt. Callers hold t.mu.
func (t *Tracker) claim(orderID, id string) error {
	if orderID == "" {
		return nil
	}
	if other, busy := t.inFlight[orderID]; busy && other != id {
		return fmt.Errorf("%w: %s", ErrInFlight, orderID)
	}
	t.inFlight[orderID] = id
	return nil
}

// release clears the order's in-flight attempt once it settles. Callers
// hold t.mu.
func (t *Tracker) release(a *Attempt) {
	if t.inFlight[a.Request.OrderID] == a.ID {
		delete(t.inFlight, a.Request.OrderID)
	}
}

// Methods lists registered provider names, sorted.
func (t *Tracker) Methods() []string {
	out := make([]string, 0, len(t.providers))
	for name := range t.providers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// OnSettled registers fn to run after an attempt succeeds or fails. Hooks
// run outside the tracker lock, in registration order.
func (t *Tracker) OnSettled(fn func(Attempt)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settled = append(t.settled, fn)
}

// Start validates req against the method's provider and initiates a new
// attempt, which moves from idle to pending.
func (t *Tracker) Start(ctx context.Context, method string, req Request) (Attempt, error) {
	p, ok := t.providers[method]
	if !ok {
		return Attempt{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err := p.Validate(req); err != nil {
		return Attempt{}, err
	}

	now := t.now()
	a := &Attempt{
		ID:        uuid.NewString(),
		Method:    method,
		Request:   req,
		Status:    StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Attempt{}, ErrClosed
	}
	t.evict(now)
	if err := t.claim(req.OrderID, a.ID); err != nil {
		t.mu.Unlock()
		return Attempt{}, err
	}
	t.attempts[a.ID] = a
	t.mu.Unlock()

	return t.initiate(ctx, a.ID)
}

// initiate moves an idle attempt to pending and hands it to its provider.
func (t *Tracker) initiate(ctx context.Context, id string) (Attempt, error) {
	t.mu.Lock()
	a, ok := t.attempts[id]
	if !ok {
		t.mu.Unlock()
		return Attempt{}, ErrUnknownAttempt
	}
	if err := Transition(a.Status, StatusPending); err != nil {
		t.mu.Unlock()
		return Attempt{}, err
	}
	a.Status = StatusPending
	a.Reason = ""
	a.Tries++
	a.UpdatedAt = t.now()
	snap := *a
	t.mu.Unlock()
	t.publish(snap)

	p := t.providers[snap.Method]
	if err := p.Initiate(ctx, snap.ID, snap.Request, t.deliver); err != nil {
		t.log.Warn("❌ payment initiation failed", zap.String("attempt_id", id), zap.String("method", snap.Method), zap.Error(err))
		failed, cbErr := t.Callback(Outcome{AttemptID: id, Reason: err.Error()})
		if cbErr != nil {
			return Attempt{}, cbErr
		}
		return failed, nil
	}

	t.log.Info("🚀 payment initiated", zap.String("attempt_id", id), zap.String("method", snap.Method),
		zap.String("order_id", snap.Request.OrderID), zap.Int("try", snap.Tries))
	return snap, nil
}

func (t *Tracker) deliver(out Outcome) {
	if _, err := t.Callback(out); err != nil {
		t.log.Warn("⚠️ dropped payment outcome", zap.String("attempt_id", out.AttemptID), zap.Error(err))
	}
}

// Get returns a copy of the attempt.
func (t *Tracker) Get(id string) (Attempt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.attempts[id]
	if !ok {
		return Attempt{}, ErrUnknownAttempt
	}
	return *a, nil
}

// Callback records a provider outcome. Only pending attempts accept one.
func (t *Tracker) Callback(out Outcome) (Attempt, error) {
	next := StatusFailed
	if out.Success {
		next = StatusSuccess
	}

	t.mu.Lock()
	a, ok := t.attempts[out.AttemptID]
	if !ok {
		t.mu.Unlock()
		return Attempt{}, ErrUnknownAttempt
	}
	if err := Transition(a.Status, next); err != nil {
		t.mu.Unlock()
		return Attempt{}, err
	}
	a.Status = next
	a.Reference = out.Reference
	a.Reason = out.Reason
	a.UpdatedAt = t.now()
	t.release(a)
	snap := *a
	hooks := slices.Clone(t.settled)
	t.mu.Unlock()

	t.log.Info("✅ payment settled", zap.String("attempt_id", snap.ID), zap.String("status", string(snap.Status)),
		zap.String("order_id", snap.Request.OrderID))
	t.publish(snap)
	for _, fn := range hooks {
		fn(snap)
	}
	return snap, nil
}

// Retry sends a failed attempt back through idle and initiates it again.
func (t *Tracker) Retry(ctx context.Context, id string) (Attempt, error) {
	t.mu.Lock()
	a, ok := t.attempts[id]
	if !ok {
		t.mu.Unlock()
		return Attempt{}, ErrUnknownAttempt
	}
	if err := Transition(a.Status, StatusIdle); err != nil {
		t.mu.Unlock()
		return Attempt{}, err
	}
	if err := t.claim(a.Request.OrderID, a.ID); err != nil {
		t.mu.Unlock()
		return Attempt{}, err
	}
	a.Status = StatusIdle
	a.UpdatedAt = t.now()
	snap := *a
	t.mu.Unlock()
	t.publish(snap)

	return t.initiate(ctx, id)
}

// Subscribe streams every status change. Slow subscribers miss updates
// rather than block the tracker. Call cancel to unsubscribe.
func (t *Tracker) Subscribe() (<-chan Attempt, func()) {
	ch := make(chan Attempt, subscriberBuffer)
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if _, ok := t.subs[ch]; ok {
				delete(t.subs, ch)
				close(ch)
			}
		})
	}
}

func (t *Tracker) publish(a Attempt) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subs {
		select {
		case ch <- a:
		default:
			t.log.Warn("⚠️ payment subscriber lagging", zap.String("attempt_id", a.ID))
		}
	}
}

// Close stops provider timers and closes all subscriptions.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for ch := range t.subs {
		close(ch)
		delete(t.subs, ch)
	}
	t.mu.Unlock()

	for _, p := range t.providers {
		if s, ok := p.(Stopper); ok {
			s.Stop()
		}
	}
}
