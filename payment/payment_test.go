package payment

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const wait = 2 * time.Second

func next(t *testing.T, ch <-chan Attempt) Attempt {
	t.Helper()
	select {
	case a, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return a
	case <-time.After(wait):
		t.Fatal("timed out waiting for payment update")
		return Attempt{}
	}
}

// manual never settles on its own; tests call Tracker.Callback as a
// gateway webhook would.
type manual struct {
	initiated []string
	fail      error
}

func (m *manual) Name() string           { return "manual" }
func (m *manual) Validate(Request) error { return nil }
func (m *manual) Initiate(_ context.Context, id string, _ Request, _ Callback) error {
	m.initiated = append(m.initiated, id)
	return m.fail
}

func TestTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusIdle, StatusPending},
		{StatusPending, StatusSuccess},
		{StatusPending, StatusFailed},
		{StatusFailed, StatusIdle},
	}
	for _, tr := range allowed {
		assert.NoError(t, Transition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]Status{
		{StatusIdle, StatusSuccess},
		{StatusIdle, StatusFailed},
		{StatusPending, StatusIdle},
		{StatusSuccess, StatusIdle},
		{StatusSuccess, StatusPending},
		{StatusFailed, StatusPending},
		{StatusFailed, StatusSuccess},
	}
	for _, tr := range denied {
		assert.ErrorIs(t, Transition(tr[0], tr[1]), ErrInvalidTransition, "%s -> %s", tr[0], tr[1])
	}
	assert.True(t, StatusFailed.Settled())
	assert.False(t, StatusPending.Settled())
}

func TestMobileMoney_Validate(t *testing.T) {
	mm := NewMobileMoney()
	assert.Equal(t, MethodMobileMoney, mm.Name())
	assert.ErrorIs(t, mm.Validate(Request{Amount: 10, Phone: "0712"}), ErrPhoneRequired)
	assert.ErrorIs(t, mm.Validate(Request{Amount: 10}), ErrPhoneRequired)
	assert.NoError(t, mm.Validate(Request{Amount: 10, Phone: "0712345678"}))
	assert.Error(t, mm.Validate(Request{Amount: 0, Phone: "0712345678"}))

	w := NewWallet()
	assert.Equal(t, MethodWallet, w.Name())
	assert.NoError(t, w.Validate(Request{Amount: 10}))
}

func TestSimulator_DrawRate(t *testing.T) {
	s := NewMobileMoney(WithRand(rand.New(rand.NewSource(42))))
	wins := 0
	for i := 0; i < 2000; i++ {
		if s.draw() {
			wins++
		}
	}
	rate := float64(wins) / 2000
	assert.InDelta(t, 0.7, rate, 0.05)
}

func TestTracker_Success(t *testing.T) {
	tr := NewTracker(zap.NewNop(), NewWallet(WithDelay(time.Millisecond), WithSuccessRate(1)))
	defer tr.Close()

	settled := make(chan Attempt, 1)
	tr.OnSettled(func(a Attempt) { settled <- a })
	updates, cancel := tr.Subscribe()
	defer cancel()

	a, err := tr.Start(context.Background(), MethodWallet, Request{OrderID: "LH-1", Amount: 42})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, 1, a.Tries)

	assert.Equal(t, StatusPending, next(t, updates).Status)
	done := next(t, updates)
	assert.Equal(t, StatusSuccess, done.Status)
	assert.Equal(t, "PAYPAL-"+a.ID[:8], done.Reference)

	hooked := <-settled
	assert.Equal(t, "LH-1", hooked.Request.OrderID)

	got, err := tr.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)

	_, err = tr.Retry(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTracker_FailureThenRetry(t *testing.T) {
	tr := NewTracker(zap.NewNop(), NewMobileMoney(WithDelay(time.Millisecond), WithSuccessRate(0)))
	defer tr.Close()

	updates, cancel := tr.Subscribe()
	defer cancel()

	a, err := tr.Start(context.Background(), MethodMobileMoney, Request{Amount: 10, Phone: "0712345678"})
	require.NoError(t, err)
	next(t, updates) // pending
	failed := next(t, updates)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.NotEmpty(t, failed.Reason)

	again, err := tr.Retry(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
	assert.Equal(t, 2, again.Tries)
	assert.Empty(t, again.Reason)

	assert.Equal(t, StatusIdle, next(t, updates).Status)
	assert.Equal(t, StatusPending, next(t, updates).Status)
	assert.Equal(t, StatusFailed, next(t, updates).Status)
}

func TestTracker_WebhookCallback(t *testing.T) {
	m := &manual{}
	tr := NewTracker(zap.NewNop(), m)
	defer tr.Close()

	a, err := tr.Start(context.Background(), "manual", Request{Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, m.initiated)

	// Pending attempts cannot be retried.
	_, err = tr.Retry(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := tr.Callback(Outcome{AttemptID: a.ID, Success: true, Reference: "GW-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "GW-1", got.Reference)

	_, err = tr.Callback(Outcome{AttemptID: a.ID, Success: false})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = tr.Callback(Outcome{AttemptID: "missing"})
	assert.ErrorIs(t, err, ErrUnknownAttempt)
	_, err = tr.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownAttempt)
	_, err = tr.Retry(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownAttempt)
}

func TestTracker_InitiateErrorFailsAttempt(t *testing.T) {
	m := &manual{fail: assert.AnError}
	tr := NewTracker(zap.NewNop(), m)
	defer tr.Close()

	a, err := tr.Start(context.Background(), "manual", Request{Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, a.Status)
	assert.Equal(t, assert.AnError.Error(), a.Reason)
}

func TestTracker_RejectsBadRequests(t *testing.T) {
	tr := NewTracker(zap.NewNop(), NewMobileMoney(), NewWallet())
	defer tr.Close()

	assert.Equal(t, []string{MethodMobileMoney, MethodWallet}, tr.Methods())

	_, err := tr.Start(context.Background(), "bitcoin", Request{Amount: 5})
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = tr.Start(context.Background(), MethodMobileMoney, Request{Amount: 5})
	assert.ErrorIs(t, err, ErrPhoneRequired)
}

func TestTracker_CloseStopsTimers(t *testing.T) {
	sim := NewWallet(WithDelay(time.Hour))
	tr := NewTracker(zap.NewNop(), sim)
	updates, _ := tr.Subscribe()

	_, err := tr.Start(context.Background(), MethodWallet, Request{Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, sim.Pending())
	next(t, updates) // pending

	tr.Close()
	assert.Equal(t, 0, sim.Pending())
	_, ok := <-updates
	assert.False(t, ok)

	_, err = tr.Start(context.Background(), MethodWallet, Request{Amount: 5})
	assert.ErrorIs(t, err, ErrClosed)
	tr.Close()
}

func TestTracker_OneAttemptPerOrder(t *testing.T) {
	m := &manual{}
	tr := NewTracker(zap.NewNop(), m)
	defer tr.Close()
	ctx := context.Background()

	first, err := tr.Start(ctx, "manual", Request{OrderID: "LH-1", Amount: 5})
	require.NoError(t, err)
	_, err = tr.Start(ctx, "manual", Request{OrderID: "LH-1", Amount: 5})
	assert.ErrorIs(t, err, ErrInFlight)

	// Other orders are unaffected.
	_, err = tr.Start(ctx, "manual", Request{OrderID: "LH-2", Amount: 5})
	require.NoError(t, err)

	// A failed attempt frees the order, and a new attempt then blocks its retry.
	_, err = tr.Callback(Outcome{AttemptID: first.ID})
	require.NoError(t, err)
	second, err := tr.Start(ctx, "manual", Request{OrderID: "LH-1", Amount: 5})
	require.NoError(t, err)
	_, err = tr.Retry(ctx, first.ID)
	assert.ErrorIs(t, err, ErrInFlight)

	_, err = tr.Callback(Outcome{AttemptID: second.ID})
	require.NoError(t, err)
	again, err := tr.Retry(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
	assert.Len(t, m.initiated, 4)
}

func TestTracker_EvictsSettledAttempts(t *testing.T) {
	m := &manual{}
	tr := NewTracker(zap.NewNop(), m)
	defer tr.Close()
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	tr.SetRetention(time.Minute)

	done, err := tr.Start(ctx, "manual", Request{OrderID: "LH-1", Amount: 5})
	require.NoError(t, err)
	_, err = tr.Callback(Outcome{AttemptID: done.ID, Success: true})
	require.NoError(t, err)
	open, err := tr.Start(ctx, "manual", Request{OrderID: "LH-2", Amount: 5})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = tr.Start(ctx, "manual", Request{OrderID: "LH-3", Amount: 5})
	require.NoError(t, err)

	_, err = tr.Get(done.ID)
	assert.ErrorIs(t, err, ErrUnknownAttempt)
	// Pending attempts are never evicted.
	got, err := tr.Get(open.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}
