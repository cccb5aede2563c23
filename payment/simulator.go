package payment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Method names accepted at checkout.
const (
	MethodMobileMoney = "mpesa"
	MethodWallet      = "paypal"
)

// Simulator is a Provider that settles each attempt after a fixed delay with
// a weighted random outcome.
type Simulator struct {
	name        string
	delay       time.Duration
	successRate float64
	validate    func(Request) error

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

type Option func(*Simulator)

// WithDelay overrides the settle delay.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) { s.delay = d }
}

// WithRand sets the random source used to draw outcomes.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

func WithSuccessRate(p float64) Option {
	return func(s *Simulator) { s.successRate = p }
}

func newSimulator(name string, delay time.Duration, rate float64, validate func(Request) error, opts []Option) *Simulator {
	s := &Simulator{
		name:        name,
		delay:       delay,
		successRate: rate,
		validate:    validate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		timers:      make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMobileMoney simulates an STK push: a phone number is required, the
// customer "approves" after two seconds and 70% of pushes succeed.
func NewMobileMoney(opts ...Option) *Simulator {
	return newSimulator(MethodMobileMoney, 2*time.Second, 0.7, func(r Request) error {
		if len(strings.TrimSpace(r.Phone)) < 10 {
			return ErrPhoneRequired
		}
		return nil
	}, opts)
}

// NewWallet simulates a redirect wallet: three seconds, 80% success.
func NewWallet(opts ...Option) *Simulator {
	return newSimulator(MethodWallet, 3*time.Second, 0.8, nil, opts)
}

func (s *Simulator) Name() string { return s.name }

func (s *Simulator) Validate(req Request) error {
	if req.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if s.validate != nil {
		return s.validate(req)
	}
	return nil
}

func (s *Simulator) draw() bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < s.successRate
}

func (s *Simulator) Initiate(_ context.Context, attemptID string, req Request, notify Callback) error {
	if err := s.Validate(req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrClosed
	}
	s.timers[attemptID] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		_, live := s.timers[attemptID]
		delete(s.timers, attemptID)
		s.mu.Unlock()
		if !live {
			return
		}

		out := Outcome{AttemptID: attemptID, Success: s.draw()}
		if out.Success {
			ref := attemptID
			if len(ref) > 8 {
				ref = ref[:8]
			}
			out.Reference = strings.ToUpper(s.name) + "-" + ref
		} else {
			out.Reason = "Payment was declined. Please try again."
		}
		notify(out)
	})
	return nil
}

// Stop cancels every unsettled attempt. Outcomes already being delivered
// are not interrupted.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending is the number of attempts waiting on their timer.
func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
