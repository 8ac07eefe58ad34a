package data

import (
	"context"
	"sync"
	"time"

	"github.com/Yukun-Git/stock-pal-sub000/internal/logger"
)

// Status is an adapter's health state as tracked by the Selector.
type Status string

const (
	StatusOnline  Status = "ONLINE"
	StatusError   Status = "ERROR"
	StatusOffline Status = "OFFLINE"
)

type adapterHealth struct {
	status       Status
	lastErrAt    time.Time
	successCount int64
	failCount    int64
	lastLatency  time.Duration
}

// Selector holds an ordered adapter list, each annotated with health status,
// and fails over from the primary to the next healthy adapter on error. It
// is the only component in the core with shared mutable state (spec.md §5):
// all reads/writes to health bookkeeping go through mu.
type Selector struct {
	mu       sync.RWMutex
	adapters []Provider
	health   map[string]*adapterHealth

	cooldown time.Duration

	// stickyAdapter pins the adapter used for the first successful fetch of
	// a run so subsequent fetches stay on the same adjust-convention source
	// unless it fails, per spec.md §4.4's determinism requirement.
	stickyMu      sync.Mutex
	stickyAdapter string
	switched      bool

	stopProbe chan struct{}
}

// NewSelector builds a Selector over adapters in priority order. cooldown is
// how long an ERROR-marked adapter stays excluded before the background
// probe resets it to ONLINE; 0 uses a 60s default per spec.md §5.
func NewSelector(adapters []Provider, cooldown time.Duration) *Selector {
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	health := make(map[string]*adapterHealth, len(adapters))
	for _, a := range adapters {
		health[a.Name()] = &adapterHealth{status: StatusOnline}
	}
	return &Selector{adapters: adapters, health: health, cooldown: cooldown}
}

// StartProbe launches the background health-probe loop on a time.Ticker; it
// resets ERROR adapters to ONLINE once the cooldown has elapsed, without
// ever blocking in-flight fetches. Call Stop to terminate the goroutine.
func (s *Selector) StartProbe(interval time.Duration) {
	if interval <= 0 {
		interval = s.cooldown
	}
	s.stopProbe = make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.probeOnce()
			case <-s.stopProbe:
				return
			}
		}
	}()
}

// Stop terminates the background probe goroutine, if running.
func (s *Selector) Stop() {
	if s.stopProbe != nil {
		close(s.stopProbe)
	}
}

func (s *Selector) probeOnce() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.health {
		if h.status == StatusError && now.Sub(h.lastErrAt) >= s.cooldown {
			h.status = StatusOnline
		}
	}
}

// AdapterUsed reports which adapter serviced the run's first successful
// fetch, and whether the selector switched away from it mid-run.
func (s *Selector) AdapterUsed() (name string, switched bool) {
	s.stickyMu.Lock()
	defer s.stickyMu.Unlock()
	return s.stickyAdapter, s.switched
}

// GetOHLCV tries the sticky adapter (or the ordered list, on the first
// call), cascading to the next ONLINE adapter on failure.
func (s *Selector) GetOHLCV(ctx context.Context, symbol string, start, end time.Time, adjust Adjust) ([]Bar, error) {
	order := s.candidateOrder()
	var lastErr error
	for _, a := range order {
		if !s.isUsable(a.Name()) {
			continue
		}
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		t0 := time.Now()
		bars, err := a.GetOHLCV(fetchCtx, symbol, start, end, adjust)
		cancel()
		latency := time.Since(t0)
		if err != nil {
			if fe, ok := err.(*FetchError); ok && fe.Kind == FailEmpty {
				// healthy adapter, empty range: NO_DATA for the run, but
				// not a selector-level failure — do not mark ERROR.
				s.recordSuccess(a.Name(), latency)
				return nil, err
			}
			s.recordFailure(a.Name())
			logger.Errorf("data: selector adapter %s failed for %s: %v", a.Name(), symbol, err)
			lastErr = err
			continue
		}
		s.recordSuccess(a.Name(), latency)
		s.pinSticky(a.Name())
		return bars, nil
	}
	if lastErr == nil {
		lastErr = &FetchError{Kind: FailNetwork, Err: errNoAdaptersAvailable}
	}
	return nil, lastErr
}

// GetStockInfo mirrors GetOHLCV's failover, without sticky pinning (stock
// info carries no adjust-convention consistency requirement).
func (s *Selector) GetStockInfo(ctx context.Context, symbol string) (StockInfo, error) {
	order := s.candidateOrder()
	var lastErr error
	for _, a := range order {
		if !s.isUsable(a.Name()) {
			continue
		}
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		info, err := a.GetStockInfo(fetchCtx, symbol)
		cancel()
		if err != nil {
			s.recordFailure(a.Name())
			lastErr = err
			continue
		}
		s.recordSuccess(a.Name(), 0)
		return info, nil
	}
	if lastErr == nil {
		lastErr = &FetchError{Kind: FailNetwork, Err: errNoAdaptersAvailable}
	}
	return StockInfo{}, lastErr
}

func (s *Selector) candidateOrder() []Provider {
	s.stickyMu.Lock()
	sticky := s.stickyAdapter
	s.stickyMu.Unlock()
	if sticky == "" {
		return s.adapters
	}
	ordered := make([]Provider, 0, len(s.adapters))
	var rest []Provider
	for _, a := range s.adapters {
		if a.Name() == sticky {
			ordered = append(ordered, a)
		} else {
			rest = append(rest, a)
		}
	}
	return append(ordered, rest...)
}

func (s *Selector) pinSticky(name string) {
	s.stickyMu.Lock()
	defer s.stickyMu.Unlock()
	if s.stickyAdapter == "" {
		s.stickyAdapter = name
	} else if s.stickyAdapter != name {
		s.switched = true
		s.stickyAdapter = name
	}
}

func (s *Selector) isUsable(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.health[name]
	return ok && h.status == StatusOnline
}

func (s *Selector) recordSuccess(name string, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.health[name]
	h.status = StatusOnline
	h.successCount++
	h.lastLatency = latency
}

func (s *Selector) recordFailure(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.health[name]
	h.status = StatusError
	h.failCount++
	h.lastErrAt = time.Now()
}

// Health returns a snapshot of one adapter's bookkeeping, for diagnostics.
func (s *Selector) Health(name string) (status Status, successes, failures int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.health[name]
	if !ok {
		return StatusOffline, 0, 0
	}
	return h.status, h.successCount, h.failCount
}

var errNoAdaptersAvailable = &adapterUnavailableError{}

type adapterUnavailableError struct{}

func (e *adapterUnavailableError) Error() string { return "no adapters available" }
