package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusPolling  Status = "polling"
	StatusReady    Status = "ready"
	StatusError    Status = "error"
	StatusTimedOut Status = "timed_out"
)

type HotelAPI interface {
	GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error)
}

type Cache interface {
	SetBooking(ctx context.Context, booking *domain.EnrichedBooking) error
	SetConversions(ctx context.Context, bookingID int64, resp *domain.ConversionsResponse) error
}

// Snapshot is the poller state as seen by the wizard. Booking is the last
// successfully fetched booking and survives later fetch failures.
type Snapshot struct {
	BookingID  int64                      `json:"booking_id"`
	Status     Status                     `json:"status"`
	Attempts   int                        `json:"attempts"`
	Booking    *domain.EnrichedBooking    `json:"booking,omitempty"`
	Conversion *domain.CurrencyConversion `json:"conversion,omitempty"`
	Error      string                     `json:"error,omitempty"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// Ready reports whether the settlement-currency total is known.
func (s Snapshot) Ready() bool {
	return s.Status == StatusReady && s.Conversion != nil
}

// Poller waits for the backend to compute the amount_required_reference
// conversion of one booking.
type Poller struct {
	api         HotelAPI
	cache       Cache
	logger      *logrus.Logger
	interval    time.Duration
	maxAttempts int
	maxFailures int
	observer    func(Snapshot)

	mu     sync.Mutex
	snap   Snapshot
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

type Option func(*Poller)

func WithCache(cache Cache) Option {
	return func(p *Poller) {
		p.cache = cache
	}
}

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithFailureLimit sets how many consecutive failed fetches end polling with
// StatusError.
func WithFailureLimit(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxFailures = n
		}
	}
}

// WithObserver is called after every state change, outside the poller lock.
func WithObserver(fn func(Snapshot)) Option {
	return func(p *Poller) {
		p.observer = fn
	}
}

func NewPoller(api HotelAPI, logger *logrus.Logger, opts ...Option) *Poller {
	p := &Poller{
		api:         api,
		logger:      logger,
		interval:    2 * time.Second,
		maxAttempts: 60,
		maxFailures: 2,
		snap:        Snapshot{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling for bookingID, replacing any poll already running.
// The last known booking is kept when the booking id does not change.
func (p *Poller) Start(ctx context.Context, bookingID int64) error {
	p.stop()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.NewDomainStateError("start conversion poll", "wizard is closed")
	}
	p.gen++
	gen := p.gen
	prev := p.snap
	p.snap = Snapshot{BookingID: bookingID, Status: StatusPolling, UpdatedAt: time.Now()}
	if prev.BookingID == bookingID {
		p.snap.Booking = prev.Booking
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done
	snap := p.snap
	p.mu.Unlock()

	p.notify(snap)
	go p.run(runCtx, gen, bookingID, done)
	return nil
}

// Retry restarts a poll that ended in error or timed out.
func (p *Poller) Retry(ctx context.Context) error {
	p.mu.Lock()
	status, bookingID := p.snap.Status, p.snap.BookingID
	p.mu.Unlock()

	if status != StatusError && status != StatusTimedOut {
		return domain.NewDomainStateError("retry conversion poll", "conversion poll is "+string(status))
	}
	return p.Start(ctx, bookingID)
}

// Stop cancels a running poll and waits for it to exit. The last result is kept.
func (p *Poller) Stop() {
	p.stop()
	p.mu.Lock()
	if p.snap.Status == StatusPolling {
		p.snap.Status = StatusIdle
		p.snap.UpdatedAt = time.Now()
	}
	p.mu.Unlock()
}

// Close stops polling for good. Nothing is published afterwards.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.stop()
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *Poller) stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.gen++
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (p *Poller) run(ctx context.Context, gen uint64, bookingID int64, done chan struct{}) {
	defer close(done)

	log := p.logger.WithField("booking_id", bookingID)
	failures := 0
	for attempt := 1; ; attempt++ {
		resp, err := p.api.GetConversions(ctx, bookingID)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			failures++
			log.WithError(err).WithField("attempt", attempt).Warn("Conversion fetch failed")
			if failures >= p.maxFailures {
				p.update(gen, func(s *Snapshot) {
					s.Attempts = attempt
					s.Status = StatusError
					s.Error = err.Error()
				})
				return
			}
		} else {
			failures = 0
			ref, found := resp.Reference()
			p.storeInCache(ctx, bookingID, resp)
			booking := resp.Booking
			p.update(gen, func(s *Snapshot) {
				s.Attempts = attempt
				s.Booking = &booking
				s.Error = ""
				if found {
					s.Status = StatusReady
					s.Conversion = &ref
				}
			})
			if found {
				log.WithFields(logrus.Fields{
					"attempt":   attempt,
					"converted": ref.ConvertedAmount.String(),
					"currency":  ref.ConvertedCurrency,
				}).Info("Conversion ready")
				return
			}
		}

		if attempt >= p.maxAttempts {
			p.update(gen, func(s *Snapshot) {
				s.Attempts = attempt
				s.Status = StatusTimedOut
				s.Error = "conversion was not ready in time"
			})
			log.WithField("attempts", attempt).Warn("Conversion poll timed out")
			return
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *Poller) update(gen uint64, apply func(*Snapshot)) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return
	}
	apply(&p.snap)
	p.snap.UpdatedAt = time.Now()
	snap := p.snap
	p.mu.Unlock()

	p.notify(snap)
}

func (p *Poller) notify(snap Snapshot) {
	if p.observer != nil {
		p.observer(snap)
	}
}

func (p *Poller) storeInCache(ctx context.Context, bookingID int64, resp *domain.ConversionsResponse) {
	if p.cache == nil {
		return
	}
	if err := p.cache.SetBooking(ctx, &resp.Booking); err != nil {
		p.logger.WithError(err).Debug("Failed to cache booking")
	}
	if err := p.cache.SetConversions(ctx, bookingID, resp); err != nil {
		p.logger.WithError(err).Debug("Failed to cache conversions")
	}
}
