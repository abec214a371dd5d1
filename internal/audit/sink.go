package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store is the persistence surface the sink consumes.
type Store interface {
	Insert(ctx context.Context, e Entry) error
}

// Sink accepts audit entries without ever blocking or failing the
// caller. Offer pushes onto a buffered channel; a background consumer
// enriches and persists. A full buffer or a failed insert drops the entry
// and bumps a counter. Audit is observation, not a transactional barrier.
type Sink struct {
	logger  *slog.Logger
	store   Store
	geo     *Geolocator
	entries chan Entry
	dropped prometheus.Counter
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

// NewSink constructs a Sink with the given buffer size and registers the
// drop counter. geo may be nil to skip enrichment.
func NewSink(logger *slog.Logger, store Store, geo *Geolocator, buffer int, reg prometheus.Registerer) *Sink {
	if buffer <= 0 {
		buffer = 256
	}
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "multistock_audit_dropped_total",
		Help: "Audit entries dropped due to a full buffer or a failed insert.",
	})
	if reg != nil {
		reg.MustRegister(dropped)
	}
	return &Sink{
		logger:  logger,
		store:   store,
		geo:     geo,
		entries: make(chan Entry, buffer),
		dropped: dropped,
	}
}

// Start launches the consumer. ctx cancellation stops intake; entries
// already buffered are still flushed.
func (s *Sink) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case entry, ok := <-s.entries:
				if !ok {
					return
				}
				s.persist(entry)
			case <-ctx.Done():
				s.drain()
				return
			}
		}
	}()
}

// Offer enqueues an entry. It never blocks: when the buffer is full, or
// the sink is already closed, the entry is counted as dropped and the
// caller proceeds.
func (s *Sink) Offer(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.dropped.Inc()
		return
	}
	select {
	case s.entries <- e:
	default:
		s.dropped.Inc()
	}
}

// Close stops intake and waits for buffered entries to flush. Offers
// racing with Close are dropped, not panicked on.
func (s *Sink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.entries)
		s.mu.Unlock()
	})
	s.wg.Wait()
}

func (s *Sink) persist(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.geo != nil {
		loc := s.geo.Lookup(ctx, e.IP)
		if e.Changes == nil {
			e.Changes = map[string]any{}
		}
		e.Changes["geo"] = loc
	}
	if err := s.store.Insert(ctx, e); err != nil {
		s.dropped.Inc()
		s.logger.Warn("audit entry dropped", slog.String("path", e.Path), slog.Any("error", err))
	}
}

func (s *Sink) drain() {
	for {
		select {
		case entry, ok := <-s.entries:
			if !ok {
				return
			}
			s.persist(entry)
		default:
			return
		}
	}
}
