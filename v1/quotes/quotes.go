package quotes

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/verganas/quotelock/v1/cache"
	qerrors "github.com/verganas/quotelock/v1/errors"
	"github.com/verganas/quotelock/v1/metrics"
	"github.com/verganas/quotelock/v1/store"
)

var tracer = otel.Tracer("github.com/verganas/quotelock/v1/quotes")

// Quote is a single entry in the corpus. ID is the quote's 1-based position
// in the sequence.
type Quote struct {
	ID   int    `json:"id"`
	Text string `json:"quote"`
}

// Service serves lookups over an immutable quote sequence.
type Service struct {
	id     string
	quotes []Quote

	cache        cache.Cache[Quote]
	cacheTTL     time.Duration
	traceEnabled bool
}

// Option configures a Service.
type Option func(*Service)

// WithTracing enables OpenTelemetry spans on lookup operations.
func WithTracing() Option {
	return func(s *Service) {
		s.traceEnabled = true
	}
}

// WithCache enables a read-through per-id cache for GetQuotes. Entries are
// stored under the given TTL; a zero TTL stores them without expiry.
func WithCache(c cache.Cache[Quote], ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// New returns a Service over the given quotes. The slice is copied and ids
// are assigned from position, so the caller's ordering defines the sequence.
func New(qs []Quote, opts ...Option) *Service {
	s := &Service{
		id:     uuid.NewString(),
		quotes: make([]Quote, len(qs)),
	}
	copy(s.quotes, qs)
	for i := range s.quotes {
		s.quotes[i].ID = i + 1
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromTexts returns a Service over the given quote texts, one quote per
// element in order.
func NewFromTexts(texts []string, opts ...Option) *Service {
	qs := make([]Quote, len(texts))
	for i, t := range texts {
		qs[i] = Quote{Text: t}
	}
	return New(qs, opts...)
}

// NewFromStore populates a Service from st, reading it exactly once. Entries
// are ordered by their stored id. The store is not consulted again after
// construction.
func NewFromStore(ctx context.Context, st store.Store[Quote], opts ...Option) (*Service, error) {
	keys, err := st.Keys(ctx)
	if err != nil {
		return nil, err
	}
	qs := make([]Quote, 0, len(keys))
	for _, k := range keys {
		q, ok, err := st.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		qs = append(qs, q)
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
	metrics.StoreWarmupGauge.Set(float64(len(qs)))
	return New(qs, opts...), nil
}

// ID returns the service instance identity attached to traces.
func (s *Service) ID() string { return s.id }

// Len returns the number of quotes in the sequence.
func (s *Service) Len() int { return len(s.quotes) }

// GetAllQuotes returns the entire quote sequence in order.
func (s *Service) GetAllQuotes(ctx context.Context) ([]Quote, error) {
	var span trace.Span
	if s.traceEnabled {
		ctx, span = tracer.Start(ctx, "Quotes.GetAllQuotes")
		defer span.End()
		span.SetAttributes(
			attribute.String("quotes.instance", s.id),
			attribute.Int("quotes.count", len(s.quotes)),
		)
	}
	metrics.QuoteRequestCounter.Inc()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	out := make([]Quote, len(s.quotes))
	copy(out, s.quotes)
	return out, nil
}

// GetQuotes returns the quotes at the given 1-based ids, in request order.
// An id outside the sequence yields an error wrapping
// qerrors.ErrQuoteNotFound and no partial result.
func (s *Service) GetQuotes(ctx context.Context, ids []int) ([]Quote, error) {
	var span trace.Span
	if s.traceEnabled {
		ctx, span = tracer.Start(ctx, "Quotes.GetQuotes")
		defer span.End()
		span.SetAttributes(
			attribute.String("quotes.instance", s.id),
			attribute.Int("quotes.requested", len(ids)),
		)
	}
	metrics.QuoteRequestCounter.Inc()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	out := make([]Quote, 0, len(ids))
	for _, id := range ids {
		q, err := s.getQuote(ctx, id)
		if err != nil {
			if s.traceEnabled {
				span.SetAttributes(attribute.Int("quotes.missing_id", id))
			}
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Service) getQuote(ctx context.Context, id int) (Quote, error) {
	if id < 1 || id > len(s.quotes) {
		metrics.QuoteMissCounter.Inc()
		return Quote{}, fmt.Errorf("quote %d: %w", id, qerrors.ErrQuoteNotFound)
	}
	if s.cache == nil {
		return s.quotes[id-1], nil
	}
	key := fmt.Sprintf("quote:%d", id)
	if q, ok, err := s.cache.Get(ctx, key); err != nil {
		return Quote{}, err
	} else if ok {
		return q, nil
	}
	q := s.quotes[id-1]
	if err := s.cache.Set(ctx, key, q, s.cacheTTL); err != nil {
		return Quote{}, err
	}
	return q, nil
}
