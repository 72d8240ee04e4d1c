// Package explorer runs one dashboard query end to end: fetch (memoized), parse, normalize,
// analyze, and report. Run is the single boundary where pipeline failures are classified.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"openlibrary-explorer/internal/analytics"
	"openlibrary-explorer/internal/cache"
	"openlibrary-explorer/internal/kafka"
	"openlibrary-explorer/internal/logger"
	"openlibrary-explorer/internal/metrics"
	"openlibrary-explorer/internal/models"
	"openlibrary-explorer/internal/ol"
)

const defaultPublishTimeout = 2 * time.Second

// Searcher fetches the raw search response for a query.
type Searcher interface {
	Search(ctx context.Context, query models.Query) ([]byte, error)
}

// Service wires the search client, response cache and analytics together.
type Service struct {
	searcher       Searcher
	cache          cache.ResponseCache
	events         kafka.EventProducer
	tokenizer      *analytics.Tokenizer
	publishTimeout time.Duration
	now            func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithEvents publishes a SearchEvent for every processed query.
func WithEvents(events kafka.EventProducer, publishTimeout time.Duration) Option {
	return func(s *Service) {
		s.events = events
		if publishTimeout > 0 {
			s.publishTimeout = publishTimeout
		}
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService builds a Service. A nil cache means an in-process MemoryCache and a nil tokenizer
// the default English one.
func NewService(searcher Searcher, responses cache.ResponseCache, tokenizer *analytics.Tokenizer, opts ...Option) *Service {
	if responses == nil {
		responses = cache.NewMemoryCache()
	}
	if tokenizer == nil {
		tokenizer = analytics.NewTokenizer()
	}
	s := &Service{
		searcher:       searcher,
		cache:          responses,
		tokenizer:      tokenizer,
		publishTimeout: defaultPublishTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes one query. Invalid queries and transport failures are returned as *Error.
// Every analytic failure yields a report carrying only NoResultsWarning and a nil error.
func (s *Service) Run(ctx context.Context, query models.Query) (*models.Report, error) {
	ctx, requestID := logger.EnsureID(ctx)
	start := s.now()
	report := &models.Report{RequestID: requestID, Query: query, GeneratedAt: start.UTC()}

	var (
		hits   int
		cached bool
		err    error
	)
	defer func() {
		s.finish(ctx, report, hits, cached, err, start)
	}()

	if verr := query.Validate(); verr != nil {
		err = &Error{Kind: KindInvalid, Err: verr}
		return nil, err
	}

	var body []byte
	body, cached, err = s.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	report.Cached = cached

	hits, err = s.analyze(ctx, query, body, report)
	if err != nil {
		if !KindOf(err).Recoverable() {
			return nil, err
		}
		*report = models.Report{
			RequestID:   requestID,
			Query:       query,
			Warning:     NoResultsWarning,
			Cached:      cached,
			GeneratedAt: report.GeneratedAt,
		}
	}
	return report, nil
}

// fetch returns the raw response, from the cache when possible. Only valid JSON is cached.
func (s *Service) fetch(ctx context.Context, query models.Query) ([]byte, bool, error) {
	key := cache.Key(query)
	body, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		logger.For(ctx).WithError(err).Warn("response cache lookup failed")
	case ok:
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return body, true, nil
	default:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	done := logger.Track(ctx, "openlibrary search")
	body, err = s.searcher.Search(ctx, query)
	done()
	if err != nil {
		return nil, false, &Error{Kind: KindTransport, Err: fmt.Errorf("search openlibrary: %w", err)}
	}
	if !json.Valid(body) {
		return nil, false, &Error{Kind: KindTransport, Err: ol.ErrNotJSON}
	}

	if err := s.cache.Set(ctx, key, body); err != nil {
		logger.For(ctx).WithError(err).Warn("response cache store failed")
	}
	return body, false, nil
}

// analyze fills the report from the response body and returns the number of hits. Panics are
// converted into KindInternal errors so one bad payload never takes the process down.
func (s *Service) analyze(ctx context.Context, query models.Query, body []byte, report *models.Report) (hits int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: KindInternal, Err: fmt.Errorf("analytics panic: %v", r)}
		}
	}()
	defer logger.Track(ctx, "analyze results")()

	resp, err := ol.ParseSearchResponse(body)
	if err != nil {
		kind := KindMalformed
		if errors.Is(err, ol.ErrNotJSON) {
			kind = KindTransport
		}
		return 0, &Error{Kind: kind, Err: err}
	}
	hits = len(resp.Docs)
	if hits == 0 {
		return 0, &Error{Kind: KindEmpty, Err: ErrNoResults}
	}

	table := analytics.Normalize(resp.Docs)
	report.NumFound = resp.NumFound
	report.Rows = len(table)
	report.TopWords = s.tokenizer.TopWords(table.Titles(), query.TopWords)
	report.Characters = analytics.CharacterDistribution(table)
	report.Matches = buildMatches(query, table)
	report.RawJSON = body
	return hits, nil
}

func (s *Service) finish(ctx context.Context, report *models.Report, hits int, cached bool, err error, start time.Time) {
	took := s.now().Sub(start)
	outcome := "ok"
	event := models.SearchEvent{
		RequestID:  report.RequestID,
		Query:      report.Query.Text,
		Facet:      report.Query.Facet,
		Limit:      report.Query.Limit,
		Hits:       hits,
		Cached:     cached,
		DurationMS: took.Milliseconds(),
		CreatedAt:  start.UTC(),
	}

	entry := logger.For(ctx).WithFields(logrus.Fields{
		"query":  report.Query.Text,
		"facet":  report.Query.Facet,
		"limit":  report.Query.Limit,
		"hits":   hits,
		"cached": cached,
		"took":   took,
	})
	if err != nil {
		kind := KindOf(err)
		outcome = "error"
		if kind.Recoverable() {
			outcome = "warning"
		}
		event.ErrorKind = string(kind)
		event.Error = err.Error()
		metrics.FailuresTotal.WithLabelValues(string(kind)).Inc()
		entry.WithField("kind", kind).WithError(err).Warn("search failed")
	} else {
		entry.Info("search completed")
	}
	event.Outcome = outcome
	metrics.SearchesTotal.WithLabelValues(string(report.Query.Facet), outcome).Inc()

	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if perr := s.events.WriteEvent(pubCtx, event); perr != nil {
		logger.For(ctx).WithError(perr).Warn("failed to publish search event")
	}
}
