// Package advisory composes language handling, caching, retrieval,
// grounding, scoring and validation into one request/response cycle.
//
// Advise never returns an error and never panics: every failure is turned
// into a degraded response that says what went wrong.
package advisory

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/cache"
	agerrors "github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/graph"
	"github.com/sweetpotato0/agri-advisor/history"
	"github.com/sweetpotato0/agri-advisor/llm"
	"github.com/sweetpotato0/agri-advisor/middleware"
	"github.com/sweetpotato0/agri-advisor/middleware/enricher"
	"github.com/sweetpotato0/agri-advisor/middleware/errorhandler"
	"github.com/sweetpotato0/agri-advisor/middleware/logger"
	"github.com/sweetpotato0/agri-advisor/middleware/validator"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/pkg/metrics"
	"github.com/sweetpotato0/agri-advisor/pkg/netcheck"
	"github.com/sweetpotato0/agri-advisor/pkg/telemetry"
	"github.com/sweetpotato0/agri-advisor/prompt"
	"github.com/sweetpotato0/agri-advisor/rag/extract"
	"github.com/sweetpotato0/agri-advisor/rag/language"
	"github.com/sweetpotato0/agri-advisor/rag/query"
	ragvalidator "github.com/sweetpotato0/agri-advisor/rag/validator"
	"github.com/sweetpotato0/agri-advisor/record"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRequestTimeout bounds one Advise call.
	DefaultRequestTimeout = 15 * time.Second
	// DefaultOfflineThreshold is the similarity an earlier query needs to be
	// served while offline.
	DefaultOfflineThreshold = 0.6

	offlineConfidence    = 0.3
	fallbackConfidence   = 0.2
	ungroundedConfidence = 0.5
)

// Retriever fetches records for a query context. It must not fail.
type Retriever interface {
	RetrieveAll(ctx context.Context, qc query.Context) []record.Record
}

// Service answers farming questions.
type Service struct {
	retriever  Retriever
	cache      *cache.Layer
	validator  *ragvalidator.Validator
	gen        llm.Generator
	prompts    *prompt.Manager
	history    history.Store
	net        netcheck.Checker
	demos      *DemoSet
	detector   *language.Detector
	translator *language.Translator
	extractor  *extract.Extractor
	chain      *middleware.Chain
	extra      []middleware.Middleware

	timeout          time.Duration
	offlineThreshold float64
	now              func() time.Time

	graph    *graph.Graph[run]
	flights  singleflight.Group
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
	closers  []io.Closer
	once     sync.Once
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the dataset/response cache. Service.Close closes it.
func WithCache(l *cache.Layer) Option {
	return func(s *Service) { s.cache = l }
}

// WithValidator sets the response validator.
func WithValidator(v *ragvalidator.Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithGenerator sets the generation service used for ungrounded drafts.
func WithGenerator(g llm.Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithPrompts replaces the prompt templates.
func WithPrompts(m *prompt.Manager) Option {
	return func(s *Service) { s.prompts = m }
}

// WithHistory sets the query history used by the offline path.
func WithHistory(h history.Store) Option {
	return func(s *Service) { s.history = h }
}

// WithConnectivity sets the connectivity checker.
func WithConnectivity(c netcheck.Checker) Option {
	return func(s *Service) { s.net = c }
}

// WithDemoSet sets the curated demo questions. nil disables demos.
func WithDemoSet(d *DemoSet) Option {
	return func(s *Service) { s.demos = d }
}

// WithLanguage sets the detector and translator.
func WithLanguage(d *language.Detector, t *language.Translator) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
		if t != nil {
			s.translator = t
		}
	}
}

// WithExtractor sets the context extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithMiddleware adds middlewares after the built-in ones and before query
// validation, for example a rate limiter.
func WithMiddleware(m ...middleware.Middleware) Option {
	return func(s *Service) { s.extra = append(s.extra, m...) }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithOfflineThreshold sets the similar-query threshold for offline answers.
func WithOfflineThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 {
			s.offlineThreshold = t
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCloser registers a resource released by Close.
func WithCloser(c io.Closer) Option {
	return func(s *Service) {
		if c != nil {
			s.closers = append(s.closers, c)
		}
	}
}

// New creates a service. Unset collaborators get working local defaults:
// in-memory cache and history, always-online connectivity, the built-in
// demos and local-only validation.
func New(r Retriever, opts ...Option) (*Service, error) {
	if r == nil {
		return nil, agerrors.New("advisory: retriever is required")
	}
	s := &Service{
		retriever:        r,
		gen:              llm.Unavailable{},
		prompts:          prompt.Default(),
		net:              netcheck.Static(true),
		demos:            NewDemoSet(DefaultDemoThreshold, DefaultDemos()...),
		detector:         language.NewDetector("en"),
		translator:       language.NewTranslator("en"),
		extractor:        extract.New(),
		timeout:          DefaultRequestTimeout,
		offlineThreshold: DefaultOfflineThreshold,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryLayer(cache.LayerOptions{}, 0, 0, 0)
	}
	if s.history == nil {
		s.history = history.NewMemory(history.DefaultCapacity)
	}
	if s.validator == nil {
		s.validator = ragvalidator.New(ragvalidator.WithGenerator(s.gen), ragvalidator.WithPrompts(s.prompts))
	}

	g, err := s.buildGraph()
	if err != nil {
		return nil, err
	}
	s.graph = g

	s.chain = middleware.NewChain(
		errorhandler.NewConverter(s.convertError),
		errorhandler.NewRecovery(),
		enricher.NewRequestID(),
		logger.NewAccess(nil),
		validator.NewTrustSignals(),
	)
	for _, m := range s.extra {
		s.chain.Add(m)
	}
	s.chain.Add(validator.NewQueryValidator())
	return s, nil
}

// Advise answers q. language is a hint ("" or "auto" to detect).
func (s *Service) Advise(ctx context.Context, q, lang string) (resp answer.Response) {
	start := s.now()
	ctx, span := telemetry.Start(ctx, "advisory.advise", telemetry.KeyLanguage.String(lang))
	mw := middleware.NewContext(ctx, q, lang)

	defer func() {
		if r := recover(); r != nil {
			logging.WithComponent("advisory").Error("advise panicked", "panic", r)
			resp = s.fallback(q, lang, answer.DisclaimerFallback)
		}
		resp.RequestID = mw.RequestID
		if resp.CreatedAt.IsZero() {
			resp.CreatedAt = s.now()
		}
		telemetry.RecordAnswer(span, string(resp.Origin), resp.Confidence)
		telemetry.End(span, nil)
		metrics.ObserveAdvise(string(resp.Origin), start, resp.Confidence)
	}()

	err := s.chain.Execute(mw, func(c *middleware.Context) error {
		r := s.advise(c.Context(), c.Query, c.Language)
		c.Response = &r
		return nil
	})
	if err != nil || mw.Response == nil {
		logging.WithComponent("advisory").Error("advise chain failed", "request_id", mw.RequestID, "error", err)
		return s.fallback(q, lang, answer.DisclaimerFallback)
	}
	return *mw.Response
}

// advise deduplicates concurrent identical questions and enforces the
// request timeout. The shared pipeline run is detached from any single
// caller's cancellation so one impatient caller cannot fail the others.
func (s *Service) advise(ctx context.Context, q, lang string) answer.Response {
	key := cache.ResponseKey(q, lang)
	ch := s.flights.DoChan(key, func() (any, error) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return s.fallback(q, lang, answer.DisclaimerFallback), nil
		}
		s.inflight.Add(1)
		s.mu.Unlock()
		defer s.inflight.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.runPipeline(rctx, q, lang), nil
	})

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		r, ok := res.Val.(answer.Response)
		if !ok {
			return s.fallback(q, lang, answer.DisclaimerFallback)
		}
		return r.Clone()
	case <-timer.C:
		return s.fallback(q, lang, answer.DisclaimerTimeout)
	case <-ctx.Done():
		return s.fallback(q, lang, answer.DisclaimerTimeout)
	}
}

// convertError turns errors from the middleware chain into responses.
func (s *Service) convertError(c *middleware.Context, err error) error {
	switch {
	case errors.Is(err, agerrors.ErrInvalidQuery):
		c.Response = &answer.Response{
			Query:        c.Query,
			Language:     language.Canonical(c.Language),
			Text:         answer.RephraseText(),
			FactualBasis: answer.BasisLow,
			Disclaimers:  []string{answer.DisclaimerRephrase},
			Suggestions:  append([]string(nil), answer.SuggestedQuestions...),
			Origin:       answer.OriginInvalid,
			CreatedAt:    s.now(),
		}
		return nil
	case errors.Is(err, agerrors.ErrRateLimited):
		c.Response = &answer.Response{
			Query:        c.Query,
			Language:     language.Canonical(c.Language),
			Text:         answer.BusyText(),
			FactualBasis: answer.BasisLow,
			Disclaimers:  []string{answer.DisclaimerBusy},
			Origin:       answer.OriginBusy,
			CreatedAt:    s.now(),
		}
		return nil
	}
	r := s.fallback(c.Query, c.Language, answer.DisclaimerFallback)
	c.Response = &r
	return nil
}

// fallback is the fixed low-confidence answer used when the pipeline
// cannot produce one.
func (s *Service) fallback(q, lang, disclaimer string) answer.Response {
	return answer.Response{
		Query:        q,
		Language:     language.Canonical(lang),
		Text:         answer.FallbackText(),
		Confidence:   fallbackConfidence,
		FactualBasis: answer.BasisLow,
		Disclaimers:  []string{disclaimer},
		Suggestions:  append([]string(nil), answer.SuggestedQuestions...),
		Origin:       answer.OriginFallback,
		CreatedAt:    s.now(),
	}
}

// Cache exposes the cache layer for maintenance (cleanup, stats).
func (s *Service) Cache() *cache.Layer { return s.cache }

// Close waits for in-flight pipelines and releases the cache and any
// registered closers.
func (s *Service) Close() error {
	var errs []error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.inflight.Wait()
		if err := s.cache.Close(); err != nil {
			errs = append(errs, err)
		}
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
