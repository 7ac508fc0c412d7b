package advisory

import (
	"context"
	"strings"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/graph"
	"github.com/sweetpotato0/agri-advisor/llm"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/prompt"
	"github.com/sweetpotato0/agri-advisor/rag/grounding"
	"github.com/sweetpotato0/agri-advisor/rag/language"
	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/rag/retrieval"
	"github.com/sweetpotato0/agri-advisor/rag/scoring"
	ragvalidator "github.com/sweetpotato0/agri-advisor/rag/validator"
	"github.com/sweetpotato0/agri-advisor/record"
)

// Node names.
const (
	nodeParse     = "parse"
	nodeDemo      = "demo_match"
	nodeCache     = "cache_check"
	nodeOnline    = "online_gate"
	nodeDraft     = "draft"
	nodeGrounding = "grounding"
	nodeRetrieve  = "retrieve"
	nodeFilter    = "filter"
	nodeScore     = "score"
	nodeValidate  = "validate"
	nodeStore     = "cache_store"
	nodeRespond   = "respond"
	nodeOffline   = "offline_fallback"
	nodeFatal     = "fatal_fallback"
)

// run is the state of one pipeline execution.
type run struct {
	query string
	hint  string

	lang       string
	translated string
	qc         query.Context

	draftText string
	grounded  bool

	records   []record.Record
	accepted  []record.Record
	missing   []record.Record
	synthetic bool
	// priceDown is set when no market record was usable at all.
	priceDown bool

	draft       ragvalidator.Draft
	disclaimers []string

	resp      answer.Response
	cacheable bool
	failed    string
}

func (r *run) langContext() ragvalidator.LangContext {
	return ragvalidator.LangContext{
		Language:   r.lang,
		Query:      r.query,
		Translated: r.translated,
		Context:    r.qc,
	}
}

func (s *Service) buildGraph() (*graph.Graph[run], error) {
	b := graph.NewBuilder[run]()
	b.AddNode(nodeParse, graph.NodeTypeStart, s.parse)
	b.AddNode(nodeDemo, graph.NodeTypeCustom, s.demoMatch)
	b.AddNode(nodeCache, graph.NodeTypeCustom, s.cacheCheck)
	b.AddConditionNode(nodeOnline, s.onlineGate, map[string]string{
		"online":  nodeDraft,
		"offline": nodeOffline,
	})
	b.AddNode(nodeDraft, graph.NodeTypeCustom, s.makeDraft)
	b.AddNode(nodeGrounding, graph.NodeTypeCustom, s.grounding)
	b.AddNode(nodeRetrieve, graph.NodeTypeCustom, s.retrieve)
	b.AddNode(nodeFilter, graph.NodeTypeCustom, s.filter)
	b.AddNode(nodeScore, graph.NodeTypeCustom, s.score)
	b.AddNode(nodeValidate, graph.NodeTypeCustom, s.validate)
	b.AddNode(nodeStore, graph.NodeTypeCustom, s.store)
	b.AddNode(nodeRespond, graph.NodeTypeEnd, s.respond)
	b.AddNode(nodeOffline, graph.NodeTypeCustom, s.offline)
	b.AddNode(nodeFatal, graph.NodeTypeCustom, s.fatal)

	b.AddEdge(nodeParse, nodeDemo)
	b.AddEdge(nodeDemo, nodeCache)
	b.AddEdge(nodeCache, nodeOnline)
	b.AddEdge(nodeDraft, nodeGrounding)
	b.AddEdge(nodeGrounding, nodeRetrieve)
	b.AddEdge(nodeRetrieve, nodeFilter)
	b.AddEdge(nodeFilter, nodeScore)
	b.AddEdge(nodeScore, nodeValidate)
	b.AddEdge(nodeValidate, nodeStore)
	b.AddEdge(nodeStore, nodeRespond)
	b.AddEdge(nodeOffline, nodeRespond)
	b.AddEdge(nodeFatal, nodeRespond)

	b.SetStart(nodeParse)
	b.SetEnd(nodeRespond)
	b.OnError(nodeFatal, func(_ context.Context, r *run, node string, err error) {
		r.failed = node
		logging.WithComponent("advisory").Error("pipeline step failed", "node", node, "error", err)
	})
	return b.Build()
}

// runPipeline executes the graph for one question.
func (s *Service) runPipeline(ctx context.Context, q, hint string) answer.Response {
	r := &run{query: strings.TrimSpace(q), hint: hint}
	trace, err := s.graph.Run(ctx, r)
	if err != nil {
		logging.WithComponent("advisory").Error("pipeline aborted", "trace", trace, "error", err)
		return s.fallback(q, hint, answer.DisclaimerFallback)
	}
	logging.WithComponent("advisory").Debug("pipeline finished", "trace", trace, "origin", r.resp.Origin)
	return r.resp
}

func (s *Service) parse(_ context.Context, r *run) (string, error) {
	if h := strings.TrimSpace(r.hint); h != "" && !strings.EqualFold(h, "auto") {
		r.lang = language.Canonical(h)
	} else {
		r.lang = s.detector.Detect(r.query).Language
	}
	r.translated = s.translator.Translate(r.query, r.lang)
	r.qc = s.extractor.Extract(r.query, r.translated, r.lang)
	return "", nil
}

func (s *Service) demoMatch(_ context.Context, r *run) (string, error) {
	d, score, ok := s.demos.Match(r.translated, r.qc)
	if !ok {
		return "", nil
	}
	logging.WithComponent("advisory").Debug("demo matched", "score", score)
	r.resp = d.response()
	return nodeRespond, nil
}

func (s *Service) cacheCheck(ctx context.Context, r *run) (string, error) {
	cached, ok := s.cache.Response(ctx, r.query, r.lang)
	if !ok {
		return "", nil
	}
	resp, ok := s.validator.Revalidate(ctx, cached, r.langContext())
	if !ok {
		return "", nil
	}
	resp.Origin = answer.OriginCache
	r.resp = resp.WithDisclaimer(answer.DisclaimerCached)
	return nodeRespond, nil
}

func (s *Service) onlineGate(ctx context.Context, _ *run) (string, error) {
	if s.net.Online(ctx) {
		return "online", nil
	}
	return "offline", nil
}

// makeDraft prepares the answer used when no live data is needed. A
// configured generation service writes it; otherwise it is local guidance.
func (s *Service) makeDraft(ctx context.Context, r *run) (string, error) {
	r.draftText = answer.GeneralDraft(r.qc)
	if !llm.IsConfigured(s.gen) {
		return "", nil
	}
	p, err := s.prompts.Render(prompt.NameDraft, prompt.Data{
		Query:    r.query,
		Language: r.lang,
		Location: r.qc.Place().String(),
		Crop:     r.qc.CropName(),
		Topics:   r.qc.Topics.String(),
	})
	if err != nil {
		return "", err
	}
	text, err := s.gen.Generate(ctx, p)
	if err != nil {
		logging.WithComponent("advisory").Info("draft generation unavailable", "error", err)
		return "", nil
	}
	r.draftText = text
	return "", nil
}

func (s *Service) grounding(_ context.Context, r *run) (string, error) {
	r.grounded = grounding.ShouldGround(r.qc, r.draftText)
	if r.grounded {
		return "", nil
	}
	r.draft = ragvalidator.Draft{
		Text:       r.draftText,
		Confidence: ungroundedConfidence,
		Basis:      answer.BasisLow,
	}
	r.disclaimers = append(r.disclaimers, answer.DisclaimerGeneral)
	r.cacheable = true
	return nodeValidate, nil
}

func (s *Service) retrieve(ctx context.Context, r *run) (string, error) {
	r.records = s.retriever.RetrieveAll(ctx, r.qc)
	r.synthetic = retrieval.IsSynthetic(r.records)
	return "", nil
}

func (s *Service) filter(_ context.Context, r *run) (string, error) {
	kept, rejected := grounding.Partition(r.records, r.qc)
	r.accepted = kept
	r.missing = grounding.MissingPrice(rejected)
	if grounding.WantsPrice(r.qc) && len(r.missing) == 0 && !grounding.HasMarket(kept) {
		r.missing = append(r.missing, grounding.PriceUnavailable(r.qc, s.now()))
		r.priceDown = true
	}
	return "", nil
}

func (s *Service) score(_ context.Context, r *run) (string, error) {
	score := scoring.Score
	if len(r.missing) > 0 {
		score = scoring.ScoreWithoutPrice
	}
	conf, basis := score(r.accepted, r.qc)
	r.draft = ragvalidator.Draft{
		Text:       answer.Draft(r.qc, r.accepted, r.missing),
		Confidence: conf,
		Basis:      basis,
		Missing:    r.missing,
	}
	if len(r.missing) > 0 {
		r.disclaimers = append(r.disclaimers, answer.DisclaimerMissingPrice)
	}
	if r.synthetic || anyStale(r.accepted) {
		r.disclaimers = append(r.disclaimers, answer.DisclaimerStaleData)
	}
	// An outage must not be replayed from the cache as "no data".
	r.cacheable = !r.synthetic && !r.priceDown
	return "", nil
}

func (s *Service) validate(ctx context.Context, r *run) (string, error) {
	sources := append(append([]record.Record(nil), r.accepted...), r.missing...)
	e := s.validator.Validate(ctx, r.draft, sources, r.langContext())
	resp := answer.Response{
		Text:         e.Text,
		Sources:      e.Sources,
		Confidence:   e.Confidence,
		FactualBasis: e.Basis,
		Origin:       answer.OriginPipeline,
	}
	for _, d := range append(r.disclaimers, e.Disclaimer) {
		resp = resp.WithDisclaimer(d)
	}
	r.resp = resp
	return "", nil
}

func (s *Service) store(ctx context.Context, r *run) (string, error) {
	if !r.cacheable {
		return "", nil
	}
	r.resp = s.finish(r, r.resp)
	s.cache.StoreResponse(ctx, r.query, r.lang, r.resp)
	if _, err := s.history.Add(ctx, r.query, r.lang); err != nil {
		logging.WithComponent("advisory").Warn("history add failed", "error", err)
	}
	return "", nil
}

// offline serves the best revalidated answer to a similar earlier question,
// or general guidance when there is none.
func (s *Service) offline(ctx context.Context, r *run) (string, error) {
	matches, err := s.history.Similar(ctx, r.query, r.lang, s.offlineThreshold)
	if err != nil {
		logging.WithComponent("advisory").Warn("history lookup failed", "error", err)
	}
	for _, m := range matches {
		cached, ok := s.cache.Response(ctx, m.Query, m.Language)
		if !ok {
			continue
		}
		resp, ok := s.validator.Revalidate(ctx, cached, r.langContext())
		if !ok {
			continue
		}
		resp.Origin = answer.OriginOffline
		r.resp = resp.WithDisclaimer(answer.DisclaimerOfflineCached)
		return "", nil
	}
	r.resp = answer.Response{
		Text:         answer.GeneralGuidance(r.qc),
		Confidence:   offlineConfidence,
		FactualBasis: answer.BasisLow,
		Disclaimers:  []string{answer.DisclaimerOffline},
		Suggestions:  append([]string(nil), answer.SuggestedQuestions...),
		Origin:       answer.OriginOffline,
	}
	return "", nil
}

func (s *Service) fatal(_ context.Context, r *run) (string, error) {
	r.resp = s.fallback(r.query, r.lang, answer.DisclaimerFallback)
	return "", nil
}

func (s *Service) respond(_ context.Context, r *run) (string, error) {
	r.resp = s.finish(r, r.resp)
	return "", nil
}

// finish fills the request fields every response carries.
func (s *Service) finish(r *run, resp answer.Response) answer.Response {
	resp.Query = r.query
	if r.lang != "" {
		resp.Language = r.lang
	} else {
		resp.Language = language.Canonical(r.hint)
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = s.now()
	}
	if resp.FactualBasis == answer.BasisLow && len(resp.Suggestions) == 0 {
		resp.Suggestions = append([]string(nil), answer.SuggestedQuestions...)
	}
	return resp
}

func anyStale(recs []record.Record) bool {
	for _, r := range recs {
		if r.Freshness == record.FreshnessStale {
			return true
		}
	}
	return false
}
