package concierge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-concierge/internal/catalog"
	"campus-concierge/internal/common/logger"
	"campus-concierge/internal/common/metrics"
	"campus-concierge/internal/models"
)

// CompletionProvider turns a prompt into raw model text. The text is expected
// to contain JSON but is never trusted.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ContextProvider returns human-readable grounding text for app topics.
type ContextProvider interface {
	Summarize(ctx context.Context, topics ...string) (string, error)
}

// Request is the input contract of a single resolution.
type Request struct {
	Query    string `json:"query"`
	AllowLLM *bool  `json:"allowLlm,omitempty"`
}

// Result carries the payload plus the stage that produced it.
type Result struct {
	Payload  *models.ConciergeResponsePayload
	Stage    string
	Duration time.Duration
}

type turn struct {
	raw      string
	query    string
	allowLLM bool
	intent   models.Intent
}

type stage struct {
	name string
	run  func(ctx context.Context, t *turn) *models.ConciergeResponsePayload
}

type Engine struct {
	index      *Index
	resolver   *Resolver
	knowledge  *KnowledgeMatcher
	fallback   *FallbackResolver
	navigation *NavigationBridge
	appContext *AppContextBridge
	opts       Options
	log        logger.Logger
	stages     []stage
}

// NewEngine builds the immutable search structures for cat. provider and
// ctxProvider may be nil; the stages that need them are then skipped.
func NewEngine(cat *catalog.Catalog, opts Options, provider CompletionProvider, ctxProvider ContextProvider, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	idx := NewIndex(cat.Buildings, cat.Aliases)
	resolver := NewResolver(idx, opts.Weights)

	e := &Engine{
		index:     idx,
		resolver:  resolver,
		knowledge: NewKnowledgeMatcher(cat.KnowledgeBase.Entries, opts.KB),
		fallback:  NewFallbackResolver(cat.KnowledgeBase.Fallbacks, idx),
		opts:      opts,
		log:       log.With(map[string]interface{}{"component": "concierge"}),
	}
	if provider != nil {
		e.navigation = NewNavigationBridge(provider, idx, resolver, opts.LLMTimeout)
		if ctxProvider != nil {
			e.appContext = NewAppContextBridge(provider, ctxProvider, opts.LLMTimeout, opts.ContextTimeout)
		}
	}

	e.stages = []stage{
		{"blank", e.blankQuery},
		{"route", e.route},
		{"knowledge_base", e.knowledgeBase},
		{"direct_lookup", e.directLookup},
		{"classify", e.classify},
		{"app_context", e.appContextTopic},
		{"support_fallback", e.supportFallback},
		{"entity_retry", e.entityRetry},
		{"app_help", e.appHelp},
		{"fallback", e.terminalFallback},
	}
	return e
}

func (e *Engine) Index() *Index {
	return e.index
}

// Resolve always returns a payload.
func (e *Engine) Resolve(ctx context.Context, req Request) *models.ConciergeResponsePayload {
	return e.ResolveDetailed(ctx, req).Payload
}

func (e *Engine) ResolveDetailed(ctx context.Context, req Request) (res Result) {
	started := time.Now()
	t := &turn{
		raw:      req.Query,
		query:    Normalize(req.Query),
		allowLLM: e.opts.AllowLLM,
	}
	if req.AllowLLM != nil {
		t.allowLLM = *req.AllowLLM
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Resolution panicked, using fallback", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"query": req.Query,
			})
			res = Result{
				Payload:  sanitize(e.fallback.Resolve(models.IntentUnknown, req.Query), e.index),
				Stage:    "panic",
				Duration: time.Since(started),
			}
		}
	}()

	for _, s := range e.stages {
		stageStarted := time.Now()
		p := s.run(ctx, t)
		metrics.ObserveStage(s.name, stageStarted)
		if p == nil {
			continue
		}
		p = sanitize(p, e.index)
		res = Result{Payload: p, Stage: s.name, Duration: time.Since(started)}
		metrics.RecordResolution(s.name, string(p.Action))
		e.log.Info("Campus query resolved", map[string]interface{}{
			"stage":      s.name,
			"action":     p.Action,
			"intent":     p.Intent,
			"verified":   p.Verified,
			"locations":  len(p.Locations),
			"durationMs": res.Duration.Milliseconds(),
		})
		return res
	}

	// The terminal stage never returns nil; this only guards a misconfigured chain.
	p := sanitize(e.fallback.Resolve(models.IntentUnknown, req.Query), e.index)
	return Result{Payload: p, Stage: "fallback", Duration: time.Since(started)}
}

func (e *Engine) llmReady(t *turn) bool {
	return t.allowLLM && e.navigation != nil
}

func (e *Engine) blankQuery(_ context.Context, t *turn) *models.ConciergeResponsePayload {
	if t.query != "" {
		return nil
	}
	return e.fallback.Resolve(models.IntentUnknown, t.raw)
}

func (e *Engine) route(ctx context.Context, t *turn) *models.ConciergeResponsePayload {
	if !IsRouteShaped(t.query) {
		return nil
	}
	if pair, ok := ExtractRoute(t.query); ok {
		start, okStart := e.resolver.Best(pair.Start)
		end, okEnd := e.resolver.Best(pair.End)
		if okStart && okEnd && start.Building.ID != end.Building.ID {
			return &models.ConciergeResponsePayload{
				Message: routeMessage(start.Building.Name, end.Building.Name),
				Locations: []models.ConciergeLocationPayload{
					locationPayload(start.Building, models.RoleStart, start.Service),
					locationPayload(end.Building, models.RoleEnd, end.Service),
				},
				Action:   models.ActionShowRoute,
				Intent:   models.IntentRouteNavigation,
				Verified: true,
				Sources:  []string{"building_catalog", "route_extractor"},
				FollowUp: []string{fmt.Sprintf("What services are at %s?", end.Building.Name)},
			}
		}
	}
	if e.llmReady(t) {
		if p := e.navigate(ctx, t, models.IntentRouteNavigation); p != nil {
			return p
		}
	}
	return e.fallback.Resolve(models.IntentRouteNavigation, t.raw)
}

func (e *Engine) knowledgeBase(_ context.Context, t *turn) *models.ConciergeResponsePayload {
	match, ok := e.knowledge.Match(t.query)
	if !ok {
		return nil
	}
	return e.knowledge.Answer(match, e.index)
}

var locationAskVocabulary = []string{"where", "locate", "find", "nearest", "location", "map", "take me", "way to", "show me"}

// Bare names of up to three words ("canteen", "exam office") count as location
// asks unless they classify to an app-wide topic such as notices or help.
func looksLikeLocationAsk(q string) bool {
	if containsAnyPhrase(q, locationAskVocabulary) {
		return true
	}
	if len(strings.Fields(q)) > 3 {
		return false
	}
	_, appTopic := TopicForIntent(Classify(q))
	return !appTopic
}

func (e *Engine) directLookup(_ context.Context, t *turn) *models.ConciergeResponsePayload {
	if !looksLikeLocationAsk(t.query) {
		return nil
	}
	return e.lookup(t)
}

var locationPrefixes = []string{
	"where is", "where are", "where s", "wheres", "how do i find", "how can i find",
	"locate", "find", "show me", "take me to", "nearest", "way to", "location of",
}

// locationPhrase strips question scaffolding so "where is the library" is
// looked up as "library".
func locationPhrase(q string) string {
	for changed := true; changed; {
		changed = false
		for _, p := range locationPrefixes {
			if strings.HasPrefix(q, p+" ") {
				q = strings.TrimPrefix(q, p+" ")
				changed = true
			}
		}
		if trimmed := trimFiller(q); trimmed != q {
			q = trimmed
			changed = true
		}
	}
	return q
}

func (e *Engine) lookup(t *turn) *models.ConciergeResponsePayload {
	cands := e.resolver.Resolve(locationPhrase(t.query), DefaultResolveLimit)
	if len(cands) == 0 || !e.resolver.Confident(cands[0]) {
		cands = e.resolver.Resolve(t.query, DefaultResolveLimit)
	}
	if len(cands) == 0 || !e.resolver.Confident(cands[0]) {
		return nil
	}

	top := cands[0].Score
	picks := make([]Candidate, 0, e.opts.DirectLookupLimit)
	for _, c := range cands {
		if c.Score != top || len(picks) == e.opts.DirectLookupLimit {
			break
		}
		picks = append(picks, c)
	}

	locs := make([]models.ConciergeLocationPayload, len(picks))
	for i, c := range picks {
		locs[i] = locationPayload(c.Building, models.RoleDestination, c.Service)
	}

	intent := t.intent
	if intent == "" {
		intent = Classify(t.query)
	}
	if intent == models.IntentUnknown {
		intent = models.IntentLocationLookup
	}

	msg := describeBuilding(picks[0].Building, picks[0].Service)
	if len(picks) > 1 {
		names := make([]string, len(picks))
		for i, c := range picks {
			names[i] = c.Building.Name
		}
		msg = "I found several matching places: " + strings.Join(names, ", ") + "."
	}

	sources := []string{"building_catalog"}
	if picks[0].Alias {
		sources = append(sources, "alias_table")
	}

	return &models.ConciergeResponsePayload{
		Message:   msg,
		Locations: locs,
		Action:    actionForCount(len(locs)),
		Intent:    intent,
		Verified:  true,
		Sources:   sources,
		FollowUp:  []string{},
	}
}

func (e *Engine) classify(_ context.Context, t *turn) *models.ConciergeResponsePayload {
	t.intent = Classify(t.query)
	return nil
}

func (e *Engine) appContextTopic(ctx context.Context, t *turn) *models.ConciergeResponsePayload {
	topic, ok := TopicForIntent(t.intent)
	if !ok || !t.allowLLM || e.appContext == nil {
		return nil
	}
	return e.answerFromContext(ctx, t, topic)
}

var supportIntents = map[models.Intent]bool{
	models.IntentProcessHowto:  true,
	models.IntentPolicyQuery:   true,
	models.IntentOfficeLookup:  true,
	models.IntentDeadlineQuery: true,
	models.IntentEscalation:    true,
}

func (e *Engine) supportFallback(_ context.Context, t *turn) *models.ConciergeResponsePayload {
	if !supportIntents[t.intent] && !isSupportQuery(t.query) {
		return nil
	}
	return e.fallback.Resolve(t.intent, t.raw)
}

func (e *Engine) entityRetry(ctx context.Context, t *turn) *models.ConciergeResponsePayload {
	if p := e.lookup(t); p != nil {
		return p
	}
	if !e.llmReady(t) {
		return nil
	}
	return e.navigate(ctx, t, t.intent)
}

func (e *Engine) appHelp(ctx context.Context, t *turn) *models.ConciergeResponsePayload {
	if !t.allowLLM || e.appContext == nil {
		return nil
	}
	return e.answerFromContext(ctx, t, "help")
}

func (e *Engine) terminalFallback(_ context.Context, t *turn) *models.ConciergeResponsePayload {
	return e.fallback.Resolve(Classify(t.query), t.raw)
}

func (e *Engine) navigate(ctx context.Context, t *turn, intent models.Intent) *models.ConciergeResponsePayload {
	p, err := e.navigation.Resolve(ctx, t.raw, intent)
	if err != nil {
		reason := failureReason(err)
		metrics.RecordBridgeFailure("navigation", reason)
		e.log.Warn("Navigation bridge yielded no result", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
		return nil
	}
	return p
}

func (e *Engine) answerFromContext(ctx context.Context, t *turn, topic string) *models.ConciergeResponsePayload {
	p, err := e.appContext.Answer(ctx, t.raw, topic, t.intent)
	if err != nil {
		reason := failureReason(err)
		metrics.RecordBridgeFailure("app_context", reason)
		e.log.Warn("App-context bridge yielded no result", map[string]interface{}{
			"topic":  topic,
			"reason": reason,
			"error":  err.Error(),
		})
		return nil
	}
	return p
}
