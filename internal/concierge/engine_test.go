package concierge

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-concierge/internal/catalog"
	"campus-concierge/internal/common/logger"
	"campus-concierge/internal/models"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.LLMTimeout = 200 * time.Millisecond
	opts.ContextTimeout = 200 * time.Millisecond
	return opts
}

func newTestEngine(t *testing.T, provider CompletionProvider, ctxProvider ContextProvider) *Engine {
	t.Helper()
	return NewEngine(defaultCatalog(t), testOptions(), provider, ctxProvider, logger.NewTestLogger(t))
}

func assertInvariants(t *testing.T, e *Engine, p *models.ConciergeResponsePayload) {
	t.Helper()
	require.NotNil(t, p)
	assert.NotEmpty(t, p.Message)
	assert.True(t, p.Action.Valid(), "action %q", p.Action)
	assert.True(t, p.Intent.Valid(), "intent %q", p.Intent)
	assert.NotNil(t, p.Locations)
	assert.NotNil(t, p.Sources)
	assert.NotNil(t, p.FollowUp)
	for _, loc := range p.Locations {
		assert.True(t, e.Index().Has(loc.BuildingID), "invented building id %q", loc.BuildingID)
	}
	switch p.Action {
	case models.ActionShowRoute:
		require.Len(t, p.Locations, 2)
		assert.Equal(t, models.RoleStart, p.Locations[0].Role)
		assert.Equal(t, models.RoleEnd, p.Locations[1].Role)
	case models.ActionTextAnswer:
		assert.Empty(t, p.Locations)
	}
}

func TestEngine_RouteBetweenKnownBuildings(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	res := e.ResolveDetailed(context.Background(), Request{
		Query:    "Show me directions from Pulchowk Library to Campus Mess",
		AllowLLM: boolPtr(false),
	})
	p := res.Payload
	assertInvariants(t, e, p)

	assert.Equal(t, "route", res.Stage)
	assert.Equal(t, models.ActionShowRoute, p.Action)
	assert.Equal(t, models.IntentRouteNavigation, p.Intent)
	assert.Equal(t, []string{"pulchowk-library", "campus-mess"}, locationIDs(p))
	assert.Equal(t, "Pulchowk Library", p.Locations[0].BuildingName)
	assert.Equal(t, "Campus Mess", p.Locations[1].BuildingName)
	assert.True(t, p.Verified)
	assert.Equal(t, "Here is the route from Pulchowk Library to Campus Mess.", p.Message)
}

func TestEngine_RouteViaAliases(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	p := e.Resolve(context.Background(), Request{Query: "library to the canteen", AllowLLM: boolPtr(false)})
	assertInvariants(t, e, p)
	assert.Equal(t, models.ActionShowRoute, p.Action)
	assert.Equal(t, []string{"pulchowk-library", "campus-mess"}, locationIDs(p))
}

func TestEngine_RouteSameBuildingIsNotARoute(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	p := e.Resolve(context.Background(), Request{Query: "from the library to pulchowk library", AllowLLM: boolPtr(false)})
	assertInvariants(t, e, p)
	assert.NotEqual(t, models.ActionShowRoute, p.Action)
	assert.False(t, p.Verified)
	assert.Equal(t, models.IntentRouteNavigation, p.Intent)
}

func TestEngine_RouteFallsBackToNavigationBridge(t *testing.T) {
	provider := &stubProvider{reply: `{"message":"Walk in from the main gate.","action":"show_route","locations":[{"building_id":"main-gate","role":"start"},{"building_id":"cit-hall","role":"end"}]}`}
	e := newTestEngine(t, provider, nil)

	res := e.ResolveDetailed(context.Background(), Request{Query: "directions to the observatory"})
	assertInvariants(t, e, res.Payload)
	assert.Equal(t, "route", res.Stage)
	assert.Equal(t, models.ActionShowRoute, res.Payload.Action)
	assert.Equal(t, []string{"main-gate", "cit-hall"}, locationIDs(res.Payload))
	assert.Contains(t, res.Payload.Sources, "llm_navigation")
	assert.Equal(t, 1, provider.calls())
}

func TestEngine_RouteWithoutLLMUsesFallback(t *testing.T) {
	provider := &stubProvider{reply: `{}`}
	e := newTestEngine(t, provider, nil)

	res := e.ResolveDetailed(context.Background(), Request{Query: "directions to the observatory", AllowLLM: boolPtr(false)})
	assertInvariants(t, e, res.Payload)
	assert.Equal(t, "route", res.Stage)
	assert.False(t, res.Payload.Verified)
	assert.Equal(t, models.IntentRouteNavigation, res.Payload.Intent)
	assert.Zero(t, provider.calls())
}

func TestEngine_KnowledgeBaseLocation(t *testing.T) {
	provider := &stubProvider{err: stderrors.New("must not be called")}
	e := newTestEngine(t, provider, nil)

	for _, allow := range []bool{false, true} {
		res := e.ResolveDetailed(context.Background(), Request{Query: "where is the exam office", AllowLLM: boolPtr(allow)})
		p := res.Payload
		assertInvariants(t, e, p)
		assert.Equal(t, "knowledge_base", res.Stage)
		assert.Equal(t, models.ActionShowLocation, p.Action)
		assert.Equal(t, []string{"exam-office"}, locationIDs(p))
		assert.True(t, p.Verified)
		assert.Contains(t, p.Sources, "knowledge_base:kb-exam-office-location")
	}
	assert.Zero(t, provider.calls())
}

func TestEngine_KnowledgeBaseBelowThresholdFallsThrough(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	p := e.Resolve(context.Background(), Request{Query: "collect parcel", AllowLLM: boolPtr(false)})
	assertInvariants(t, e, p)
	for _, s := range p.Sources {
		assert.False(t, strings.HasPrefix(s, "knowledge_base:"), "unexpected KB source %q", s)
	}
}

func TestEngine_DirectLookup(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	tests := []struct {
		query   string
		id      string
		service string
	}{
		{"where is the atm", "admin-block", "ATM"},
		{"canteen", "campus-mess", ""},
		{"where is the library", "pulchowk-library", ""},
		{"find the main gate", "main-gate", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := e.ResolveDetailed(context.Background(), Request{Query: tt.query, AllowLLM: boolPtr(false)})
			p := res.Payload
			assertInvariants(t, e, p)
			assert.Equal(t, "direct_lookup", res.Stage)
			assert.Equal(t, models.ActionShowLocation, p.Action)
			assert.Equal(t, []string{tt.id}, locationIDs(p))
			assert.True(t, p.Verified)
			if tt.service != "" {
				require.NotNil(t, p.Locations[0].ServiceName)
				assert.Equal(t, tt.service, *p.Locations[0].ServiceName)
			} else {
				assert.Nil(t, p.Locations[0].ServiceName)
			}
		})
	}
}

func TestEngine_AppContextAnswer(t *testing.T) {
	provider := &stubProvider{reply: `{"message":"Two new notices: exam forms and a holiday."}`}
	ctxProvider := &stubContext{text: "Notices:\n- Exam form submission opens\n- Holiday on Friday"}
	e := newTestEngine(t, provider, ctxProvider)

	res := e.ResolveDetailed(context.Background(), Request{Query: "summarize the latest notices"})
	p := res.Payload
	assertInvariants(t, e, p)
	assert.Equal(t, "app_context", res.Stage)
	assert.Equal(t, models.IntentNoticeQuery, p.Intent)
	assert.Equal(t, models.ActionTextAnswer, p.Action)
	assert.Empty(t, p.Locations)
	assert.True(t, p.Verified)
	assert.Equal(t, []string{"notices"}, ctxProvider.topics)
}

func TestEngine_SupportFallback(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	res := e.ResolveDetailed(context.Background(), Request{Query: "how do I get a scholarship", AllowLLM: boolPtr(false)})
	p := res.Payload
	assertInvariants(t, e, p)
	assert.Equal(t, "support_fallback", res.Stage)
	assert.Equal(t, models.IntentProcessHowto, p.Intent)
	assert.False(t, p.Verified)
	assert.Equal(t, []string{"accounts-section"}, locationIDs(p))
}

func TestEngine_EntityRetry(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	res := e.ResolveDetailed(context.Background(), Request{Query: "tell me about the civil engineering block", AllowLLM: boolPtr(false)})
	assertInvariants(t, e, res.Payload)
	assert.Equal(t, "entity_retry", res.Stage)
	assert.Equal(t, []string{"civil-block"}, locationIDs(res.Payload))
	assert.Equal(t, models.IntentLocationLookup, res.Payload.Intent)
}

func TestEngine_AppHelpCatchAll(t *testing.T) {
	provider := &stubProvider{reply: `{"message":"I can show notices, events, clubs and campus locations."}`}
	ctxProvider := &stubContext{text: "App overview: notices, events, clubs"}
	e := newTestEngine(t, provider, ctxProvider)

	res := e.ResolveDetailed(context.Background(), Request{Query: "asdkjasd"})
	assertInvariants(t, e, res.Payload)
	assert.Equal(t, "app_help", res.Stage)
	assert.Equal(t, models.ActionTextAnswer, res.Payload.Action)
	assert.Contains(t, res.Payload.Sources, "app_context:help")
	// navigation retry first, then the help answer
	assert.Equal(t, 2, provider.calls())
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := newTestEngine(t, &stubProvider{reply: `{}`}, &stubContext{text: "x"})

	for _, q := range []string{"", "   ", "?!"} {
		res := e.ResolveDetailed(context.Background(), Request{Query: q})
		assertInvariants(t, e, res.Payload)
		assert.Equal(t, "blank", res.Stage)
		assert.False(t, res.Payload.Verified)
		assert.Equal(t, models.IntentUnknown, res.Payload.Intent)
	}
}

func TestEngine_GibberishReachesTerminalFallback(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	res := e.ResolveDetailed(context.Background(), Request{Query: "asdkjasd", AllowLLM: boolPtr(false)})
	p := res.Payload
	assertInvariants(t, e, p)
	assert.Equal(t, "fallback", res.Stage)
	assert.False(t, p.Verified)
	assert.NotEmpty(t, p.Message)
	assert.NotEmpty(t, p.Locations)
	assert.Equal(t, "admin-block", p.Locations[0].BuildingID)
}

func TestEngine_FailingCollaboratorsFallThrough(t *testing.T) {
	provider := &stubProvider{err: stderrors.New("upstream 502")}
	ctxProvider := &stubContext{err: stderrors.New("db down")}
	e := newTestEngine(t, provider, ctxProvider)

	res := e.ResolveDetailed(context.Background(), Request{Query: "asdkjasd"})
	assertInvariants(t, e, res.Payload)
	assert.Equal(t, "fallback", res.Stage)
	assert.False(t, res.Payload.Verified)
}

func TestEngine_SlowProviderTimesOut(t *testing.T) {
	e := newTestEngine(t, &stubProvider{block: true}, nil)

	started := time.Now()
	res := e.ResolveDetailed(context.Background(), Request{Query: "directions to the observatory"})
	assertInvariants(t, e, res.Payload)
	assert.False(t, res.Payload.Verified)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestEngine_PanicRecovered(t *testing.T) {
	e := newTestEngine(t, &stubProvider{panics: true}, nil)

	res := e.ResolveDetailed(context.Background(), Request{Query: "directions to the observatory"})
	assertInvariants(t, e, res.Payload)
	assert.Equal(t, "panic", res.Stage)
	assert.False(t, res.Payload.Verified)
}

func TestEngine_RequestCanDisableLLM(t *testing.T) {
	provider := &stubProvider{reply: `{}`}
	e := newTestEngine(t, provider, &stubContext{text: "x"})

	for _, q := range []string{"directions to the observatory", "summarize the latest notices", "asdkjasd"} {
		e.Resolve(context.Background(), Request{Query: q, AllowLLM: boolPtr(false)})
	}
	assert.Zero(t, provider.calls())
}

func TestEngine_DeterministicPathsAreIdempotent(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	queries := []string{
		"Show me directions from Pulchowk Library to Campus Mess",
		"where is the exam office",
		"how do I get a scholarship",
		"exam fee receipt",
		"library hours",
		"asdkjasd",
		"",
	}
	for _, q := range queries {
		first := e.Resolve(context.Background(), Request{Query: q, AllowLLM: boolPtr(false)})
		second := e.Resolve(context.Background(), Request{Query: q, AllowLLM: boolPtr(false)})
		assert.Equal(t, first.Action, second.Action, q)
		assert.Equal(t, first.Intent, second.Intent, q)
		assert.Equal(t, first.Locations, second.Locations, q)
	}
}

func TestEngine_NeverReturnsUnknownBuildingsForAdversarialModel(t *testing.T) {
	replies := []string{
		`{"action":"show_route","locations":[{"building_id":"narnia","role":"start"},{"building_id":"mordor","role":"end"}]}`,
		`{"action":"show_multiple_locations","locations":[{"building_id":"fake-1"},{"building_id":"main-gate"},{"building_id":"fake-2","building_name":"Hogwarts"}]}`,
		`{"action":"show_location","locations":[{"building_id":"../../etc/passwd"}]}`,
		`not json {"action": "show_route", "locations": [{"building_id": "x"}`,
		`{"message":{"nested":true},"locations":[{"building_id":123}]}`,
		`{"action":"text_answer","message":"Go to the Quantum Lab","locations":[]}`,
	}
	queries := []string{
		"directions to the observatory",
		"from narnia to mordor",
		"where can I print",
		"take me somewhere quiet to study",
		"asdkjasd",
	}

	for _, reply := range replies {
		e := newTestEngine(t, &stubProvider{reply: reply}, &stubContext{text: "App overview"})
		for _, q := range queries {
			p := e.Resolve(context.Background(), Request{Query: q})
			assertInvariants(t, e, p)
		}
	}
}

func TestEngine_InjectedCatalog(t *testing.T) {
	cat := &catalog.Catalog{
		Buildings: []models.Building{
			{ID: "hall-a", Name: "Hall A", Description: "lecture rooms"},
			{ID: "old-lab", Name: "Physics Lab", Description: "optics bench"},
		},
		Aliases: map[string]string{"the lab": "old-lab"},
		KnowledgeBase: models.KnowledgeBase{
			Fallbacks: map[string]models.FallbackEntry{"general": {Message: "Ask at Hall A.", LocationIDs: []string{"hall-a"}}},
		},
	}
	e := NewEngine(cat, testOptions(), nil, nil, nil)

	p := e.Resolve(context.Background(), Request{Query: "from hall a to the lab"})
	assertInvariants(t, e, p)
	assert.Equal(t, models.ActionShowRoute, p.Action)
	assert.Equal(t, []string{"hall-a", "old-lab"}, locationIDs(p))

	p = e.Resolve(context.Background(), Request{Query: "xyzzy"})
	assert.Equal(t, []string{"hall-a"}, locationIDs(p))
	assert.False(t, p.Verified)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(configWithScoring())
	assert.Equal(t, 20, opts.Weights.Confidence)
	assert.Equal(t, 6, opts.KB.Threshold)
	assert.Equal(t, 120, opts.Weights.Alias)
	assert.False(t, opts.AllowLLM)
	assert.Equal(t, 1500*time.Millisecond, opts.LLMTimeout)
	assert.Equal(t, 3, opts.DirectLookupLimit)
}

func TestEngine_KnowledgeBaseEntryWithoutLocations(t *testing.T) {
	cat := &catalog.Catalog{
		Buildings: []models.Building{{ID: "hall-a", Name: "Hall A", Description: "lecture rooms"}},
		KnowledgeBase: models.KnowledgeBase{
			Entries: []models.KnowledgeBaseEntry{{
				ID:               "kb-grading",
				Intent:           models.IntentPolicyQuery,
				QuestionPatterns: []string{"grading scheme"},
				Answer:           "Grades follow the semester scheme.",
				SourceType:       models.SourceOfficialPage,
			}},
		},
	}
	e := NewEngine(cat, testOptions(), nil, nil, nil)

	res := e.ResolveDetailed(context.Background(), Request{Query: "what is the grading scheme"})
	assertInvariants(t, e, res.Payload)
	assert.Equal(t, "knowledge_base", res.Stage)
	assert.Equal(t, models.ActionShowLocation, res.Payload.Action)
	assert.Empty(t, res.Payload.Locations)
	assert.True(t, res.Payload.Verified)
}

func TestLooksLikeLocationAsk(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"canteen", true},
		{"exam office", true},
		{"where can i print my assignment today", true},
		{"latest notices", false},
		{"marketplace", false},
		{"help", false},
		{"tell me about the civil engineering block", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeLocationAsk(Normalize(tt.query)))
		})
	}
}
