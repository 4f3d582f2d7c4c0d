package concierge

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"campus-concierge/internal/catalog"
	"campus-concierge/internal/common/config"
	"campus-concierge/internal/models"
)

// stubProvider returns canned model text and records every prompt.
type stubProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	panics  bool
	prompts []string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.panics {
		panic("provider exploded")
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func (s *stubProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type stubContext struct {
	text   string
	err    error
	topics []string
}

func (s *stubContext) Summarize(_ context.Context, topics ...string) (string, error) {
	s.topics = append(s.topics, topics...)
	return s.text, s.err
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func defaultIndex(t *testing.T) *Index {
	t.Helper()
	cat := defaultCatalog(t)
	return NewIndex(cat.Buildings, cat.Aliases)
}

func smallIndex() *Index {
	return NewIndex([]models.Building{
		{ID: "hall-a", Name: "Hall A", Description: "lecture rooms"},
		{ID: "old-lab", Name: "Physics Lab", Description: "optics bench",
			Services: []models.BuildingService{{Name: "Laser Room", Purpose: "experiments", Location: "Basement"}}},
	}, map[string]string{"the lab": "old-lab", "ghost hall": "missing-id"})
}

func locationIDs(p *models.ConciergeResponsePayload) []string {
	ids := make([]string, len(p.Locations))
	for i, l := range p.Locations {
		ids[i] = l.BuildingID
	}
	return ids
}

func boolPtr(b bool) *bool { return &b }

func configWithScoring() config.ConciergeConfig {
	return config.ConciergeConfig{
		AllowLLM:   boolPtr(false),
		LLMTimeout: 1500,
		Scoring: config.ScoringConfig{
			ConfidenceThreshold: 20,
			KBThreshold:         6,
		},
	}
}
