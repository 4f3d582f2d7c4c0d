package appcontext

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/errors"
	"campus-concierge/internal/common/logger"
	"campus-concierge/internal/common/metrics"
)

// ErrNoGrounding is returned when none of the requested topics produced text.
var ErrNoGrounding = stderrors.New("no grounding text available")

const overview = "App help: this campus app lists official notices, upcoming events, student clubs, " +
	"lost and found reports and a second-hand marketplace. You can also ask where any campus " +
	"building or office is, or for directions between two buildings."

type Summarizer struct {
	sources     map[string]Source
	cache       *RedisCache
	maxItems    int
	concurrency int
	logger      logger.Logger
}

// NewSummarizer wires one source per topic. cache may be nil.
func NewSummarizer(cfg config.AppContextConfig, sources map[string]Source, cache *RedisCache, log logger.Logger) *Summarizer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Summarizer{
		sources:     sources,
		cache:       cache,
		maxItems:    cfg.MaxItems,
		concurrency: cfg.Concurrency,
		logger:      log.With(map[string]interface{}{"component": "appcontext"}),
	}
	if s.maxItems <= 0 {
		s.maxItems = 5
	}
	if s.concurrency <= 0 {
		s.concurrency = 3
	}
	return s
}

// expand resolves "help" into the overview plus every data topic and drops duplicates.
func expand(topics []string) []string {
	out := make([]string, 0, len(topics)+len(DataTopics))
	seen := make(map[string]bool)
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == TopicHelp {
			add(TopicHelp)
			for _, d := range DataTopics {
				add(d)
			}
			continue
		}
		add(t)
	}
	return out
}

// Summarize returns grounding text for the requested topics in request order.
// A failing topic becomes an inline placeholder; only a total failure is an error.
func (s *Summarizer) Summarize(ctx context.Context, topics ...string) (string, error) {
	topics = expand(topics)
	if len(topics) == 0 {
		return "", fmt.Errorf("%w: %w", ErrNoGrounding, errors.NewAppContextUnavailableError(topics))
	}

	sections := make([]string, len(topics))
	failed := make([]bool, len(topics))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, topic := range topics {
		g.Go(func() error {
			text, err := s.summarizeTopic(ctx, topic)
			if err != nil {
				s.logger.Warn("Topic summary unavailable", map[string]interface{}{
					"topic": topic,
					"error": err.Error(),
				})
				failed[i] = true
				text = placeholder(topic)
			}
			sections[i] = text
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, f := range failed {
		if !f {
			ok++
		}
	}
	if ok == 0 {
		return "", fmt.Errorf("%w: %w", ErrNoGrounding, errors.NewAppContextUnavailableError(topics))
	}
	return strings.Join(sections, "\n\n"), nil
}

func placeholder(topic string) string {
	return title(topic) + ": information is temporarily unavailable."
}

func title(topic string) string {
	if t, ok := topicTitles[topic]; ok {
		return t
	}
	return topic
}

func (s *Summarizer) summarizeTopic(ctx context.Context, topic string) (string, error) {
	if topic == TopicHelp {
		return overview, nil
	}
	if !ValidTopic(topic) {
		metrics.RecordTopicFetch(topic, "unknown")
		return "", errors.NewUnknownTopicError(topic)
	}

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, topic)
		if err != nil {
			s.logger.Warn("Context cache read failed", map[string]interface{}{"topic": topic, "error": err.Error()})
		} else if hit {
			metrics.RecordTopicFetch(topic, "cache_hit")
			return cached, nil
		}
	}

	src, ok := s.sources[topic]
	if !ok {
		metrics.RecordTopicFetch(topic, "no_source")
		return "", errors.NewTopicFetchFailedError(topic, fmt.Errorf("no source configured"))
	}

	items, err := src.Fetch(ctx, topic, s.maxItems)
	if err != nil {
		metrics.RecordTopicFetch(topic, "error")
		return "", errors.NewTopicFetchFailedError(topic, err)
	}
	metrics.RecordTopicFetch(topic, "ok")

	text := format(topic, items)
	if s.cache != nil {
		if err := s.cache.Set(ctx, topic, text); err != nil {
			s.logger.Warn("Context cache write failed", map[string]interface{}{"topic": topic, "error": err.Error()})
		}
	}
	return text, nil
}

func format(topic string, items []Item) string {
	if len(items) == 0 {
		return title(topic) + ": nothing posted right now."
	}
	var sb strings.Builder
	sb.WriteString(title(topic) + ":")
	for _, it := range items {
		sb.WriteString("\n- " + it.Title)
		if it.Detail != "" {
			sb.WriteString(": " + it.Detail)
		}
		if !it.At.IsZero() {
			sb.WriteString(" (" + it.At.UTC().Format(time.DateOnly) + ")")
		}
	}
	return sb.String()
}
