// Package appcontext turns live campus app data into grounding text for the
// concierge's app-wide answers.
package appcontext

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"campus-concierge/internal/common/config"
)

const (
	TopicNotices     = "notices"
	TopicEvents      = "events"
	TopicClubs       = "clubs"
	TopicLostFound   = "lost_found"
	TopicMarketplace = "marketplace"
	TopicHelp        = "help"
)

// DataTopics are the topics backed by a data source, in display order.
var DataTopics = []string{TopicNotices, TopicEvents, TopicClubs, TopicLostFound, TopicMarketplace}

var topicTitles = map[string]string{
	TopicNotices:     "Notices",
	TopicEvents:      "Events",
	TopicClubs:       "Clubs",
	TopicLostFound:   "Lost and found",
	TopicMarketplace: "Marketplace",
	TopicHelp:        "App help",
}

// ValidTopic reports whether topic can be requested from a Summarizer.
func ValidTopic(topic string) bool {
	_, ok := topicTitles[topic]
	return ok
}

// Item is one row of app data, already reduced to display text.
type Item struct {
	Title  string    `json:"title"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// Source fetches the latest items for a topic.
type Source interface {
	Fetch(ctx context.Context, topic string, limit int) ([]Item, error)
}

// BuildSources maps every data topic to the backend named in cfg.Sources.
// Topics without an entry use Postgres when a database handle is available.
func BuildSources(cfg config.AppContextConfig, db *sql.DB, es *elasticsearch.Client) (map[string]Source, error) {
	for topic := range cfg.Sources {
		if _, ok := topicQueries[topic]; !ok {
			return nil, fmt.Errorf("app_context.sources: unknown topic %q", topic)
		}
	}

	index := cfg.NoticeIndex
	if index == "" {
		index = "campus-notices"
	}

	sources := make(map[string]Source, len(DataTopics))
	for _, topic := range DataTopics {
		kind, ok := cfg.Sources[topic]
		if !ok {
			if db == nil {
				continue
			}
			kind = "postgres"
		}
		switch kind {
		case "postgres":
			if db == nil {
				return nil, fmt.Errorf("topic %s needs postgres but no database is configured", topic)
			}
			sources[topic] = NewPostgresSource(db)
		case "elasticsearch":
			if topic != TopicNotices {
				return nil, fmt.Errorf("topic %s: elasticsearch only serves %s", topic, TopicNotices)
			}
			if es == nil {
				return nil, fmt.Errorf("topic %s needs elasticsearch but no client is configured", topic)
			}
			sources[topic] = NewElasticsearchSource(es, index)
		default:
			return nil, fmt.Errorf("topic %s: unknown source %q", topic, kind)
		}
	}
	return sources, nil
}
