package appcontext

import (
	"context"
	"database/sql"

	"campus-concierge/internal/common/errors"
)

// Every query returns (title, detail, timestamp) and takes the row limit as $1.
var topicQueries = map[string]string{
	TopicNotices: `SELECT title, summary, published_at FROM notices
		WHERE is_active = true ORDER BY published_at DESC LIMIT $1`,
	TopicEvents: `SELECT title, venue, starts_at FROM events
		WHERE starts_at >= NOW() ORDER BY starts_at ASC LIMIT $1`,
	TopicClubs: `SELECT name, description, updated_at FROM clubs
		WHERE is_active = true ORDER BY updated_at DESC LIMIT $1`,
	TopicLostFound: `SELECT item_name, status || ' near ' || last_seen_location, reported_at FROM lost_found_items
		WHERE resolved = false ORDER BY reported_at DESC LIMIT $1`,
	TopicMarketplace: `SELECT title, 'NPR ' || price::text, created_at FROM marketplace_listings
		WHERE status = 'available' ORDER BY created_at DESC LIMIT $1`,
}

type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Fetch(ctx context.Context, topic string, limit int) ([]Item, error) {
	query, ok := topicQueries[topic]
	if !ok {
		return nil, errors.NewUnknownTopicError(topic)
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError(topic, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item   Item
			detail sql.NullString
			at     sql.NullTime
		)
		if err := rows.Scan(&item.Title, &detail, &at); err != nil {
			return nil, errors.NewDatabaseQueryFailedError(topic, err)
		}
		item.Detail = detail.String
		item.At = at.Time
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError(topic, err)
	}
	return items, nil
}
