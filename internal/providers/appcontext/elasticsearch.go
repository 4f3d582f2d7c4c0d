package appcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/tidwall/gjson"

	"campus-concierge/internal/common/errors"
)

// ElasticsearchSource reads published notices from a single index.
// Documents carry title, summary and published_at fields.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSource(client *elasticsearch.Client, index string) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index}
}

func (s *ElasticsearchSource) Fetch(ctx context.Context, topic string, limit int) ([]Item, error) {
	if topic != TopicNotices {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("topic %s is not indexed", topic))
	}
	query := map[string]interface{}{
		"size": limit,
		"sort": []interface{}{
			map[string]interface{}{"published_at": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"status": "published"}},
				},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("search failed: %s", res.Status()))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("invalid search response"))
	}

	var items []Item
	gjson.GetBytes(raw, "hits.hits").ForEach(func(_, hit gjson.Result) bool {
		src := hit.Get("_source")
		item := Item{
			Title:  src.Get("title").String(),
			Detail: src.Get("summary").String(),
		}
		if ts := src.Get("published_at").String(); ts != "" {
			item.At, _ = time.Parse(time.RFC3339, ts)
		}
		if item.Title != "" {
			items = append(items, item)
		}
		return true
	})
	return items, nil
}
