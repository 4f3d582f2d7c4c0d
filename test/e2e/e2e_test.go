// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-concierge/internal/catalog"
	"campus-concierge/internal/common/camunda"
	"campus-concierge/internal/common/config"
	"campus-concierge/internal/common/database"
	"campus-concierge/internal/common/logger"
	"campus-concierge/internal/concierge"
	"campus-concierge/internal/providers/appcontext"
	rcq "campus-concierge/internal/workers/concierge/resolve-campus-query"
	sac "campus-concierge/internal/workers/concierge/summarize-app-context"
)

// The suite needs live Zeebe, PostgreSQL, Elasticsearch and Redis
// (docker compose up). Set E2E=1 to run it.
func requireE2E(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("E2E") != "1" {
		t.Skip("set E2E=1 to run end-to-end tests against live services")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"
	cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	cfg.Camunda.BrokerAddress = "localhost:26500"
	return cfg
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		title TEXT NOT NULL, venue TEXT, starts_at TIMESTAMPTZ NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS clubs (
		name TEXT NOT NULL, description TEXT, updated_at TIMESTAMPTZ NOT NULL, is_active BOOLEAN NOT NULL DEFAULT true)`,
	`CREATE TABLE IF NOT EXISTS lost_found_items (
		item_name TEXT NOT NULL, status TEXT NOT NULL, last_seen_location TEXT, reported_at TIMESTAMPTZ NOT NULL,
		resolved BOOLEAN NOT NULL DEFAULT false)`,
	`CREATE TABLE IF NOT EXISTS marketplace_listings (
		title TEXT NOT NULL, price NUMERIC NOT NULL, status TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS notices (
		title TEXT NOT NULL, summary TEXT, published_at TIMESTAMPTZ NOT NULL, is_active BOOLEAN NOT NULL DEFAULT true)`,
}

func seedPostgres(t *testing.T, cfg *config.Config) *database.PostgresClient {
	t.Helper()
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	require.NoError(t, pg.Ping(context.Background()), "PostgreSQL ping failed")

	for _, stmt := range schema {
		_, err := pg.DB.Exec(stmt)
		require.NoError(t, err)
	}

	_, err = pg.DB.Exec(`INSERT INTO events (title, venue, starts_at) VALUES ($1, $2, $3)`,
		"E2E Robotics Expo", "CIT Hall", time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	_, err = pg.DB.Exec(`INSERT INTO clubs (name, description, updated_at) VALUES ($1, $2, $3)`,
		"E2E Robotics Club", "Builds rovers", time.Now())
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pg.DB.Exec(`DELETE FROM events WHERE title LIKE 'E2E %'`)
		_, _ = pg.DB.Exec(`DELETE FROM clubs WHERE name LIKE 'E2E %'`)
		pg.Close()
	})
	return pg
}

func seedElasticsearch(t *testing.T, cfg *config.Config) *database.ElasticsearchClient {
	t.Helper()
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, es.Ping(context.Background()), "Elasticsearch ping failed")

	body, _ := json.Marshal(map[string]interface{}{
		"title":        "E2E exam schedule published",
		"summary":      "Check the exam office board",
		"status":       "published",
		"published_at": time.Now().UTC().Format(time.RFC3339),
	})
	res, err := esapi.IndexRequest{
		Index:      cfg.AppContext.NoticeIndex,
		DocumentID: "e2e-notice",
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}.Do(context.Background(), es.Client)
	require.NoError(t, err)
	defer res.Body.Close()
	require.False(t, res.IsError(), res.String())
	return es
}

func buildSummarizer(t *testing.T, cfg *config.Config) *appcontext.Summarizer {
	t.Helper()
	pg := seedPostgres(t, cfg)
	es := seedElasticsearch(t, cfg)

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	require.NoError(t, rdb.Ping(context.Background()), "Redis ping failed")
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Client.Del(context.Background(), "concierge:context:events", "concierge:context:notices").Err())

	cfg.AppContext.Sources = map[string]string{
		appcontext.TopicNotices: "elasticsearch",
		appcontext.TopicEvents:  "postgres",
		appcontext.TopicClubs:   "postgres",
	}
	sources, err := appcontext.BuildSources(cfg.AppContext, pg.DB, es.Client)
	require.NoError(t, err)

	cache := appcontext.NewRedisCache(rdb.Client, time.Minute)
	return appcontext.NewSummarizer(cfg.AppContext, sources, cache, logger.NewTestLogger(t))
}

func TestSummarizer_LiveBackends(t *testing.T) {
	cfg := requireE2E(t)
	summarizer := buildSummarizer(t, cfg)

	text, err := summarizer.Summarize(context.Background(), appcontext.TopicEvents, appcontext.TopicNotices)
	require.NoError(t, err)
	assert.Contains(t, text, "E2E Robotics Expo")
	assert.Contains(t, text, "E2E exam schedule published")
}

func TestWorkers_ProcessRoundTrip(t *testing.T) {
	cfg := requireE2E(t)
	log := logger.NewTestLogger(t)
	summarizer := buildSummarizer(t, cfg)

	zeebe, err := camunda.NewClient(cfg.Camunda.BrokerAddress)
	require.NoError(t, err, "Zeebe connection failed")
	defer zeebe.Close()

	cat, err := catalog.Default()
	require.NoError(t, err)
	opts := concierge.DefaultOptions()
	opts.AllowLLM = false
	engine := concierge.NewEngine(cat, opts, nil, summarizer, log)

	resolveHandler, err := rcq.NewHandler(rcq.HandlerOptions{Camunda: zeebe, Resolver: engine, Logger: log})
	require.NoError(t, err)
	summarizeHandler, err := sac.NewHandler(sac.HandlerOptions{Camunda: zeebe, Summarizer: summarizer, Logger: log})
	require.NoError(t, err)

	require.NoError(t, resolveHandler.Register())
	defer resolveHandler.Close()
	require.NoError(t, summarizeHandler.Register())
	defer summarizeHandler.Close()

	bpmn, err := os.ReadFile("testdata/campus-concierge.bpmn")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := zeebe.GetClient()
	_, err = client.NewDeployResourceCommand().AddResource(bpmn, "campus-concierge.bpmn").Send(ctx)
	require.NoError(t, err)

	step, err := client.NewCreateInstanceCommand().
		BPMNProcessId("campus-concierge-e2e").
		LatestVersion().
		VariablesFromMap(map[string]interface{}{
			"query":  "where is the library",
			"topics": []string{"events", "help"},
		})
	require.NoError(t, err)

	result, err := step.WithResult().Send(ctx)
	require.NoError(t, err)

	var vars struct {
		Response struct {
			Action    string `json:"action"`
			Locations []struct {
				BuildingID string `json:"building_id"`
			} `json:"locations"`
		} `json:"response"`
		ResolutionID string   `json:"resolutionId"`
		Context      string   `json:"context"`
		Topics       []string `json:"topics"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.GetVariables()), &vars))

	assert.Equal(t, "show_location", vars.Response.Action)
	require.NotEmpty(t, vars.Response.Locations)
	assert.Equal(t, "pulchowk-library", vars.Response.Locations[0].BuildingID)
	assert.NotEmpty(t, vars.ResolutionID)
	assert.True(t, strings.Contains(vars.Context, "E2E Robotics Expo"), fmt.Sprintf("context: %s", vars.Context))
	assert.Equal(t, []string{"events", "help"}, vars.Topics)
}
