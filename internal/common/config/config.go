// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	APIs       APIsConfig              `mapstructure:"apis"`
	Concierge  ConciergeConfig         `mapstructure:"concierge"`
	AppContext AppContextConfig        `mapstructure:"app_context"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPAddr    string `mapstructure:"http_addr"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI GenAIConfig `mapstructure:"genai"`
}

// GenAIConfig selects and configures the text completion provider.
// Provider is "http" (generic GenAI service), "openai" or "" (disabled).
type GenAIConfig struct {
	Provider      string  `mapstructure:"provider"`
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	Timeout       int     `mapstructure:"timeout"` // milliseconds
	MaxTokens     int     `mapstructure:"max_tokens"`
	Temperature   float32 `mapstructure:"temperature"`
	RatePerMinute int     `mapstructure:"rate_per_minute"`
}

type ConciergeConfig struct {
	BuildingsPath     string        `mapstructure:"buildings_path"`
	AliasesPath       string        `mapstructure:"aliases_path"`
	KnowledgeBasePath string        `mapstructure:"knowledge_base_path"`
	AllowLLM          *bool         `mapstructure:"allow_llm"`
	LLMTimeout        int           `mapstructure:"llm_timeout"`     // milliseconds
	ContextTimeout    int           `mapstructure:"context_timeout"` // milliseconds
	DirectLookupLimit int           `mapstructure:"direct_lookup_limit"`
	Scoring           ScoringConfig `mapstructure:"scoring"`
}

// LLMAllowed reports the default for requests that do not set allowLlm.
func (c ConciergeConfig) LLMAllowed() bool {
	return c.AllowLLM == nil || *c.AllowLLM
}

// ScoringConfig overrides resolver weights; zero keeps the built-in value.
type ScoringConfig struct {
	AliasScore          int `mapstructure:"alias_score"`
	ExactScore          int `mapstructure:"exact_score"`
	ContainsScore       int `mapstructure:"contains_score"`
	NameTokenScore      int `mapstructure:"name_token_score"`
	IDTokenScore        int `mapstructure:"id_token_score"`
	TextTokenScore      int `mapstructure:"text_token_score"`
	ConfidenceThreshold int `mapstructure:"confidence_threshold"`
	KBPatternScore      int `mapstructure:"kb_pattern_score"`
	KBKeywordScore      int `mapstructure:"kb_keyword_score"`
	KBThreshold         int `mapstructure:"kb_threshold"`
}

// AppContextConfig drives the live app summarizer.
type AppContextConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	CacheTTL    int               `mapstructure:"cache_ttl"` // milliseconds
	MaxItems    int               `mapstructure:"max_items"`
	Concurrency int               `mapstructure:"concurrency"`
	Sources     map[string]string `mapstructure:"sources"` // topic -> postgres|elasticsearch
	NoticeIndex string            `mapstructure:"notice_index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
