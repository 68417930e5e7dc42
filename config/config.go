package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the content agent.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the OpenAI-compatible LLM settings.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ProvidersConfig contains credentials for the content/search providers.
type ProvidersConfig struct {
	Tavily  TavilyConfig  `mapstructure:"tavily"`
	YouTube YouTubeConfig `mapstructure:"youtube"`
	Reddit  RedditConfig  `mapstructure:"reddit"`
}

type TavilyConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type YouTubeConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RedditConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// StorageConfig contains database connection settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string from either the URL or the
// individual fields. Empty when postgres is not configured.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	if p.Host == "" || p.DBName == "" {
		return ""
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// WorkflowConfig contains the tunables of the content workflow. The viral
// thresholds are heuristics carried over from production and intentionally
// configurable rather than hard-coded.
type WorkflowConfig struct {
	TopicRetryLimit  int           `mapstructure:"topic_retry_limit"`
	URLsPerProvider  int           `mapstructure:"urls_per_provider"`
	TopTexts         int           `mapstructure:"top_texts"`
	ResearchLookback time.Duration `mapstructure:"research_lookback"`
	SourceRecency    time.Duration `mapstructure:"source_recency"`
	ForumMinScore    int           `mapstructure:"forum_min_score"`
	ForumMinComments int           `mapstructure:"forum_min_comments"`
	ProviderTimeout  time.Duration `mapstructure:"provider_timeout"`
	MaxSourceChars   int           `mapstructure:"max_source_chars"`
	ConversationTTL  time.Duration `mapstructure:"conversation_ttl"`
}

// LoadConfig reads configuration from config.json (searched in ./config and
// the working directory) plus POSTFORGE_* environment variables. A missing
// config file is fine; env and defaults cover everything.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	// Credentials default to empty so AutomaticEnv can fill them in; viper
	// only unmarshals keys it knows about.
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("providers.tavily.api_key", "")
	viper.SetDefault("providers.tavily.base_url", "https://api.tavily.com")
	viper.SetDefault("providers.youtube.api_key", "")
	viper.SetDefault("providers.reddit.base_url", "https://www.reddit.com")
	viper.SetDefault("providers.reddit.user_agent", "postforge/1.0")
	viper.SetDefault("storage.postgres.url", "")
	viper.SetDefault("storage.postgres.host", "")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.user", "")
	viper.SetDefault("storage.postgres.password", "")
	viper.SetDefault("storage.postgres.dbname", "")
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.redis.host", "")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("storage.redis.password", "")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.timeout", 5*time.Second)
	viper.SetDefault("workflow.topic_retry_limit", 2)
	viper.SetDefault("workflow.urls_per_provider", 2)
	viper.SetDefault("workflow.top_texts", 2)
	viper.SetDefault("workflow.research_lookback", 90*24*time.Hour)
	viper.SetDefault("workflow.source_recency", 30*24*time.Hour)
	viper.SetDefault("workflow.forum_min_score", 10)
	viper.SetDefault("workflow.forum_min_comments", 5)
	viper.SetDefault("workflow.provider_timeout", 30*time.Second)
	viper.SetDefault("workflow.max_source_chars", 24000)
	viper.SetDefault("workflow.conversation_ttl", 30*time.Minute)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("POSTFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}
