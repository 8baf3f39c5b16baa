package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full assistant configuration, loaded from config.yaml with
// secrets supplied through the environment.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	History  HistoryConfig  `yaml:"history"`
	Backend  BackendConfig  `yaml:"backend"`
	Keywords KeywordConfig  `yaml:"keywords"`
	Line     LineConfig     `yaml:"line"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

// LLMConfig selects and tunes the chat model used by the intent classifier.
type LLMConfig struct {
	Provider       string  `yaml:"provider"` // openai, ollama, ark, deepseek
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	APIKey         string  `yaml:"-"` // from CHATGPT_API_KEY, never the file
}

// HistoryConfig picks the conversation history store and its bounds.
type HistoryConfig struct {
	Store      string `yaml:"store"` // memory or redis
	Capacity   int    `yaml:"capacity"`
	TTLSeconds int    `yaml:"ttl_seconds"` // redis store only
}

// BackendConfig points at the CRUD REST collaborator.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// KeywordConfig holds the synonym lists that decide whether backend context
// is pre-fetched before classification. Heuristic, not a correctness gate.
type KeywordConfig struct {
	Schedule   []string `yaml:"schedule"`
	Consumable []string `yaml:"consumable"`
}

// LineConfig carries the channel credentials.
type LineConfig struct {
	ChannelAccessToken string `yaml:"-"` // from LINE_CHANNEL_ACCESS_TOKEN
	ReplyURL           string `yaml:"reply_url"`
}

// LogConfig mirrors the zerolog setup knobs.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or console
	Output     string `yaml:"output"` // stdout, stderr, file
	FilePath   string `yaml:"file_path"`
	TimeFormat string `yaml:"time_format"`
}

// ServerConfig is the HTTP front door.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Load reads the YAML file, fills defaults, and overlays environment values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4.1-nano"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 300
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.History.Store == "" {
		c.History.Store = "memory"
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = 5
	}
	if c.History.TTLSeconds == 0 {
		c.History.TTLSeconds = 3600
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if len(c.Keywords.Schedule) == 0 {
		c.Keywords.Schedule = []string{
			"schedule", "appointment", "reminder", "time",
			"排程", "行程", "提醒", "時間", "預約", "會議",
		}
	}
	if len(c.Keywords.Consumable) == 0 {
		c.Keywords.Consumable = []string{
			"supply", "consumable", "inventory", "stock",
			"消耗品", "庫存", "用品", "補給", "耗材",
		}
	}
	if c.Line.ReplyURL == "" {
		c.Line.ReplyURL = "https://api.line.me/v2/bot/message/reply"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
}

func (c *Config) applyEnv() {
	c.LLM.APIKey = os.Getenv("CHATGPT_API_KEY")
	c.Line.ChannelAccessToken = os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")
	if url := os.Getenv("BACKEND_API_URL"); url != "" {
		c.Backend.BaseURL = url
	}
}

// LLMTimeout returns the classifier request timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// BackendTimeout returns the CRUD client timeout as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// HistoryTTL returns the redis history eviction TTL as a duration.
func (c *Config) HistoryTTL() time.Duration {
	return time.Duration(c.History.TTLSeconds) * time.Second
}
