package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, "llm:\n  model: gpt-4.1-nano\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "openai", cfg.LLM.Provider)
	require.Equal(t, 5, cfg.History.Capacity)
	require.Equal(t, "memory", cfg.History.Store)
	require.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	require.Equal(t, 5000, cfg.Server.Port)
	require.Contains(t, cfg.Keywords.Schedule, "排程")
	require.Contains(t, cfg.Keywords.Consumable, "消耗品")
	require.Equal(t, 30*time.Second, cfg.LLMTimeout())
	require.Equal(t, 10*time.Second, cfg.BackendTimeout())
	require.Equal(t, time.Hour, cfg.HistoryTTL())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: ollama
  model: qwen3
  base_url: http://localhost:11434
history:
  store: redis
  capacity: 10
  ttl_seconds: 120
server:
  port: 8080
keywords:
  schedule: ["行程"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "ollama", cfg.LLM.Provider)
	require.Equal(t, "redis", cfg.History.Store)
	require.Equal(t, 10, cfg.History.Capacity)
	require.Equal(t, 2*time.Minute, cfg.HistoryTTL())
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, []string{"行程"}, cfg.Keywords.Schedule)
	// consumable list untouched, so it keeps its defaults
	require.Contains(t, cfg.Keywords.Consumable, "庫存")
}

func TestLoadAppliesEnvironmentSecrets(t *testing.T) {
	t.Setenv("CHATGPT_API_KEY", "sk-test")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "line-token")
	t.Setenv("BACKEND_API_URL", "http://backend:9000")

	cfg, err := Load(writeConfig(t, "server:\n  port: 5000\n"))
	require.NoError(t, err)

	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.Equal(t, "line-token", cfg.Line.ChannelAccessToken)
	require.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "error reading config file")
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "llm: [unclosed"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "error parsing YAML")
}
