package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestLoad_Defaults проверяет что отсутствующие ключи получают дефолты.
func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "chat.yaml", `
endpoint_url: http://127.0.0.1:8000/v1
model_name: merlinite-7b
user_content: Hello AI Platform!
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIKey, cfg.APIKey)
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, 0.1, cfg.Temperature)
	assert.Equal(t, 100, cfg.MaxTokens)
	assert.Equal(t, 1, cfg.TopP)
	assert.Equal(t, 0, cfg.FrequencyPenalty)
	assert.Equal(t, 0, cfg.PresencePenalty)
	assert.False(t, cfg.TLSInsecure)
	assert.Empty(t, cfg.SystemContent)
}

// TestLoad_ExplicitZeroTemperature — явный 0 не заменяется дефолтом.
func TestLoad_ExplicitZeroTemperature(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "chat.yaml", `
endpoint_url: http://127.0.0.1:8000/v1
model_name: m
user_content: hi
temperature: 0
top_p: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Temperature)
	assert.Equal(t, 0, cfg.TopP)
}

// TestLoad_EnvFiles проверяет подстановку из .env файла и приоритет над окружением.
func TestLoad_EnvFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PONCHO_TEST_KEY", "from-process")
	t.Setenv("PONCHO_TEST_ES", "https://es.process:9200")

	envPath := writeFile(t, dir, ".env", "PONCHO_TEST_KEY=from-file\n")
	path := writeFile(t, dir, "chat.yaml", `
endpoint_url: http://127.0.0.1:8000/v1
model_name: m
user_content: hi
api_key: ${PONCHO_TEST_KEY}
tools:
  log_search:
    url: ${PONCHO_TEST_ES}
`)

	cfg, err := Load(path, WithEnvFiles(envPath))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "https://es.process:9200", cfg.Tools.LogSearch.URL)
	assert.Equal(t, "ocp-index", cfg.Tools.LogSearch.GetDefaults().Index)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load("", WithEnvFiles(filepath.Join(t.TempDir(), "nope.env")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env files")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

// TestLoad_Overrides — конфигурация без файла, только флаги.
func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load("", WithOverrides(func(c *AppConfig) {
		c.EndpointURL = "http://localhost:8000/v1"
		c.ModelName = "granite"
		c.UserContent = "What is the weather?"
		c.ToolModules = "tool-weather.py, elastic-search"
	}))
	require.NoError(t, err)

	locators, err := cfg.ToolLocators()
	require.NoError(t, err)
	assert.Equal(t, []string{"tool-weather.py", "elastic-search"}, locators)
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		c := Default()
		c.EndpointURL = "http://localhost/v1"
		c.ModelName = "m"
		c.UserContent = "u"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "missing endpoint", mutate: func(c *AppConfig) { c.EndpointURL = " " }, wantErr: "endpoint_url"},
		{name: "missing model", mutate: func(c *AppConfig) { c.ModelName = "" }, wantErr: "model_name"},
		{name: "missing user content", mutate: func(c *AppConfig) { c.UserContent = "" }, wantErr: "user_content"},
		{name: "zero timeout", mutate: func(c *AppConfig) { c.Timeout = 0 }, wantErr: "timeout"},
		{name: "negative max tokens", mutate: func(c *AppConfig) { c.MaxTokens = -1 }, wantErr: "max_tokens"},
		{name: "empty tool entry", mutate: func(c *AppConfig) { c.ToolModules = "weather,,elastic" }, wantErr: "position 2"},
		{name: "bad weather timeout", mutate: func(c *AppConfig) { c.Tools.Weather.Timeout = "soon" }, wantErr: "tools.weather.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWeatherConfig_GetDefaults(t *testing.T) {
	got := WeatherConfig{RateLimit: 10}.GetDefaults()
	assert.Equal(t, "https://api.open-meteo.com", got.BaseURL)
	assert.Equal(t, 10, got.RateLimit)
	assert.Equal(t, 1, got.BurstLimit)
	assert.Equal(t, "10s", got.Timeout)
}

// TestLoad_ExampleFile — пример из корня репозитория остаётся валидным.
func TestLoad_ExampleFile(t *testing.T) {
	t.Setenv("CHAT_API_KEY", "sk-test")

	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "merlinite-7b", cfg.ModelName)
	assert.Equal(t, "archive", cfg.Tools.ObjectStore.Bucket)

	locators, err := cfg.ToolLocators()
	require.NoError(t, err)
	assert.Equal(t, []string{"tool-weather.py"}, locators)
}

// TestLoad_DollarLiterals — подставляется только ${VAR}, остальные "$" остаются как есть.
func TestLoad_DollarLiterals(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PONCHO_TEST_MODEL", "granite")
	path := writeFile(t, dir, "chat.yaml", `
endpoint_url: http://127.0.0.1:8000/v1
model_name: ${PONCHO_TEST_MODEL}
user_content: "Is a $5 umbrella worth it? Ask $USERNAME_NOT_SET"
system_content: "Prices in $USD, literal ${} and $$"
tls_client_passwd: "pa$$word"
api_key: "sk-$abc"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "granite", cfg.ModelName)
	assert.Equal(t, "Is a $5 umbrella worth it? Ask $USERNAME_NOT_SET", cfg.UserContent)
	assert.Equal(t, "Prices in $USD, literal ${} and $$", cfg.SystemContent)
	assert.Equal(t, "pa$$word", cfg.TLSClientPasswd)
	assert.Equal(t, "sk-$abc", cfg.APIKey)
}

func TestParse_UnsetVariableIsEmpty(t *testing.T) {
	cfg := Default()
	err := Parse([]byte("system_content: \"x${PONCHO_SURELY_UNSET_VAR}y\"\n"), map[string]string{}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "xy", cfg.SystemContent)
}
