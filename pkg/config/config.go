// Package config загружает параметры одного вызова poncho-chat из YAML.
//
// Ключи верхнего уровня повторяют поверхность вызова (endpoint_url, model_name,
// user_content, ...). Секция tools содержит явную конфигурацию встроенных
// инструментов: инструменты не читают переменные окружения сами.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Дефолты поверхности вызова.
const (
	DefaultAPIKey      = "api_key"
	DefaultTimeout     = 30
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 100
	DefaultTopP        = 1
)

// AppConfig — корневая структура конфигурации.
type AppConfig struct {
	EndpointURL   string `yaml:"endpoint_url"`
	ModelName     string `yaml:"model_name"`
	UserContent   string `yaml:"user_content"`
	SystemContent string `yaml:"system_content"`
	APIKey        string `yaml:"api_key"`
	Timeout       int    `yaml:"timeout"` // секунды

	TLSInsecure     bool   `yaml:"tls_insecure"`
	TLSClientCert   string `yaml:"tls_client_cert"`
	TLSClientKey    string `yaml:"tls_client_key"`
	TLSClientPasswd string `yaml:"tls_client_passwd"`

	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	TopP             int     `yaml:"top_p"`
	FrequencyPenalty int     `yaml:"frequency_penalty"`
	PresencePenalty  int     `yaml:"presence_penalty"`

	// ToolModules — список локаторов инструментов через запятую.
	ToolModules string `yaml:"tool_modules"`

	Tools ToolsConfig `yaml:"tools"`
	App   AppSpecific `yaml:"app"`
}

// ToolsConfig — явные настройки встроенных инструментов.
type ToolsConfig struct {
	Weather     WeatherConfig   `yaml:"weather"`
	LogSearch   LogSearchConfig `yaml:"log_search"`
	ObjectStore S3Config        `yaml:"object_store"`
}

// WeatherConfig — настройки инструмента get_weather.
type WeatherConfig struct {
	BaseURL    string `yaml:"base_url"`
	RateLimit  int    `yaml:"rate_limit"`  // Запросов в минуту
	BurstLimit int    `yaml:"burst_limit"` // Burst для rate limiter
	Timeout    string `yaml:"timeout"`     // Например "10s"
}

// GetDefaults возвращает копию с заполненными дефолтами.
func (c WeatherConfig) GetDefaults() WeatherConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.open-meteo.com"
	}
	if c.RateLimit == 0 {
		c.RateLimit = 60
	}
	if c.BurstLimit == 0 {
		c.BurstLimit = 1
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	return c
}

// LogSearchConfig — настройки инструмента count_log_entries (Elasticsearch).
type LogSearchConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Index       string `yaml:"index"`
	TLSInsecure bool   `yaml:"tls_insecure"`
}

// GetDefaults возвращает копию с заполненными дефолтами.
func (c LogSearchConfig) GetDefaults() LogSearchConfig {
	if c.Index == "" {
		c.Index = "ocp-index"
	}
	return c
}

// S3Config — настройки объектного хранилища для count_bucket_objects.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug   bool   `yaml:"debug"`
	LogFile string `yaml:"log_file"`
	Trace   bool   `yaml:"trace"`

	// IncludeAssistantTurn добавляет assistant-сообщение с tool calls перед
	// результатами инструментов (нужно строгим OpenAI-серверам).
	IncludeAssistantTurn bool `yaml:"include_assistant_turn"`
}

// Default возвращает конфигурацию с дефолтами поверхности вызова.
func Default() AppConfig {
	return AppConfig{
		APIKey:      DefaultAPIKey,
		Timeout:     DefaultTimeout,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
	}
}

type loadOptions struct {
	envFiles  []string
	overrides []func(*AppConfig)
}

// LoadOption — функциональная опция для Load.
type LoadOption func(*loadOptions)

// WithEnvFiles задаёт .env файлы для подстановки ${VAR}.
// Значения из файлов имеют приоритет над окружением процесса.
func WithEnvFiles(files ...string) LoadOption {
	return func(o *loadOptions) {
		o.envFiles = append(o.envFiles, files...)
	}
}

// WithOverrides применяет fn после парсинга и до валидации (флаги CLI).
func WithOverrides(fn func(*AppConfig)) LoadOption {
	return func(o *loadOptions) {
		o.overrides = append(o.overrides, fn)
	}
}

// Load читает YAML файл, подставляет переменные и возвращает готовую структуру.
//
// Пустой path допустим: тогда конфигурация собирается из дефолтов и overrides.
// Ключи, отсутствующие в файле, сохраняют дефолты (в том числе явный 0
// для temperature отличается от отсутствующего ключа).
func Load(path string, opts ...LoadOption) (*AppConfig, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	env := map[string]string{}
	if len(o.envFiles) > 0 {
		var err error
		env, err = godotenv.Read(o.envFiles...)
		if err != nil {
			return nil, fmt.Errorf("failed to read env files: %w", err)
		}
	}

	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at: %s", path)
		}

		rawBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := Parse(rawBytes, env, &cfg); err != nil {
			return nil, err
		}
	}

	for _, fn := range o.overrides {
		fn(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envRef — только форма ${VAR}. Остальные "$" в промптах и паролях не трогаются.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Parse подставляет ${VAR} (сначала из env, затем из окружения процесса)
// и накладывает YAML поверх cfg.
func Parse(raw []byte, env map[string]string, cfg *AppConfig) error {
	expanded := envRef.ReplaceAllStringFunc(string(raw), func(ref string) string {
		key := envRef.FindStringSubmatch(ref)[1]
		if v, ok := env[key]; ok {
			return v
		}
		return os.Getenv(key)
	})

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	return nil
}

// Validate проверяет обязательные поля и диапазоны.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.EndpointURL) == "" {
		return fmt.Errorf("endpoint_url is required")
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("model_name is required")
	}
	if c.UserContent == "" {
		return fmt.Errorf("user_content is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", c.MaxTokens)
	}
	if _, err := c.ToolLocators(); err != nil {
		return err
	}
	if c.Tools.Weather.Timeout != "" {
		if _, err := time.ParseDuration(c.Tools.Weather.Timeout); err != nil {
			return fmt.Errorf("tools.weather.timeout: %w", err)
		}
	}
	return nil
}

// ToolLocators разбирает tool_modules в упорядоченный список локаторов.
func (c *AppConfig) ToolLocators() ([]string, error) {
	if strings.TrimSpace(c.ToolModules) == "" {
		return nil, nil
	}

	parts := strings.Split(c.ToolModules, ",")
	locators := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("tool_modules: empty entry at position %d", i+1)
		}
		locators = append(locators, p)
	}
	return locators, nil
}

// TimeoutDuration возвращает timeout как time.Duration.
func (c *AppConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
