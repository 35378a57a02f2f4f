package std

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilkoid/poncho-chat/pkg/config"
	"github.com/ilkoid/poncho-chat/pkg/tools"
	"github.com/ilkoid/poncho-chat/pkg/transport"
)

// WeatherToolName — имя инструмента в Function Calling.
const WeatherToolName = "get_weather"

// HTTPClient интерфейс для выполнения HTTP запросов.
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WeatherTool возвращает текущую температуру (open-meteo.com) в градусах Фаренгейта.
type WeatherTool struct {
	baseURL    string
	httpClient HTTPClient
	limiter    *rate.Limiter
}

var _ tools.Capability = (*WeatherTool)(nil)

// NewWeatherTool создаёт инструмент get_weather.
//
// rate_limit задаётся в запросах в минуту и защищает публичный API
// от серии одинаковых tool calls в одном ответе модели.
func NewWeatherTool(cfg config.WeatherConfig) (*WeatherTool, error) {
	cfg = cfg.GetDefaults()

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("tools.weather.timeout: %w", err)
	}

	return &WeatherTool{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: transport.NewHTTPClient(transport.Options{
			Timeout: timeout,
			TLS:     transport.NewTLSConfig(false, "", "", ""),
		}),
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60.0), cfg.BurstLimit),
	}, nil
}

// Definition возвращает определение инструмента для function calling.
func (t *WeatherTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        WeatherToolName,
		Description: "Get current temperature for provided coordinates in fahrenheit.",
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"latitude":  map[string]any{"type": "number"},
				"longitude": map[string]any{"type": "number"},
			},
			"required":             []string{"latitude", "longitude"},
			"additionalProperties": false,
		},
		Strict: true,
	}
}

// PromptAddendum подсказывает модели использовать инструмент для погоды.
func (t *WeatherTool) PromptAddendum() string {
	return "Always use the " + WeatherToolName + " tool to get the current temperature for a set of coordinates."
}

// Invoke запрашивает текущую температуру для координат.
func (t *WeatherTool) Invoke(ctx context.Context, args map[string]any, notices tools.Notifier) (any, error) {
	latitude, err := numberArg(args, "latitude")
	if err != nil {
		return nil, err
	}
	longitude, err := numberArg(args, "longitude")
	if err != nil {
		return nil, err
	}

	notices.Notify("Tool Inputs: %v, %v", latitude, longitude)

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	temperature, err := t.fetchTemperature(ctx, latitude, longitude)
	if err != nil {
		return nil, err
	}

	notices.Notify("Tool Result: %v", temperature)

	return strconv.FormatFloat(temperature, 'f', -1, 64) + " degrees fahrenheit", nil
}

func (t *WeatherTool) fetchTemperature(ctx context.Context, latitude, longitude float64) (float64, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m")
	q.Set("hourly", "temperature_2m")
	q.Set("temperature_unit", "fahrenheit")
	q.Set("wind_speed_unit", "mph")
	q.Set("precipitation_unit", "inch")
	q.Set("forecast_days", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("weather api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Current *struct {
			Temperature2m *float64 `json:"temperature_2m"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode weather response: %w", err)
	}
	if payload.Current == nil || payload.Current.Temperature2m == nil {
		return 0, fmt.Errorf("weather response has no current.temperature_2m")
	}

	return *payload.Current.Temperature2m, nil
}
