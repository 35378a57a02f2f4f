package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-chat/pkg/config"
)

func stubFactory(name, addendum string) Factory {
	return func(config.ToolsConfig) (Capability, error) {
		return &stubTool{name: name, addendum: addendum}, nil
	}
}

func TestNormalizeLocator(t *testing.T) {
	tests := map[string]string{
		"weather":                        "weather",
		"tool-weather.py":                "weather",
		"library/tool-weather.py":        "weather",
		" tool-elastic-search.py ":       "elastic_search",
		"Count_Log_Entries":              "count_log_entries",
		"/opt/tools/tool_object-store.go": "object_store",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLocator(in), in)
	}
}

func TestCatalog_Load(t *testing.T) {
	c := NewCatalog()
	c.Add(stubFactory("get_weather", "Use weather."), "weather", "get_weather")
	c.Add(stubFactory("count_log_entries", "Use logs."), "elastic-search", "count_log_entries")

	var notices Notices
	r, err := c.Load([]string{"tool-weather.py", "tool-elastic-search.py"}, config.ToolsConfig{}, &notices)
	require.NoError(t, err)

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "get_weather", defs[0].Name)
	assert.Equal(t, "count_log_entries", defs[1].Name)

	items := notices.Items()
	require.Len(t, items, 2)
	assert.Contains(t, items[0], "get_weather")
}

func TestCatalog_LoadEmpty(t *testing.T) {
	r, err := NewCatalog().Load(nil, config.ToolsConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestCatalog_LoadErrors(t *testing.T) {
	c := NewCatalog()
	c.Add(stubFactory("get_weather", ""), "weather", "get_weather")
	c.Add(func(config.ToolsConfig) (Capability, error) {
		return nil, errors.New("log_search.url is required")
	}, "elastic-search")
	c.Add(func(config.ToolsConfig) (Capability, error) {
		return &stubTool{name: "broken", params: JSONSchema{"type": "string"}}, nil
	}, "broken")

	tests := []struct {
		name     string
		locators []string
		contains string
	}{
		{name: "unknown locator", locators: []string{"tool-stocks.py"}, contains: "tool-stocks.py"},
		{name: "factory failure", locators: []string{"elastic-search"}, contains: "log_search.url"},
		{name: "invalid definition", locators: []string{"broken"}, contains: "must be 'object'"},
		{name: "duplicate name", locators: []string{"weather", "get_weather"}, contains: "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := c.Load(tt.locators, config.ToolsConfig{}, nil)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, errors.Is(err, ErrLoad))

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
