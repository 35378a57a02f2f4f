package std

import (
	"github.com/ilkoid/poncho-chat/pkg/config"
	"github.com/ilkoid/poncho-chat/pkg/s3storage"
	"github.com/ilkoid/poncho-chat/pkg/tools"
)

// NewCatalog возвращает каталог со всеми встроенными инструментами.
//
// Локаторы включают имена файлов старых конфигураций (tool-weather.py,
// tool-elastic-search.py): нормализация сводит их к "weather" и "elastic_search".
func NewCatalog() *tools.Catalog {
	c := tools.NewCatalog()

	c.Add(func(cfg config.ToolsConfig) (tools.Capability, error) {
		return NewWeatherTool(cfg.Weather)
	}, "weather", WeatherToolName)

	c.Add(func(cfg config.ToolsConfig) (tools.Capability, error) {
		return NewLogSearchTool(cfg.LogSearch)
	}, "elastic-search", "log-search", LogSearchToolName)

	c.Add(func(cfg config.ToolsConfig) (tools.Capability, error) {
		client, err := s3storage.New(cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		return NewObjectStoreTool(client, client.Bucket()), nil
	}, "object-store", "s3", ObjectStoreToolName)

	return c
}
