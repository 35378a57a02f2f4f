package tools

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ilkoid/poncho-chat/pkg/config"
	"github.com/ilkoid/poncho-chat/pkg/utils"
)

// Factory создаёт инструмент из его явной конфигурации.
type Factory func(cfg config.ToolsConfig) (Capability, error)

// Catalog — таблица "локатор → фабрика", заполняемая при старте.
//
// Инструменты не загружаются из файлов во время выполнения: локатор
// (имя, путь или имя файла из старых конфигураций) только выбирает фабрику.
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog создаёт пустой каталог.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Add регистрирует фабрику под одним или несколькими локаторами.
func (c *Catalog) Add(f Factory, locators ...string) {
	for _, l := range locators {
		c.factories[NormalizeLocator(l)] = f
	}
}

// Resolve возвращает фабрику для локатора.
func (c *Catalog) Resolve(locator string) (Factory, bool) {
	f, ok := c.factories[NormalizeLocator(locator)]
	return f, ok
}

// Load создаёт инструменты по списку локаторов и регистрирует их в новом реестре.
//
// Любая проблема (неизвестный локатор, ошибка фабрики, невалидное определение,
// повтор имени) возвращается как *LoadError; частичный реестр не возвращается.
func (c *Catalog) Load(locators []string, cfg config.ToolsConfig, notices Notifier) (*Registry, error) {
	registry := NewRegistry()

	for _, locator := range locators {
		factory, ok := c.Resolve(locator)
		if !ok {
			return nil, &LoadError{Locator: locator, Err: fmt.Errorf("no tool registered under this name")}
		}

		capability, err := factory(cfg)
		if err != nil {
			return nil, &LoadError{Locator: locator, Err: err}
		}
		if capability == nil {
			return nil, &LoadError{Locator: locator, Err: fmt.Errorf("factory returned no tool")}
		}

		if err := registry.Register(capability); err != nil {
			return nil, &LoadError{Locator: locator, Err: err}
		}

		name := capability.Definition().Name
		utils.Debug("Tool loaded", "locator", locator, "tool", name)
		if notices != nil {
			notices.Notify("Tool activated: %s (from %s)", name, locator)
		}
	}

	return registry, nil
}

// NormalizeLocator приводит локатор к ключу каталога.
//
// Отбрасывает каталог и расширение, префикс "tool-", переводит в нижний
// регистр и заменяет "-" на "_": "library/tool-weather.py" → "weather".
func NormalizeLocator(locator string) string {
	s := strings.TrimSpace(locator)
	s = filepath.Base(filepath.ToSlash(s))
	s = strings.TrimSuffix(s, filepath.Ext(s))
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "tool-")
	s = strings.TrimPrefix(s, "tool_")
	return strings.ReplaceAll(s, "-", "_")
}
