package std

import (
	"context"
	"fmt"

	"github.com/ilkoid/poncho-chat/pkg/s3storage"
	"github.com/ilkoid/poncho-chat/pkg/tools"
)

// ObjectStoreToolName — имя инструмента в Function Calling.
const ObjectStoreToolName = "count_bucket_objects"

// ObjectStoreTool считает объекты в бакете по префиксу.
type ObjectStoreTool struct {
	client s3storage.ClientInterface
	bucket string
}

var _ tools.Capability = (*ObjectStoreTool)(nil)

// NewObjectStoreTool создаёт инструмент поверх S3 клиента.
func NewObjectStoreTool(client s3storage.ClientInterface, bucket string) *ObjectStoreTool {
	return &ObjectStoreTool{client: client, bucket: bucket}
}

// Definition возвращает определение инструмента для function calling.
func (t *ObjectStoreTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        ObjectStoreToolName,
		Description: fmt.Sprintf("Counts the objects stored in the %q bucket under the given key prefix.", t.bucket),
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"prefix": map[string]any{
					"type":        "string",
					"description": "Key prefix, for example 'logs/2024/'. Empty string counts the whole bucket.",
				},
			},
			"required":             []string{"prefix"},
			"additionalProperties": false,
		},
		Strict: true,
	}
}

// PromptAddendum подсказывает модели использовать инструмент для подсчёта объектов.
func (t *ObjectStoreTool) PromptAddendum() string {
	return "Always use the " + ObjectStoreToolName + " tool to find out how many objects are stored under a prefix."
}

// Invoke считает объекты под префиксом.
func (t *ObjectStoreTool) Invoke(ctx context.Context, args map[string]any, notices tools.Notifier) (any, error) {
	prefix, err := stringArg(args, "prefix", false)
	if err != nil {
		return nil, err
	}

	count, err := t.client.CountObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects in %s: %w", t.bucket, err)
	}

	notices.Notify("Tool %s for prefix %q == %d", ObjectStoreToolName, prefix, count)

	return count, nil
}
