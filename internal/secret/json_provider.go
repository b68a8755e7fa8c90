package secret

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSONProvider implements a secret provider backed by a JSON file.
// Non-string values are returned as their JSON encoding.
type JSONProvider struct {
	store map[string]any
}

// NewJSONProvider loads secrets from the JSON object stored at path.
func NewJSONProvider(path string) (*JSONProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("json secret provider requires SECRET_FILE")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret file %s: %w", path, err)
	}
	store := make(map[string]any)
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("failed to parse secret file %s: %w", path, err)
	}
	return &JSONProvider{store: store}, nil
}

func (j *JSONProvider) Get(_ context.Context, key string) (string, error) {
	val, ok := j.store[key]
	if !ok || val == nil {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}

	if str, ok := val.(string); ok {
		return str, nil
	}

	jsonBytes, err := json.Marshal(val)
	if err != nil {
		return "", fmt.Errorf("failed to marshal secret %s: %w", key, err)
	}
	return string(jsonBytes), nil
}
