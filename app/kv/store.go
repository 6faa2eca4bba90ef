package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys shared with the sync cycle.
const (
	KeyAuth      = "auth"
	KeyLastFetch = "last_fetch"
)

var ErrNotFound = errors.New("key not found")

// Store is a small durable key/value store. Values are opaque bytes; a Put
// overwrites the whole value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// GetJSON decodes the value stored under key into dst. It reports false
// when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode key %s: %w", key, err)
	}
	return true, nil
}

func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}
