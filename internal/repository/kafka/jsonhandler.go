package kafka

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONHandler decodes each message value as T and hands it to fn.
// Messages are plain JSON, so there is no generated-code dependency
// to carry for the wire format.
func JSONHandler[T any](fn func(ctx context.Context, key []byte, msg T) error) Handler {
	return func(ctx context.Context, key, value []byte) error {
		var msg T
		if err := json.Unmarshal(value, &msg); err != nil {
			return fmt.Errorf("unmarshal kafka message: %w", err)
		}
		return fn(ctx, key, msg)
	}
}
