package cache

import (
	"context"
	"testing"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()

	for name, c := range map[string]*Cache{
		"nil cache":  nil,
		"nil client": New(nil, nil),
	} {
		t.Run(name, func(t *testing.T) {
			var dst map[string]string
			if c.GetJSON(ctx, "k", &dst) {
				t.Error("GetJSON on disabled cache reported a hit")
			}
			c.SetJSON(ctx, "k", map[string]string{"a": "b"}, TTLShort)
			c.Delete(ctx, "k")
			if err := c.Publish(ctx, "event", "ch"); err != nil {
				t.Errorf("Publish() error = %v", err)
			}
			if err := c.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}
