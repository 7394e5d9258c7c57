package providers

import (
	"context"
	"sync"
	"testing"
)

func TestRegistry_CachesByKey(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()

	spec := ClientSpec{Type: "mock", APIKey: "key-1"}

	c1, err := r.Client(ctx, "primary", spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, err := r.Client(ctx, "primary", spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c1 != c2 {
		t.Error("expected the same client instance while the key is unchanged")
	}
}

func TestRegistry_RebuildsOnKeyChange(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()

	c1, err := r.Client(ctx, "primary", ClientSpec{Type: "mock", APIKey: "key-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, err := r.Client(ctx, "primary", ClientSpec{Type: "mock", APIKey: "key-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c1 == c2 {
		t.Error("expected a new client instance after the API key changed")
	}
}

func TestRegistry_MissingKey(t *testing.T) {
	r := NewRegistry(nil)

	if _, err := r.Client(context.Background(), "primary", ClientSpec{Type: "mock"}); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry(nil)

	if _, err := r.Client(context.Background(), "x", ClientSpec{Type: "nope", APIKey: "k"}); err == nil {
		t.Error("expected error for unknown provider type")
	}
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()
	spec := ClientSpec{Type: "mock", APIKey: "key-1"}

	const goroutines = 16
	clients := make([]LLMClient, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Client(ctx, "primary", spec)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if clients[i] != clients[0] {
			t.Fatal("concurrent first use constructed more than one client")
		}
	}
}
