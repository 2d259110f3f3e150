package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}

	if err := m.Set(ctx, "k", payload{Name: "nifty50", Price: 25000}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := m.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "nifty50" || got.Price != 25000 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	if err := m.Set(ctx, "k", 1, time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	var got int
	if err := m.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	_ = m.Set(ctx, "k", 1, 0)
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	ok, err := m.Exists(ctx, "k")
	if err != nil || ok {
		t.Fatalf("exists after delete: ok=%v err=%v", ok, err)
	}
}

func TestLayeredFallsThrough(t *testing.T) {
	l1 := NewMemory(0)
	l2 := NewMemory(0)
	defer l1.Close()
	defer l2.Close()
	layered := NewLayered(l1, l2)
	ctx := context.Background()

	// seed only the backend
	if err := l2.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}

	var got string
	if err := layered.Get(ctx, "k", &got); err != nil {
		t.Fatalf("layered get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q", got)
	}
}
