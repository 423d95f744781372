package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNopReportsUnavailable(t *testing.T) {
	var c Cache = Nop{}

	_, ok, err := c.Get(context.Background(), "balance:1")
	if ok {
		t.Fatal("nop cache reported a hit")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if err := c.Set(context.Background(), "balance:1", "100", time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
