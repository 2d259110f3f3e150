package ratelimit

import "testing"

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("a", 3, 0) {
			t.Fatalf("token %d should be available", i)
		}
	}
	if l.Allow("a", 3, 0) {
		t.Fatalf("bucket should be empty")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("first token for a")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("a should be exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("b should have its own bucket")
	}
}
