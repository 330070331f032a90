package ratelimit

import "testing"

func TestLimiterConsumesBurst(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("feed", 3, 0) {
			t.Fatalf("token %d should be available", i)
		}
	}
	if l.Allow("feed", 3, 0) {
		t.Fatalf("bucket should be empty")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("first token for a")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("a exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("b has its own bucket")
	}
}
