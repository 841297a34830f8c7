package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("u1") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if l.Allow("u1") {
		t.Error("fourth request allowed")
	}
	if got := l.Remaining("u1"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if !l.Allow("u2") {
		t.Error("other key limited")
	}
	if got := l.Remaining("u2"); got != 2 {
		t.Errorf("Remaining(u2) = %d, want 2", got)
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	l.Allow("u1")
	if l.Allow("u1") {
		t.Fatal("second request allowed")
	}
	l.Reset("u1")
	if !l.Allow("u1") {
		t.Error("request after Reset rejected")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, 20*time.Millisecond)
	l.Allow("u1")
	if l.Allow("u1") {
		t.Fatal("second request allowed")
	}
	time.Sleep(40 * time.Millisecond)
	if !l.Allow("u1") {
		t.Error("request in new window rejected")
	}
}
