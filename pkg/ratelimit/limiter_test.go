package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if tb.Allow() {
		t.Error("request beyond capacity should be denied")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)

	if !tb.Allow() {
		t.Error("bucket should have refilled after the period")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Minute)

	tb.Allow()
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	tb.Reset()

	if !tb.Allow() {
		t.Error("reset should restore capacity")
	}
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	tb.Allow()

	done := make(chan struct{})
	go func() {
		tb.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after refill")
	}
}

func TestPerMinute(t *testing.T) {
	if PerMinute(0) != nil {
		t.Error("non-positive budget should disable limiting")
	}
	if PerMinute(-1) != nil {
		t.Error("non-positive budget should disable limiting")
	}

	tb := PerMinute(2)
	if tb == nil {
		t.Fatal("positive budget should create a limiter")
	}
	if !tb.Allow() || !tb.Allow() {
		t.Error("budget should allow two requests")
	}
	if tb.Allow() {
		t.Error("third request should be denied")
	}
}
