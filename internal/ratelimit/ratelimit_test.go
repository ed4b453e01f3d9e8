package ratelimit

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestNewDisabled(t *testing.T) {
	t.Parallel()

	if New(0) != nil {
		t.Error("New(0) should return nil (unlimited)")
	}
	if New(-1) != nil {
		t.Error("New(-1) should return nil (unlimited)")
	}
}

func TestNewReaderNilLimiter(t *testing.T) {
	t.Parallel()

	src := strings.NewReader("payload")
	if r := NewReader(src, nil); r != io.Reader(src) {
		t.Error("NewReader with nil limiter should return the original reader")
	}
}

func TestReaderPreservesContent(t *testing.T) {
	t.Parallel()

	data := strings.Repeat("0123456789", 1000)
	limiter := New(1 << 20) // fast enough not to slow the test down
	r := NewReader(strings.NewReader(data), limiter)

	var sink bytes.Buffer
	if _, err := io.Copy(&sink, r); err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if sink.String() != data {
		t.Error("rate-limited reader corrupted the data")
	}
}

func TestReaderChunksLargeReads(t *testing.T) {
	t.Parallel()

	limiter := New(1 << 20)
	r := NewReader(strings.NewReader(strings.Repeat("x", 64*1024)), limiter)

	buf := make([]byte, 64*1024)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n > 8*1024 {
		t.Errorf("read returned %d bytes, want at most the 8KB chunk size", n)
	}
}

func TestTakeWithinBurst(t *testing.T) {
	t.Parallel()

	limiter := New(10000) // burst of one second = 10000 tokens
	start := time.Now()
	limiter.take(4000)
	limiter.take(4000)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("takes within burst capacity slept for %v", elapsed)
	}
}

func TestTakeThrottles(t *testing.T) {
	t.Parallel()

	limiter := New(10000)
	limiter.take(10000) // drain the initial burst

	start := time.Now()
	limiter.take(2000) // needs ~200ms worth of new tokens
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("take over capacity returned after %v, expected a throttle sleep", elapsed)
	}
}

func TestTakeNoopCases(t *testing.T) {
	t.Parallel()

	var nilLimiter *Limiter
	nilLimiter.take(100) // must not panic

	limiter := New(100)
	limiter.take(0)
	limiter.take(-5)
}
