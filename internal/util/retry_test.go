package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"eagain", syscall.EAGAIN, true},
		{"etimedout", syscall.ETIMEDOUT, true},
		{"eio", syscall.EIO, true},
		{"enoent", syscall.ENOENT, false},
		{"eexist", syscall.EEXIST, false},
		{"wrapped path error", &os.PathError{Op: "open", Path: "/x", Err: syscall.ETIMEDOUT}, true},
		{"wrapped link error", &os.LinkError{Op: "symlink", Old: "/a", New: "/b", Err: syscall.EIO}, true},
		{"timeout message", errors.New("operation timed out"), true},
		{"broken pipe message", errors.New("write: broken pipe"), true},
		{"plain error", errors.New("permission denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.retryable {
				t.Errorf("IsRetryableError(%v) = %v, expected %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := &RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
	}

	attempts := 0
	err := Retry(cfg, "test", func() error {
		attempts++
		if attempts < 3 {
			return syscall.ETIMEDOUT
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 5, InitialWait: time.Millisecond}

	attempts := 0
	permanent := fmt.Errorf("permission denied")
	err := Retry(cfg, "test", func() error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("Expected permanent error returned, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for a permanent error, got %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}

	attempts := 0
	err := Retry(cfg, "test", func() error {
		attempts++
		return syscall.EIO
	})

	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestNoRetryConfig(t *testing.T) {
	attempts := 0
	_ = Retry(NoRetryConfig(), "test", func() error {
		attempts++
		return syscall.ETIMEDOUT
	})

	if attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
}

func TestRetryableMkdirAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := RetryableMkdirAll(path, 0755, NoRetryConfig()); err != nil {
		t.Fatalf("RetryableMkdirAll failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected a directory")
	}
}
