package util

import (
	"errors"
	"os"
	"strings"
	"syscall"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           // Maximum number of retry attempts
	InitialWait time.Duration // Initial wait duration (will be doubled each retry)
	MaxWait     time.Duration // Maximum wait duration between retries
}

// DefaultRetryConfig returns the default retry configuration.
// Link creation and directory creation are cheap, so a short ladder
// is enough to survive a network-mount hiccup.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     2 * time.Second,
	}
}

// NoRetryConfig returns a config that performs a single attempt
func NoRetryConfig() *RetryConfig {
	return &RetryConfig{MaxAttempts: 1}
}

// IsRetryableError checks if an error is worth retrying
// Returns true for transient network/filesystem errors
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pathError *os.PathError
	var linkError *os.LinkError
	var syscallError syscall.Errno

	// Unwrap PathError and LinkError
	if errors.As(err, &pathError) {
		err = pathError.Err
	}
	if errors.As(err, &linkError) {
		err = linkError.Err
	}

	if errors.As(err, &syscallError) {
		switch syscallError {
		case syscall.EAGAIN, // Resource temporarily unavailable
			syscall.ETIMEDOUT,    // Connection timed out
			syscall.ECONNRESET,   // Connection reset
			syscall.ENETDOWN,     // Network is down
			syscall.ENETUNREACH,  // Network unreachable
			syscall.EHOSTDOWN,    // Host is down
			syscall.EHOSTUNREACH, // Host unreachable
			syscall.EIO:          // I/O error (can be transient on network)
			return true
		}
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"timed out",
		"connection reset",
		"broken pipe",
		"no route to host",
		"network is unreachable",
		"temporary failure",
		"resource temporarily unavailable",
		"i/o error",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// Retry executes op with exponential backoff, retrying only errors
// IsRetryableError considers transient. The last error is returned
// once attempts are exhausted.
func Retry(cfg *RetryConfig, operationName string, op func() error) error {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	wait := cfg.InitialWait
	var err error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) || attempt == cfg.MaxAttempts {
			return err
		}

		DebugLog("Retrying %s after transient error (attempt %d/%d): %v",
			operationName, attempt, cfg.MaxAttempts, err)
		time.Sleep(wait)

		wait *= 2
		if cfg.MaxWait > 0 && wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}

	return err
}

// RetryableMkdirAll creates a directory tree with retry on transient errors
func RetryableMkdirAll(path string, perm os.FileMode, cfg *RetryConfig) error {
	return Retry(cfg, "mkdir", func() error {
		return os.MkdirAll(path, perm)
	})
}
