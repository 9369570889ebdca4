package common

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultServerPort = 8866

func GetServerPort() int {
	port := os.Getenv("CHORUS_SERVER_PORT")
	if port == "" {
		return defaultServerPort
	}

	intPort, err := strconv.Atoi(port)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse chorus server port: %s", port))
	}
	return intPort
}

const defaultProviderTimeout = 30 * time.Second

// GetProviderTimeout returns the per-call timeout for a single provider
// generation. Exceeding it surfaces as a provider-local failure, never as a
// process-wide fault.
func GetProviderTimeout() time.Duration {
	timeout := os.Getenv("CHORUS_PROVIDER_TIMEOUT_SECONDS")
	if timeout == "" {
		return defaultProviderTimeout
	}

	seconds, err := strconv.Atoi(timeout)
	if err != nil || seconds <= 0 {
		return defaultProviderTimeout
	}
	return time.Duration(seconds) * time.Second
}

const defaultMaxRetries = 2

// GetMaxRetries returns how many additional attempts a failed provider call
// gets before its error is converted into an error-surrogate response.
func GetMaxRetries() int {
	retries := os.Getenv("CHORUS_MAX_RETRIES")
	if retries == "" {
		return defaultMaxRetries
	}

	count, err := strconv.Atoi(retries)
	if err != nil || count < 0 {
		return defaultMaxRetries
	}
	return count
}

const defaultSynthChunkSize = 10
const defaultSynthChunkDelay = 50 * time.Millisecond

// GetSynthChunkSize returns the number of characters per chunk when streaming
// a synthesized answer to subscribers.
func GetSynthChunkSize() int {
	size := os.Getenv("CHORUS_SYNTH_CHUNK_SIZE")
	if size == "" {
		return defaultSynthChunkSize
	}

	chunkSize, err := strconv.Atoi(size)
	if err != nil || chunkSize <= 0 {
		return defaultSynthChunkSize
	}
	return chunkSize
}

// GetSynthChunkDelay returns the inter-chunk pacing delay when streaming a
// synthesized answer.
func GetSynthChunkDelay() time.Duration {
	delay := os.Getenv("CHORUS_SYNTH_CHUNK_DELAY_MS")
	if delay == "" {
		return defaultSynthChunkDelay
	}

	millis, err := strconv.Atoi(delay)
	if err != nil || millis < 0 {
		return defaultSynthChunkDelay
	}
	return time.Duration(millis) * time.Millisecond
}

// GetSingleModeProvider returns the provider name used for single-mode runs.
// When empty, the first provider in registry order is used.
func GetSingleModeProvider() string {
	return os.Getenv("CHORUS_SINGLE_PROVIDER")
}
