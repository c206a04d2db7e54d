package utils

import "time"

// Default constants - these are used as fallbacks
// Actual values come from the server config loaded from metaweblog.yaml
const (
	MaxBufferSize   = 64 * 1024        // 64KB
	RawThreshold    = 512              // media smaller than this is stored uncompressed
	FastZstdMax     = 64 * 1024        // 64KB
	MaxRequestBytes = 32 * 1024 * 1024 // 32MB, media uploads arrive base64 encoded

	DefaultDBTimeout       = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultDebounce        = 300 * time.Millisecond
)
