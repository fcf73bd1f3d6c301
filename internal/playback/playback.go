// Package playback models transport selection for a resolved media URL as an
// owned session resource: pick adaptive-stream engine, native element, or a
// proxied rewrite of the source, surface typed load errors, and support
// manual retry with full re-initialization.
package playback

import (
	"strings"
	"time"
)

// ErrorKind classifies a playback failure for user-facing messaging.
type ErrorKind int

const (
	// ErrorStreamLoad is a fatal adaptive-stream engine error.
	ErrorStreamLoad ErrorKind = iota
	// ErrorUnsupported means the source is adaptive but the runtime has
	// neither an engine nor native adaptive support.
	ErrorUnsupported
	// ErrorPlayback is a generic element-level error.
	ErrorPlayback
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorStreamLoad:
		return "stream load error"
	case ErrorUnsupported:
		return "format unsupported on this device"
	case ErrorPlayback:
		return "playback failed"
	}
	return "unknown"
}

// Error is a surfaced playback failure. Playback errors block content display
// and require explicit user retry, unlike catalog errors which degrade.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Kind.String() + ": " + e.Message
	}
	return e.Kind.String()
}

// Transport is how the session delivers media to the output.
type Transport int

const (
	// TransportAdaptive uses an adaptive-stream engine instance.
	TransportAdaptive Transport = iota
	// TransportNative assigns the URL straight to the output element.
	TransportNative
)

// State is the session lifecycle. failed transitions back to loading only
// through explicit user retry; there is no automatic recovery.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// EngineConfig bounds adaptive-stream buffering so a single session doesn't
// hold minutes of segments in memory.
type EngineConfig struct {
	MaxBufferLength    time.Duration // forward buffer target
	MaxMaxBufferLength time.Duration // absolute cap the engine may grow to
}

// DefaultEngineConfig matches the buffering the app runs with in production.
var DefaultEngineConfig = EngineConfig{
	MaxBufferLength:    30 * time.Second,
	MaxMaxBufferLength: 60 * time.Second,
}

// Engine is one adaptive-stream engine instance. Instances are exclusively
// owned by a single session, are not reusable across sources, and must be
// destroyed on teardown or they leak decoder and network resources.
type Engine interface {
	// Load attaches the engine to the output and starts fetching the manifest.
	Load(url string) error
	// Destroy releases the engine. Must be safe to call once after Load.
	Destroy()
}

// Output abstracts the native playback element.
type Output interface {
	// SetSource assigns the URL directly and lets native handling buffer.
	SetSource(url string)
	// ClearSource detaches listeners and drops the current source.
	ClearSource()
	// Play starts playback; called when autoplay is requested.
	Play()
}

// Capabilities describes what the host runtime can play. Injected rather than
// sniffed from ambient globals so selection is testable without a real host.
type Capabilities struct {
	// NewEngine constructs an adaptive-stream engine, or is nil when no
	// engine is available in the runtime.
	NewEngine func(EngineConfig) Engine
	// NativeAdaptive is true when the runtime plays manifests natively
	// (no engine needed).
	NativeAdaptive bool
}

// IsAdaptiveURL classifies adaptive-stream content by the manifest extension.
// Substring match, case-insensitive: query strings may follow the extension.
func IsAdaptiveURL(u string) bool {
	return strings.Contains(strings.ToLower(u), ".m3u8")
}
