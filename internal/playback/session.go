package playback

import (
	"sync"

	"github.com/showgate/showgate/internal/safeurl"
)

// Options configure a session. The same Options are reused across retries so
// a retried session re-runs the full selection with identical inputs.
type Options struct {
	// ProxyEndpoint receives plain-http sources rewritten for transport
	// upgrade (the host runtime blocks mixed-content loads).
	ProxyEndpoint string
	Autoplay      bool
	Caps          Capabilities
	Output        Output
	Engine        EngineConfig // zero value uses DefaultEngineConfig
}

// Session owns one playback attempt for one source URL. It is created when a
// playback view mounts, and must be Closed whenever the source changes or the
// view unmounts; Retry closes the old session and builds a fresh one. The
// session is mutated only by its own event handlers and is not safe for
// concurrent use from other playback views.
type Session struct {
	SourceURL   string
	ResolvedURL string
	Transport   Transport
	RetryCount  int

	opts Options

	mu      sync.Mutex
	state   State
	lastErr *Error
	engine  Engine
	closed  bool
}

// NewSession computes the resolved URL and transport classification for
// sourceURL but performs no I/O; call Start to execute the selection.
func NewSession(sourceURL string, opts Options) *Session {
	if opts.Engine == (EngineConfig{}) {
		opts.Engine = DefaultEngineConfig
	}
	s := &Session{
		SourceURL:   sourceURL,
		ResolvedURL: safeurl.RewriteInsecure(opts.ProxyEndpoint, sourceURL),
		opts:        opts,
		state:       StateIdle,
	}
	if IsAdaptiveURL(sourceURL) || IsAdaptiveURL(s.ResolvedURL) {
		s.Transport = TransportAdaptive
	} else {
		s.Transport = TransportNative
	}
	return s
}

// Start executes the transport selection once. Selection order: engine when
// adaptive and available, native element when the runtime plays manifests
// itself, immediate failure when adaptive with no support, direct assignment
// otherwise.
func (s *Session) Start() {
	s.mu.Lock()
	if s.state != StateIdle || s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StateLoading
	s.mu.Unlock()

	if s.Transport == TransportAdaptive {
		if s.opts.Caps.NewEngine != nil {
			eng := s.opts.Caps.NewEngine(s.opts.Engine)
			s.mu.Lock()
			// Close may have run while the engine was being built; the
			// teardown it did saw no engine, so this one is ours to release.
			if s.closed {
				s.mu.Unlock()
				eng.Destroy()
				return
			}
			s.engine = eng
			s.mu.Unlock()
			if err := eng.Load(s.ResolvedURL); err != nil {
				s.fail(&Error{Kind: ErrorStreamLoad, Message: err.Error()})
			}
			return
		}
		if s.opts.Caps.NativeAdaptive {
			s.opts.Output.SetSource(s.ResolvedURL)
			return
		}
		s.fail(&Error{Kind: ErrorUnsupported})
		return
	}
	s.opts.Output.SetSource(s.ResolvedURL)
}

// OnManifestParsed is fed by the engine when the manifest is ready.
func (s *Session) OnManifestParsed() {
	s.ready()
}

// OnFirstFrame is fed by the output element when the first frame is ready.
func (s *Session) OnFirstFrame() {
	s.ready()
}

func (s *Session) ready() {
	s.mu.Lock()
	if s.state != StateLoading || s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StatePlaying
	s.mu.Unlock()
	if s.opts.Autoplay && s.opts.Output != nil {
		s.opts.Output.Play()
	}
}

// OnEngineFatal is fed when the adaptive-stream engine reports a fatal error.
func (s *Session) OnEngineFatal(msg string) {
	s.fail(&Error{Kind: ErrorStreamLoad, Message: msg})
}

// OnElementError is fed on a generic element-level error event.
func (s *Session) OnElementError() {
	s.fail(&Error{Kind: ErrorPlayback})
}

// fail records the error and tears down held resources. Teardown runs on
// every failure path so an errored engine never outlives its session.
func (s *Session) fail(e *Error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.lastErr = e
	s.mu.Unlock()
	s.teardown()
}

// Close releases the session: engine destroyed, element listeners detached.
// Idempotent. Must complete before a successor session starts.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.teardown()
}

func (s *Session) teardown() {
	s.mu.Lock()
	eng := s.engine
	s.engine = nil
	s.mu.Unlock()
	if eng != nil {
		eng.Destroy()
	}
	if s.opts.Output != nil {
		s.opts.Output.ClearSource()
	}
}

// Retry is the only recovery path out of failed: it closes this session and
// returns a started successor with the retry counter incremented. No partial
// recovery; the successor re-runs the full selection.
func (s *Session) Retry() *Session {
	s.Close()
	next := NewSession(s.SourceURL, s.opts)
	next.RetryCount = s.RetryCount + 1
	next.Start()
	return next
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the surfaced failure, nil unless state is failed.
func (s *Session) LastError() *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
