// Package watchdog tracks whether an image shown on a display surface has
// loaded, and swaps it for a generated placeholder when it fails or hangs.
package watchdog

import (
	"sync"
	"time"

	"github.com/whoyoshome/mini-productos/internal/services/placeholder"
	"github.com/whoyoshome/mini-productos/pkg/utils"
)

// DefaultTimeout is how long a surface may stay pending before it gives up.
const DefaultTimeout = 4000 * time.Millisecond

type State int

const (
	Pending State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Timer is the part of *time.Timer the watchdog needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

type Option func(*Surface)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAfterFunc replaces the timer implementation.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Surface) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// WithResolver replaces the function mapping a reference to the source to load.
func WithResolver(fn func(ref, label string) string) Option {
	return func(s *Surface) {
		if fn != nil {
			s.resolve = fn
		}
	}
}

// Surface watches one image slot. All methods are safe for concurrent use;
// the first terminal transition of a generation wins and later events are
// ignored.
type Surface struct {
	mu         sync.Mutex
	label      string
	ref        string
	src        string
	state      State
	generation uint64
	timer      Timer
	done       chan struct{}
	closed     bool

	timeout   time.Duration
	afterFunc AfterFunc
	resolve   func(ref, label string) string
}

// New starts watching ref. label keys the placeholder shown on failure.
func New(ref, label string, opts ...Option) *Surface {
	s := &Surface{
		label:   label,
		timeout: DefaultTimeout,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		resolve: utils.ProxyURL,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.start(ref)
	return s
}

// Reset starts a new generation for ref. A pending timer of the previous
// generation is cancelled and can no longer affect the surface.
func (s *Surface) Reset(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.start(ref)
}

// start must be called with mu held.
func (s *Surface) start(ref string) {
	s.generation++
	s.closed = false
	s.ref = ref
	s.src = s.resolve(ref, s.label)
	s.state = Pending
	s.done = make(chan struct{})

	gen := s.generation
	s.timer = s.afterFunc(s.timeout, func() {
		s.fail(gen)
	})
}

// OnLoad records a successful decode of the current source.
func (s *Surface) OnLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(s.generation, Loaded)
}

// OnError records a load error of the current source.
func (s *Surface) OnError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(s.generation, Failed)
}

func (s *Surface) fail(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(gen, Failed)
}

// transition must be called with mu held. It is the only place state
// changes after start.
func (s *Surface) transition(gen uint64, to State) {
	if s.closed || gen != s.generation || s.state != Pending {
		return
	}

	s.state = to
	if to == Failed {
		s.src = placeholder.DataURI(s.label)
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	close(s.done)
}

// Close cancels a pending timer and detaches the surface: later events are
// ignored and the surface keeps its last state.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Src is the source the surface currently displays.
func (s *Surface) Src() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

// Ref is the reference the current generation watches.
func (s *Surface) Ref() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loaded reports whether the surface has settled, either on the real image
// or on the placeholder.
func (s *Surface) Loaded() bool {
	return s.State() != Pending
}

// Failed reports whether the surface fell back to the placeholder.
func (s *Surface) Failed() bool {
	return s.State() == Failed
}

// Done is closed when the current generation settles.
func (s *Surface) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
