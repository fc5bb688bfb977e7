package device

import (
	"context"
	"sync"
	"time"

	"campusattend/internal/geo"
)

// Simulated implementations for dev and tests. Real platforms plug their
// own Camera/Locator/Decoder in; these keep the engine runnable without
// hardware, the same way the worker runs without a face service in
// skip mode.

// SimCamera hands out streams replaying a fixed frame sequence.
type SimCamera struct {
	// Deny makes Open fail with ErrCameraUnavailable.
	Deny bool
	// Frames is replayed in order by each opened stream; once drained the
	// stream blocks until ctx is done.
	Frames []Frame
	// FrameDelay spaces frame delivery; zero delivers immediately.
	FrameDelay time.Duration

	mu     sync.Mutex
	opened []*SimStream
}

// Open returns a new simulated stream.
func (c *SimCamera) Open(ctx context.Context, facing Facing) (Stream, error) {
	if c.Deny {
		return nil, ErrCameraUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &SimStream{frames: append([]Frame(nil), c.Frames...), delay: c.FrameDelay}
	c.mu.Lock()
	c.opened = append(c.opened, s)
	c.mu.Unlock()
	return s, nil
}

// TotalOpens reports how many streams were ever handed out.
func (c *SimCamera) TotalOpens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.opened)
}

// OpenStreams reports how many handed-out streams are still open.
func (c *SimCamera) OpenStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.opened {
		if !s.Closed() {
			n++
		}
	}
	return n
}

// SimStream replays frames and tracks Close calls.
type SimStream struct {
	frames []Frame
	delay  time.Duration

	mu     sync.Mutex
	next   int
	closed bool
}

// Frame returns the next canned frame, blocking on ctx once drained.
func (s *SimStream) Frame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStreamClosed
	}
	if s.next >= len(s.frames) {
		s.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f := s.frames[s.next]
	s.next++
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f, nil
}

// Close marks the stream released. Safe to call more than once.
func (s *SimStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether the stream has been released.
func (s *SimStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SimLocator returns a fixed position or a fixed error after an optional
// delay, which is how tests exercise the acquisition timeout.
type SimLocator struct {
	Pos   geo.Position
	Err   error
	Delay time.Duration
}

// Current implements Locator.
func (l *SimLocator) Current(ctx context.Context) (geo.Position, error) {
	if l.Delay > 0 {
		select {
		case <-time.After(l.Delay):
		case <-ctx.Done():
			return geo.Position{}, ctx.Err()
		}
	}
	if l.Err != nil {
		return geo.Position{}, l.Err
	}
	return l.Pos, nil
}

// TextDecoder treats a frame's bytes as already-decoded symbol text.
// Empty frames decode to ErrNoCode, standing in for frames with no
// QR code visible.
type TextDecoder struct{}

// Decode implements Decoder.
func (TextDecoder) Decode(f Frame) (string, error) {
	if len(f) == 0 {
		return "", ErrNoCode
	}
	return string(f), nil
}

// TimedPresence asserts presence after a fixed observation window. It is
// the placeholder liveness gate from the reference flow; swap in a real
// detector behind PresenceChecker for actual face verification.
type TimedPresence struct {
	Window time.Duration
}

// CheckPresence waits out the window, then reports presence. A cancelled
// ctx wins over the window.
func (p TimedPresence) CheckPresence(ctx context.Context, _ Stream) (bool, error) {
	window := p.Window
	if window <= 0 {
		window = 2 * time.Second
	}
	select {
	case <-time.After(window):
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// StaticPresence reports a fixed answer, for tests.
type StaticPresence struct {
	Present bool
}

// CheckPresence implements PresenceChecker.
func (p StaticPresence) CheckPresence(ctx context.Context, _ Stream) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.Present, nil
}
