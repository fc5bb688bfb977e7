// Package verify implements the multi-method attendance verification
// engine: one session per attendance attempt, driving method selection,
// evidence acquisition, validation and a single claim submission.
package verify

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"campusattend/internal/attendance"
	"campusattend/internal/geo"
	"campusattend/internal/metrics"
	"campusattend/internal/qrpayload"
)

// State is a session lifecycle phase. Succeeded and Failed are terminal.
type State string

const (
	StateIdle           State = "idle"
	StateMethodSelected State = "method_selected"
	StateAcquiring      State = "acquiring"
	StateValidating     State = "validating"
	StateSubmitting     State = "submitting"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Claim is validated evidence packaged for submission.
type Claim struct {
	ClassID  string
	Method   attendance.Method
	Location *geo.Position
}

// Submitter sends one claim to the attendance service. Implementations
// must not retry; retrying is the caller's decision via a new session.
type Submitter interface {
	Submit(ctx context.Context, c Claim) (attendance.Record, error)
}

// Session owns one end-to-end attendance attempt. A session is used once:
// SelectMethod, then Begin, then inspect the terminal state. All methods
// are safe for concurrent use; repeated Begin calls while work is in
// flight are no-ops.
type Session struct {
	id        string
	submitter Submitter
	acquirers Acquirers

	mu       sync.Mutex
	state    State
	method   attendance.Method
	courseID string
	evidence Evidence
	failure  *Error
	result   *attendance.Record
}

// NewSession creates an idle session.
func NewSession(submitter Submitter, acquirers Acquirers) *Session {
	return &Session{
		id:        uuid.NewString(),
		submitter: submitter,
		acquirers: acquirers,
		state:     StateIdle,
	}
}

// ID returns the opaque session id.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the classified failure once the session is Failed, else nil.
func (s *Session) Err() *Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Result returns the attendance record once the session Succeeded.
func (s *Session) Result() *attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// CourseID returns the course the session is bound to. For qr_code it is
// empty until the payload resolves it during validation.
func (s *Session) CourseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courseID
}

// SelectMethod moves Idle to MethodSelected. Every method except qr_code
// requires a course up front; without one the session fails immediately
// with KindMissingCourse. Calls outside Idle return the current state
// unchanged. The returned error flags only out-of-enum methods.
func (s *Session) SelectMethod(m attendance.Method, courseID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return s.state, nil
	}
	if !m.Valid() {
		return s.state, fmt.Errorf("unknown attendance method %q", m)
	}
	s.method = m
	s.courseID = courseID
	if m != attendance.MethodQRCode && courseID == "" {
		s.failLocked(newError(KindMissingCourse, "select a course before marking attendance", nil))
		return s.state, nil
	}
	s.state = StateMethodSelected
	return s.state, nil
}

// Begin runs acquisition, validation and submission to a terminal state.
// Calling Begin again while the session is Acquiring or Submitting (or
// already terminal) returns the current state without touching devices or
// the network. Cancelling ctx during acquisition releases the device and
// fails the session with KindCancelled.
func (s *Session) Begin(ctx context.Context) State {
	s.mu.Lock()
	if s.state != StateMethodSelected {
		st := s.state
		s.mu.Unlock()
		return st
	}
	acq, aerr := s.acquirers.For(s.method)
	if aerr != nil {
		s.failLocked(aerr)
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.state = StateAcquiring
	s.mu.Unlock()

	// Devices are released on every exit path out of acquisition,
	// including cancellation and validation failure.
	defer acq.Stop()

	ev, err := acq.Acquire(ctx)

	s.mu.Lock()
	if err != nil {
		s.failLocked(asSessionError(ctx, err))
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.evidence = ev
	s.state = StateValidating
	if verr := s.validateLocked(); verr != nil {
		s.failLocked(verr)
		st := s.state
		s.mu.Unlock()
		return st
	}

	s.state = StateSubmitting
	claim := Claim{ClassID: s.courseID, Method: s.method, Location: s.evidence.Position}
	s.mu.Unlock()

	rec, err := s.submitter.Submit(ctx, claim)

	s.mu.Lock()
	if err != nil {
		if cancelled(ctx, err) {
			s.failLocked(newError(KindCancelled, "submission cancelled", err))
		} else {
			s.failLocked(newError(KindSubmissionFailed, err.Error(), err))
		}
	} else {
		s.result = &rec
		s.state = StateSucceeded
		metrics.SessionsTotal.WithLabelValues(string(s.method), "succeeded").Inc()
	}
	st := s.state
	s.mu.Unlock()
	return st
}

// validateLocked applies the per-method evidence rule. Caller holds s.mu.
func (s *Session) validateLocked() *Error {
	switch s.method {
	case attendance.MethodQRCode:
		p, err := qrpayload.Decode(s.evidence.DecodedText)
		if err != nil {
			return newError(KindInvalidQRCode, "scan a valid course QR code", err)
		}
		// The payload is authoritative; it overrides any prior selection.
		s.courseID = p.CourseID
	case attendance.MethodGeolocation:
		// Any successfully captured position is accepted here. Distance
		// checks against a course's registered location are a server-side
		// policy, applied by the policy worker.
	case attendance.MethodFacialRecognition:
		if !s.evidence.FacePresent {
			return newError(KindNoFaceDetected, "no face visible in the camera", nil)
		}
	case attendance.MethodManual:
		// Nothing to validate beyond the course precondition.
	}
	return nil
}

// failLocked records a terminal failure. Caller holds s.mu.
func (s *Session) failLocked(e *Error) {
	s.failure = e
	s.state = StateFailed
	method := string(s.method)
	if method == "" {
		method = "none"
	}
	metrics.SessionsTotal.WithLabelValues(method, string(e.Kind)).Inc()
}

// asSessionError coerces an acquisition failure into a classified error.
// Acquirers already return *Error; anything else is mapped conservatively.
func asSessionError(ctx context.Context, err error) *Error {
	if ve, ok := err.(*Error); ok {
		return ve
	}
	if cancelled(ctx, err) {
		return newError(KindCancelled, "acquisition cancelled", err)
	}
	return newError(KindAcquisitionFailed, err.Error(), err)
}
