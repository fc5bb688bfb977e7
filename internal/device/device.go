// Package device defines the boundary to platform capabilities the
// verification engine depends on: cameras, geolocation, QR symbol decoding
// and face presence checks. Implementations fail closed with the typed
// errors below when a capability is missing or denied.
package device

import (
	"context"
	"errors"

	"campusattend/internal/geo"
)

var (
	// ErrCameraUnavailable reports a denied or absent camera.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrLocationUnsupported reports a platform with no location capability.
	ErrLocationUnsupported = errors.New("geolocation unsupported")
	// ErrLocationDenied reports a denied location permission.
	ErrLocationDenied = errors.New("geolocation permission denied")
	// ErrNoCode reports a frame with no decodable symbol. Scan loops treat
	// it as a retry, not a failure.
	ErrNoCode = errors.New("no code in frame")
	// ErrStreamClosed reports a read from a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// Facing selects which camera to open.
type Facing string

const (
	// FacingUser is the self-facing camera, used for presence checks.
	FacingUser Facing = "user"
	// FacingEnvironment is the rear camera, used for scanning.
	FacingEnvironment Facing = "environment"
)

// Frame is one captured video frame. The engine never inspects frame
// contents itself; decoding is delegated to a Decoder.
type Frame []byte

// Stream is a live camera feed. Close is idempotent and releases the
// device synchronously; a second Close is a no-op.
type Stream interface {
	// Frame blocks until the next frame or ctx is done.
	Frame(ctx context.Context) (Frame, error)
	Close() error
}

// Camera opens exclusive streams. Each open stream belongs to exactly one
// verification session.
type Camera interface {
	Open(ctx context.Context, facing Facing) (Stream, error)
}

// Locator produces a single high-accuracy position fix. Implementations
// must honor ctx deadlines and cancellation.
type Locator interface {
	Current(ctx context.Context) (geo.Position, error)
}

// Decoder extracts QR text from a frame, returning ErrNoCode when the
// frame holds no symbol.
type Decoder interface {
	Decode(f Frame) (string, error)
}

// PresenceChecker decides whether a live subject is in front of the
// stream. This is a presence gate, not identity matching; real detectors
// plug in behind this interface.
type PresenceChecker interface {
	CheckPresence(ctx context.Context, s Stream) (bool, error)
}
