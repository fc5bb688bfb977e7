package verify

import (
	"context"
	"errors"
	"sync"
	"time"

	"campusattend/internal/attendance"
	"campusattend/internal/device"
	"campusattend/internal/geo"
)

// Evidence is the method-specific proof captured during acquisition.
// Exactly the fields for the session's method are meaningful.
type Evidence struct {
	// DecodedText is the raw scanned payload for qr_code.
	DecodedText string
	// Position is the captured device fix for geolocation.
	Position *geo.Position
	// FacePresent is the presence-gate flag for facial_recognition.
	FacePresent bool
}

// Acquirer drives device interaction to produce raw evidence for one
// method. Acquire honors ctx cancellation; Stop is idempotent and releases
// any held device resource synchronously.
type Acquirer interface {
	Acquire(ctx context.Context) (Evidence, error)
	Stop()
}

// Acquirers holds one acquirer per method. A nil entry means the platform
// offers no capability for that method. Sessions may share one value: the
// camera acquirers force-release any stream a previous acquisition left
// open, so handles never accumulate.
type Acquirers struct {
	QR     *QRAcquirer
	Geo    *GeoAcquirer
	Face   *FaceAcquirer
	Manual *ManualAcquirer
}

// For dispatches a method to its acquirer, failing closed with the typed
// capability error when the variant is absent.
func (a Acquirers) For(m attendance.Method) (Acquirer, *Error) {
	switch m {
	case attendance.MethodQRCode:
		if a.QR == nil {
			return nil, newError(KindCameraUnavailable, "no scanner configured", nil)
		}
		return a.QR, nil
	case attendance.MethodGeolocation:
		if a.Geo == nil {
			return nil, newError(KindGeoUnsupported, "no location provider configured", nil)
		}
		return a.Geo, nil
	case attendance.MethodFacialRecognition:
		if a.Face == nil {
			return nil, newError(KindCameraUnavailable, "no camera configured", nil)
		}
		return a.Face, nil
	case attendance.MethodManual:
		if a.Manual == nil {
			return &ManualAcquirer{}, nil
		}
		return a.Manual, nil
	}
	return nil, newError(KindCameraUnavailable, "unknown method", nil)
}

// QRAcquirer runs a continuous decode loop against a live rear-camera
// feed and yields the first successfully decoded text. Frames with no
// code are retried silently.
type QRAcquirer struct {
	camera  device.Camera
	decoder device.Decoder

	mu     sync.Mutex
	stream device.Stream
}

// NewQRAcquirer creates a scanner over the given camera and decode
// primitive.
func NewQRAcquirer(camera device.Camera, decoder device.Decoder) *QRAcquirer {
	return &QRAcquirer{camera: camera, decoder: decoder}
}

// Acquire opens the camera, scans until the first decode, and releases
// the stream before returning.
func (a *QRAcquirer) Acquire(ctx context.Context) (Evidence, error) {
	stream, err := a.camera.Open(ctx, device.FacingEnvironment)
	if err != nil {
		if cancelled(ctx, err) {
			return Evidence{}, newError(KindCancelled, "scan cancelled", err)
		}
		return Evidence{}, newError(KindCameraUnavailable, "camera access denied", err)
	}
	a.takeOver(stream)
	defer a.Stop()

	for {
		frame, err := stream.Frame(ctx)
		if err != nil {
			if cancelled(ctx, err) {
				return Evidence{}, newError(KindCancelled, "scan cancelled", err)
			}
			return Evidence{}, newError(KindCameraUnavailable, "camera stream failed", err)
		}
		text, err := a.decoder.Decode(frame)
		if err != nil {
			// No symbol in this frame; keep scanning.
			continue
		}
		return Evidence{DecodedText: text}, nil
	}
}

// takeOver installs the freshly opened stream, force-releasing one left
// behind by an abandoned earlier acquisition.
func (a *QRAcquirer) takeOver(stream device.Stream) {
	a.mu.Lock()
	prev := a.stream
	a.stream = stream
	a.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
}

// Stop releases the camera stream. Safe from any state and safe to call
// repeatedly.
func (a *QRAcquirer) Stop() {
	a.mu.Lock()
	stream := a.stream
	a.stream = nil
	a.mu.Unlock()
	if stream != nil {
		_ = stream.Close()
	}
}

// DefaultGeoTimeout bounds a single position request.
const DefaultGeoTimeout = 10 * time.Second

// GeoAcquirer requests exactly one high-accuracy position fix per
// acquisition attempt. No polling.
type GeoAcquirer struct {
	locator device.Locator
	timeout time.Duration
}

// NewGeoAcquirer creates a geolocation acquirer. A zero timeout means
// DefaultGeoTimeout; a nil locator fails every acquisition as
// unsupported.
func NewGeoAcquirer(locator device.Locator, timeout time.Duration) *GeoAcquirer {
	if timeout <= 0 {
		timeout = DefaultGeoTimeout
	}
	return &GeoAcquirer{locator: locator, timeout: timeout}
}

// Acquire captures the device position.
func (a *GeoAcquirer) Acquire(ctx context.Context) (Evidence, error) {
	if a.locator == nil {
		return Evidence{}, newError(KindGeoUnsupported, "geolocation is not supported", nil)
	}
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	pos, err := a.locator.Current(reqCtx)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrLocationUnsupported):
			return Evidence{}, newError(KindGeoUnsupported, "geolocation is not supported", err)
		case errors.Is(err, device.ErrLocationDenied):
			return Evidence{}, newError(KindGeoDenied, "location permission denied", err)
		case ctx.Err() != nil:
			return Evidence{}, newError(KindCancelled, "location request cancelled", err)
		case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			return Evidence{}, newError(KindGeoTimeout, "location request timed out", err)
		default:
			// Provider fault, not a timeout: the locator gave up on its own.
			return Evidence{}, newError(KindAcquisitionFailed, "could not determine device position", err)
		}
	}
	return Evidence{Position: &pos}, nil
}

// Stop is a no-op; a position request holds no device handle.
func (a *GeoAcquirer) Stop() {}

// FaceAcquirer opens a user-facing video stream and asserts a presence
// flag via the configured checker. The stream stays open after a
// successful acquisition so the caller can keep displaying it; the
// session releases it on every terminal transition.
type FaceAcquirer struct {
	camera  device.Camera
	checker device.PresenceChecker

	mu     sync.Mutex
	stream device.Stream
}

// NewFaceAcquirer creates a face acquirer. A nil checker falls back to
// the fixed two-second observation window.
func NewFaceAcquirer(camera device.Camera, checker device.PresenceChecker) *FaceAcquirer {
	if checker == nil {
		checker = device.TimedPresence{Window: 2 * time.Second}
	}
	return &FaceAcquirer{camera: camera, checker: checker}
}

// Acquire opens the camera and runs the presence check.
func (a *FaceAcquirer) Acquire(ctx context.Context) (Evidence, error) {
	stream, err := a.camera.Open(ctx, device.FacingUser)
	if err != nil {
		if cancelled(ctx, err) {
			return Evidence{}, newError(KindCancelled, "acquisition cancelled", err)
		}
		return Evidence{}, newError(KindCameraUnavailable, "camera access denied", err)
	}
	a.takeOver(stream)

	present, err := a.checker.CheckPresence(ctx, stream)
	if err != nil {
		a.Stop()
		if cancelled(ctx, err) {
			return Evidence{}, newError(KindCancelled, "acquisition cancelled", err)
		}
		return Evidence{}, newError(KindNoFaceDetected, "presence check failed", err)
	}
	if !present {
		a.Stop()
		return Evidence{}, newError(KindNoFaceDetected, "no face visible in the camera", nil)
	}
	return Evidence{FacePresent: true}, nil
}

// takeOver installs the freshly opened stream, force-releasing one left
// behind by an abandoned earlier acquisition.
func (a *FaceAcquirer) takeOver(stream device.Stream) {
	a.mu.Lock()
	prev := a.stream
	a.stream = stream
	a.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
}

// Stream exposes the live feed for display while the session is in
// flight; nil once released.
func (a *FaceAcquirer) Stream() device.Stream {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream
}

// Stop releases the camera stream. Idempotent.
func (a *FaceAcquirer) Stop() {
	a.mu.Lock()
	stream := a.stream
	a.stream = nil
	a.mu.Unlock()
	if stream != nil {
		_ = stream.Close()
	}
}

// ManualAcquirer succeeds immediately with empty evidence. It is the
// control and fallback path.
type ManualAcquirer struct{}

// Acquire implements Acquirer.
func (ManualAcquirer) Acquire(ctx context.Context) (Evidence, error) {
	if err := ctx.Err(); err != nil {
		return Evidence{}, newError(KindCancelled, "cancelled", err)
	}
	return Evidence{}, nil
}

// Stop implements Acquirer.
func (ManualAcquirer) Stop() {}
