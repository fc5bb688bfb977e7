package verify

import (
	"context"
	"errors"
)

// Kind classifies why a verification session failed. Callers switch on it
// to render a targeted message.
type Kind string

const (
	KindMissingCourse     Kind = "missing_course"
	KindInvalidQRCode     Kind = "invalid_qr_code"
	KindGeoUnsupported    Kind = "geolocation_unsupported"
	KindGeoDenied         Kind = "geolocation_denied"
	KindGeoTimeout        Kind = "geolocation_timeout"
	KindNoFaceDetected    Kind = "no_face_detected"
	KindCameraUnavailable Kind = "camera_unavailable"
	KindAcquisitionFailed Kind = "acquisition_failed"
	KindCancelled         Kind = "cancelled"
	KindSubmissionFailed  Kind = "submission_failed"
	KindMalformedPayload  Kind = "malformed_payload"
)

// Error is a classified session failure. Detail carries the remote error
// text verbatim for submission failures.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func newError(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the failure kind from any error chain; it returns ""
// for errors that did not come out of a session.
func KindOf(err error) Kind {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}

// cancelled reports whether err is a context cancellation from the
// caller rather than a device failure.
func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
