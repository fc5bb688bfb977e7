package attendance

import (
	"fmt"
	"time"

	"campusattend/internal/geo"
)

// Method identifies how presence was verified. The set is closed; every
// switch over Method must handle all four values.
type Method string

const (
	MethodQRCode            Method = "qr_code"
	MethodGeolocation       Method = "geolocation"
	MethodFacialRecognition Method = "facial_recognition"
	MethodManual            Method = "manual"
)

// Valid reports whether m is one of the four known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodQRCode, MethodGeolocation, MethodFacialRecognition, MethodManual:
		return true
	}
	return false
}

// ParseMethod converts wire text into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown attendance method %q", s)
	}
	return m, nil
}

// Record statuses. A record starts present; the policy worker may re-mark
// it flagged when the captured position falls outside the course radius.
const (
	StatusPresent = "present"
	StatusFlagged = "flagged"
)

// Record is one verified attendance event.
type Record struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	ClassID     string        `json:"class_id"`
	Method      Method        `json:"method"`
	CheckInTime time.Time     `json:"check_in_time"`
	Location    *geo.Position `json:"location,omitempty"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Course is the catalog entry attendance is recorded against. Location is
// the registered classroom position, when the institution tracks one.
type Course struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Code       string        `json:"code"`
	Instructor string        `json:"instructor_id"`
	Department string        `json:"department,omitempty"`
	Credits    int           `json:"credits,omitempty"`
	Location   *geo.Position `json:"location,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
