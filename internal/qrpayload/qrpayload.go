// Package qrpayload encodes and decodes the course-bound payload carried
// inside attendance QR codes. The QR symbol itself is produced and decoded
// elsewhere; this package only owns the text contract.
package qrpayload

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrMalformedPayload is returned when a scanned string is not a valid
// course payload.
var ErrMalformedPayload = errors.New("malformed qr payload")

// Payload is the content embedded in a course QR code.
type Payload struct {
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// Encode serializes a payload for the given course. The timestamp lets
// displays rotate codes without changing the contract.
func Encode(courseID, courseCode string) (string, error) {
	if courseID == "" {
		return "", ErrMalformedPayload
	}
	p := Payload{
		CourseID:   courseID,
		CourseCode: courseCode,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses scanned text back into a payload. It fails with
// ErrMalformedPayload when the text is not JSON or carries no course id.
func Decode(text string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return Payload{}, ErrMalformedPayload
	}
	if p.CourseID == "" {
		return Payload{}, ErrMalformedPayload
	}
	return p, nil
}
