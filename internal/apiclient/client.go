// Package apiclient is the HTTP client for the remote attendance service.
// It implements verify.Submitter and covers the read paths the engine's
// callers need (courses, history, course QR payloads).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campusattend/internal/attendance"
	"campusattend/internal/verify"
)

// Client calls the attendance service. Token is the caller-supplied
// bearer credential from the identity service; the client attaches it
// unchanged.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a client with a bounded request timeout.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// RemoteError is a non-2xx response from the service, carrying the
// remote detail verbatim.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("attendance service error (status %d)", e.Status)
}

// Submit posts one attendance claim. It performs exactly one request and
// never retries; the verify session guarantees at most one call per
// attempt.
func (c *Client) Submit(ctx context.Context, claim verify.Claim) (attendance.Record, error) {
	body := map[string]any{
		"class_id": claim.ClassID,
		"method":   string(claim.Method),
	}
	if claim.Location != nil {
		body["location"] = claim.Location
	}

	var rec attendance.Record
	if err := c.do(ctx, http.MethodPost, "/api/attendance", body, &rec); err != nil {
		return attendance.Record{}, err
	}
	return rec, nil
}

// Courses lists the catalog for the course-selection step.
func (c *Client) Courses(ctx context.Context) ([]attendance.Course, error) {
	var out []attendance.Course
	if err := c.do(ctx, http.MethodGet, "/api/courses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyAttendance returns the caller's attendance history.
func (c *Client) MyAttendance(ctx context.Context) ([]attendance.Record, error) {
	var out []attendance.Record
	if err := c.do(ctx, http.MethodGet, "/api/attendance/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CourseQR fetches the encoded payload a course owner displays for
// scanning.
func (c *Client) CourseQR(ctx context.Context, courseID string) (string, error) {
	var out struct {
		QRString string `json:"qr_string"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/courses/"+courseID+"/qr", nil, &out); err != nil {
		return "", err
	}
	return out.QRString, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("attendance service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &RemoteError{Status: resp.StatusCode, Detail: remoteDetail(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// remoteDetail extracts the service's error text, trying the structured
// {"detail": ...} and {"error": ...} shapes before falling back to the
// raw body.
func remoteDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var out struct {
		Detail string `json:"detail"`
		ErrMsg string `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err == nil {
		if out.Detail != "" {
			return out.Detail
		}
		if out.ErrMsg != "" {
			return out.ErrMsg
		}
	}
	return string(raw)
}
