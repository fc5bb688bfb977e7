package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusattend/internal/attendance"
	"campusattend/internal/geo"
	"campusattend/internal/verify"
)

func TestSubmit_Success(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/attendance", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(attendance.Record{
			ID:      "rec-1",
			ClassID: "CS101",
			Method:  attendance.MethodGeolocation,
			Status:  attendance.StatusPresent,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "token-123")
	rec, err := c.Submit(context.Background(), verify.Claim{
		ClassID:  "CS101",
		Method:   attendance.MethodGeolocation,
		Location: &geo.Position{Lat: 1, Lng: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "CS101", rec.ClassID)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "CS101", gotBody["class_id"])
	assert.Equal(t, "geolocation", gotBody["method"])
	assert.NotNil(t, gotBody["location"])
}

func TestSubmit_RemoteDetailVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Attendance already marked for today"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.Submit(context.Background(), verify.Claim{ClassID: "CS101", Method: attendance.MethodManual})
	require.Error(t, err)
	assert.Equal(t, "Attendance already marked for today", err.Error())

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusBadRequest, remote.Status)
}

func TestSubmit_NoLocationOmitted(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(attendance.Record{ID: "rec-2"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Submit(context.Background(), verify.Claim{ClassID: "CS101", Method: attendance.MethodManual})
	require.NoError(t, err)
	_, hasLoc := gotBody["location"]
	assert.False(t, hasLoc)
}

func TestCourseQR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/courses/abc/qr", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"qr_string": `{"course_id":"abc"}`})
	}))
	defer srv.Close()

	qr, err := New(srv.URL, "").CourseQR(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, `{"course_id":"abc"}`, qr)
}

func TestCourses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/courses", r.URL.Path)
		json.NewEncoder(w).Encode([]attendance.Course{{ID: "c1", Name: "Intro", Code: "CS101"}})
	}))
	defer srv.Close()

	courses, err := New(srv.URL, "").Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS101", courses[0].Code)
}
