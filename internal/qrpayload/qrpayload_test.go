package qrpayload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, id := range []string{"CS101", "math-200", "8d3f2c1a"} {
		text, err := Encode(id, "CODE")
		require.NoError(t, err)

		p, err := Decode(text)
		require.NoError(t, err)
		assert.Equal(t, id, p.CourseID)
		assert.Equal(t, "CODE", p.CourseCode)
		assert.NotEmpty(t, p.Timestamp)
	}
}

func TestEncode_EmptyCourse(t *testing.T) {
	_, err := Encode("", "")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecode_Malformed(t *testing.T) {
	for _, text := range []string{
		"not json",
		"",
		"{}",
		`{"course_id":""}`,
		`{"other":"field"}`,
		`[1,2,3]`,
	} {
		_, err := Decode(text)
		assert.ErrorIs(t, err, ErrMalformedPayload, "input %q", text)
	}
}

func TestDecode_IgnoresExtraFields(t *testing.T) {
	p, err := Decode(`{"course_id":"CS101","course_code":"CS101","timestamp":"2025-01-01T00:00:00Z","extra":42}`)
	require.NoError(t, err)
	assert.Equal(t, "CS101", p.CourseID)
}
