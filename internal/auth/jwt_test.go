package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue("user-1", "student", "campusattend", "secret", time.Minute)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := Parse(token, "secret", "campusattend")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "student", claims.Role)
}

func TestParse_WrongKey(t *testing.T) {
	token, _, err := Issue("user-1", "student", "campusattend", "secret", time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "other-secret", "campusattend")
	assert.Error(t, err)
}

func TestParse_IssuerMismatch(t *testing.T) {
	token, _, err := Issue("user-1", "student", "someone-else", "secret", time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "secret", "campusattend")
	assert.Error(t, err)
}
