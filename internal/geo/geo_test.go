package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_Identity(t *testing.T) {
	p := Position{Lat: 12.9716, Lng: 77.5946}
	assert.Equal(t, 0.0, Distance(p, p))
}

func TestDistance_Symmetry(t *testing.T) {
	a := Position{Lat: 12.9716, Lng: 77.5946}
	b := Position{Lat: 13.0827, Lng: 80.2707}
	assert.Equal(t, Distance(a, b), Distance(b, a))
}

func TestDistance_OneMilliDegreeLatitude(t *testing.T) {
	// 0.001 degrees of latitude near the equator is about 111 meters.
	a := Position{Lat: 0, Lng: 0}
	b := Position{Lat: 0.001, Lng: 0}
	assert.InDelta(t, 111.19, Distance(a, b), 1.0)
}

func TestDistance_NonNegative(t *testing.T) {
	a := Position{Lat: -33.8688, Lng: 151.2093}
	b := Position{Lat: 51.5074, Lng: -0.1278}
	assert.Greater(t, Distance(a, b), 0.0)
}
