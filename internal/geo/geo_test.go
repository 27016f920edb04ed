package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	// Berlin to Hamburg is roughly 255 km as the crow flies.
	d := DistanceKm(52.5200, 13.4050, 53.5511, 9.9937)
	assert.InDelta(t, 255, d, 5)
}

func TestDistanceKmZero(t *testing.T) {
	assert.Zero(t, DistanceKm(48.8566, 2.3522, 48.8566, 2.3522))
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
	b := DistanceKm(34.0522, -118.2437, 40.7128, -74.0060)
	assert.InDelta(t, a, b, 1e-9)
}
