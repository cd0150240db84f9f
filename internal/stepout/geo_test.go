package stepout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSymmetricAndZero(t *testing.T) {
	points := []Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 37.5665, Lng: 126.9780},
		{Lat: 37.5650, Lng: 126.9770},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: -179.9},
	}
	for _, a := range points {
		assert.Zero(t, Distance(a, a), "distance(%v, %v)", a, a)
		for _, b := range points {
			assert.Equal(t, Distance(a, b), Distance(b, a), "distance(%v, %v)", a, b)
			d := Distance(a, b)
			assert.False(t, math.IsNaN(d) || math.IsInf(d, 0))
			assert.GreaterOrEqual(t, d, 0.0)
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	oneDegree := earthRadiusMeters * math.Pi / 180

	assert.InDelta(t, oneDegree, Distance(Coordinate{}, Coordinate{Lat: 1}), 1e-6)
	assert.InDelta(t, oneDegree, Distance(Coordinate{}, Coordinate{Lng: 1}), 1e-6)
	// Park to library in the default catalog is a few hundred meters.
	assert.InDelta(t, 283, Distance(parkTarget, libraryTarget), 5)
}

func TestDistanceMonotonic(t *testing.T) {
	home := Coordinate{Lat: 37.5665, Lng: 126.9780}
	prev := 0.0
	for i := 1; i <= 50; i++ {
		d := Distance(home, home.Offset(float64(i)*0.00002, 0))
		assert.Greater(t, d, prev)
		prev = d
	}
}
