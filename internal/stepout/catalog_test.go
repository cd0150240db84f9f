package stepout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissionForKnownLevels(t *testing.T) {
	cat := DefaultCatalog()

	tests := []struct {
		level      Level
		wantID     string
		wantRadius float64
		wantDwell  int
		wantTarget bool
	}{
		{LevelFreshAir, "m1", 20, 0, false},
		{LevelNeighborhood, "m2", 30, 0, true},
		{LevelSocialSpace, "m3", 50, 30, true},
	}
	for _, tt := range tests {
		m := cat.MissionFor(tt.level)
		assert.Equal(t, tt.wantID, m.ID)
		assert.Equal(t, tt.level, m.Level)
		assert.Equal(t, tt.wantRadius, m.RadiusMeters)
		assert.Equal(t, tt.wantDwell, m.RequiredDurationSeconds)
		assert.Equal(t, tt.wantTarget, m.Target != nil)
		assert.Equal(t, m, cat.MissionFor(tt.level), "MissionFor must be deterministic")
	}
}

func TestMissionForOutOfRangeFallsBack(t *testing.T) {
	cat := DefaultCatalog()
	first := cat.MissionFor(LevelFreshAir)

	for _, level := range []Level{0, -1, 4, 99} {
		m := cat.MissionFor(level)
		assert.Equal(t, first.ID, m.ID)
		assert.Equal(t, LevelFreshAir, m.Level)
		assert.Equal(t, first.RadiusMeters, m.RadiusMeters)
		assert.Nil(t, m.Target)
		assert.Equal(t, recoveredDescription, m.Description)
	}
}

func TestMissionForReturnsCopies(t *testing.T) {
	cat := DefaultCatalog()
	m := cat.MissionFor(LevelNeighborhood)
	m.Target.Lat = 0

	assert.Equal(t, parkTarget, *cat.MissionFor(LevelNeighborhood).Target)
}

func TestParseCatalogOverrides(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
missions:
  - id: lima-2
    level: 2
    title: Plaza
    description: Walk to the plaza.
    target: {lat: -12.0464, lng: -77.0428}
    radiusMeters: 40
`))
	require.NoError(t, err)

	m := cat.MissionFor(LevelNeighborhood)
	assert.Equal(t, "lima-2", m.ID)
	assert.Equal(t, Coordinate{Lat: -12.0464, Lng: -77.0428}, *m.Target)
	assert.Equal(t, 40.0, m.RadiusMeters)
	// Untouched levels keep the built-in definitions.
	assert.Equal(t, DefaultCatalog().MissionFor(LevelSocialSpace), cat.MissionFor(LevelSocialSpace))
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad level", "missions: [{id: x, level: 7, radiusMeters: 10}]"},
		{"zero radius", "missions: [{id: x, level: 1, radiusMeters: 0}]"},
		{"level 1 with target", "missions: [{id: x, level: 1, radiusMeters: 10, target: {lat: 1, lng: 1}}]"},
		{"level 2 without target", "missions: [{id: x, level: 2, radiusMeters: 10}]"},
		{"dwell on level 2", "missions: [{id: x, level: 2, radiusMeters: 10, target: {lat: 1, lng: 1}, requiredDurationSeconds: 5}]"},
		{"level 3 without dwell", "missions: [{id: x, level: 3, radiusMeters: 10, target: {lat: 1, lng: 1}}]"},
		{"not yaml", "missions: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
