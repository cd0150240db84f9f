package stepout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	parkTarget    = Coordinate{Lat: 37.5650, Lng: 126.9770}
	libraryTarget = Coordinate{Lat: 37.5670, Lng: 126.9790}
)

const recoveredDescription = "Recovered from an error. Starting again from level 1."

// Catalog maps levels to mission definitions. It is immutable once built.
type Catalog struct {
	missions [3]Mission
}

func DefaultCatalog() Catalog {
	park, library := parkTarget, libraryTarget
	return Catalog{missions: [3]Mission{
		{
			ID:                      "m1",
			Level:                   LevelFreshAir,
			Title:                   "Level 1: Fresh air",
			Description:             "GPS has found your home. Open the front door and walk just 20m outside.",
			RadiusMeters:            20,
			RequiredDurationSeconds: 0,
			TimeWindowStart:         "09:00",
			TimeWindowEnd:           "23:00",
		},
		{
			ID:                      "m2",
			Level:                   LevelNeighborhood,
			Title:                   "Level 2: Neighborhood scouting",
			Description:             "Lift the fog by walking to the marked point (the park).",
			Target:                  &park,
			RadiusMeters:            30,
			RequiredDurationSeconds: 0,
			TimeWindowStart:         "10:00",
			TimeWindowEnd:           "14:00",
		},
		{
			ID:                      "m3",
			Level:                   LevelSocialSpace,
			Title:                   "Level 3: Social anchor",
			Description:             "Visit the library and stay for 30 seconds.",
			Target:                  &library,
			RadiusMeters:            50,
			RequiredDurationSeconds: 30,
			TimeWindowStart:         "09:00",
			TimeWindowEnd:           "12:00",
		},
	}}
}

// MissionFor returns the definition for level. Unknown levels get the
// level-1 mission with a recovery description so there is always
// something to show.
func (c Catalog) MissionFor(level Level) Mission {
	if !level.Valid() {
		m := c.missions[0].copy()
		m.Description = recoveredDescription
		return m
	}
	return c.missions[level-1].copy()
}

func (m Mission) copy() Mission {
	if m.Target != nil {
		t := *m.Target
		m.Target = &t
	}
	return m
}

type catalogFile struct {
	Missions []Mission `yaml:"missions"`
}

// LoadCatalog reads a YAML mission file. Levels missing from the file keep
// their built-in definitions.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading mission file: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Catalog{}, fmt.Errorf("parsing mission yaml: %w", err)
	}

	cat := DefaultCatalog()
	for _, m := range f.Missions {
		if err := m.validate(); err != nil {
			return Catalog{}, fmt.Errorf("mission %q: %w", m.ID, err)
		}
		cat.missions[m.Level-1] = m.copy()
	}
	return cat, nil
}

func (m Mission) validate() error {
	if !m.Level.Valid() {
		return fmt.Errorf("level %d out of range", m.Level)
	}
	if m.RadiusMeters <= 0 {
		return fmt.Errorf("radius must be positive")
	}
	if m.Level == LevelFreshAir && m.Target != nil {
		return fmt.Errorf("level 1 is measured from home and takes no target")
	}
	if m.Level != LevelFreshAir && m.Target == nil {
		return fmt.Errorf("level %d needs a target", m.Level)
	}
	if m.RequiredDurationSeconds < 0 {
		return fmt.Errorf("negative dwell")
	}
	if m.Level != LevelSocialSpace && m.RequiredDurationSeconds != 0 {
		return fmt.Errorf("only level 3 requires dwell")
	}
	if m.Level == LevelSocialSpace && m.RequiredDurationSeconds == 0 {
		return fmt.Errorf("level 3 requires dwell")
	}
	return nil
}
