package stepout

import "math"

// Progress bar ceilings: the level-1 radius for leaving home, and a rough
// walking range for the target missions.
const (
	shortRangeCeiling = 20
	longRangeCeiling  = 500
)

// RemainingDistance reports meters left for the active mission. For level 1
// it is the distance still to cover before crossing the home radius; for
// levels with a target it is the straight distance to the target. ok is
// false when the needed points are unknown.
func RemainingDistance(u UserState, m Mission) (meters float64, ok bool) {
	if u.CurrentLocation == nil {
		return 0, false
	}
	if m.Target == nil {
		if u.HomeLocation == nil {
			return 0, false
		}
		return math.Max(0, m.RadiusMeters-Distance(*u.CurrentLocation, *u.HomeLocation)), true
	}
	return Distance(*u.CurrentLocation, *m.Target), true
}

// ProgressPercent maps a remaining distance to a [0,100] display value
// using the built-in level-1 radius as the short-range ceiling.
func ProgressPercent(remaining float64, level Level) float64 {
	return progress(remaining, level, shortRangeCeiling)
}

// ProgressPercent is like the package function but takes the short-range
// ceiling from this catalog's level-1 radius.
func (c Catalog) ProgressPercent(remaining float64, level Level) float64 {
	return progress(remaining, level, c.missions[0].RadiusMeters)
}

func progress(remaining float64, level Level, short float64) float64 {
	ceiling := float64(longRangeCeiling)
	if level == LevelFreshAir || !level.Valid() {
		ceiling = short
	}
	p := 100 - remaining/ceiling*100
	if math.IsNaN(p) {
		return 0
	}
	return math.Min(100, math.Max(0, p))
}
