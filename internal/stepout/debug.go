package stepout

import "fmt"

// Nudge offsets, in degrees. 0.0001° of latitude is roughly 11 m.
const (
	nudgeStep      = 0.0001
	teleportOffset = 0.0003
)

type Direction string

const (
	North Direction = "north"
	East  Direction = "east"
)

// Debug moves a session without real positioning hardware. Simulated
// positions never calibrate home from the stream and never extend the
// visited path; they only replace the current location and re-evaluate.
type Debug struct {
	s *Session
}

func (s *Session) Debug() Debug { return Debug{s: s} }

// Teleport places the user at c.
func (d Debug) Teleport(c Coordinate) error {
	return d.s.apply(func() error {
		if d.s.state.CurrentLocation == nil {
			return ErrNoLocation
		}
		d.s.moveTo(c)
		return nil
	})
}

// TeleportToTarget jumps to the active mission's target. Level 1 has none,
// so it lands diagonally about 40 m from home instead.
func (d Debug) TeleportToTarget() (Coordinate, error) {
	var dest Coordinate
	err := d.s.apply(func() error {
		if d.s.state.CurrentLocation == nil || d.s.state.HomeLocation == nil {
			return ErrNoLocation
		}
		m := d.s.mission()
		if m.Target != nil {
			dest = *m.Target
		} else {
			dest = d.s.state.HomeLocation.Offset(teleportOffset, teleportOffset)
		}
		d.s.moveTo(dest)
		return nil
	})
	return dest, err
}

// Nudge shifts the current location one step north or east.
func (d Debug) Nudge(dir Direction) (Coordinate, error) {
	var dest Coordinate
	err := d.s.apply(func() error {
		cur := d.s.state.CurrentLocation
		if cur == nil {
			return ErrNoLocation
		}
		switch dir {
		case North:
			dest = cur.Offset(nudgeStep, 0)
		case East:
			dest = cur.Offset(0, nudgeStep)
		default:
			return fmt.Errorf("unknown direction %q", dir)
		}
		d.s.moveTo(dest)
		return nil
	})
	return dest, err
}

// Calibrate sets home and the current location to c, for when the
// positioning source never locks. Home is never overwritten once known.
func (d Debug) Calibrate(c Coordinate) error {
	return d.s.apply(func() error {
		if d.s.state.HomeLocation != nil {
			return fmt.Errorf("calibrate with home already set: %w", ErrInvalidTransition)
		}
		home, cur := c, c
		d.s.state.HomeLocation = &home
		d.s.state.CurrentLocation = &cur
		d.s.state.VisitedPath = []Coordinate{c}
		d.s.logger.Info("home calibrated manually", "lat", c.Lat, "lng", c.Lng)
		d.s.record(EventHomeCalibrated)
		d.s.evaluate()
		return nil
	})
}

func (s *Session) moveTo(c Coordinate) {
	cur := c
	s.state.CurrentLocation = &cur
	s.record(EventPosition)
	s.evaluate()
}
