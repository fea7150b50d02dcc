// Package zone turns per-frame detections into a membership signal for a
// restricted zone or a reference box. It keeps no state between frames.
package zone

import (
	"fmt"

	"github.com/sweeney/counterwatch/internal/detect"
	"github.com/sweeney/counterwatch/internal/geometry"
)

// Mode selects how a detection is matched against the reference geometry.
type Mode string

const (
	// ModeInside matches when the detection's foot point lies in Zone.
	ModeInside Mode = "inside"
	// ModeNear matches when the detection's centre is closer than Radius
	// to the centre of Reference.
	ModeNear Mode = "near"
)

// DefaultLabel is the detection label that counts.
const DefaultLabel = "person"

// Membership describes the reference geometry for one signal.
type Membership struct {
	Mode      Mode
	Zone      geometry.Polygon
	Reference geometry.Box
	Radius    float64
	// Label restricts matching to this detection label; empty means DefaultLabel.
	Label string
}

// Inside returns a membership testing foot points against zone.
func Inside(zone geometry.Polygon) Membership {
	return Membership{Mode: ModeInside, Zone: zone, Label: DefaultLabel}
}

// Near returns a membership testing centre distance to ref.
func Near(ref geometry.Box, radius float64) Membership {
	return Membership{Mode: ModeNear, Reference: ref, Radius: radius, Label: DefaultLabel}
}

// Validate checks the geometry for the chosen mode.
func (m Membership) Validate() error {
	switch m.Mode {
	case ModeInside:
		if len(m.Zone) < 3 {
			return geometry.ErrPolygon
		}
	case ModeNear:
		if m.Radius <= 0 {
			return fmt.Errorf("near radius must be > 0, got %v", m.Radius)
		}
	default:
		return fmt.Errorf("unknown zone mode %q", m.Mode)
	}
	return nil
}

// Match reports whether a single detection satisfies the membership.
func (m Membership) Match(d detect.Detection) bool {
	label := m.Label
	if label == "" {
		label = DefaultLabel
	}
	if d.Label != label {
		return false
	}
	switch m.Mode {
	case ModeInside:
		return m.Zone.Contains(d.Box.Foot())
	case ModeNear:
		return geometry.Distance(d.Box.Center(), m.Reference.Center()) < m.Radius
	}
	return false
}

// Matches reports the per-detection result, in input order.
func (m Membership) Matches(dets []detect.Detection) []bool {
	out := make([]bool, len(dets))
	for i, d := range dets {
		out[i] = m.Match(d)
	}
	return out
}

// Measure returns the number of matching detections, the signal fed to a
// monitor with an enter threshold of 1.
func (m Membership) Measure(dets []detect.Detection) float64 {
	n := 0
	for _, d := range dets {
		if m.Match(d) {
			n++
		}
	}
	return float64(n)
}
