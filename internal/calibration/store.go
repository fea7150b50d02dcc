package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sweeney/counterwatch/internal/geometry"
)

// DefaultRectFile is where the drawer region is saved.
const DefaultRectFile = "drawer_coordinates.json"

// DefaultZoneFile is where the restricted zone polygon is saved.
const DefaultZoneFile = "zone.json"

// SaveRect writes r as indented JSON, replacing path atomically.
func SaveRect(path string, r Rect) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid rect: %w", err)
	}
	return writeJSON(path, r)
}

// LoadRect reads a saved region. Both the flat document and one nested
// under a "drawer" key are accepted.
func LoadRect(path string) (Rect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rect{}, err
	}

	var doc struct {
		Rect
		Drawer *Rect `json:"drawer"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Rect{}, fmt.Errorf("parse %s: %w", path, err)
	}
	r := doc.Rect
	if doc.Drawer != nil {
		r = *doc.Drawer
	}
	if err := r.Validate(); err != nil {
		return Rect{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Zone is the persisted restricted-zone polygon.
type Zone struct {
	Points [][2]int `json:"points"`
}

// ZoneFromPolygon converts a polygon for saving.
func ZoneFromPolygon(p geometry.Polygon) Zone {
	z := Zone{Points: make([][2]int, len(p))}
	for i, pt := range p {
		z.Points[i] = [2]int{pt.X, pt.Y}
	}
	return z
}

// Polygon converts the saved points back.
func (z Zone) Polygon() geometry.Polygon {
	p := make(geometry.Polygon, len(z.Points))
	for i, pt := range z.Points {
		p[i] = geometry.Point{X: pt[0], Y: pt[1]}
	}
	return p
}

// SaveZone writes z as indented JSON, replacing path atomically.
func SaveZone(path string, z Zone) error {
	if len(z.Points) < 3 {
		return geometry.ErrPolygon
	}
	return writeJSON(path, z)
}

// LoadZone reads a saved zone polygon.
func LoadZone(path string) (Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Zone{}, err
	}
	var z Zone
	if err := json.Unmarshal(data, &z); err != nil {
		return Zone{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(z.Points) < 3 {
		return Zone{}, fmt.Errorf("%s: %w", path, geometry.ErrPolygon)
	}
	return z, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
