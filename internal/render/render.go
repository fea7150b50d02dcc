// Package render draws the monitoring overlay onto a frame and keeps the
// latest annotated snapshot as JPEG.
package render

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/sweeney/counterwatch/internal/detect"
	"github.com/sweeney/counterwatch/internal/geometry"
)

var (
	Red    = color.RGBA{255, 0, 0, 255}
	Green  = color.RGBA{0, 255, 0, 255}
	Blue   = color.RGBA{0, 0, 255, 255}
	Yellow = color.RGBA{255, 255, 0, 255}
)

// Line is one row of status text in the top-left corner.
type Line struct {
	Text  string
	Color color.RGBA
}

// Overlay is everything drawn on top of a frame.
type Overlay struct {
	Zone       geometry.Polygon
	Drawer     *geometry.Box
	Detections []detect.Detection
	// Matches marks which detections satisfied a membership rule; they are
	// drawn red, the rest green.
	Matches []bool
	Lines   []Line
}

// Annotate returns a copy of img with the overlay drawn on it.
func Annotate(img image.Image, o Overlay) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)

	if len(o.Zone) > 1 {
		drawPolygon(dst, o.Zone, Yellow, 2)
		top := o.Zone.Bounds()
		drawLabel(dst, top.X1, top.Y1-14, "Restricted", Yellow)
	}

	if o.Drawer != nil {
		drawPolygon(dst, geometry.PolygonFromBox(*o.Drawer), Blue, 2)
		drawLabel(dst, o.Drawer.X1, o.Drawer.Y1-14, "Drawer", Blue)
	}

	for i, d := range o.Detections {
		c := Green
		if i < len(o.Matches) && o.Matches[i] {
			c = Red
		}
		drawBox(dst, d.Box, c, 2)
		drawLabel(dst, d.Box.X1, d.Box.Y1-14, fmt.Sprintf("%s %.0f%%", d.Label, d.Score*100), c)
	}

	for i, l := range o.Lines {
		drawLabel(dst, b.Min.X+10, b.Min.Y+10+i*16, l.Text, l.Color)
	}
	return dst
}

func drawPolygon(img *image.RGBA, poly geometry.Polygon, c color.RGBA, thickness int) {
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		drawLine(img, a.X, a.Y, b.X, b.Y, c, thickness)
	}
}

func drawBox(img *image.RGBA, box geometry.Box, c color.RGBA, thickness int) {
	box = box.Canon()
	for t := 0; t < thickness; t++ {
		drawLine(img, box.X1, box.Y1+t, box.X2, box.Y1+t, c, 1)
		drawLine(img, box.X1, box.Y2-t, box.X2, box.Y2-t, c, 1)
		drawLine(img, box.X1+t, box.Y1, box.X1+t, box.Y2, c, 1)
		drawLine(img, box.X2-t, box.Y1, box.X2-t, box.Y2, c, 1)
	}
}

// drawLine draws a Bresenham line, widened by thickness pixels.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA, thickness int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		for t := 0; t < thickness; t++ {
			set(img, x0+t, y0, c)
			set(img, x0, y0+t, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawLabel(img *image.RGBA, x, y int, label string, c color.RGBA) {
	b := img.Bounds()
	if y < b.Min.Y {
		y = b.Min.Y
	}
	if x < b.Min.X {
		x = b.Min.X
	}

	bg := color.RGBA{0, 0, 0, 180}
	width := font.MeasureString(basicfont.Face7x13, label).Ceil()
	for py := y - 2; py < y+14; py++ {
		for px := x - 2; px < x+width+2; px++ {
			set(img, px, py, bg)
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + 10)},
	}
	d.DrawString(label)
}

func set(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
