package engine

import "github.com/easelhq/easel"

// Zoom bounds.
const (
	MinZoom = 0.1
	MaxZoom = 4.0
)

// Camera is the pan/zoom transform between screen space and the infinite
// canvas. Screen coordinates are measured from the viewport's top-left; the
// canvas origin projects to the viewport center at zero pan.
type Camera struct {
	Pan      easel.Vec2
	Zoom     float64
	Viewport easel.Size
}

// NewCamera returns a camera at the origin with 1:1 zoom.
func NewCamera() *Camera {
	return &Camera{Zoom: 1}
}

// SetViewport records the screen viewport size used for centering.
func (c *Camera) SetViewport(size easel.Size) {
	c.Viewport = size
}

// SetZoom sets the zoom factor, clamped to the supported range.
func (c *Camera) SetZoom(z float64) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	c.Zoom = z
}

// PanBy translates the camera by a screen-space delta.
func (c *Camera) PanBy(d easel.Vec2) {
	c.Pan = c.Pan.Add(d)
}

// ToCanvas inverts the active pan/zoom to map a screen point onto the
// canvas.
func (c *Camera) ToCanvas(screen easel.Vec2) easel.Vec2 {
	cx := c.Viewport.Width / 2
	cy := c.Viewport.Height / 2
	return easel.Vec2{
		X: (screen.X - cx - c.Pan.X) / c.Zoom,
		Y: (screen.Y - cy - c.Pan.Y) / c.Zoom,
	}
}

// ToScreen maps a canvas point into screen space.
func (c *Camera) ToScreen(canvas easel.Vec2) easel.Vec2 {
	cx := c.Viewport.Width / 2
	cy := c.Viewport.Height / 2
	return easel.Vec2{
		X: canvas.X*c.Zoom + c.Pan.X + cx,
		Y: canvas.Y*c.Zoom + c.Pan.Y + cy,
	}
}

// RectToCanvas maps a screen-space rectangle onto the canvas, normalizing
// negative extents.
func (c *Camera) RectToCanvas(r Rect) Rect {
	a := c.ToCanvas(easel.Vec2{X: r.X, Y: r.Y})
	b := c.ToCanvas(easel.Vec2{X: r.X + r.Width, Y: r.Y + r.Height})
	return rectFromPoints(a, b)
}

// rectFromPoints builds the normalized rectangle spanned by two corners.
func rectFromPoints(a, b easel.Vec2) Rect {
	x0, x1 := a.X, b.X
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := a.Y, b.Y
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
