// Package overlay provides frame decorators for the capture session: a
// region border marking the grabbed area and a software mouse cursor.
// Decorators draw straight into the raw RGBA slot buffer on the producer
// goroutine, so they must stay cheap.
package overlay

import (
	"image"
	"image/color"
)

// Border draws a black/white/black three-ring outline along the frame edge,
// marking the capture region in the output.
type Border struct{}

func (Border) Decorate(px []byte, rect image.Rectangle) {
	w, h := rect.Dx(), rect.Dy()
	rings := []color.RGBA{
		{0, 0, 0, 255},
		{255, 255, 255, 255},
		{0, 0, 0, 255},
	}
	for inset, c := range rings {
		if w <= 2*inset+1 || h <= 2*inset+1 {
			return
		}
		for x := inset; x < w-inset; x++ {
			setPixel(px, w, x, inset, c)
			setPixel(px, w, x, h-1-inset, c)
		}
		for y := inset; y < h-inset; y++ {
			setPixel(px, w, inset, y, c)
			setPixel(px, w, w-1-inset, y, c)
		}
	}
}

func setPixel(px []byte, stridePixels, x, y int, c color.RGBA) {
	o := (y*stridePixels + x) * 4
	px[o] = c.R
	px[o+1] = c.G
	px[o+2] = c.B
	px[o+3] = c.A
}

// PointerFunc reports the pointer position in source (root) coordinates.
// ok is false when the position is unknown or the cursor is hidden.
type PointerFunc func() (pos image.Point, ok bool)

// Cursor composites an arrow glyph at the pointer position. Off-frame
// positions and hidden cursors are skipped silently.
type Cursor struct {
	pos PointerFunc
}

// NewCursor builds a cursor decorator. A nil pos falls back to
// SystemPointer, which queries the windowing system where supported.
func NewCursor(pos PointerFunc) *Cursor {
	if pos == nil {
		pos = SystemPointer()
	}
	return &Cursor{pos: pos}
}

// cursorGlyph is a classic 8x14 arrow; 'X' is the black outline, '.' the
// white fill.
var cursorGlyph = []string{
	"X       ",
	"XX      ",
	"X.X     ",
	"X..X    ",
	"X...X   ",
	"X....X  ",
	"X.....X ",
	"X......X",
	"X...XXXX",
	"X.X.X   ",
	"XX X.X  ",
	"X  X.X  ",
	"    X.X ",
	"    XX  ",
}

func (c *Cursor) Decorate(px []byte, rect image.Rectangle) {
	p, ok := c.pos()
	if !ok {
		return
	}
	p = p.Sub(rect.Min)
	w, h := rect.Dx(), rect.Dy()
	if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
		return
	}
	black := color.RGBA{0, 0, 0, 255}
	white := color.RGBA{255, 255, 255, 255}
	for gy, row := range cursorGlyph {
		for gx := 0; gx < len(row); gx++ {
			x, y := p.X+gx, p.Y+gy
			if x >= w || y >= h {
				continue
			}
			switch row[gx] {
			case 'X':
				setPixel(px, w, x, y, black)
			case '.':
				setPixel(px, w, x, y, white)
			}
		}
	}
}
