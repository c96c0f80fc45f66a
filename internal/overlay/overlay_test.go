package overlay

import (
	"image"
	"testing"
)

func pixel(px []byte, w, x, y int) [4]byte {
	o := (y*w + x) * 4
	return [4]byte{px[o], px[o+1], px[o+2], px[o+3]}
}

func TestBorderRings(t *testing.T) {
	rect := image.Rect(0, 0, 16, 12)
	px := make([]byte, 16*12*4)
	Border{}.Decorate(px, rect)

	black := [4]byte{0, 0, 0, 255}
	white := [4]byte{255, 255, 255, 255}
	empty := [4]byte{}

	cases := []struct {
		x, y int
		want [4]byte
	}{
		{0, 0, black},
		{15, 11, black},
		{8, 0, black},
		{1, 1, white},
		{14, 10, white},
		{2, 2, black},
		{13, 9, black},
		{3, 3, empty}, // interior untouched
		{8, 6, empty},
	}
	for _, c := range cases {
		if got := pixel(px, 16, c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestBorderTinyFrame(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)
	px := make([]byte, 2*2*4)
	Border{}.Decorate(px, rect) // must not panic or run off the buffer
	if got := pixel(px, 2, 0, 0); got != [4]byte{0, 0, 0, 255} {
		t.Errorf("corner = %v, want black", got)
	}
}

func TestCursorDrawsAtPointer(t *testing.T) {
	rect := image.Rect(100, 100, 132, 124)
	px := make([]byte, 32*24*4)
	c := NewCursor(func() (image.Point, bool) {
		return image.Pt(105, 105), true // (5,5) in frame coordinates
	})
	c.Decorate(px, rect)

	if got := pixel(px, 32, 5, 5); got != [4]byte{0, 0, 0, 255} {
		t.Errorf("glyph origin = %v, want black outline", got)
	}
	if got := pixel(px, 32, 6, 7); got != [4]byte{255, 255, 255, 255} {
		t.Errorf("glyph fill = %v, want white", got)
	}
	if got := pixel(px, 32, 4, 5); got != [4]byte{} {
		t.Errorf("pixel left of glyph = %v, want untouched", got)
	}
}

func TestCursorSkipsOffFrameAndHidden(t *testing.T) {
	rect := image.Rect(0, 0, 16, 16)

	px := make([]byte, 16*16*4)
	NewCursor(func() (image.Point, bool) {
		return image.Pt(100, 100), true
	}).Decorate(px, rect)
	for i, b := range px {
		if b != 0 {
			t.Fatalf("off-frame pointer wrote byte %d", i)
		}
	}

	NewCursor(func() (image.Point, bool) {
		return image.Point{}, false
	}).Decorate(px, rect)
	for i, b := range px {
		if b != 0 {
			t.Fatalf("hidden pointer wrote byte %d", i)
		}
	}
}

func TestCursorClipsAtFrameEdge(t *testing.T) {
	rect := image.Rect(0, 0, 8, 8)
	px := make([]byte, 8*8*4)
	NewCursor(func() (image.Point, bool) {
		return image.Pt(6, 6), true // glyph extends past both edges
	}).Decorate(px, rect)
	if got := pixel(px, 8, 6, 6); got != [4]byte{0, 0, 0, 255} {
		t.Errorf("hotspot = %v, want black", got)
	}
}
