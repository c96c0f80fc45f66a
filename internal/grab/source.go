package grab

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenSource captures a physical display through the screenshot library.
type ScreenSource struct {
	display int
}

// NewScreenSource validates the display index against the monitors actually
// present.
func NewScreenSource(display int) (*ScreenSource, error) {
	n := screenshot.NumActiveDisplays()
	if display < 0 || display >= n {
		return nil, fmt.Errorf("grab: display index %d out of range, %d active displays", display, n)
	}
	return &ScreenSource{display: display}, nil
}

func (s *ScreenSource) Bounds() (image.Rectangle, error) {
	return screenshot.GetDisplayBounds(s.display), nil
}

func (s *ScreenSource) Grab(rect image.Rectangle, dst []byte) error {
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return err
	}
	// CaptureRect returns tightly packed RGBA rows for exactly rect.
	if n := copy(dst, img.Pix); n < len(dst) {
		return fmt.Errorf("grab: short capture, %d of %d bytes", n, len(dst))
	}
	return nil
}
