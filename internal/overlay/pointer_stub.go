//go:build !linux

package overlay

import "image"

// SystemPointer has no implementation on this platform; the cursor stays
// hidden unless the caller supplies its own PointerFunc.
func SystemPointer() PointerFunc {
	return func() (image.Point, bool) {
		return image.Point{}, false
	}
}
