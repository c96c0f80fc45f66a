//go:build linux

package overlay

import (
	"image"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// SystemPointer reports the X11 pointer position in root-window
// coordinates. The connection is opened lazily on first use; without an X
// server the returned func always reports the cursor as hidden.
func SystemPointer() PointerFunc {
	var (
		once sync.Once
		conn *xgb.Conn
		root xproto.Window
	)
	return func() (image.Point, bool) {
		once.Do(func() {
			c, err := xgb.NewConn()
			if err != nil {
				return
			}
			conn = c
			root = xproto.Setup(c).DefaultScreen(c).Root
		})
		if conn == nil {
			return image.Point{}, false
		}
		reply, err := xproto.QueryPointer(conn, root).Reply()
		if err != nil {
			return image.Point{}, false
		}
		return image.Pt(int(reply.RootX), int(reply.RootY)), true
	}
}
