package encode

import (
	"bytes"
	"image/jpeg"
	"testing"
	"time"

	"go.uber.org/zap"

	"screen-grab-streamer/internal/grab"
	"screen-grab-streamer/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		FrameRate:    "30",
		ResizeWidth:  64,
		ResizeHeight: 48,
		JpegQuality:  80,
	}
}

func solidFrame(w, h int, ts time.Time) *grab.Frame {
	data := make([]byte, w*h*4)
	for i := 0; i < len(data); i += 4 {
		data[i] = 200 // red
		data[i+3] = 255
	}
	return &grab.Frame{Data: data, Width: w, Height: h, Stride: w * 4, Timestamp: ts}
}

func TestEncoderProducesJPEG(t *testing.T) {
	enc := NewEncoder(testConfig(), zap.NewNop().Sugar())
	in := make(chan *grab.Frame, 1)
	enc.Start(in)
	defer close(in)

	ts := time.Now()
	in <- solidFrame(128, 96, ts)

	select {
	case out := <-enc.Chan():
		img, err := jpeg.Decode(bytes.NewReader(out.Data))
		if err != nil {
			t.Fatalf("output is not valid JPEG: %v", err)
		}
		b := img.Bounds()
		if b.Dx() != 64 || b.Dy() != 48 {
			t.Errorf("decoded size %dx%d, want 64x48", b.Dx(), b.Dy())
		}
		if out.Width != 64 || out.Height != 48 {
			t.Errorf("reported size %dx%d, want 64x48", out.Width, out.Height)
		}
		if !out.Timestamp.Equal(ts) {
			t.Errorf("timestamp %v, want %v", out.Timestamp, ts)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no encoded frame produced")
	}
}

func TestEncoderKeepsLatestWhenOutputFull(t *testing.T) {
	enc := NewEncoder(testConfig(), zap.NewNop().Sugar())
	in := make(chan *grab.Frame, 32)
	enc.Start(in)
	defer close(in)

	// More frames than the out channel holds; the encoder must drop the
	// oldest rather than stall.
	for i := 0; i < 24; i++ {
		in <- solidFrame(64, 48, time.Now())
	}
	deadline := time.After(5 * time.Second)
	got := 0
	for got == 0 {
		select {
		case <-enc.Chan():
			got++
		case <-deadline:
			t.Fatal("encoder stalled with full output channel")
		}
	}
}
