package encode

import (
	"bytes"
	"image"
	"image/draw"
	"runtime"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"screen-grab-streamer/internal/grab"
	"screen-grab-streamer/pkg/config"
	"screen-grab-streamer/pkg/timing"
)

type EncodedFrame struct {
	Data      []byte
	Width     int
	Height    int
	Timestamp time.Time
}

// Encoder turns raw captured frames into JPEG, fanned out over one worker
// per CPU. Output keeps only the latest frames: when the out channel is
// full the oldest one is discarded.
type Encoder struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	in    <-chan *grab.Frame
	out   chan EncodedFrame
	bufs  sync.Pool
	bytes sync.Pool
	pool  sync.Pool
}

func NewEncoder(cfg *config.Config, log *zap.SugaredLogger) *Encoder {
	e := &Encoder{
		cfg: cfg,
		log: log,
		out: make(chan EncodedFrame, 8),
		bufs: sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
		bytes: sync.Pool{
			New: func() any { return make([]byte, 0, 256*1024) },
		},
		pool: sync.Pool{
			New: func() any {
				return image.NewRGBA(image.Rect(0, 0, int(cfg.ResizeWidth), int(cfg.ResizeHeight)))
			},
		},
	}
	return e
}

func (e *Encoder) Start(input <-chan *grab.Frame) {
	e.in = input
	numWorkers := runtime.NumCPU()
	for i := 0; i < numWorkers; i++ {
		go e.worker()
	}
}

func (e *Encoder) worker() {
	period := time.Second / 30
	if num, den, err := e.cfg.ParseFrameRate(); err == nil {
		period = time.Duration(int64(time.Second) * int64(den) / int64(num))
	}
	for f := range e.in {
		start := time.Now()
		src := &image.RGBA{
			Pix:    f.Data,
			Stride: f.Stride,
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}
		resized := resize.Resize(e.cfg.ResizeWidth, e.cfg.ResizeHeight, src, resize.NearestNeighbor)
		temp := e.pool.Get().(*image.RGBA)
		draw.Draw(temp, temp.Bounds(), resized, image.Point{}, draw.Src)

		buf := e.bufs.Get().(*bytes.Buffer)
		buf.Reset()
		stop := timing.Start("encode.jpeg")
		err := imaging.Encode(buf, temp, imaging.JPEG, imaging.JPEGQuality(e.cfg.JpegQuality))
		stop()
		if err != nil {
			e.log.Errorf("JPEG encoding error: %v", err)
			e.bufs.Put(buf)
			e.pool.Put(temp)
			continue
		}

		out := e.bytes.Get().([]byte)[:0]
		out = append(out, buf.Bytes()...)
		e.bufs.Put(buf)
		e.pool.Put(temp)

		frame := EncodedFrame{
			Data:      out,
			Width:     int(e.cfg.ResizeWidth),
			Height:    int(e.cfg.ResizeHeight),
			Timestamp: f.Timestamp,
		}
		select {
		case e.out <- frame:
		default:
			<-e.out
			e.out <- frame
		}

		if elapsed := time.Since(start); elapsed > period*2 {
			e.log.Warnf("encoding delay detected: %v", elapsed)
		}
	}
}

func (e *Encoder) Chan() <-chan EncodedFrame {
	return e.out
}
