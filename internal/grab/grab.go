// Package grab implements a paced screen-capture session: a producer
// goroutine grabs frames into two alternating buffers at a target frame
// rate, and a single consumer pulls them one at a time through ReadFrame.
//
// The producer and consumer share one mutex+cond pair. At most one frame is
// ever "in stock"; the producer blocks rather than overwrite a slot the
// consumer has not taken yet.
package grab

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"screen-grab-streamer/pkg/timing"
)

// Source fills a caller-supplied buffer with one frame's raw RGBA pixels.
type Source interface {
	// Bounds reports the area available for capture.
	Bounds() (image.Rectangle, error)

	// Grab captures rect into dst. dst is sized rect.Dx()*rect.Dy()*4 and
	// must be completely filled on success.
	Grab(rect image.Rectangle, dst []byte) error
}

// Decorator mutates a grabbed frame in place before it is published.
// Decorators run on the producer goroutine; px is the slot buffer and rect
// the capture area in source coordinates.
type Decorator interface {
	Decorate(px []byte, rect image.Rectangle)
}

// Rate is a rational frame rate.
type Rate struct {
	Num int
	Den int
}

// Interval returns the frame period 1/rate.
func (r Rate) Interval() time.Duration {
	return time.Duration(int64(time.Second) * int64(r.Den) / int64(r.Num))
}

// Frame is one captured frame as handed to the consumer. Data is a private
// copy; the caller may hold it as long as it likes.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Stride    int
	Timestamp time.Time
}

// Options configure Open.
type Options struct {
	// Rect is the capture area in source coordinates. The zero rectangle
	// means the full source bounds.
	Rect image.Rectangle

	// Framerate sets the target capture rate.
	Framerate Rate

	// Decorators are applied to every successfully grabbed frame, in order.
	Decorators []Decorator

	// Logger receives producer trace logs. Nil means no logging.
	Logger *zap.SugaredLogger
}

// slot is one of the two alternating capture buffers.
type slot struct {
	buf []byte
	ts  time.Time
}

// Stats is a snapshot of session counters.
type Stats struct {
	Grabs     uint64 // capture attempts
	Published uint64 // frames handed over to the consumer side
	Drops     uint64 // transient capture failures, skipped silently
}

// Session is one capture stream. Open starts it, ReadFrame pulls from it,
// Close tears it down. All methods are safe for concurrent use, but only a
// single consumer should call ReadFrame.
type Session struct {
	src        Source
	rect       image.Rectangle
	interval   time.Duration
	decorators []Decorator
	log        *zap.SugaredLogger

	mu      sync.Mutex
	cond    *sync.Cond
	slots   [2]slot
	inStock *slot // non-nil: a frame awaits consumption
	err     error // terminal, set only on a first-attempt failure
	quit    bool
	closed  bool

	wg sync.WaitGroup

	grabs     atomic.Uint64
	published atomic.Uint64
	drops     atomic.Uint64
}

// Open validates the capture geometry, allocates the two slot buffers and
// spawns the producer. It does not return until the first capture attempt
// has completed: a failure there is fatal and reported here, with no
// goroutine left behind.
func Open(src Source, opts Options) (*Session, error) {
	if opts.Framerate.Num <= 0 || opts.Framerate.Den <= 0 {
		return nil, fmt.Errorf("grab: invalid framerate %d/%d", opts.Framerate.Num, opts.Framerate.Den)
	}
	bounds, err := src.Bounds()
	if err != nil {
		return nil, fmt.Errorf("grab: source bounds: %w", err)
	}
	rect := opts.Rect
	if rect == (image.Rectangle{}) {
		rect = bounds
	}
	if rect.Dx() <= 0 || rect.Dy() <= 0 || !rect.In(bounds) {
		return nil, fmt.Errorf("grab: capture area %v extends outside source area %v", rect, bounds)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &Session{
		src:        src,
		rect:       rect,
		interval:   opts.Framerate.Interval(),
		decorators: opts.Decorators,
		log:        log,
	}
	s.cond = sync.NewCond(&s.mu)
	size := rect.Dx() * rect.Dy() * 4
	for i := range s.slots {
		s.slots[i].buf = make([]byte, size)
	}

	first := make(chan error, 1)
	s.wg.Add(1)
	go s.produce(first)

	if err := <-first; err != nil {
		s.wg.Wait()
		s.release()
		return nil, err
	}
	return s, nil
}

// produce is the producer loop. Each iteration grabs into the slot not held
// by the consumer, publishes it, then paces out the rest of the frame
// period. The result of the very first attempt is sent on first exactly
// once.
func (s *Session) produce(first chan<- error) {
	defer s.wg.Done()

	p := newPacer(s.interval)
	end := time.Now()
	for i, sn := 0, 0; !s.quitRequested(); i, sn = (i+1)%2, sn+1 {
		// time_start of this frame is time_end of the last one.
		start := end
		sl := &s.slots[i]

		// After a dropped cycle the alternation can land back on the slot
		// the consumer still holds; never write it while it is in stock.
		s.mu.Lock()
		for s.inStock == sl && !s.quit {
			s.cond.Wait()
		}
		if s.quit {
			s.mu.Unlock()
			if sn == 0 {
				first <- nil
			}
			return
		}
		s.mu.Unlock()

		stop := timing.Start("grab.capture")
		err := s.src.Grab(s.rect, sl.buf)
		stop()
		s.grabs.Add(1)
		if err == nil {
			for _, d := range s.decorators {
				d.Decorate(sl.buf, s.rect)
			}
			sl.ts = start
		}

		if err != nil {
			if sn == 0 {
				ferr := fmt.Errorf("grab: first capture attempt: %w", err)
				s.mu.Lock()
				s.err = ferr
				s.cond.Broadcast()
				s.mu.Unlock()
				first <- ferr
				return
			}
			// Transient: skip this cycle, retry at the next period.
			s.drops.Add(1)
			s.log.Debugf("grab: capture failed, frame dropped, sn:%04d: %v", sn, err)
			end = p.pace(start)
			continue
		}

		s.mu.Lock()
		for s.inStock != nil && !s.quit {
			s.cond.Wait()
		}
		if s.quit {
			s.mu.Unlock()
			if sn == 0 {
				first <- nil
			}
			return
		}
		s.inStock = sl
		s.published.Add(1)
		s.cond.Broadcast()
		s.mu.Unlock()
		if sn == 0 {
			first <- nil
		}

		end = p.pace(start)
		s.log.Debugf("grab: frame finished, sn:%04d, index:%d, balance:%v", sn, i, p.balance)
	}
}

func (s *Session) quitRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quit
}

// ReadFrame pulls the next frame. With blocking false it returns
// ErrWouldBlock immediately when nothing is in stock. With blocking true it
// waits for one condition signal; waking without a frame means the producer
// has terminated.
func (s *Session) ReadFrame(blocking bool) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Wake the producer if it is waiting for slot reuse, whatever path we
	// return on.
	defer s.cond.Broadcast()

	if s.err != nil {
		return nil, s.err
	}
	if s.quit {
		return nil, ErrTerminated
	}
	if s.inStock != nil {
		return s.take(), nil
	}
	if !blocking {
		return nil, ErrWouldBlock
	}
	s.cond.Wait()
	if s.inStock != nil {
		return s.take(), nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, ErrTerminated
}

// take copies the in-stock frame out and clears the slot reference,
// returning ownership of the buffer to the producer. Caller holds mu.
func (s *Session) take() *Frame {
	sl := s.inStock
	f := &Frame{
		Data:      append([]byte(nil), sl.buf...),
		Width:     s.rect.Dx(),
		Height:    s.rect.Dy(),
		Stride:    s.rect.Dx() * 4,
		Timestamp: sl.ts,
	}
	s.inStock = nil
	return f
}

// Rect reports the capture area actually in use.
func (s *Session) Rect() image.Rectangle {
	return s.rect
}

// Stats returns a counter snapshot.
func (s *Session) Stats() Stats {
	return Stats{
		Grabs:     s.grabs.Load(),
		Published: s.published.Load(),
		Drops:     s.drops.Load(),
	}
}

// Close requests the producer to quit, joins it and releases the slot
// buffers. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.quit = true
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()
	s.release()
}

func (s *Session) release() {
	s.mu.Lock()
	s.inStock = nil
	for i := range s.slots {
		s.slots[i].buf = nil
	}
	s.mu.Unlock()
}
