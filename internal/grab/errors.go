package grab

import "errors"

var (
	// ErrWouldBlock is returned by a non-blocking ReadFrame when no frame
	// is in stock. The session itself is healthy.
	ErrWouldBlock = errors.New("grab: no frame in stock")

	// ErrTerminated is returned by ReadFrame once the session has been
	// closed, or when a blocking read is woken without a frame because the
	// producer exited.
	ErrTerminated = errors.New("grab: stream terminated")
)
