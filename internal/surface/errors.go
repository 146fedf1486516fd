package surface

import "github.com/pkg/errors"

var (
	ErrAcquire = errors.New("could not dequeue buffer")
	ErrLock    = errors.New("could not lock buffer")
	ErrHandoff = errors.New("could not enqueue buffer")
	ErrStopped = errors.New("client stopped")
)

// BufferError is returned by Client.Post when the buffer protocol fails. It
// matches both the step that failed (ErrAcquire, ErrLock or ErrHandoff) and
// the surface's own error.
type BufferError struct {
	Op  error
	Err error
}

func (e *BufferError) Error() string {
	return e.Op.Error() + ": " + e.Err.Error()
}

func (e *BufferError) Is(target error) bool {
	return target == e.Op
}

func (e *BufferError) Unwrap() error {
	return e.Err
}

// Cause reports the failed step, for errors.Cause.
func (e *BufferError) Cause() error {
	return e.Op
}
