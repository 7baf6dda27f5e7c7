package frame

import "github.com/cockroachdb/errors"

// Source hands out frames and takes them back for submission.
type Source[F any] interface {
	// Acquire returns false without an error when the source is shutting
	// down.
	Acquire() (F, bool, error)
	Submit(f F) error
}

// DrawFunc records the commands for one frame.
type DrawFunc[F any] func(f F) error

// Run acquires frames from src, hands each to draw and submits it, until
// src reports shutdown or an error occurs. A frame that was acquired is
// always submitted, even if draw fails.
func Run[F any](src Source[F], draw DrawFunc[F]) error {
	for {
		f, ok, err := src.Acquire()
		if err != nil {
			return errors.Wrap(err, "acquiring frame")
		}
		if !ok {
			return nil
		}

		drawErr := draw(f)
		if drawErr != nil {
			drawErr = errors.Wrap(drawErr, "drawing frame")
		}

		if err := src.Submit(f); err != nil {
			return errors.CombineErrors(drawErr, errors.Wrap(err, "submitting frame"))
		}
		if drawErr != nil {
			return drawErr
		}
	}
}
