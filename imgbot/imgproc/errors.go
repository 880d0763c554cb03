package imgproc

import (
	"errors"
	"fmt"
	"image"

	"github.com/m3rciful/imgbot/imgbot/dispatch"
)

// ErrDimensionMismatch is returned by Concat when the two images differ in height.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// DimensionError reports the sizes of two images that cannot be concatenated.
// It matches both ErrDimensionMismatch and dispatch.ErrInvalidImage.
type DimensionError struct {
	Left, Right image.Point
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("images must have the same height to concatenate (got %dx%d and %dx%d)",
		e.Left.X, e.Left.Y, e.Right.X, e.Right.Y)
}

// Is reports whether target is one of the sentinels the error stands for.
func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch || target == dispatch.ErrInvalidImage
}
