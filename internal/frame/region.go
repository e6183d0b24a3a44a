package frame

import (
	"fmt"
	"image"
)

// Region is a crop window expressed as fractions of the frame size.
type Region struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// ObjectiveRegion is the on-screen objective banner in the top-left corner.
var ObjectiveRegion = Region{Top: 0.032, Bottom: 0.093, Left: 0.013, Right: 0.313}

// Validate reports fractions outside [0,1] or an inverted window.
func (r Region) Validate() error {
	for _, v := range []float64{r.Top, r.Bottom, r.Left, r.Right} {
		if v < 0 || v > 1 {
			return fmt.Errorf("region fraction %v outside [0,1]", v)
		}
	}
	if r.Top >= r.Bottom || r.Left >= r.Right {
		return fmt.Errorf("region %+v is empty", r)
	}
	return nil
}

// Rect maps the region onto bounds. Each edge is truncated toward zero,
// relative to the bounds origin.
func (r Region) Rect(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	return image.Rect(
		bounds.Min.X+int(float64(w)*r.Left),
		bounds.Min.Y+int(float64(h)*r.Top),
		bounds.Min.X+int(float64(w)*r.Right),
		bounds.Min.Y+int(float64(h)*r.Bottom),
	)
}
