package document

import (
	"math"

	"github.com/matzehuels/aizine/pkg/errors"
	"github.com/matzehuels/aizine/pkg/geom"
)

// fit computes new content bounds for a frame. Scaling steps keep the
// content anchored at the frame's top-left corner; CenterContent moves it
// without scaling.
func fit(frame, content geom.Bounds, opt FitOption) (geom.Bounds, error) {
	cw, ch := content.Width(), content.Height()
	switch opt {
	case CenterContent:
		return content.CenterIn(frame), nil
	case FillProportionally, Proportionally:
		if cw <= 0 || ch <= 0 {
			return content, errors.New(errors.ErrCodeInvalidInput, "content has no size")
		}
		sx, sy := frame.Width()/cw, frame.Height()/ch
		s := math.Max(sx, sy)
		if opt == Proportionally {
			s = math.Min(sx, sy)
		}
		return frame.Sized(cw*s, ch*s), nil
	}
	return content, errors.New(errors.ErrCodeInvalidInput, "unknown fit option %q", opt)
}
