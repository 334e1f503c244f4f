package compose

import (
	"cmp"
	"slices"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/geom"
)

// RowTolerance is the largest difference between consecutive frame tops,
// in points, for frames to count as one row.
const RowTolerance = 10.0

// Region is a frame able to hold a photograph.
type Region struct {
	ID          document.ItemID
	Page        int
	Kind        document.ShapeKind
	Label       string
	Bounds      geom.Bounds
	Width       float64
	Height      float64
	Area        float64
	Orientation geom.Orientation

	order int // position in document order
}

// NewRegion derives a region's geometry from a document item.
func NewRegion(it document.Item) Region {
	w, h := it.Bounds.Width(), it.Bounds.Height()
	return Region{
		ID:          it.ID,
		Page:        it.Page,
		Kind:        it.Kind,
		Label:       it.Label,
		Bounds:      it.Bounds,
		Width:       w,
		Height:      h,
		Area:        w * h,
		Orientation: geom.Classify(w, h),
	}
}

// Inventory returns the image-capable frames on a page (rectangles,
// polygons and ovals) in reading order.
func Inventory(doc document.Document, page int) ([]Region, error) {
	items, err := doc.PageItems(page)
	if err != nil {
		return nil, err
	}
	regions := make([]Region, 0, len(items))
	for i, it := range items {
		if !it.Kind.ImageCapable() {
			continue
		}
		r := NewRegion(it)
		r.order = i
		regions = append(regions, r)
	}
	return ReadingOrder(regions), nil
}

// ReadingOrder sorts regions top to bottom, then left to right within a
// row. Rows are formed by single linkage: after sorting by top, a region
// whose top is within RowTolerance of the previous region's top joins its
// row. Regions with equal position keep their document order.
func ReadingOrder(regions []Region) []Region {
	out := slices.Clone(regions)
	slices.SortStableFunc(out, func(a, b Region) int {
		return cmp.Or(cmp.Compare(a.Bounds.Top, b.Bounds.Top), cmp.Compare(a.order, b.order))
	})

	start := 0
	for i := 1; i <= len(out); i++ {
		if i < len(out) && out[i].Bounds.Top-out[i-1].Bounds.Top < RowTolerance {
			continue
		}
		row := out[start:i]
		slices.SortStableFunc(row, func(a, b Region) int {
			return cmp.Or(cmp.Compare(a.Bounds.Left, b.Bounds.Left), cmp.Compare(a.order, b.order))
		})
		start = i
	}
	return out
}
