package compose

import (
	"regexp"
	"strconv"

	"github.com/matzehuels/aizine/pkg/plan"
)

// MinPages is the smallest publication: a front and a back.
const MinPages = 2

var pageLabel = regexp.MustCompile(`^PAGE_(\d+)_IMG`)

// PlanPageCount returns the number of pages the publication needs.
//
// An explicit count wins. Otherwise the count is derived from placement
// labels: COVER_IMAGE needs one page and PAGE_N_IMG… needs page N, where
// interior pages are numbered from zero and follow the cover when there is
// one. A BACK_IMAGE anywhere adds one more page. The result is normalized
// to an even number of at least MinPages.
func PlanPageCount(placements []plan.Placement, explicit int) int {
	if explicit > 0 {
		return NormalizePageCount(explicit)
	}

	cover, back := false, false
	last := -1
	for _, p := range placements {
		switch p.Label {
		case plan.CoverLabel:
			cover = true
		case plan.BackLabel:
			back = true
		default:
			m := pageLabel.FindStringSubmatch(p.Label)
			if m == nil {
				continue
			}
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			last = max(last, idx)
		}
	}

	n := 0
	if cover {
		n = 1
	}
	if last >= 0 {
		n += last + 1
	}
	if back {
		n++
	}
	return NormalizePageCount(n)
}

// NormalizePageCount rounds n up to an even count of at least MinPages.
func NormalizePageCount(n int) int {
	if n < MinPages {
		return MinPages
	}
	if n%2 != 0 {
		n++
	}
	return n
}
