package compose

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/geom"
	"github.com/matzehuels/aizine/pkg/observability"
	"github.com/matzehuels/aizine/pkg/plan"
)

// Strategy selects how photographs are assigned to frames.
type Strategy string

const (
	StrategyAuto     Strategy = "auto"
	StrategyLabel    Strategy = "label"
	StrategyGeometry Strategy = "geometry"
)

// ParseStrategy converts a flag or config value. The empty string means
// StrategyAuto.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyAuto, StrategyLabel, StrategyGeometry:
		return st, nil
	case "":
		return StrategyAuto, nil
	}
	return "", fmt.Errorf("invalid strategy %q (must be auto, label or geometry)", s)
}

// Miss reasons recorded in Result.Unresolved.
const (
	ReasonNoLabel       = "no target label"
	ReasonLabelNotFound = "label not found"
	ReasonNoRegion      = "no page with a free region"
)

// Outcome is the result of assigning one placement.
type Outcome struct {
	Placement plan.Placement
	// Frames lists the frames that received the photo.
	Frames []document.ItemID
	Reason string // why nothing was placed
	Err    error  // last placement failure, if any
}

// Placed reports whether the photo landed in at least one frame.
func (o Outcome) Placed() bool { return len(o.Frames) > 0 }

// ChooseStrategy resolves StrategyAuto: label matching when every placement
// carries a label that names at least one image-capable frame, geometry
// otherwise. The returned string explains the choice.
func ChooseStrategy(doc document.Document, placements []plan.Placement) (Strategy, string) {
	if len(placements) == 0 {
		return StrategyGeometry, "no placements"
	}
	labeled := make(map[string]bool)
	for _, it := range doc.AllPageItems() {
		if it.Label != "" && it.Kind.ImageCapable() {
			labeled[it.Label] = true
		}
	}
	for _, p := range placements {
		if p.Label == "" {
			return StrategyGeometry, "placement without label: " + p.Name()
		}
		if !labeled[p.Label] {
			return StrategyGeometry, "label not in template: " + p.Label
		}
	}
	return StrategyLabel, "every placement label resolves"
}

// MatchLabels places each photo into every rectangle whose label equals
// the placement's label. When no rectangle took the photo, every other
// page item with that label is tried instead. Placements without a label
// are reported as misses.
func MatchLabels(ctx context.Context, doc document.Document, placements []plan.Placement, placer *Placer, logger *log.Logger) []Outcome {
	logger = orDiscard(logger)
	rects := doc.Rectangles()
	all := doc.AllPageItems()

	outcomes := make([]Outcome, 0, len(placements))
	for _, p := range placements {
		o := Outcome{Placement: p}
		if p.Label == "" {
			o.Reason = ReasonNoLabel
			logger.Warn("placement has no label", "photo", p.Name())
			outcomes = append(outcomes, o)
			continue
		}

		candidates := 0
		tried := make(map[document.ItemID]bool)
		try := func(it document.Item) {
			candidates++
			tried[it.ID] = true
			if err := placer.Place(doc, NewRegion(it), p.Photo, p.Fit); err != nil {
				o.Err = err
				return
			}
			o.Frames = append(o.Frames, it.ID)
		}

		for _, it := range rects {
			if it.Label == p.Label {
				try(it)
			}
		}
		if !o.Placed() {
			for _, it := range all {
				if it.Label == p.Label && !tried[it.ID] {
					try(it)
				}
			}
		}

		switch {
		case o.Placed():
			logger.Debug("placed by label", "label", p.Label, "photo", p.Name(), "frames", len(o.Frames))
		case candidates == 0:
			o.Reason = ReasonLabelNotFound
			logger.Warn("label not found", "label", p.Label, "photo", p.Name())
		default:
			o.Reason = fmt.Sprintf("placement failed: %v", o.Err)
		}
		observability.Composition().OnPlacement(ctx, string(StrategyLabel), p.Label, o.Placed())
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// MatchGeometry walks pages in order with one cursor over the placements.
// Each page with at least one frame takes the next photo in its best
// frame; the cursor advances whether or not placing succeeded. Placements
// left when the pages run out are reported as misses.
func MatchGeometry(ctx context.Context, doc document.Document, placements []plan.Placement, placer *Placer, logger *log.Logger) []Outcome {
	logger = orDiscard(logger)
	outcomes := make([]Outcome, 0, len(placements))

	next := 0
	for page := 0; page < doc.PageCount() && next < len(placements); page++ {
		regions, err := Inventory(doc, page)
		if err != nil {
			logger.Warn("inventory failed", "page", page+1, "err", err)
			continue
		}
		if len(regions) == 0 {
			continue
		}

		p := placements[next]
		next++
		r := BestRegion(regions, p.Orientation)
		o := Outcome{Placement: p}
		if err := placer.Place(doc, r, p.Photo, p.Fit); err != nil {
			o.Err = err
			o.Reason = fmt.Sprintf("placement failed: %v", err)
		} else {
			o.Frames = []document.ItemID{r.ID}
			logger.Debug("placed by geometry", "page", page+1, "photo", p.Name(),
				"orientation", p.Orientation, "frame", r.Orientation, "area", r.Area)
		}
		observability.Composition().OnPlacement(ctx, string(StrategyGeometry), p.Label, o.Placed())
		outcomes = append(outcomes, o)
	}

	for _, p := range placements[next:] {
		logger.Warn("no page left for photo", "photo", p.Name())
		observability.Composition().OnPlacement(ctx, string(StrategyGeometry), p.Label, false)
		outcomes = append(outcomes, Outcome{Placement: p, Reason: ReasonNoRegion})
	}
	return outcomes
}

// BestRegion picks the largest region matching the orientation, or the
// largest region overall when none matches. The first region wins ties.
// regions must not be empty.
func BestRegion(regions []Region, o geom.Orientation) Region {
	best := -1
	if o != geom.Unknown {
		for i, r := range regions {
			if r.Orientation == o && (best < 0 || r.Area > regions[best].Area) {
				best = i
			}
		}
	}
	if best < 0 {
		best = 0
		for i, r := range regions {
			if r.Area > regions[best].Area {
				best = i
			}
		}
	}
	return regions[best]
}
