// Package plan defines the composition plan: the declarative request that
// drives one composition run.
//
// A plan names a template document, an output directory, the photographs to
// place (each optionally addressed to a labeled slot) and the text
// substitutions to apply. Plans are decoded from JSON, YAML or TOML and
// validated once by [Read] or [Load]; the resulting [Plan] is treated as
// read-only by every later stage.
//
// # Format
//
//	{
//	  "meta": {"template": "tpl/lovestory.json", "output_dir": "out", "pages": 12},
//	  "placements": [
//	    {"label": "COVER_IMAGE", "photo": "in/a.jpg", "orientation": "vertical", "fit": "fill"}
//	  ],
//	  "texts": {"COVER_TITLE": "Our Love Story"}
//	}
//
// Relative template, output and photo paths are resolved against the
// directory holding the plan file.
package plan

import (
	"path/filepath"
	"slices"

	"github.com/matzehuels/aizine/pkg/geom"
)

// Reserved slot labels understood by the page-count planner.
const (
	CoverLabel = "COVER_IMAGE"
	BackLabel  = "BACK_IMAGE"
)

// FitMode selects how a photograph is scaled into its frame.
type FitMode string

const (
	// FitFill scales proportionally to cover the frame, cropping overflow.
	FitFill FitMode = "fill"
	// FitContain scales proportionally to fit inside the frame, leaving margins.
	FitContain FitMode = "contain"
)

// Plan is a validated composition request.
type Plan struct {
	Template  string // template document path
	OutputDir string // directory receiving final.json and final.pdf
	Pages     int    // explicit page count, 0 when absent

	JobID       string
	Theme       string
	Category    string
	ClientName  string
	GeneratedAt string

	Placements []Placement
	Texts      map[string]string

	// Source is the file the plan was loaded from, empty for in-memory plans.
	Source string
}

// Placement is one photograph to place.
type Placement struct {
	Photo       string
	Label       string
	Orientation geom.Orientation
	Fit         FitMode
	DisplayName string
}

// Name returns the display name, falling back to the photo's base name.
func (p Placement) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return filepath.Base(p.Photo)
}

// TextLabels returns the text map keys in sorted order.
func (p *Plan) TextLabels() []string {
	labels := make([]string, 0, len(p.Texts))
	for k := range p.Texts {
		labels = append(labels, k)
	}
	slices.Sort(labels)
	return labels
}

// Labels returns the placement labels in plan order, skipping empty ones.
func (p *Plan) Labels() []string {
	var labels []string
	for _, pl := range p.Placements {
		if pl.Label != "" {
			labels = append(labels, pl.Label)
		}
	}
	return labels
}

// AllLabeled reports whether every placement carries a label.
func (p *Plan) AllLabeled() bool {
	for _, pl := range p.Placements {
		if pl.Label == "" {
			return false
		}
	}
	return len(p.Placements) > 0
}
