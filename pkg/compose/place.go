package compose

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/errors"
	"github.com/matzehuels/aizine/pkg/plan"
)

// Placer puts one photograph into one frame and fits it.
type Placer struct {
	Logger *log.Logger
}

// NewPlacer returns a placer logging to logger.
func NewPlacer(logger *log.Logger) *Placer {
	return &Placer{Logger: orDiscard(logger)}
}

// Place imports the photo at path into region and fits it: fill covers the
// frame and crops the overflow, contain fits the whole photo inside the
// frame. The content is then centered. A nil error means the photo is in
// place; failures are logged and returned, and never abort the run.
func (p *Placer) Place(doc document.Document, region Region, path string, fit plan.FitMode) error {
	logger := orDiscard(p.Logger)

	if _, err := os.Stat(path); err != nil {
		err = errors.Wrap(errors.ErrCodeFileNotFound, err, "photo not found: %s", path)
		logger.Warn("photo missing", "path", path, "frame", region.ID, "page", region.Page+1)
		return err
	}

	if err := doc.Place(region.ID, path); err != nil {
		logger.Warn("place failed", "path", path, "frame", region.ID, "err", err)
		return err
	}

	opt := document.FillProportionally
	if fit == plan.FitContain {
		opt = document.Proportionally
	}
	for _, o := range []document.FitOption{opt, document.CenterContent} {
		if err := doc.Fit(region.ID, o); err != nil {
			logger.Warn("fit failed", "path", path, "frame", region.ID, "fit", o, "err", err)
			return err
		}
	}

	logger.Debug("placed photo", "path", path, "frame", region.ID, "page", region.Page+1,
		"label", region.Label, "fit", fit)
	return nil
}
