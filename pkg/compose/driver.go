package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/errors"
	"github.com/matzehuels/aizine/pkg/geom"
	"github.com/matzehuels/aizine/pkg/imageinfo"
	"github.com/matzehuels/aizine/pkg/observability"
	"github.com/matzehuels/aizine/pkg/plan"
)

// Artifact file names written to the plan's output directory.
const (
	DocumentFile = "final.json"
	PDFFile      = "final.pdf"
	PreviewFile  = "preview.jpg"
)

// Opener opens a template document.
type Opener func(path string) (document.Document, error)

// Prober reads photo dimensions for orientation inference.
type Prober interface {
	Probe(ctx context.Context, path string) (imageinfo.Info, error)
}

// Options tune a composition run.
type Options struct {
	Strategy Strategy
	// InferOrientation classifies placements with unknown orientation from
	// the photo's pixel dimensions.
	InferOrientation bool
	// Preset is the export preset name; unknown names fall back to the
	// renderer's first preset.
	Preset string
	// Preview also exports a JPEG thumbnail of the first page.
	Preview bool
}

// Driver sequences the stages of a composition run.
type Driver struct {
	Open    Opener
	Placer  *Placer
	Prober  Prober
	Logger  *log.Logger
	Options Options
}

// NewDriver returns a driver opening templates with open.
func NewDriver(open Opener, logger *log.Logger, opts Options) *Driver {
	logger = orDiscard(logger)
	return &Driver{
		Open:    open,
		Placer:  NewPlacer(logger),
		Prober:  imageinfo.Default(),
		Logger:  logger,
		Options: opts,
	}
}

// Run loads the plan at planPath and composes it. The returned Result is
// never nil; a fatal failure is also returned as a *StageError.
func (d *Driver) Run(ctx context.Context, planPath string) (*Result, error) {
	res := d.newResult()
	res.Plan = planPath

	var p *plan.Plan
	err := d.stage(ctx, res, StageLoadPlan, func() error {
		var err error
		p, err = plan.Load(planPath)
		return err
	})
	if err != nil {
		return d.fail(res, StageLoadPlan, err)
	}
	return d.compose(ctx, p, res)
}

// Compose runs a plan that is already loaded, starting at open_template.
func (d *Driver) Compose(ctx context.Context, p *plan.Plan) (*Result, error) {
	res := d.newResult()
	res.Plan = p.Source
	return d.compose(ctx, p, res)
}

func (d *Driver) newResult() *Result {
	return &Result{
		RunID:      uuid.NewString(),
		Started:    time.Now(),
		Unresolved: []Miss{},
	}
}

func (d *Driver) compose(ctx context.Context, p *plan.Plan, res *Result) (*Result, error) {
	logger := orDiscard(d.Logger)
	res.JobID = p.JobID
	res.Template = p.Template
	res.OutputDir = p.OutputDir
	logger.Info("composition started", "run", res.RunID, "job", p.JobID, "template", p.Template,
		"placements", len(p.Placements), "texts", len(p.Texts))

	if d.Open == nil {
		return d.fail(res, StageOpenTemplate, errors.New(errors.ErrCodeInternal, "no template opener configured"))
	}
	var doc document.Document
	err := d.stage(ctx, res, StageOpenTemplate, func() error {
		var err error
		doc, err = d.Open(p.Template)
		return err
	})
	if err != nil {
		return d.fail(res, StageOpenTemplate, err)
	}
	d.logLabels(doc)

	fatal := d.populate(ctx, p, doc, res)

	// The document is closed even when persisting or exporting failed.
	_ = d.stage(ctx, res, StageClose, func() error {
		if err := doc.Close(); err != nil {
			logger.Warn("close failed", "err", err)
		}
		return nil
	})

	if fatal != nil {
		return d.fail(res, fatal.Stage, fatal.Err)
	}
	res.State = StageDone
	res.Duration = time.Since(res.Started)
	logger.Info("composition done", "pages", res.PagesAfter, "placed", res.ImagesPlaced,
		"attempted", res.ImagesAttempted, "unresolved", len(res.Unresolved), "duration", res.Duration)
	return res, nil
}

// populate runs the stages between open_template and close. Only persist
// and export can fail the run.
func (d *Driver) populate(ctx context.Context, p *plan.Plan, doc document.Document, res *Result) *StageError {
	logger := orDiscard(d.Logger)

	_ = d.stage(ctx, res, StageSynchronizePages, func() error {
		res.PageCount = PlanPageCount(p.Placements, p.Pages)
		res.Sync = SynchronizePages(doc, res.PageCount, logger)
		res.PagesBefore, res.PagesAfter = res.Sync.Before, res.Sync.After
		if res.Sync.Err != nil {
			res.Unresolved = append(res.Unresolved, Miss{
				Kind:   MissPage,
				Name:   fmt.Sprintf("%d of %d pages", res.Sync.After, res.Sync.Target),
				Reason: res.Sync.Error,
			})
		}
		return nil
	})

	_ = d.stage(ctx, res, StageBindText, func() error {
		r := BindTexts(doc, p.Texts, logger)
		res.TextsBound, res.TextFramesSet = r.Bound, r.FramesSet
		res.Unresolved = append(res.Unresolved, r.Misses...)
		return nil
	})

	_ = d.stage(ctx, res, StageMatchAndPlace, func() error {
		d.placeImages(ctx, p, doc, res)
		return nil
	})

	docPath := filepath.Join(p.OutputDir, DocumentFile)
	err := d.stage(ctx, res, StagePersist, func() error {
		if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create output dir %s", p.OutputDir)
		}
		return doc.Save(docPath)
	})
	if err != nil {
		return &StageError{Stage: StagePersist, Err: err}
	}
	res.Artifacts.Document = docPath
	logger.Info("saved document", "path", docPath)

	pdfPath := filepath.Join(p.OutputDir, PDFFile)
	err = d.stage(ctx, res, StageExport, func() error {
		if err := doc.Export(pdfPath, document.FormatPDF, d.Options.Preset); err != nil {
			return err
		}
		res.Artifacts.PDF = pdfPath
		logger.Info("exported pdf", "path", pdfPath)

		if d.Options.Preview {
			previewPath := filepath.Join(p.OutputDir, PreviewFile)
			if err := doc.Export(previewPath, document.FormatJPEG, d.Options.Preset); err != nil {
				logger.Warn("preview failed", "path", previewPath, "err", err)
			} else {
				res.Artifacts.Preview = previewPath
			}
		}
		return nil
	})
	if err != nil {
		return &StageError{Stage: StageExport, Err: err}
	}
	return nil
}

func (d *Driver) placeImages(ctx context.Context, p *plan.Plan, doc document.Document, res *Result) {
	logger := orDiscard(d.Logger)
	placer := d.Placer
	if placer == nil {
		placer = NewPlacer(logger)
	}

	placements := p.Placements
	if d.Options.InferOrientation {
		placements = d.inferOrientation(ctx, placements)
	}

	strategy := d.Options.Strategy
	switch strategy {
	case StrategyLabel, StrategyGeometry:
		res.StrategyNote = "requested"
	default:
		strategy, res.StrategyNote = ChooseStrategy(doc, placements)
	}
	res.Strategy = strategy
	logger.Info("matching photos", "strategy", strategy, "reason", res.StrategyNote, "placements", len(placements))

	var outcomes []Outcome
	if strategy == StrategyLabel {
		outcomes = MatchLabels(ctx, doc, placements, placer, logger)
	} else {
		outcomes = MatchGeometry(ctx, doc, placements, placer, logger)
	}

	for _, o := range outcomes {
		if o.Reason != ReasonNoLabel && o.Reason != ReasonNoRegion && o.Reason != ReasonLabelNotFound {
			res.ImagesAttempted++
		}
		if o.Placed() {
			res.ImagesPlaced++
			continue
		}
		res.Unresolved = append(res.Unresolved, Miss{
			Kind:   MissImage,
			Label:  o.Placement.Label,
			Name:   o.Placement.Name(),
			Reason: o.Reason,
		})
	}
}

// inferOrientation fills in unknown orientations from photo headers.
// Unreadable photos keep their unknown orientation.
func (d *Driver) inferOrientation(ctx context.Context, placements []plan.Placement) []plan.Placement {
	prober := d.Prober
	if prober == nil {
		prober = imageinfo.Default()
	}
	out := make([]plan.Placement, len(placements))
	copy(out, placements)
	for i := range out {
		if out[i].Orientation != geom.Unknown {
			continue
		}
		info, err := prober.Probe(ctx, out[i].Photo)
		if err != nil {
			orDiscard(d.Logger).Debug("orientation probe failed", "photo", out[i].Name(), "err", err)
			continue
		}
		out[i].Orientation = info.Orientation()
	}
	return out
}

func (d *Driver) logLabels(doc document.Document) {
	logger := orDiscard(d.Logger)
	for _, l := range ListLabels(doc) {
		logger.Debug("template label", "label", l.Label, "kind", l.Kind, "page", l.Page+1)
	}
}

// stage times fn, reports it to the observability hooks and records it in
// the result.
func (d *Driver) stage(ctx context.Context, res *Result, s Stage, fn func() error) error {
	logger := orDiscard(d.Logger)
	logger.Debug("stage", "name", s)
	observability.Composition().OnStageStart(ctx, string(s))

	start := time.Now()
	err := fn()
	dur := time.Since(start)

	observability.Composition().OnStageComplete(ctx, string(s), dur, err)
	stat := StageStat{Stage: s, Duration: dur}
	if err != nil {
		stat.Err = err.Error()
	}
	res.Stages = append(res.Stages, stat)
	return err
}

func (d *Driver) fail(res *Result, s Stage, err error) (*Result, error) {
	se := &StageError{Stage: s, Err: err}
	res.State = StageFailed
	res.FailedStage = s
	res.Error = se.Error()
	res.Duration = time.Since(res.Started)
	orDiscard(d.Logger).Error("composition failed", "stage", s, "err", errors.UserMessage(err))
	return res, se
}
