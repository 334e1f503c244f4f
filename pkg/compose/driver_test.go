package compose

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/errors"
	"github.com/matzehuels/aizine/pkg/geom"
	"github.com/matzehuels/aizine/pkg/imageinfo"
	"github.com/matzehuels/aizine/pkg/plan"
	"github.com/matzehuels/aizine/pkg/template"
)

// magazine writes a two-page template, three photos and a plan asking for
// a cover, one inner page and a back cover. It returns the plan path.
func magazine(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "tpl"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "in"), 0o755); err != nil {
		t.Fatal(err)
	}

	tpl := &document.File{
		Version:    document.FileVersion,
		Name:       "lovestory",
		PageWidth:  500,
		PageHeight: 800,
		Masters: []document.MasterFile{{
			Name:  "A-Master",
			Items: []document.ItemFile{{Bounds: []float64{40, 40, 400, 460}}},
		}},
		Pages: []document.PageFile{
			{
				Items: []document.ItemFile{{Kind: "rectangle", Label: "COVER_IMAGE", Bounds: []float64{0, 0, 800, 500}}},
				Texts: []document.TextFile{{Label: "COVER_TITLE", Bounds: []float64{700, 40, 760, 460}, Contents: "Title"}},
			},
			{
				Items: []document.ItemFile{
					{Label: "PAGE_0_IMG_0", Bounds: []float64{0, 0, 300, 500}},
					{Label: "BACK_IMAGE", Bounds: []float64{400, 0, 700, 500}},
				},
			},
		},
	}
	if err := document.WriteFile(filepath.Join(dir, "tpl", "template.json"), tpl); err != nil {
		t.Fatal(err)
	}

	in := filepath.Join(dir, "in")
	writePhoto(t, in, "a.png", 50, 80)
	writePhoto(t, in, "b.png", 80, 50)
	writePhoto(t, in, "c.png", 80, 50)

	planPath := filepath.Join(dir, "plan.json")
	data := `{
  "meta": {"template": "tpl/template.json", "output_dir": "out", "job_id": "job-1"},
  "placements": [
    {"label": "COVER_IMAGE", "photo": "in/a.png", "orientation": "vertical", "fit": "fill"},
    {"label": "PAGE_0_IMG_0", "photo": "in/b.png", "orientation": "horizontal"},
    {"label": "BACK_IMAGE", "photo": "in/c.png", "fit": "contain"}
  ],
  "texts": {"COVER_TITLE": "Our Love Story"}
}`
	if err := os.WriteFile(planPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return planPath
}

func openTemplate(path string) (document.Document, error) {
	d, err := template.Open(path, document.WithExporter(stubExporter{}))
	if err != nil {
		return nil, err
	}
	return d, nil
}

func stageNames(res *Result) []Stage {
	out := make([]Stage, len(res.Stages))
	for i, s := range res.Stages {
		out[i] = s.Stage
	}
	return out
}

func TestDriverRun(t *testing.T) {
	planPath := magazine(t)
	outDir := filepath.Join(filepath.Dir(planPath), "out")

	res, err := NewDriver(openTemplate, nil, Options{}).Run(context.Background(), planPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK() || res.JobID != "job-1" || res.RunID == "" {
		t.Fatalf("result = %+v", res)
	}
	if res.PageCount != 4 || res.PagesBefore != 2 || res.PagesAfter != 4 {
		t.Errorf("pages: count %d before %d after %d; want 4, 2, 4", res.PageCount, res.PagesBefore, res.PagesAfter)
	}
	if res.Strategy != StrategyLabel {
		t.Errorf("Strategy = %s (%s), want label", res.Strategy, res.StrategyNote)
	}
	if res.ImagesPlaced != 3 || res.ImagesAttempted != 3 || res.TextsBound != 1 {
		t.Errorf("placed %d attempted %d texts %d", res.ImagesPlaced, res.ImagesAttempted, res.TextsBound)
	}
	if len(res.Unresolved) != 0 {
		t.Errorf("Unresolved = %+v", res.Unresolved)
	}

	want := []Stage{StageLoadPlan, StageOpenTemplate, StageSynchronizePages, StageBindText,
		StageMatchAndPlace, StagePersist, StageExport, StageClose}
	if got := stageNames(res); !slices.Equal(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}

	if res.Artifacts.Document != filepath.Join(outDir, DocumentFile) || res.Artifacts.PDF != filepath.Join(outDir, PDFFile) {
		t.Errorf("artifacts = %+v", res.Artifacts)
	}
	if res.Artifacts.Preview != "" {
		t.Error("preview exported without being requested")
	}
	if _, err := os.Stat(res.Artifacts.PDF); err != nil {
		t.Errorf("pdf missing: %v", err)
	}

	saved, err := document.Open(res.Artifacts.Document)
	if err != nil {
		t.Fatalf("reopen saved document: %v", err)
	}
	if saved.PageCount() != 4 {
		t.Errorf("saved document has %d pages, want 4", saved.PageCount())
	}
	filled := 0
	for _, it := range saved.AllPageItems() {
		if it.Graphic != nil {
			filled++
		}
	}
	if filled != 3 {
		t.Errorf("saved document has %d filled frames, want 3", filled)
	}
	for _, f := range saved.TextFrames() {
		if f.Label == "COVER_TITLE" && f.Contents != "Our Love Story" {
			t.Errorf("COVER_TITLE = %q", f.Contents)
		}
	}
}

func TestDriverRunPartialFailure(t *testing.T) {
	planPath := magazine(t)
	if err := os.Remove(filepath.Join(filepath.Dir(planPath), "in", "b.png")); err != nil {
		t.Fatal(err)
	}

	res, err := NewDriver(openTemplate, nil, Options{}).Run(context.Background(), planPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK() {
		t.Fatalf("State = %s, want done", res.State)
	}
	if len(res.Unresolved) != 1 {
		t.Fatalf("Unresolved = %+v, want exactly one miss", res.Unresolved)
	}
	miss := res.Unresolved[0]
	if miss.Kind != MissImage || miss.Label != "PAGE_0_IMG_0" || miss.Name != "b.png" {
		t.Errorf("miss = %+v", miss)
	}
	if res.ImagesAttempted != 3 || res.ImagesPlaced != 2 {
		t.Errorf("attempted %d placed %d; want 3 and 2", res.ImagesAttempted, res.ImagesPlaced)
	}
	if res.Artifacts.PDF == "" || res.Artifacts.Document == "" {
		t.Errorf("artifacts = %+v, want persist and export to run", res.Artifacts)
	}
}

func TestDriverRunPreview(t *testing.T) {
	planPath := magazine(t)
	res, err := NewDriver(openTemplate, nil, Options{Preview: true}).Run(context.Background(), planPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Artifacts.Preview == "" {
		t.Fatal("no preview artifact")
	}
	if _, err := os.Stat(res.Artifacts.Preview); err != nil {
		t.Errorf("preview missing: %v", err)
	}
}

func TestDriverRunFatalStages(t *testing.T) {
	t.Run("missing plan", func(t *testing.T) {
		res, err := NewDriver(openTemplate, nil, Options{}).Run(context.Background(), filepath.Join(t.TempDir(), "plan.json"))
		assertStageError(t, res, err, StageLoadPlan)
		if !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("err = %v, want %s", err, errors.ErrCodeFileNotFound)
		}
	})

	t.Run("missing template", func(t *testing.T) {
		planPath := magazine(t)
		if err := os.Remove(filepath.Join(filepath.Dir(planPath), "tpl", "template.json")); err != nil {
			t.Fatal(err)
		}
		res, err := NewDriver(openTemplate, nil, Options{}).Run(context.Background(), planPath)
		assertStageError(t, res, err, StageOpenTemplate)
		if !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("err = %v, want %s", err, errors.ErrCodeFileNotFound)
		}
	})

	t.Run("no opener", func(t *testing.T) {
		res, err := (&Driver{}).Run(context.Background(), magazine(t))
		assertStageError(t, res, err, StageOpenTemplate)
	})
}

func TestDriverDocumentFailures(t *testing.T) {
	tests := []struct {
		name      string
		doc       func(*faultyDoc)
		wantStage Stage // empty when the run should succeed
	}{
		{"save fails", func(d *faultyDoc) { d.saveErr = stderrors.New("disk full") }, StagePersist},
		{"export fails", func(d *faultyDoc) { d.exportErr = stderrors.New("renderer crashed") }, StageExport},
		{"close fails", func(d *faultyDoc) { d.closeErr = stderrors.New("already gone") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened *faultyDoc
			open := func(path string) (document.Document, error) {
				d, err := template.Open(path, document.WithExporter(stubExporter{}))
				if err != nil {
					return nil, err
				}
				opened = &faultyDoc{Doc: d}
				tt.doc(opened)
				return opened, nil
			}

			res, err := NewDriver(open, nil, Options{}).Run(context.Background(), magazine(t))
			if !opened.closed {
				t.Error("document not closed")
			}
			if !slices.Contains(stageNames(res), StageClose) {
				t.Error("close stage not recorded")
			}
			if tt.wantStage == "" {
				if err != nil || !res.OK() {
					t.Fatalf("Run = %v, state %s; want success", err, res.State)
				}
				return
			}
			assertStageError(t, res, err, tt.wantStage)
		})
	}
}

func TestDriverRunPageShortfall(t *testing.T) {
	open := func(path string) (document.Document, error) {
		d, err := template.Open(path, document.WithExporter(stubExporter{}))
		if err != nil {
			return nil, err
		}
		return &faultyDoc{Doc: d, addLimit: 3}, nil
	}

	res, err := NewDriver(open, nil, Options{}).Run(context.Background(), magazine(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.OK() || res.PageCount != 4 || res.PagesAfter != 3 {
		t.Fatalf("state %s, target %d, after %d; want done, 4, 3", res.State, res.PageCount, res.PagesAfter)
	}
	if len(res.Unresolved) != 1 {
		t.Fatalf("Unresolved = %+v, want one page miss", res.Unresolved)
	}
	miss := res.Unresolved[0]
	if miss.Kind != MissPage || miss.Name != "3 of 4 pages" || miss.Reason != os.ErrPermission.Error() {
		t.Errorf("miss = %+v", miss)
	}
	if res.Sync.Error != os.ErrPermission.Error() {
		t.Errorf("Sync.Error = %q, want %q", res.Sync.Error, os.ErrPermission.Error())
	}
}

func TestDriverRunDecomposedLabels(t *testing.T) {
	const label = "CAFE\u0301_IMAGE"

	dir := t.TempDir()
	tpl := &document.File{
		Version: document.FileVersion,
		Pages: []document.PageFile{{
			Items: []document.ItemFile{{Label: label, Bounds: []float64{0, 0, 300, 500}}},
			Texts: []document.TextFile{{Label: label + "_T", Bounds: []float64{400, 0, 450, 500}}},
		}},
	}
	if err := document.WriteFile(filepath.Join(dir, "template.json"), tpl); err != nil {
		t.Fatal(err)
	}
	writePhoto(t, dir, "a.png", 80, 50)

	// The plan spells the label with the same decomposed sequence.
	planPath := filepath.Join(dir, "plan.json")
	data := `{
  "meta": {"template": "template.json", "output_dir": "out"},
  "placements": [{"label": "CAFE\u0301_IMAGE", "photo": "a.png"}],
  "texts": {"CAFE\u0301_IMAGE_T": "Caf\u00e9"}
}`
	if err := os.WriteFile(planPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewDriver(openTemplate, nil, Options{}).Run(context.Background(), planPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Strategy != StrategyLabel {
		t.Errorf("Strategy = %s (%s), want label", res.Strategy, res.StrategyNote)
	}
	if res.ImagesPlaced != 1 || res.TextsBound != 1 || len(res.Unresolved) != 0 {
		t.Errorf("placed %d texts %d unresolved %+v; want 1, 1, none", res.ImagesPlaced, res.TextsBound, res.Unresolved)
	}
}

func assertStageError(t *testing.T, res *Result, err error, stage Stage) {
	t.Helper()
	if res == nil {
		t.Fatal("nil result")
	}
	var se *StageError
	if !stderrors.As(err, &se) {
		t.Fatalf("err = %v (%T), want *StageError", err, err)
	}
	if se.Stage != stage || res.FailedStage != stage || res.State != StageFailed {
		t.Errorf("failed at %s (result %s, state %s), want %s", se.Stage, res.FailedStage, res.State, stage)
	}
	if !strings.HasPrefix(err.Error(), string(stage)+": ") {
		t.Errorf("error %q lacks stage prefix", err)
	}
	if res.Error != err.Error() {
		t.Errorf("Result.Error = %q, want %q", res.Error, err.Error())
	}
}

func TestDriverComposeGeometry(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, "p.png", 40, 40)
	d := newDoc(t,
		[]document.Item{rect("", box(0, 0, 100, 100))},
		[]document.Item{rect("", box(0, 0, 100, 100))},
	)

	p := &plan.Plan{
		Template:   "memory",
		OutputDir:  filepath.Join(dir, "out"),
		Placements: []plan.Placement{{Photo: photo}, {Photo: photo}, {Photo: photo}},
	}
	open := func(string) (document.Document, error) { return d, nil }

	res, err := NewDriver(open, nil, Options{}).Compose(context.Background(), p)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if res.Strategy != StrategyGeometry {
		t.Errorf("Strategy = %s, want geometry", res.Strategy)
	}
	if res.ImagesPlaced != 2 || res.ImagesAttempted != 2 {
		t.Errorf("placed %d attempted %d; want 2 and 2", res.ImagesPlaced, res.ImagesAttempted)
	}
	if misses := res.Misses(MissImage); len(misses) != 1 || misses[0].Reason != ReasonNoRegion {
		t.Errorf("image misses = %+v", misses)
	}
	if res.Stages[0].Stage != StageOpenTemplate {
		t.Errorf("first stage = %s, want open_template", res.Stages[0].Stage)
	}
}

func TestDriverForcedStrategy(t *testing.T) {
	dir := t.TempDir()
	photo := writePhoto(t, dir, "p.png", 40, 40)
	d := newDoc(t, []document.Item{rect("HERO", box(0, 0, 100, 100))})
	p := &plan.Plan{
		Template:   "memory",
		OutputDir:  filepath.Join(dir, "out"),
		Placements: []plan.Placement{{Photo: photo}},
	}
	open := func(string) (document.Document, error) { return d, nil }

	res, err := NewDriver(open, nil, Options{Strategy: StrategyLabel}).Compose(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != StrategyLabel || res.ImagesPlaced != 0 {
		t.Errorf("strategy %s placed %d", res.Strategy, res.ImagesPlaced)
	}
	if misses := res.Misses(MissImage); len(misses) != 1 || misses[0].Reason != ReasonNoLabel {
		t.Errorf("misses = %+v", misses)
	}
}

type fixedProber struct {
	info  imageinfo.Info
	calls int
}

func (p *fixedProber) Probe(context.Context, string) (imageinfo.Info, error) {
	p.calls++
	return p.info, nil
}

func TestDriverInferOrientation(t *testing.T) {
	tests := []struct {
		name  string
		infer bool
		want  int // index of the frame expected to take the photo
	}{
		{"largest frame without inference", false, 0},
		{"matching frame with inference", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			photo := writePhoto(t, dir, "wide.png", 300, 100)
			d := newDoc(t, []document.Item{
				rect("", box(0, 0, 400, 200)),   // vertical, larger
				rect("", box(500, 0, 600, 300)), // horizontal
			})
			frames, _ := d.PageItems(0)

			prober := &fixedProber{info: imageinfo.Info{Width: 300, Height: 100}}
			drv := NewDriver(func(string) (document.Document, error) { return d, nil }, nil,
				Options{Strategy: StrategyGeometry, InferOrientation: tt.infer})
			drv.Prober = prober

			p := &plan.Plan{
				Template:   "memory",
				OutputDir:  filepath.Join(dir, "out"),
				Placements: []plan.Placement{{Photo: photo, Orientation: geom.Unknown}},
			}
			if _, err := drv.Compose(context.Background(), p); err != nil {
				t.Fatal(err)
			}
			if tt.infer != (prober.calls == 1) {
				t.Errorf("prober called %d times with infer=%v", prober.calls, tt.infer)
			}

			saved, err := document.Open(filepath.Join(dir, "out", DocumentFile))
			if err != nil {
				t.Fatal(err)
			}
			items, _ := saved.PageItems(0)
			if items[tt.want].Graphic == nil {
				t.Errorf("frame %s empty, want the photo there", frames[tt.want].ID)
			}
		})
	}
}
