package compose

import (
	"errors"
	"testing"

	"github.com/matzehuels/aizine/pkg/document"
)

func withMaster(d *document.Doc) *document.Doc {
	d.AddMaster("A-Master", []document.Item{
		rect("FOLIO_IMAGE", box(40, 40, 400, 555)),
	}, []document.TextFrame{
		{Label: "FOLIO", Bounds: box(800, 40, 820, 555)},
	})
	return d
}

func TestSynchronizePagesGrowAppliesMaster(t *testing.T) {
	d := withMaster(newDoc(t, nil, nil))

	r := SynchronizePages(d, 4, nil)
	if r.Before != 2 || r.After != 4 || r.Added != 2 || r.Removed != 0 {
		t.Fatalf("report = %+v", r)
	}
	if !r.Reached() || r.Err != nil {
		t.Fatalf("Reached() = %v, Err = %v", r.Reached(), r.Err)
	}
	if r.Master != "A-Master" {
		t.Errorf("Master = %q, want A-Master", r.Master)
	}

	for page := 2; page < 4; page++ {
		items, err := d.PageItems(page)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 {
			t.Fatalf("page %d has %d items, want 1 from master", page, len(items))
		}
		if items[0].Label != "" {
			t.Errorf("stamped item keeps label %q", items[0].Label)
		}
	}
	if items, _ := d.PageItems(1); len(items) != 0 {
		t.Errorf("existing page changed: %d items", len(items))
	}
}

func TestSynchronizePagesShrink(t *testing.T) {
	d := newDoc(t, nil, nil, nil, nil, nil, nil)
	if _, err := d.AddItem(0, rect("COVER_IMAGE", box(0, 0, 100, 100))); err != nil {
		t.Fatal(err)
	}

	r := SynchronizePages(d, 4, nil)
	if r.After != 4 || r.Removed != 2 || r.Added != 0 {
		t.Fatalf("report = %+v", r)
	}
	if items, _ := d.PageItems(0); len(items) != 1 {
		t.Error("shrinking removed items from the first page")
	}
}

func TestSynchronizePagesNoop(t *testing.T) {
	d := newDoc(t, nil, nil)
	r := SynchronizePages(d, 2, nil)
	if r.Added != 0 || r.Removed != 0 || !r.Reached() {
		t.Fatalf("report = %+v", r)
	}
}

func TestSynchronizePagesWithoutMaster(t *testing.T) {
	d := newDoc(t, nil)
	r := SynchronizePages(d, 4, nil)
	if r.After != 4 || r.Master != "" {
		t.Fatalf("report = %+v", r)
	}
	for page := 1; page < 4; page++ {
		if items, _ := d.PageItems(page); len(items) != 0 {
			t.Errorf("page %d not blank", page)
		}
	}
}

func TestSynchronizePagesAddFailureStops(t *testing.T) {
	d := &faultyDoc{Doc: newDoc(t, nil, nil), addLimit: 3}

	r := SynchronizePages(d, 6, nil)
	if r.After != 3 || r.Added != 1 {
		t.Fatalf("report = %+v", r)
	}
	if r.Reached() || r.Err == nil {
		t.Errorf("Reached() = %v, Err = %v; want unreached with error", r.Reached(), r.Err)
	}
}

func TestSynchronizePagesRemoveFailureStops(t *testing.T) {
	cause := errors.New("locked")
	d := &faultyDoc{Doc: newDoc(t, nil, nil, nil, nil), removeErr: cause}

	r := SynchronizePages(d, 2, nil)
	if r.After != 4 || !errors.Is(r.Err, cause) {
		t.Fatalf("report = %+v", r)
	}
}

func TestSynchronizePagesMasterFailureIgnored(t *testing.T) {
	d := &faultyDoc{Doc: withMaster(newDoc(t, nil)), masterErr: errors.New("broken master")}

	r := SynchronizePages(d, 4, nil)
	if r.After != 4 || r.Err != nil {
		t.Fatalf("report = %+v", r)
	}
}

// stuckDoc accepts AddPage without adding anything.
type stuckDoc struct{ *document.Doc }

func (stuckDoc) AddPage() error { return nil }

func TestSynchronizePagesDetectsStuckCount(t *testing.T) {
	d := stuckDoc{newDoc(t, nil)}
	r := SynchronizePages(d, 4, nil)
	if r.Err == nil || r.After != 1 {
		t.Fatalf("report = %+v, want error after no progress", r)
	}
}
