package compose

import (
	"slices"
	"testing"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/geom"
)

func region(id string, top, left float64, order int) Region {
	r := NewRegion(document.Item{
		ID:     document.ItemID(id),
		Kind:   document.Rectangle,
		Bounds: box(top, left, top+50, left+50),
	})
	r.order = order
	return r
}

func ids(regions []Region) []string {
	out := make([]string, len(regions))
	for i, r := range regions {
		out[i] = string(r.ID)
	}
	return out
}

func TestReadingOrder(t *testing.T) {
	tests := []struct {
		name    string
		regions []Region
		want    []string
	}{
		{
			name: "two rows",
			regions: []Region{
				region("b", 0, 200, 0),
				region("a", 0, 0, 1),
				region("c", 100, 0, 2),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "within tolerance shares a row",
			regions: []Region{
				region("right", 0, 300, 0),
				region("left", 9.99, 0, 1),
			},
			want: []string{"left", "right"},
		},
		{
			name: "at tolerance starts a new row",
			regions: []Region{
				region("right", 0, 300, 0),
				region("left", 10, 0, 1),
			},
			want: []string{"right", "left"},
		},
		{
			name: "single linkage chains rows",
			regions: []Region{
				region("top", 0, 300, 0),
				region("mid", 8, 200, 1),
				region("low", 16, 100, 2),
			},
			want: []string{"low", "mid", "top"},
		},
		{
			name: "ties keep document order",
			regions: []Region{
				region("first", 50, 50, 0),
				region("second", 50, 50, 1),
				region("third", 50, 50, 2),
			},
			want: []string{"first", "second", "third"},
		},
		{
			name: "slightly higher frame on the right",
			regions: []Region{
				region("a", 105, 0, 0),
				region("b", 100, 300, 1),
			},
			want: []string{"a", "b"},
		},
		{name: "empty", regions: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ReadingOrder(tt.regions))
			if !slices.Equal(got, tt.want) {
				t.Errorf("ReadingOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadingOrderDoesNotMutateInput(t *testing.T) {
	in := []Region{region("b", 100, 0, 0), region("a", 0, 0, 1)}
	_ = ReadingOrder(in)
	if in[0].ID != "b" {
		t.Error("ReadingOrder reordered its input")
	}
}

func TestInventory(t *testing.T) {
	d := newDoc(t, []document.Item{
		{Kind: document.Other, Label: "RULE", Bounds: box(0, 0, 2, 500)},
		{Kind: document.Oval, Label: "BADGE", Bounds: box(300, 300, 400, 400)},
		{Kind: document.Polygon, Label: "STAR", Bounds: box(300, 0, 400, 100),
			Points: []geom.Point{{X: 0, Y: 300}, {X: 100, Y: 300}, {X: 50, Y: 400}}},
		rect("HERO", box(20, 0, 220, 400)),
	})

	regions, err := Inventory(d, 0)
	if err != nil {
		t.Fatal(err)
	}
	var labels []string
	for _, r := range regions {
		labels = append(labels, r.Label)
	}
	if want := []string{"HERO", "STAR", "BADGE"}; !slices.Equal(labels, want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}

	hero := regions[0]
	if hero.Width != 400 || hero.Height != 200 || hero.Area != 80000 || hero.Orientation != geom.Horizontal {
		t.Errorf("hero region = %+v", hero)
	}

	again, _ := Inventory(d, 0)
	if !slices.Equal(ids(again), ids(regions)) {
		t.Error("Inventory not stable across calls")
	}

	if _, err := Inventory(d, 3); err == nil {
		t.Error("Inventory on a missing page should fail")
	}
}
