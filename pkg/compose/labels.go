package compose

import (
	"cmp"
	"slices"

	"github.com/matzehuels/aizine/pkg/document"
)

// LabelInfo is one labeled frame in a document.
type LabelInfo struct {
	Label string `json:"label"`
	Kind  string `json:"kind"` // shape kind, or "text"
	Page  int    `json:"page"`
}

// ListLabels returns every labeled item and text frame, ordered by page
// and then label.
func ListLabels(doc document.Document) []LabelInfo {
	var out []LabelInfo
	for _, it := range doc.AllPageItems() {
		if it.Label != "" {
			out = append(out, LabelInfo{Label: it.Label, Kind: string(it.Kind), Page: it.Page})
		}
	}
	for _, t := range doc.TextFrames() {
		if t.Label != "" {
			out = append(out, LabelInfo{Label: t.Label, Kind: "text", Page: t.Page})
		}
	}
	slices.SortStableFunc(out, func(a, b LabelInfo) int {
		return cmp.Or(cmp.Compare(a.Page, b.Page), cmp.Compare(a.Label, b.Label))
	})
	return out
}
