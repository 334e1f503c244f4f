package compose

import (
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/aizine/pkg/document"
)

// TextReport summarizes text substitution.
type TextReport struct {
	Bound     int    `json:"bound"`      // labels written to at least one frame
	FramesSet int    `json:"frames_set"` // frames whose contents changed
	Skipped   int    `json:"skipped"`    // labels with an empty value
	Misses    []Miss `json:"misses,omitempty"`
}

// BindTexts writes each non-empty text value into every text frame whose
// label equals its key. Keys are processed in sorted order. A key with no
// matching frame is logged and reported as a miss.
func BindTexts(doc document.Document, texts map[string]string, logger *log.Logger) TextReport {
	logger = orDiscard(logger)
	var r TextReport

	keys := make([]string, 0, len(texts))
	for k := range texts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	frames := doc.TextFrames()
	for _, label := range keys {
		value := texts[label]
		if value == "" {
			r.Skipped++
			continue
		}
		value = norm.NFC.String(value)

		matched, set := 0, 0
		var lastErr error
		for _, f := range frames {
			if f.Label != label {
				continue
			}
			matched++
			if err := doc.SetContents(f.ID, value); err != nil {
				logger.Warn("set text failed", "label", label, "frame", f.ID, "err", err)
				lastErr = err
				continue
			}
			set++
		}

		switch {
		case set > 0:
			r.Bound++
			r.FramesSet += set
			logger.Debug("bound text", "label", label, "frames", set)
		case matched == 0:
			logger.Warn("text label not found", "label", label)
			r.Misses = append(r.Misses, Miss{Kind: MissText, Label: label, Reason: ReasonLabelNotFound})
		default:
			r.Misses = append(r.Misses, Miss{Kind: MissText, Label: label, Reason: "set text failed: " + lastErr.Error()})
		}
	}
	return r
}
