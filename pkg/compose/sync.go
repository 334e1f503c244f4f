package compose

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/errors"
)

// SyncReport describes what SynchronizePages did.
type SyncReport struct {
	Target  int    `json:"target"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Master  string `json:"master,omitempty"`
	// Err is the add or remove failure that stopped synchronization early.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Reached reports whether the document ended at the target count.
func (r SyncReport) Reached() bool { return r.After == r.Target }

// SynchronizePages adds or removes trailing pages one at a time until doc
// has target pages. New pages get the document's first master page when
// there is one. A failed add or remove stops the loop; the failure is
// logged and reported, never returned.
func SynchronizePages(doc document.Document, target int, logger *log.Logger) SyncReport {
	logger = orDiscard(logger)
	r := SyncReport{Target: target, Before: doc.PageCount()}

	if masters := doc.MasterPages(); len(masters) > 0 {
		r.Master = masters[0]
	} else if r.Before < target {
		logger.Warn("template has no master pages, new pages stay blank")
	}

	for doc.PageCount() < target {
		n := doc.PageCount()
		err := doc.AddPage()
		if err == nil && doc.PageCount() <= n {
			err = errors.New(errors.ErrCodeInternal, "page count stayed at %d after adding a page", n)
		}
		if err != nil {
			logger.Error("add page failed", "pages", n, "target", target, "err", err)
			r.Err, r.Error = err, err.Error()
			break
		}
		r.Added++
		if r.Master == "" {
			continue
		}
		idx := doc.PageCount() - 1
		if err := doc.ApplyMaster(idx, r.Master); err != nil {
			logger.Warn("apply master failed", "page", idx+1, "master", r.Master, "err", err)
		}
	}

	for doc.PageCount() > target {
		last := doc.PageCount() - 1
		err := doc.RemovePage(last)
		if err == nil && doc.PageCount() > last {
			err = errors.New(errors.ErrCodeInternal, "page count stayed at %d after removing a page", last+1)
		}
		if err != nil {
			logger.Error("remove page failed", "page", last+1, "target", target, "err", err)
			r.Err, r.Error = err, err.Error()
			break
		}
		r.Removed++
	}

	r.After = doc.PageCount()
	logger.Info("synchronized pages", "before", r.Before, "after", r.After, "target", target)
	return r
}
