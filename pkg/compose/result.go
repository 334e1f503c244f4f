package compose

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Stage names a step of a composition run.
type Stage string

const (
	StageLoadPlan         Stage = "load_plan"
	StageOpenTemplate     Stage = "open_template"
	StageSynchronizePages Stage = "synchronize_pages"
	StageBindText         Stage = "bind_text"
	StageMatchAndPlace    Stage = "match_and_place_images"
	StagePersist          Stage = "persist"
	StageExport           Stage = "export"
	StageClose            Stage = "close"

	// Terminal states.
	StageDone   Stage = "done"
	StageFailed Stage = "failed"
)

// StageError is a fatal failure of one stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// MissKind tells what a miss is about.
type MissKind string

const (
	MissText  MissKind = "text"
	MissImage MissKind = "image"
	MissPage  MissKind = "page"
)

// Miss is one plan entry that did not make it into the document.
type Miss struct {
	Kind   MissKind `json:"kind"`
	Label  string   `json:"label,omitempty"`
	Name   string   `json:"name,omitempty"`
	Reason string   `json:"reason"`
}

// Artifacts are the files a run produced.
type Artifacts struct {
	Document string `json:"document,omitempty"`
	PDF      string `json:"pdf,omitempty"`
	Preview  string `json:"preview,omitempty"`
	Bundle   string `json:"bundle,omitempty"` // set by callers that zip the PDF
}

// StageStat records how one stage went.
type StageStat struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
	Err      string        `json:"error,omitempty"`
}

// Result describes a composition run. It is returned whether or not the
// run succeeded.
type Result struct {
	RunID     string `json:"run_id"`
	JobID     string `json:"job_id,omitempty"`
	Plan      string `json:"plan,omitempty"`
	Template  string `json:"template,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`

	State       Stage  `json:"state"`
	FailedStage Stage  `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`

	PageCount    int        `json:"page_count"`
	PagesBefore  int        `json:"pages_before"`
	PagesAfter   int        `json:"pages_after"`
	Sync         SyncReport `json:"sync"`
	Strategy     Strategy   `json:"strategy,omitempty"`
	StrategyNote string     `json:"strategy_note,omitempty"`

	TextsBound      int `json:"texts_bound"`
	TextFramesSet   int `json:"text_frames_set"`
	ImagesAttempted int `json:"images_attempted"`
	ImagesPlaced    int `json:"images_placed"`

	Unresolved []Miss        `json:"unresolved"`
	Artifacts  Artifacts     `json:"artifacts"`
	Stages     []StageStat   `json:"stages"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration_ns"`
}

// OK reports whether the run reached the done state.
func (r *Result) OK() bool { return r.State == StageDone }

// Misses returns the unresolved entries of one kind.
func (r *Result) Misses(kind MissKind) []Miss {
	var out []Miss
	for _, m := range r.Unresolved {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return logger
}
