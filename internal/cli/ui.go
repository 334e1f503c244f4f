package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/aizine/pkg/compose"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Composition Summary
// =============================================================================

func printComposeSummary(res *compose.Result) {
	if res.OK() {
		printSuccess("Composed %s", StyleTitle.Render(displayJob(res)))
	} else {
		printError("Composition failed at %s", res.FailedStage)
		printDetail("%s", res.Error)
	}

	if res.PagesAfter > 0 {
		printKeyValue("Pages", fmt.Sprintf("%d %s %d (target %d)", res.PagesBefore, iconArrow, res.PagesAfter, res.PageCount))
	}
	if res.Strategy != "" {
		printKeyValue("Strategy", fmt.Sprintf("%s %s", res.Strategy, StyleDim.Render("("+res.StrategyNote+")")))
		printKeyValue("Photos", fmt.Sprintf("%s placed, %d attempted",
			StyleNumber.Render(strconv.Itoa(res.ImagesPlaced)), res.ImagesAttempted))
		printKeyValue("Texts", fmt.Sprintf("%d labels, %d frames", res.TextsBound, res.TextFramesSet))
	}
	for _, m := range res.Unresolved {
		what := m.Label
		if m.Name != "" {
			what = strings.TrimSpace(m.Name + " " + bracket(m.Label))
		}
		printWarning("%s %s: %s", m.Kind, what, m.Reason)
	}

	for _, path := range []string{res.Artifacts.Document, res.Artifacts.PDF, res.Artifacts.Preview, res.Artifacts.Bundle} {
		if path != "" {
			printFile(path)
		}
	}
	printInfo("Finished in %s", res.Duration.Round(time.Millisecond))
}

func displayJob(res *compose.Result) string {
	if res.JobID != "" {
		return res.JobID
	}
	return res.Plan
}

func bracket(s string) string {
	if s == "" {
		return ""
	}
	return "[" + s + "]"
}

// =============================================================================
// Template Report
// =============================================================================

func printTemplateReport(r *templateReport) {
	fmt.Println(StyleTitle.Render(r.Name))
	printKeyValue("Pages", strconv.Itoa(r.Pages))
	printKeyValue("Page size", fmt.Sprintf("%.2f × %.2f pt", r.Width, r.Height))
	if len(r.Masters) > 0 {
		printKeyValue("Masters", strings.Join(r.Masters, ", "))
	}
	frames := make([]string, len(r.Frames))
	for i, n := range r.Frames {
		frames[i] = strconv.Itoa(n)
	}
	printKeyValue("Frames", strings.Join(frames, " / ")+StyleDim.Render(" per page"))

	if len(r.Labels) == 0 {
		printWarning("no labeled frames; only geometry matching can fill this template")
		return
	}

	rows := make([][]string, len(r.Labels))
	for i, l := range r.Labels {
		rows[i] = []string{strconv.Itoa(l.Page + 1), l.Label, l.Kind}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Page", "Label", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 2 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		})
	fmt.Println(t.Render())
}
