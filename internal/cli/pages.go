package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/aizine/pkg/compose"
	"github.com/matzehuels/aizine/pkg/plan"
	"github.com/matzehuels/aizine/pkg/template"
)

// pagesReport is the page count a plan asks for.
type pagesReport struct {
	Plan          string `json:"plan"`
	Explicit      int    `json:"explicit,omitempty"`
	Placements    int    `json:"placements"`
	Labeled       int    `json:"labeled"`
	Pages         int    `json:"pages"`
	TemplatePages int    `json:"template_pages,omitempty"` // 0 when the template could not be opened
}

func (c *CLI) pagesCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "pages [plan]",
		Short: "Show the page count a plan requires",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, err := resolvePlan(args)
			if err != nil {
				return err
			}
			r, err := c.planPages(planPath)
			if err != nil {
				return err
			}
			if jsonOut {
				data, err := json.MarshalIndent(r, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			printPagesReport(r)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	return cmd
}

// planPages loads the plan and computes its page count. The template is
// opened when possible to show how many pages it starts with.
func (c *CLI) planPages(planPath string) (*pagesReport, error) {
	p, err := plan.Load(planPath)
	if err != nil {
		return nil, err
	}
	r := &pagesReport{
		Plan:       planPath,
		Explicit:   p.Pages,
		Placements: len(p.Placements),
		Labeled:    len(p.Labels()),
		Pages:      compose.PlanPageCount(p.Placements, p.Pages),
	}
	if d, err := template.Open(p.Template); err != nil {
		c.Logger.Debug("template not opened", "path", p.Template, "err", err)
	} else {
		r.TemplatePages = d.PageCount()
		d.Close()
	}
	return r, nil
}

func printPagesReport(r *pagesReport) {
	source := "labels"
	if r.Explicit > 0 {
		source = "meta.pages"
	}
	printKeyValue("Plan", r.Plan)
	printKeyValue("Photos", fmt.Sprintf("%d (%d labeled)", r.Placements, r.Labeled))
	printKeyValue("Pages", StyleNumber.Render(strconv.Itoa(r.Pages))+StyleDim.Render(" from "+source))
	if r.TemplatePages > 0 {
		printKeyValue("Template", fmt.Sprintf("%d pages", r.TemplatePages))
	}
}
