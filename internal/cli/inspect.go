package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/aizine/pkg/compose"
	"github.com/matzehuels/aizine/pkg/template"
)

// templateReport describes a template's pages and labeled frames.
type templateReport struct {
	Path    string              `json:"path"`
	Name    string              `json:"name"`
	Pages   int                 `json:"pages"`
	Width   float64             `json:"page_width"`
	Height  float64             `json:"page_height"`
	Masters []string            `json:"masters"`
	Frames  []int               `json:"frames"` // image-capable frames per page
	Labels  []compose.LabelInfo `json:"labels"`
}

func (c *CLI) inspectCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect <template>",
		Short: "List a template's pages, masters and labeled frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := inspectTemplate(args[0])
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
			printTemplateReport(r)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	return cmd
}

func inspectTemplate(path string) (*templateReport, error) {
	d, err := template.Open(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	w, h := d.PageSize()
	r := &templateReport{
		Path:    path,
		Name:    d.Name(),
		Pages:   d.PageCount(),
		Width:   w,
		Height:  h,
		Masters: d.MasterPages(),
		Labels:  compose.ListLabels(d),
	}
	for page := 0; page < d.PageCount(); page++ {
		regions, err := compose.Inventory(d, page)
		if err != nil {
			return nil, err
		}
		r.Frames = append(r.Frames, len(regions))
	}
	return r, nil
}
