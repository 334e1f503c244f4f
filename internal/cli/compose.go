package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/aizine/pkg/bundle"
	"github.com/matzehuels/aizine/pkg/compose"
	"github.com/matzehuels/aizine/pkg/document"
	"github.com/matzehuels/aizine/pkg/imageinfo"
	"github.com/matzehuels/aizine/pkg/plan"
	"github.com/matzehuels/aizine/pkg/render"
	"github.com/matzehuels/aizine/pkg/template"
)

// composeOpts holds the command-line flags for the compose command.
// Unset flags take their value from the config file.
type composeOpts struct {
	strategy         string
	preset           string
	preview          bool
	bundle           bool
	inferOrientation bool
	noCache          bool
	jsonOut          bool
}

func (c *CLI) composeCommand() *cobra.Command {
	var opts composeOpts

	cmd := &cobra.Command{
		Use:   "compose [plan]",
		Short: "Compose a magazine from a plan",
		Long: `Compose fills the plan's template and writes final.json and final.pdf to the
plan's output directory, followed by magazine.zip and result.json.

Without a plan argument the path is taken from AIZINE_PLAN, else from the
file named by AIZINE_CONFIG, else from magazinebot_config.txt in the temp
directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyComposeDefaults(cmd, &opts)
			if _, err := compose.ParseStrategy(opts.strategy); err != nil {
				return err
			}

			planPath, err := resolvePlan(args)
			if err != nil {
				return err
			}
			return c.runCompose(cmd.Context(), planPath, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "matching strategy: auto (default), label, geometry")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "export preset (default \"[High Quality Print]\")")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "also export preview.jpg of the first page")
	cmd.Flags().BoolVar(&opts.bundle, "bundle", true, "zip final.pdf into magazine.zip")
	cmd.Flags().BoolVar(&opts.inferOrientation, "infer-orientation", false, "classify unknown orientations from photo dimensions")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the image probe cache")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")

	return cmd
}

// applyComposeDefaults fills flags the user did not set from the config.
func (c *CLI) applyComposeDefaults(cmd *cobra.Command, opts *composeOpts) {
	cfg := c.Config
	set := cmd.Flags().Changed
	if !set("strategy") {
		opts.strategy = cfg.Match.Strategy
	}
	if !set("preset") {
		opts.preset = cfg.Export.Preset
	}
	if !set("preview") {
		opts.preview = cfg.Export.Preview
	}
	if !set("bundle") {
		opts.bundle = cfg.Export.Bundle
	}
	if !set("infer-orientation") {
		opts.inferOrientation = cfg.Match.InferOrientation
	}
}

// resolvePlan returns the plan argument, or locates the plan through the
// environment.
func resolvePlan(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	return plan.Locate()
}

func (c *CLI) runCompose(ctx context.Context, planPath string, opts composeOpts) error {
	logger, closeLog := c.runLogger(planPath)
	defer closeLog()

	probeCache := c.newCache(ctx, opts.noCache)
	defer probeCache.Close()

	prober := imageinfo.NewProber(probeCache, c.Config.Cache.TTL.Duration)
	exporter := render.NewExporter(logger)
	open := func(path string) (document.Document, error) {
		d, err := template.Open(path, document.WithExporter(exporter), document.WithProber(prober))
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	strategy, _ := compose.ParseStrategy(opts.strategy)
	drv := compose.NewDriver(open, logger, compose.Options{
		Strategy:         strategy,
		InferOrientation: opts.inferOrientation,
		Preset:           opts.preset,
		Preview:          opts.preview,
	})
	drv.Prober = prober

	prog := newProgress(logger)
	res, runErr := drv.Run(ctx, planPath)
	if runErr == nil && opts.bundle {
		runErr = packageResult(res, logger)
	}
	if err := writeResult(res, planPath); err != nil {
		logger.Warn("result log not written", "err", err)
	}
	if runErr == nil {
		prog.done("Composed magazine")
	}

	if opts.jsonOut {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		printComposeSummary(res)
	}
	return runErr
}

// packageResult verifies the exported PDF and zips it beside itself.
func packageResult(res *compose.Result, logger *log.Logger) error {
	if err := bundle.VerifyPDF(res.Artifacts.PDF); err != nil {
		return err
	}
	zipPath, err := bundle.Write(filepath.Join(filepath.Dir(res.Artifacts.PDF), bundle.FileName), res.Artifacts.PDF)
	if err != nil {
		return err
	}
	res.Artifacts.Bundle = zipPath
	logger.Info("bundled pdf", "path", zipPath)
	return nil
}

// writeResult writes result.json to the output directory, or beside the
// plan when the run failed before the output directory was known.
func writeResult(res *compose.Result, planPath string) error {
	dir := res.OutputDir
	if dir == "" {
		dir = filepath.Dir(planPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, resultName), append(data, '\n'), 0o644)
}
