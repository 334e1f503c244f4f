// Package pkg provides the libraries behind aizine, a layout composition
// engine for photo magazines.
//
// # Overview
//
// aizine takes a composition plan (photographs with orientation hints, text
// substitutions, layout metadata) and a layout template, and produces a
// populated multi-page document plus a print-ready PDF:
//
//	plan.json + template
//	         ↓
//	    [plan] package (decode + validate)
//	         ↓
//	    [template] package (open .json/.yaml/.toml/.idml as a document)
//	         ↓
//	    [compose] package (page count → sync pages → bind text → place photos)
//	         ↓
//	    [document] save (final.json) + [render] export (final.pdf)
//
// # Quick Start
//
//	open := func(path string) (document.Document, error) {
//	    d, err := template.Open(path, document.WithExporter(render.NewExporter(logger)))
//	    if err != nil {
//	        return nil, err
//	    }
//	    return d, nil
//	}
//	drv := compose.NewDriver(open, logger, compose.Options{Strategy: compose.StrategyAuto})
//	res, err := drv.Run(ctx, "jobs/42/plan.json")
//	if err != nil {
//	    var se *compose.StageError
//	    errors.As(err, &se) // se.Stage names the failed stage
//	}
//	for _, m := range res.Unresolved {
//	    fmt.Println(m.Kind, m.Label, m.Reason)
//	}
//
// # Main Packages
//
// [compose] - The composition engine: page-count planning, page
// synchronization, frame inventory in reading order, label and geometry
// matching, placement with fitting, text binding, and the staged driver.
//
// [document] - The document collaborator interface, an in-memory document,
// the native file schema and fit math. [document/idml] imports IDML packages.
//
// [plan] - Plan model, decoding (JSON, YAML, TOML) and plan location through
// the environment.
//
// [render] - Page SVG rendering, rsvg-convert conversion to PDF and PNG,
// export presets and the JPEG preview.
//
// [geom] - Bounds and the orientation rule shared by frames and photographs.
//
// [imageinfo] - Image header probing for dimensions, cached through [cache].
//
// [cache] - Cache interface with null, file and Redis backends.
//
// [config] - The TOML configuration file.
//
// [bundle] - PDF verification and magazine.zip packaging.
//
// [observability] - Hook interfaces for stage, placement and cache events.
//
// [errors] - Structured error codes.
package pkg
