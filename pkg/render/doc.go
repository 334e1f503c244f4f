// Package render turns documents into print and preview output.
//
// # Overview
//
// Each page of a [document.File] is drawn as a standalone SVG by
// [RenderPage]: image frames are clipped to their shape with the placed
// photograph embedded as a data URI, and text frames are set line by line.
// Pages are then converted with the external rsvg-convert tool (from
// librsvg): [ToPDF] joins all pages into one PDF and [ToPNG] rasterizes a
// single page.
//
//	svg, err := render.RenderPage(f, 0, render.WithPreset(render.Proof))
//	pdf, err := render.ToPDF([][]byte{svg})
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Presets
//
// Export presets select how a page is drawn. [HighQualityPrint] renders
// only content; [Proof] also outlines every frame and prints its script
// label. Unknown preset names fall back to the first preset.
//
// # Exporter
//
// [Exporter] implements [document.Exporter] so a document can export
// itself as PDF, PNG, SVG or a JPEG preview thumbnail.
package render
