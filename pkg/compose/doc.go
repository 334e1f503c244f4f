// Package compose is the layout composition engine. It turns a validated
// [plan.Plan] and a template [document.Document] into a populated
// publication.
//
// # Pipeline
//
// A run moves through fixed stages, each feeding the next:
//
//	load_plan → open_template → synchronize_pages → bind_text →
//	match_and_place_images → persist → export → close
//
// [PlanPageCount] derives the target page count from the plan and
// [SynchronizePages] grows or shrinks the document to match it.
// [BindTexts] substitutes text into labeled text frames. Photographs are
// then assigned to frames by one of two strategies:
//
//   - label: every frame whose script label equals the placement's label
//     receives the photo ([MatchLabels])
//   - geometry: pages are walked in order and each page's best frame for the
//     photo's orientation receives the next photo ([MatchGeometry])
//
// [Inventory] lists a page's image-capable frames in reading order, and
// [Placer] puts a photo into one frame and fits it.
//
// # Failure model
//
// Plan loading, template opening, saving and exporting are fatal and end
// the run with a [*StageError]. Everything else degrades: missing labels,
// missing photos and page add/remove failures are logged and collected in
// [Result.Unresolved] so one bad photo never costs the whole publication.
//
// [Driver] sequences the stages and returns a [Result] in every case.
package compose
