// Package render turns the resident tree into per-frame draw calls.
//
// # Overview
//
// [Context] is the render context: it owns every piece of per-view state
// the frame pipeline needs - the text layout cache, the tier classifier,
// the image bucket selector, the size provider, the layout engine, and the
// spatial index. Nothing in this package is process-global; two independent
// tree views hold two independent contexts.
//
// # Frame pipeline
//
// [Context.BuildFrame] runs the per-frame pipeline:
//
//	cull (spatial index) -> classify tiers -> collapse chip subtrees ->
//	select image buckets -> shape labels -> order draw calls ->
//	route connectors
//
// The output [Frame] is a value: an ordered draw-call list plus batched
// connector paths, consumed by whatever canvas backend draws it (the PNG
// exporter, the terminal viewer). Asset problems - a missing photo
// reference, a label that fails to shape - mark the draw call as a
// placeholder; they never fail the frame.
//
// # Hit testing
//
// [Context.HitTest] maps a screen point back to a node or aggregation
// chip through the inverse camera transform and the same spatial index the
// cull uses, so hit-testing and rendering can never disagree about where a
// node is.
package render
