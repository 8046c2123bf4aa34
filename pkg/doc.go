// Package pkg provides the core libraries for the Treescape rendering engine.
//
// # Overview
//
// Treescape keeps very large genealogy trees interactive by only ever
// doing work for what the camera can see. The pkg directory is organized
// into four main areas:
//
//  1. Geometry and layout - coordinate math and node placement
//  2. Frame pipeline - culling, level of detail, text, connectors
//  3. Loading - viewport-keyed progressive fetch and residency
//  4. Infrastructure - sources, caching, errors, observability
//
// # Architecture
//
// The typical data flow for one frame:
//
//	Camera gesture ([camera])
//	         ↓
//	    [viewport] package (observe, debounce, fetch regions)
//	         ↓
//	    [store] package (memory, HTTP, or MongoDB node source)
//	         ↓
//	    [layout] + [spatial] packages (place nodes, index bounds)
//	         ↓
//	    [render] package (cull → classify → shape → connect)
//	         ↓
//	    Draw calls for the canvas, PNG snapshot, or terminal grid
//
// # Quick Start
//
// Build a frame for one camera framing:
//
//	import (
//	    "time"
//	    "github.com/Qefaraki/treescape/pkg/camera"
//	    "github.com/Qefaraki/treescape/pkg/geom"
//	    "github.com/Qefaraki/treescape/pkg/render"
//	    "github.com/Qefaraki/treescape/pkg/tree"
//	    "github.com/Qefaraki/treescape/pkg/viewport"
//	)
//
//	ctx, _ := render.NewContext(render.Config{})
//	t := tree.Generate(tree.GenerateOptions{Count: 2400, Seed: 7})
//	ctx.SetNodes(t.Nodes)
//
//	view := viewport.Viewport{
//	    Screen: geom.Size{W: 390, H: 844},
//	    Camera: camera.Camera{Scale: 1},
//	}
//	frame := ctx.BuildFrame(view, time.Now())
//
// # Main Packages
//
// ## Geometry and Layout
//
// [geom] - Points, rects, sizes, and the world/screen transform. Every
// other package speaks these types.
//
// [layout] - Deterministic generation-row placement with role-dependent
// footprints (ordinary, root, aggregation chip).
//
// [spatial] - Uniform grid index answering "which nodes intersect this
// rect" without touching the rest of the tree.
//
// ## Frame Pipeline
//
// [render] - The per-frame pipeline: cull, classify tiers, collapse
// chips, pick image buckets, shape names, route connectors, hit test.
//
// [lod] - Tier classification with hysteresis and crossfade progress,
// plus discrete image bucket selection.
//
// [textcache] - LRU of shaped name lines keyed by text and style, with a
// font-measuring shaper that handles Arabic and mixed-direction names.
//
// [connector] - Orthogonal parent-child and sibling bus segments with
// T-junction offsets and per-frame batching.
//
// [camera] - Gesture physics: pan, pinch about a focal point, coast with
// exponential decay, scale clamping.
//
// [render/snapshot] - Rasterizes a frame to PNG for export and tests.
//
// [render/nodelink] - Whole-tree node-link diagrams via Graphviz (SVG,
// DOT) for offline inspection.
//
// [fonts] - Embedded Go font faces shared by the shaper and the PNG
// snapshot renderer.
//
// ## Loading
//
// [viewport] - The progressive loader: debounced viewport observation,
// motion-predicted fetch regions, supersede-on-move, residency caps with
// eviction, and failure backoff.
//
// [store] - Node sources behind one interface: in-memory fixtures, the
// HTTP region service, and MongoDB. Includes live update subscriptions.
//
// [tree] - The node model, deterministic demo generation, and the JSON
// codec shared by the CLI, server, and sources.
//
// ## Infrastructure
//
// [cache] - Byte caches for region responses: file, Redis, memory, null.
//
// [httputil] - Retry with exponential backoff for the HTTP source.
//
// [errors] - Structured errors with stable codes and user-facing
// messages, shared across the engine and the server.
//
// [observability] - Frame and loader hooks for timing and counters
// without coupling the engine to a metrics backend.
//
// [buildinfo] - Build-time version information set via ldflags.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/render/...    # Specific package
//	go test -run Example        # Examples only
//
// [geom]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/geom
// [layout]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/layout
// [spatial]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/spatial
// [render]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/render
// [lod]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/lod
// [textcache]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/textcache
// [connector]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/connector
// [camera]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/camera
// [render/snapshot]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/render/snapshot
// [render/nodelink]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/render/nodelink
// [fonts]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/fonts
// [viewport]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/viewport
// [store]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/store
// [tree]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/tree
// [cache]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/errors
// [observability]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/Qefaraki/treescape/pkg/buildinfo
package pkg
