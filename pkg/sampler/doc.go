// Package sampler generates particle point clouds for each [shape.Kind].
//
// # Overview
//
// [Generate] maps a shape to a fixed-size cloud of 3D points plus one
// auxiliary random scalar per point (used by renderers for per-particle
// size/brightness jitter). The distribution is fixed per shape; exact values
// come from an injected [Source], so a seeded source reproduces a cloud
// exactly:
//
//	rng := sampler.NewSource(42)
//	cloud := sampler.Generate(shape.Kite, 8000, rng)
//
// Generate is total: it never panics and never returns fewer points than
// requested. Unknown kinds use the [shape.Default] formula.
//
// # Silhouettes
//
// Every formula has a matching [Silhouette]. All generated points satisfy
// [Silhouette.Contains]; the kite fold and the organic-blob stretch are part
// of the formula, not post-hoc clamps.
//
// # Statistics and encoding
//
// [Describe] summarizes a cloud's radial distribution. [Encode] and [Decode]
// convert clouds to a compact little-endian binary form used by the cache
// and the frame server.
package sampler
