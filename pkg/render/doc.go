// Package render draws scene frames of a point cloud.
//
// [Project] applies a frame's mesh scale, rotation and camera to every
// particle and returns screen-space dots ordered far to near. The output
// functions build on it:
//
//   - [RenderSVG]: vector document, one circle per particle
//   - [RenderPNG]: raster image via gg
//   - [RenderASCII]: density map for terminals
//   - [RenderJSON]: raw positions for an external WebGL renderer
//
// Particle color is the scene base color tinted toward white by each
// particle's jitter value ([Tint]).
//
//	svg := render.RenderSVG(cloud, frame, render.WithSize(1024, 768))
package render
