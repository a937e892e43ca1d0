// Package scene holds the animation state of a particle scene and the loop
// that advances it.
//
// A [State] owns the active point cloud and eases its displayed scale toward
// a target written by gesture input. When no hands are tracked the target
// breathes around 1.0. Each [State.Tick] returns a [Frame] carrying the mesh
// scale, opacities, rotation and camera pose a [Renderer] needs.
//
// # Concurrency
//
// Gesture producers call [State.SetTarget] from their own goroutines; the
// target is last-write-wins. Only the goroutine running [Loop.Run] (or the
// caller of Tick) reads and damps it, so the displayed scale, field of view
// and cloud have a single owner.
//
//	s, _ := scene.New(shape.Galaxy, scene.DefaultOptions())
//	loop := &scene.Loop{State: s, Renderer: r, FPS: 60}
//	go loop.Run(ctx)
//	s.SetTarget(2.0, true)
package scene
