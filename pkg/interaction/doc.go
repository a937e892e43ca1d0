// Package interaction maps tracked hands to a scene target scale.
//
// [ResolveTargetScale] is the pure mapping: one hand's pinch or the spread
// of two hands becomes a scale in [0.5, 5.0], and no hands yields the idle
// breathing value. A [Driver] sits between a camera and a [Target]: it
// throttles frames per device [Tier], keeps at most one [Detector] call in
// flight, and only propagates changes larger than its hysteresis.
//
// Recorded sessions are newline-delimited JSON ([LoadRecording],
// [WriteRecording]) and replay through a [RecordingDetector]. A [Script]
// generates samples from a formula for headless runs.
package interaction
