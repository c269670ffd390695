// Package viz is the interactive terminal viewer.
//
// [Model] pulls frames from a render.Source on every tick and draws them on
// a braille canvas, with fading trails and a side panel of run state.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	R      - Restart the run from its initial configuration
//	Arrows - Rotate the view (or drag with the mouse)
//	+/-    - Zoom
//	0      - Reset the camera
//	C      - Toggle trails
//	T      - Cycle color themes
//	?      - Show help
package viz
