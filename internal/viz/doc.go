// Package viz is the terminal live view of a running simulation.
//
// [Model] is a Bubble Tea program that reads points from a [sim.Mailbox], keeps
// the newest ones in a [trajectory.Buffer], and draws their projection as an aged
// trail on a braille [Canvas], next to the label board and a chart of one label.
//
// # Key Bindings
//
//	Space  - Run/Pause (the run starts paused)
//	Tab    - Chart the next label
//	A / X  - Add the next parameter label / remove the last added one
//	+ - 0  - Zoom in, out, reset
//	C      - Clear the trail
//	T      - Cycle color themes
//	Q      - Stop the run and quit
package viz
