// Package viz provides terminal-based visualization for relaxation runs.
//
// The package renders finished trajectories as ASCII charts and offers a
// live TUI built on the Bubble Tea framework:
//
//   - [PlotEntropy], [PlotParam], [PlotComponent]: static charts of a run
//   - [Summary]: styled run statistics block
//   - [LiveModel]: interactive view stepping a relaxed integration in
//     real time
//
// # Key Bindings
//
//	Space - Pause/Resume the integration
//	R     - Reset to the initial state
//	Tab   - Select the next system parameter
//	Up/Dn - Adjust the selected parameter
//	?     - Show help overlay
//	Q     - Quit
package viz
