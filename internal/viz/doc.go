// Package viz renders training runs in the terminal and as images.
//
//   - [Model]: Bubble Tea monitor fed by a [Feed] attached to the trainer
//   - [PlotScores]: ASCII learning curve
//   - [SavePNG]: learning curve as a PNG
//
// # Key Bindings
//
//	Q - Stop training and quit
//	T - Cycle color themes
//	? - Show help overlay
package viz
