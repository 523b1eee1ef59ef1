// Package viz renders drive runs in the terminal.
//
//   - [Summary] and [CompareTable]: lipgloss-styled run reports
//   - [PlotTrace] and [PlotSpectrum]: asciigraph line charts
//   - [LiveModel]: a Bubble Tea view fed tick by tick from a running
//     controller through [LiveObserver]
//
// # Key Bindings (live view)
//
//	Q / Ctrl+C - Stop the command and quit
//	P          - Toggle the lateral error chart
package viz
