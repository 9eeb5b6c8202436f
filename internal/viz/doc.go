// Package viz renders simulation results in the terminal.
//
// [Render] draws position, velocity and force with asciigraph, one chart per
// series, with legends in each series' colours. The lipgloss styles and
// themes here are shared with the interactive slider panel in package tui.
package viz
