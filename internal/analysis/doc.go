// Package analysis inspects recorded series after a run.
//
//   - [PowerSpectrum]: magnitude spectrum of a series via a radix-2 FFT
//   - [DominantFrequency]: strongest non-DC frequency and its period
//   - [Crossings]: interpolated times a series rises through a level
//   - [NewPhasePortrait]: position against velocity, with an ASCII rendering
//
// A springy block oscillates at roughly sqrt(k)/(2π) Hz:
//
//	spectrum, err := analysis.DominantFrequency(result.Position.Values(), dt)
//	fmt.Printf("%.3f Hz, period %.3f s\n", spectrum.Frequency, spectrum.Period)
package analysis
