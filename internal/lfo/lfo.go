// Package lfo provides the triangle low-frequency oscillator shared by the
// vibrato and modulation sources. The LFO is stateless: it is a pure
// function of the start time, rate and current time, so voices carry no
// phase state for it.
package lfo

import "math"

// Value returns a triangle wave in [-1, 1] at freqHz with phase zero at
// startSec, rising first. Before startSec, or for non-positive rates, the
// value is 0.
func Value(startSec, freqHz, now float64) float64 {
	if now < startSec || freqHz <= 0 {
		return 0
	}
	phase := math.Mod((now-startSec)*freqHz, 1)
	switch {
	case phase < 0.25:
		return 4 * phase
	case phase < 0.75:
		return 2 - 4*phase
	default:
		return 4*phase - 4
	}
}
