// Package units converts between SoundFont parameter domains and the linear
// quantities the synthesis path works in. Envelope times arrive in timecents,
// pitch in cents and levels in centibels; everything downstream wants seconds,
// Hz and plain gain factors.
package units

import "math"

const (
	gainTableSize  = 1024
	gainTableMaxCb = 1440
)

// centibelGain holds gain factors for attenuations in [0, 1440] centibels.
// Values in between are linearly interpolated; anything outside the table
// falls back to math.Pow.
var centibelGain [gainTableSize + 1]float64

func init() {
	for i := range centibelGain {
		cb := float64(i) * gainTableMaxCb / gainTableSize
		centibelGain[i] = math.Pow(10, -cb/200)
	}
}

// TimecentsToSeconds converts timecents to seconds. The SoundFont sentinel
// of -12000 (and anything below it) means "instantaneous" and maps to 0.
func TimecentsToSeconds(tc int) float64 {
	if tc <= -12000 {
		return 0
	}
	return math.Exp2(float64(tc) / 1200)
}

// AbsCentsToHz converts absolute cents to Hz, with 6900 cents = A4 = 440 Hz.
func AbsCentsToHz(cents float64) float64 {
	return 440 * math.Exp2((cents-6900)/1200)
}

// CentibelsToGain converts an attenuation in centibels to a linear gain
// factor, 10^(-cb/200).
func CentibelsToGain(cb float64) float64 {
	if cb <= 0 {
		if cb == 0 {
			return 1
		}
		return math.Pow(10, -cb/200)
	}
	if cb >= gainTableMaxCb {
		return math.Pow(10, -cb/200)
	}
	pos := cb * gainTableSize / gainTableMaxCb
	i := int(pos)
	frac := pos - float64(i)
	return centibelGain[i]*(1-frac) + centibelGain[i+1]*frac
}

// DecibelsToGain converts decibels to a linear amplitude factor, 10^(db/20).
func DecibelsToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// CentsToRatio converts a pitch offset in cents to a playback rate ratio.
func CentsToRatio(cents float64) float64 {
	return math.Exp2(cents / 1200)
}
