package voice

import (
	"math"

	"github.com/msveshnikov/spessasynth-go/internal/units"
)

// maxFilterCents is the cutoff above which the lowpass is fully open and
// can be bypassed when there is no resonance.
const maxFilterCents = 13500

// biquadState is the RBJ lowpass: normalized coefficients, a two-frame
// delay line, and the last cutoff used so coefficients are only recomputed
// when the truncated cents value changes.
type biquadState struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
	cutoffCents        int
	cutoffHz           float64
}

func (f *biquadState) reset() {
	*f = biquadState{b0: 1, cutoffCents: math.MinInt32}
}

// apply filters buf in place with the lowpass at cutoffCents (absolute
// cents) and the resonance given in centibels. A fully open, non-resonant
// filter passes the buffer through untouched.
func (f *biquadState) apply(buf []float32, cutoffCents, qCb, rate float64) {
	if cutoffCents >= maxFilterCents && qCb <= 0 {
		return
	}
	c := int(cutoffCents)
	if c != f.cutoffCents {
		f.cutoffCents = c
		hz := units.AbsCentsToHz(float64(c))
		if hz < 1 {
			hz = 1
		}
		if limit := rate/2 - 100; hz > limit {
			hz = limit
		}
		f.cutoffHz = hz

		q := math.Pow(10, qCb/10/20)
		w0 := 2 * math.Pi * hz / rate
		cosW0 := math.Cos(w0)
		alpha := math.Sin(w0) / (2 * q)
		a0 := 1 + alpha
		f.b0 = (1 - cosW0) / 2 / a0
		f.b1 = (1 - cosW0) / a0
		f.b2 = f.b0
		f.a1 = -2 * cosW0 / a0
		f.a2 = (1 - alpha) / a0
	}
	for i := range buf {
		x := float64(buf[i])
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		buf[i] = float32(y)
	}
}
