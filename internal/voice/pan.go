package voice

import (
	"math"

	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/units"
)

// Out is the set of output planes one voice renders into: the main stereo
// pair plus the reverb and chorus send pairs.
type Out struct {
	DryL, DryR []float32
	RevL, RevR []float32
	ChoL, ChoR []float32
}

// panMix distributes the rendered mono buffer into the output planes with
// an equal-power pan law and scalar effect sends.
func (v *Voice) panMix(buf []float32, out Out) {
	pan := float64(v.Modulated[gen.Pan])
	if pan < -500 {
		pan = -500
	} else if pan > 500 {
		pan = 500
	}
	p := pan/1000 + 0.5
	gL := float32(math.Cos(p * math.Pi / 2))
	gR := float32(math.Sin(p * math.Pi / 2))
	rev := float32(units.CentibelsToGain(float64(v.Modulated[gen.ReverbEffectsSend])))
	cho := float32(units.CentibelsToGain(float64(v.Modulated[gen.ChorusEffectsSend])))
	for i, s := range buf {
		l, r := s*gL, s*gR
		out.DryL[i] += l
		out.DryR[i] += r
		out.RevL[i] += l * rev
		out.RevR[i] += r * rev
		out.ChoL[i] += l * cho
		out.ChoR[i] += r * cho
	}
}
