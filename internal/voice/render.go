package voice

import (
	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/lfo"
	"github.com/msveshnikov/spessasynth-go/internal/units"
)

// Vibrato is the NRPN-driven channel vibrato layered on top of the
// generator LFOs.
type Vibrato struct {
	Delay float64 // seconds after note start
	Depth float64 // cents
	Rate  float64 // Hz
}

// RenderBlock renders one block of the voice into the output planes.
// scratch is the shared mono work buffer, one block long; data is the
// voice's decoded sample, nil while the dump is outstanding (the voice
// then stays silent). extraCents carries the channel tuning and transpose.
func RenderBlock(v *Voice, data []float32, out Out, scratch []float32, now, rate float64, vib Vibrato, extraCents float64) {
	if v.Finished || data == nil {
		return
	}
	m := &v.Modulated
	if float64(m[gen.InitialAttenuation]) > maxAttenuationCb {
		if v.IsInRelease {
			v.SetFinished()
		}
		return
	}
	inRelease := v.IsInRelease && now >= v.ReleaseStartTime

	modLfoVal := lfo.Value(
		v.StartTime+units.TimecentsToSeconds(int(m[gen.DelayModLFO])),
		units.AbsCentsToHz(float64(m[gen.FreqModLFO])),
		now)
	vibLfoVal := lfo.Value(
		v.StartTime+units.TimecentsToSeconds(int(m[gen.DelayVibLFO])),
		units.AbsCentsToHz(float64(m[gen.FreqVibLFO])),
		now)
	v.updateModEnv(now)

	cents := float64(v.TargetKey-v.RootKey) * float64(m[gen.ScaleTuning])
	cents += float64(m[gen.CoarseTune])*100 + float64(m[gen.FineTune])
	cents += extraCents
	cents += v.ModEnvValue * float64(m[gen.ModEnvToPitch])
	cents += vibLfoVal * float64(m[gen.VibLfoToPitch])
	cents += modLfoVal * float64(m[gen.ModLfoToPitch])
	if vib.Depth != 0 {
		cents += vib.Depth * lfo.Value(v.StartTime+vib.Delay, vib.Rate, now)
	}
	if c := int(cents); c != v.TuningCents || v.TuningRatio == 0 {
		v.TuningCents = c
		v.TuningRatio = units.CentsToRatio(float64(c))
	}

	fill(v, data, scratch, inRelease)

	cutoff := float64(m[gen.InitialFilterFc]) +
		v.ModEnvValue*float64(m[gen.ModEnvToFilterFc]) +
		modLfoVal*float64(m[gen.ModLfoToFilterFc])
	v.filter.apply(scratch, cutoff, float64(m[gen.InitialFilterQ]), rate)

	v.applyVolumeEnvelope(scratch, now, rate, modLfoVal*float64(m[gen.ModLfoToVolume]))

	v.panMix(scratch, out)
}
