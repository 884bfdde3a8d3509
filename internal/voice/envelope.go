package voice

import (
	"math"

	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/units"
)

// maxAttenuationCb is the over-attenuation cutoff: a voice whose modulated
// initial attenuation exceeds 100 dB cannot become audible and is skipped.
const maxAttenuationCb = 1000.0

type volEnvParams struct {
	delay, attack, hold, decay, release float64
	sustainDb                           float64
}

func (v *Voice) volEnvParams() volEnvParams {
	m := &v.Modulated
	keyShift := 60 - v.TargetKey
	p := volEnvParams{
		delay:   units.TimecentsToSeconds(int(m[gen.DelayVolEnv])),
		attack:  units.TimecentsToSeconds(int(m[gen.AttackVolEnv])),
		hold:    units.TimecentsToSeconds(int(m[gen.HoldVolEnv]) + int(m[gen.KeynumToVolEnvHold])*keyShift),
		decay:   units.TimecentsToSeconds(int(m[gen.DecayVolEnv]) + int(m[gen.KeynumToVolEnvDecay])*keyShift),
		release: units.TimecentsToSeconds(int(m[gen.ReleaseVolEnv])),
		sustainDb: float64(m[gen.SustainVolEnv]) / 10,
	}
	if p.sustainDb > silenceDb {
		p.sustainDb = silenceDb
	}
	return p
}

// preReleaseAttenuation evaluates the delay/attack/hold/decay/sustain part
// of the envelope at absolute time t and reports the stage it falls in.
func preReleaseAttenuation(p volEnvParams, startTime, t float64) (float64, EnvelopeState) {
	elapsed := t - startTime
	if elapsed < p.delay {
		return silenceDb, EnvDelay
	}
	elapsed -= p.delay
	if elapsed < p.attack {
		// Linear in gain; expressed as attenuation this is a convex ramp
		// from silence to 0 dB.
		frac := elapsed / p.attack
		if frac <= 0 {
			return silenceDb, EnvAttack
		}
		att := -20 * math.Log10(frac)
		if att > silenceDb {
			att = silenceDb
		}
		return att, EnvAttack
	}
	elapsed -= p.attack
	if elapsed < p.hold {
		return 0, EnvHold
	}
	elapsed -= p.hold
	if elapsed < p.decay {
		att := p.sustainDb * (elapsed / p.decay)
		return att, EnvDecay
	}
	return p.sustainDb, EnvSustain
}

func (v *Voice) advanceEnvState(s EnvelopeState) {
	if s > v.VolEnvState {
		v.VolEnvState = s
	}
}

// applyVolumeEnvelope scales buf in place with the per-frame envelope gain.
// modLfoCb is the modulation LFO's volume contribution in centibels,
// evaluated once for the block.
func (v *Voice) applyVolumeEnvelope(buf []float32, now, rate, modLfoCb float64) {
	p := v.volEnvParams()
	staticCb := float64(v.Modulated[gen.InitialAttenuation])
	var att float64
	for i := range buf {
		t := now + float64(i)/rate
		if v.IsInRelease && t >= v.ReleaseStartTime {
			if !v.releaseCaptured {
				att, _ = preReleaseAttenuation(p, v.StartTime, v.ReleaseStartTime)
				v.releaseStartDb = att
				v.releaseCaptured = true
			}
			v.VolEnvState = EnvRelease
			if p.release <= 0 {
				att = silenceDb
			} else {
				att = v.releaseStartDb + (silenceDb-v.releaseStartDb)*(t-v.ReleaseStartTime)/p.release
			}
			if att >= silenceDb {
				att = silenceDb
				v.SetFinished()
			}
		} else {
			var stage EnvelopeState
			att, stage = preReleaseAttenuation(p, v.StartTime, t)
			v.advanceEnvState(stage)
		}
		buf[i] *= float32(units.CentibelsToGain(att*10 + staticCb + modLfoCb))
	}
	v.AttenuationDb = att
}
