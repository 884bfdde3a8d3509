package voice

import (
	"math"

	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/units"
)

// modEnvDecayK shapes the exponential decay and release segments; the
// value settles to 1/1000 of the starting distance over the nominal
// segment duration.
const modEnvDecayK = 6.907755278982137

// updateModEnv recomputes the modulation envelope value for the block
// starting at now. The envelope has the same six stages as the volume
// envelope but produces a unit-ranged value with a linear attack and
// exponential decay; release restarts from the value captured at release
// onset.
func (v *Voice) updateModEnv(now float64) {
	m := &v.Modulated
	keyShift := 60 - v.TargetKey
	if v.IsInRelease && now >= v.ReleaseStartTime {
		if !v.modReleaseCaptured {
			v.ReleaseStartModEnv = v.ModEnvValue
			v.modReleaseCaptured = true
		}
		release := units.TimecentsToSeconds(int(m[gen.ReleaseModEnv]))
		if release <= 0 {
			v.ModEnvValue = 0
			return
		}
		val := v.ReleaseStartModEnv * math.Exp(-modEnvDecayK*(now-v.ReleaseStartTime)/release)
		if val < 1e-4 {
			val = 0
		}
		v.ModEnvValue = val
		return
	}

	elapsed := now - v.StartTime
	delay := units.TimecentsToSeconds(int(m[gen.DelayModEnv]))
	if elapsed < delay {
		v.ModEnvValue = 0
		return
	}
	elapsed -= delay
	attack := units.TimecentsToSeconds(int(m[gen.AttackModEnv]))
	if elapsed < attack {
		v.ModEnvValue = elapsed / attack
		return
	}
	elapsed -= attack
	hold := units.TimecentsToSeconds(int(m[gen.HoldModEnv]) + int(m[gen.KeynumToModEnvHold])*keyShift)
	if elapsed < hold {
		v.ModEnvValue = 1
		return
	}
	elapsed -= hold
	decay := units.TimecentsToSeconds(int(m[gen.DecayModEnv]) + int(m[gen.KeynumToModEnvDecay])*keyShift)
	sustain := 1 - float64(m[gen.SustainModEnv])/1000
	if sustain < 0 {
		sustain = 0
	}
	if decay <= 0 {
		v.ModEnvValue = sustain
		return
	}
	v.ModEnvValue = sustain + (1-sustain)*math.Exp(-modEnvDecayK*elapsed/decay)
}
