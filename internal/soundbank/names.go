package soundbank

import "github.com/msveshnikov/spessasynth-go/internal/gen"

// generatorNames maps manifest keys to generator slots. Only the slots that
// make sense as zone overrides are listed; addresses and sample selection
// come from the sample entry itself.
var generatorNames = map[string]int{
	"startAddrsOffset":     gen.StartAddrsOffset,
	"endAddrsOffset":       gen.EndAddrsOffset,
	"startloopAddrsOffset": gen.StartloopAddrsOffset,
	"endloopAddrsOffset":   gen.EndloopAddrsOffset,
	"modLfoToPitch":        gen.ModLfoToPitch,
	"vibLfoToPitch":        gen.VibLfoToPitch,
	"modEnvToPitch":        gen.ModEnvToPitch,
	"initialFilterFc":      gen.InitialFilterFc,
	"initialFilterQ":       gen.InitialFilterQ,
	"modLfoToFilterFc":     gen.ModLfoToFilterFc,
	"modEnvToFilterFc":     gen.ModEnvToFilterFc,
	"modLfoToVolume":       gen.ModLfoToVolume,
	"chorusEffectsSend":    gen.ChorusEffectsSend,
	"reverbEffectsSend":    gen.ReverbEffectsSend,
	"pan":                  gen.Pan,
	"delayModLFO":          gen.DelayModLFO,
	"freqModLFO":           gen.FreqModLFO,
	"delayVibLFO":          gen.DelayVibLFO,
	"freqVibLFO":           gen.FreqVibLFO,
	"delayModEnv":          gen.DelayModEnv,
	"attackModEnv":         gen.AttackModEnv,
	"holdModEnv":           gen.HoldModEnv,
	"decayModEnv":          gen.DecayModEnv,
	"sustainModEnv":        gen.SustainModEnv,
	"releaseModEnv":        gen.ReleaseModEnv,
	"keynumToModEnvHold":   gen.KeynumToModEnvHold,
	"keynumToModEnvDecay":  gen.KeynumToModEnvDecay,
	"delayVolEnv":          gen.DelayVolEnv,
	"attackVolEnv":         gen.AttackVolEnv,
	"holdVolEnv":           gen.HoldVolEnv,
	"decayVolEnv":          gen.DecayVolEnv,
	"sustainVolEnv":        gen.SustainVolEnv,
	"releaseVolEnv":        gen.ReleaseVolEnv,
	"keynumToVolEnvHold":   gen.KeynumToVolEnvHold,
	"keynumToVolEnvDecay":  gen.KeynumToVolEnvDecay,
	"keynum":               gen.Keynum,
	"velocity":             gen.Velocity,
	"initialAttenuation":   gen.InitialAttenuation,
	"coarseTune":           gen.CoarseTune,
	"fineTune":             gen.FineTune,
	"scaleTuning":          gen.ScaleTuning,
	"exclusiveClass":       gen.ExclusiveClass,
	"overridingRootKey":    gen.OverridingRootKey,
}
