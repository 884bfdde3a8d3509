// Package gen implements the SoundFont generator and modulator model: the
// 60-slot per-zone parameter vector, the preset/instrument combination rule,
// and the controller-driven modulator evaluation that produces the vector the
// synthesis path actually reads.
package gen

// Generator indices. The slot layout follows the SoundFont 2 generator
// enumeration; reserved and unused slots keep their positions so vectors can
// be indexed directly by id.
const (
	StartAddrsOffset = iota
	EndAddrsOffset
	StartloopAddrsOffset
	EndloopAddrsOffset
	StartAddrsCoarseOffset
	ModLfoToPitch
	VibLfoToPitch
	ModEnvToPitch
	InitialFilterFc
	InitialFilterQ
	ModLfoToFilterFc
	ModEnvToFilterFc
	EndAddrsCoarseOffset
	ModLfoToVolume
	unused1
	ChorusEffectsSend
	ReverbEffectsSend
	Pan
	unused2
	unused3
	unused4
	DelayModLFO
	FreqModLFO
	DelayVibLFO
	FreqVibLFO
	DelayModEnv
	AttackModEnv
	HoldModEnv
	DecayModEnv
	SustainModEnv
	ReleaseModEnv
	KeynumToModEnvHold
	KeynumToModEnvDecay
	DelayVolEnv
	AttackVolEnv
	HoldVolEnv
	DecayVolEnv
	SustainVolEnv
	ReleaseVolEnv
	KeynumToVolEnvHold
	KeynumToVolEnvDecay
	Instrument
	reserved1
	KeyRange
	VelRange
	StartloopAddrsCoarseOffset
	Keynum
	Velocity
	InitialAttenuation
	reserved2
	EndloopAddrsCoarseOffset
	CoarseTune
	FineTune
	SampleID
	SampleModes
	reserved3
	ScaleTuning
	ExclusiveClass
	OverridingRootKey
	unused5

	Count // 60
)

// Vec is one generator layer: 60 signed 16-bit slots indexed by generator id.
type Vec [Count]int16

type genInfo struct {
	def, min, max int16
}

// fullRange covers offset-style generators that have no meaningful bound of
// their own beyond the storage type.
var fullRange = genInfo{0, -32768, 32767}

var infos = [Count]genInfo{
	StartAddrsOffset:           {0, 0, 32767},
	EndAddrsOffset:             fullRange,
	StartloopAddrsOffset:       fullRange,
	EndloopAddrsOffset:         fullRange,
	StartAddrsCoarseOffset:     {0, 0, 32767},
	ModLfoToPitch:              {0, -12000, 12000},
	VibLfoToPitch:              {0, -12000, 12000},
	ModEnvToPitch:              {0, -12000, 12000},
	InitialFilterFc:            {13500, 1500, 13500},
	InitialFilterQ:             {0, 0, 960},
	ModLfoToFilterFc:           {0, -12000, 12000},
	ModEnvToFilterFc:           {0, -12000, 12000},
	EndAddrsCoarseOffset:       fullRange,
	ModLfoToVolume:             {0, -960, 960},
	unused1:                    {0, 0, 0},
	ChorusEffectsSend:          {0, 0, 1000},
	ReverbEffectsSend:          {0, 0, 1000},
	Pan:                        {0, -500, 500},
	unused2:                    {0, 0, 0},
	unused3:                    {0, 0, 0},
	unused4:                    {0, 0, 0},
	DelayModLFO:                {-12000, -12000, 5000},
	FreqModLFO:                 {0, -16000, 4500},
	DelayVibLFO:                {-12000, -12000, 5000},
	FreqVibLFO:                 {0, -16000, 4500},
	DelayModEnv:                {-12000, -12000, 5000},
	AttackModEnv:               {-12000, -12000, 8000},
	HoldModEnv:                 {-12000, -12000, 5000},
	DecayModEnv:                {-12000, -12000, 8000},
	SustainModEnv:              {0, 0, 1000},
	ReleaseModEnv:              {-12000, -12000, 8000},
	KeynumToModEnvHold:         {0, -1200, 1200},
	KeynumToModEnvDecay:        {0, -1200, 1200},
	DelayVolEnv:                {-12000, -12000, 5000},
	AttackVolEnv:               {-12000, -12000, 8000},
	HoldVolEnv:                 {-12000, -12000, 5000},
	DecayVolEnv:                {-12000, -12000, 8000},
	SustainVolEnv:              {0, 0, 1440},
	ReleaseVolEnv:              {-12000, -12000, 8000},
	KeynumToVolEnvHold:         {0, -1200, 1200},
	KeynumToVolEnvDecay:        {0, -1200, 1200},
	Instrument:                 fullRange,
	reserved1:                  {0, 0, 0},
	KeyRange:                   {32512, 0, 32767}, // lo=0 hi=127
	VelRange:                   {32512, 0, 32767},
	StartloopAddrsCoarseOffset: fullRange,
	Keynum:                     {-1, -1, 127},
	Velocity:                   {-1, -1, 127},
	InitialAttenuation:         {0, 0, 1440},
	reserved2:                  {0, 0, 0},
	EndloopAddrsCoarseOffset:   fullRange,
	CoarseTune:                 {0, -120, 120},
	FineTune:                   {0, -99, 99},
	SampleID:                   fullRange,
	SampleModes:                {0, 0, 3},
	reserved3:                  {0, 0, 0},
	ScaleTuning:                {100, 0, 1200},
	ExclusiveClass:             {0, 0, 127},
	OverridingRootKey:          {-1, -1, 127},
	unused5:                    {0, 0, 0},
}

// emuAttenuationScale matches the EMU8000 hardware, which applies roughly
// 0.4x of the nominal initial attenuation value.
const emuAttenuationScale = 0.4

// Default returns the default value for one generator slot.
func Default(id int) int16 {
	return infos[id].def
}

// Clamp limits v to the defined range of the given generator slot.
func Clamp(id int, v int) int16 {
	info := infos[id]
	if v < int(info.min) {
		return info.min
	}
	if v > int(info.max) {
		return info.max
	}
	return int16(v)
}

// NewInstrumentVec returns an instrument-layer vector preloaded with the
// generator defaults. The overridingRootKey, keyNum and velocity slots carry
// the -1 "not set" sentinel.
func NewInstrumentVec() Vec {
	var v Vec
	for i := range v {
		v[i] = infos[i].def
	}
	return v
}

// Combine merges a preset layer into an instrument layer: per slot the two
// values are summed and clamped to the slot's defined range. Preset layers
// are relative, so an unset preset slot (0) leaves the instrument value
// intact, and the -1 sentinels survive when neither layer sets them. The
// initial attenuation slot is scaled to the EMU reference behavior.
func Combine(preset, instrument Vec) Vec {
	var out Vec
	for i := range out {
		out[i] = Clamp(i, int(preset[i])+int(instrument[i]))
	}
	out[InitialAttenuation] = int16(float64(out[InitialAttenuation]) * emuAttenuationScale)
	return out
}
