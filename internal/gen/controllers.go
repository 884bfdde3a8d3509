package gen

// The controller table holds the standard MIDI CCs in slots 0-127 plus a
// tail of non-CC modulation sources. CC values are stored as 14-bit
// integers: 7-bit controllers are shifted left by 7 on write.
const (
	ControllerCount = 147
	NonCCOffset     = 128
)

// Named CC slots the engine reads directly.
const (
	CCBankSelect   = 0
	CCModWheel     = 1
	CCMainVolume   = 7
	CCPan          = 10
	CCExpression   = 11
	CCSustainPedal = 64
	CCReleaseTime  = 72
	CCAttackTime   = 73
	CCBrightness   = 74
	CCReverbDepth  = 91
	CCChorusDepth  = 93
	CCAllSoundOff  = 120
	CCAllNotesOff  = 123
)

// Non-CC tail slots.
const (
	CtrlPitchWheel = NonCCOffset + iota
	CtrlPitchWheelRange
	CtrlChannelPressure
	CtrlPolyPressure
	CtrlChannelTuning    // cents
	CtrlChannelTranspose // semitones
)

// ControllerState is one channel's controller snapshot.
type ControllerState [ControllerCount]int16

type ctrlDefault struct {
	index int
	value int16
}

var controllerDefaults = []ctrlDefault{
	{CCMainVolume, 100 << 7},
	{CCExpression, 127 << 7},
	{CCPan, 64 << 7},
	{CCReleaseTime, 64 << 7},
	{CCAttackTime, 64 << 7},
	{CCBrightness, 64 << 7},
	{CtrlPitchWheel, 8192},
	{CtrlPitchWheelRange, 2 << 7},
	{CtrlChannelPressure, 127 << 7},
	{CtrlChannelTuning, 0},
}

// NewControllerState returns a controller table holding the defaults.
func NewControllerState() ControllerState {
	var s ControllerState
	s.Reset(nil)
	return s
}

// Reset restores every slot to its default except channelTranspose and the
// excluded indices. Repeated resets with the same exclusions are idempotent.
func (s *ControllerState) Reset(excluded []int) {
	keep := make(map[int]int16, len(excluded)+1)
	keep[CtrlChannelTranspose] = s[CtrlChannelTranspose]
	for _, idx := range excluded {
		if idx >= 0 && idx < ControllerCount {
			keep[idx] = s[idx]
		}
	}
	for i := range s {
		s[i] = 0
	}
	for _, d := range controllerDefaults {
		s[d.index] = d.value
	}
	for idx, v := range keep {
		s[idx] = v
	}
}

// Set stores a controller value. 7-bit CC values are widened to 14 bits;
// the non-CC tail is stored as given. Out-of-range indices are discarded.
func (s *ControllerState) Set(index, value int) bool {
	if index < 0 || index >= ControllerCount {
		return false
	}
	if index < NonCCOffset {
		s[index] = int16(value << 7)
	} else {
		s[index] = int16(value)
	}
	return true
}

// Get returns the raw 14-bit value of a slot, 0 for invalid indices.
func (s *ControllerState) Get(index int) int {
	if index < 0 || index >= ControllerCount {
		return 0
	}
	return int(s[index])
}
