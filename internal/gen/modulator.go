package gen

import "math"

// Modulator source kinds for the non-CC index space.
const (
	SrcNone            = 0
	SrcNoteOnVelocity  = 2
	SrcNoteOnKey       = 3
	SrcPolyPressure    = 10
	SrcChannelPressure = 13
	SrcPitchWheel      = 14
	SrcPitchWheelRange = 16
	SrcLink            = 127
)

// Source curve types.
const (
	CurveLinear = iota
	CurveConcave
	CurveConvex
	CurveSwitch
)

// Transform applied to the final modulator output.
const (
	TransformLinear   = 0
	TransformAbsolute = 2
)

// Source describes one side of a modulator mapping: which controller it
// reads and how the raw 14-bit value is shaped before scaling.
type Source struct {
	Index    int
	CC       bool
	Curve    int
	Bipolar  bool
	Negative bool
}

// Modulator routes a shaped controller value into a generator slot as an
// additive offset.
type Modulator struct {
	Source       Source
	AmountSource Source
	Destination  int
	Amount       int
	Transform    int
}

// rawValue fetches the unshaped 14-bit source value from the controller
// snapshot. Unknown sources yield 0; "no controller" yields full scale.
func (s Source) rawValue(ctrl *ControllerState, key, velocity int) int {
	if s.CC {
		if s.Index < 0 || s.Index >= NonCCOffset {
			return 0
		}
		return int(ctrl[s.Index])
	}
	switch s.Index {
	case SrcNone:
		return 16383
	case SrcNoteOnVelocity:
		return velocity << 7
	case SrcNoteOnKey:
		return key << 7
	case SrcPolyPressure:
		return int(ctrl[CtrlPolyPressure])
	case SrcChannelPressure:
		return int(ctrl[CtrlChannelPressure])
	case SrcPitchWheel:
		return int(ctrl[CtrlPitchWheel])
	case SrcPitchWheelRange:
		return int(ctrl[CtrlPitchWheelRange])
	default:
		return 0
	}
}

// Value evaluates the source against the controller snapshot, returning a
// value in [0,1] (unipolar) or [-1,1] (bipolar).
func (s Source) Value(ctrl *ControllerState, key, velocity int) float64 {
	v := float64(s.rawValue(ctrl, key, velocity)) / 16383
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	if s.Negative {
		v = 1 - v
	}
	if s.Bipolar {
		x := 2*v - 1
		sign := 1.0
		if x < 0 {
			sign, x = -1, -x
		}
		return sign * curve(s.Curve, x)
	}
	return curve(s.Curve, v)
}

func curve(kind int, v float64) float64 {
	switch kind {
	case CurveConcave:
		if v >= 1 {
			return 1
		}
		out := -20.0 / 96.0 * math.Log10((1-v)*(1-v))
		if out > 1 {
			return 1
		}
		return out
	case CurveConvex:
		if v <= 0 {
			return 0
		}
		out := 1 + 20.0/96.0*math.Log10(v*v)
		if out < 0 {
			return 0
		}
		return out
	case CurveSwitch:
		if v >= 0.5 {
			return 1
		}
		return 0
	default:
		return v
	}
}

// ComputeModulators rebuilds dst from the raw generator layer plus every
// modulator's contribution under the given controller snapshot. Additions
// into the initial attenuation slot are scaled the same way the combined
// base value is, so the EMU behavior holds for modulated attenuation too.
func ComputeModulators(dst *Vec, base Vec, mods []Modulator, ctrl *ControllerState, key, velocity int) {
	*dst = base
	for i := range mods {
		m := &mods[i]
		if m.Destination < 0 || m.Destination >= Count {
			continue
		}
		v := m.Source.Value(ctrl, key, velocity) * m.AmountSource.Value(ctrl, key, velocity) * float64(m.Amount)
		if m.Transform == TransformAbsolute && v < 0 {
			v = -v
		}
		if m.Destination == InitialAttenuation {
			v *= emuAttenuationScale
		}
		sum := int(dst[m.Destination]) + int(v)
		if sum > 32767 {
			sum = 32767
		} else if sum < -32768 {
			sum = -32768
		}
		dst[m.Destination] = int16(sum)
	}
}

// DefaultModulators is the modulator set every voice starts with: the
// SoundFont defaults plus velocity-to-filter, poly pressure to vibrato,
// brightness and the attack/release time controllers.
func DefaultModulators() []Modulator {
	return []Modulator{
		// Note-on velocity to initial attenuation.
		{
			Source:      Source{Index: SrcNoteOnVelocity, Curve: CurveConcave, Negative: true},
			Destination: InitialAttenuation,
			Amount:      960,
		},
		// Note-on velocity to filter cutoff.
		{
			Source:      Source{Index: SrcNoteOnVelocity, Curve: CurveLinear, Negative: true},
			Destination: InitialFilterFc,
			Amount:      -2400,
		},
		// Channel pressure to vibrato depth.
		{
			Source:      Source{Index: SrcChannelPressure, Curve: CurveLinear},
			Destination: VibLfoToPitch,
			Amount:      50,
		},
		// Poly pressure to vibrato depth.
		{
			Source:      Source{Index: SrcPolyPressure, Curve: CurveLinear},
			Destination: VibLfoToPitch,
			Amount:      50,
		},
		// Mod wheel to vibrato depth.
		{
			Source:      Source{Index: CCModWheel, CC: true, Curve: CurveLinear},
			Destination: VibLfoToPitch,
			Amount:      50,
		},
		// Pitch wheel scaled by pitch wheel range to fine tune.
		{
			Source:       Source{Index: SrcPitchWheel, Curve: CurveLinear, Bipolar: true},
			AmountSource: Source{Index: SrcPitchWheelRange, Curve: CurveLinear},
			Destination:  FineTune,
			Amount:       12700,
		},
		// Main volume to initial attenuation.
		{
			Source:      Source{Index: CCMainVolume, CC: true, Curve: CurveConcave, Negative: true},
			Destination: InitialAttenuation,
			Amount:      960,
		},
		// Expression to initial attenuation.
		{
			Source:      Source{Index: CCExpression, CC: true, Curve: CurveConcave, Negative: true},
			Destination: InitialAttenuation,
			Amount:      960,
		},
		// Pan controller to pan.
		{
			Source:      Source{Index: CCPan, CC: true, Curve: CurveLinear, Bipolar: true},
			Destination: Pan,
			Amount:      500,
		},
		// Reverb depth to reverb send.
		{
			Source:      Source{Index: CCReverbDepth, CC: true, Curve: CurveLinear},
			Destination: ReverbEffectsSend,
			Amount:      200,
		},
		// Chorus depth to chorus send.
		{
			Source:      Source{Index: CCChorusDepth, CC: true, Curve: CurveLinear},
			Destination: ChorusEffectsSend,
			Amount:      200,
		},
		// Brightness to filter cutoff.
		{
			Source:      Source{Index: CCBrightness, CC: true, Curve: CurveLinear, Bipolar: true},
			Destination: InitialFilterFc,
			Amount:      6000,
		},
		// Release time controller to volume envelope release.
		{
			Source:      Source{Index: CCReleaseTime, CC: true, Curve: CurveLinear, Bipolar: true},
			Destination: ReleaseVolEnv,
			Amount:      1200,
		},
		// Attack time controller to volume envelope attack.
		{
			Source:      Source{Index: CCAttackTime, CC: true, Curve: CurveLinear, Bipolar: true},
			Destination: AttackVolEnv,
			Amount:      1200,
		},
	}
}
