// Package voice implements the per-voice synthesis pipeline: the voice
// entity itself, the builder that derives voices from preset zones, the
// wavetable oscillator, the volume and modulation envelopes, the lowpass
// filter and the stereo panner with effect sends.
package voice

import (
	"math"

	"github.com/msveshnikov/spessasynth-go/internal/gen"
)

// LoopMode is the sample loop policy.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopContinuous
	LoopUntilRelease
)

// EnvelopeState is the volume envelope stage. Stages advance monotonically
// through delay, attack, hold, decay and sustain; release may be entered
// from any stage.
type EnvelopeState int

const (
	EnvDelay EnvelopeState = iota
	EnvAttack
	EnvHold
	EnvDecay
	EnvSustain
	EnvRelease
)

// silenceDb is the attenuation treated as inaudible; the volume envelope
// starts and ends here.
const silenceDb = 100.0

// MinNoteLength is the floor on a note's audible duration: releases are
// deferred so that even the shortest note-on/note-off pair rings for this
// long.
const MinNoteLength = 0.07

// Voice is the central mutable entity of the synthesizer. One note-on may
// produce several voices, one per matching preset zone.
type Voice struct {
	ChannelIndex int
	MidiNote     int
	Velocity     int
	TargetKey    int
	StartTime    float64

	SampleID        int
	SampleRate      float64
	Cursor          float64 // source frames
	PlaybackStep    float64 // source frames per output frame at root pitch
	RootKey         int
	LoopStart       float64
	LoopEnd         float64
	End             float64
	LoopMode        LoopMode
	ExclusiveClass  int
	SampleResolved  bool // decoded frames existed at build time

	Generators gen.Vec
	Modulated  gen.Vec
	Modulators []gen.Modulator

	VolEnvState        EnvelopeState
	AttenuationDb      float64 // current envelope attenuation, 100 = silence
	releaseStartDb     float64
	releaseCaptured    bool
	ModEnvValue        float64
	ReleaseStartModEnv float64
	modReleaseCaptured bool

	TuningCents int
	TuningRatio float64

	filter biquadState

	IsInRelease      bool
	Finished         bool
	ReleaseStartTime float64

	dirty bool // modulated vector needs recomputation
}

// Release schedules the voice's transition into the release stage, deferred
// so the note sounds for at least MinNoteLength. Releasing twice only ever
// moves the start forward from +Inf, never backward.
func (v *Voice) Release(now float64) {
	if v.IsInRelease {
		return
	}
	start := now
	if min := v.StartTime + MinNoteLength; min > start {
		start = min
	}
	v.ReleaseStartTime = start
	v.IsInRelease = true
}

// ReleaseImmediate enters release at now without the minimum-length floor,
// used for exclusive-class cutoffs and kills.
func (v *Voice) ReleaseImmediate(now float64) {
	if v.IsInRelease && v.ReleaseStartTime <= now {
		return
	}
	v.ReleaseStartTime = now
	v.IsInRelease = true
}

// SetFinished marks the voice dead. The flag is monotonic.
func (v *Voice) SetFinished() {
	v.Finished = true
}

// MarkDirty flags the modulated generator vector as stale.
func (v *Voice) MarkDirty() {
	v.dirty = true
}

// ComputeModulators rebuilds the modulated generator vector from the raw
// layer and the channel's controller snapshot.
func (v *Voice) ComputeModulators(ctrl *gen.ControllerState) {
	gen.ComputeModulators(&v.Modulated, v.Generators, v.Modulators, ctrl, v.TargetKey, v.Velocity)
	v.dirty = false
}

// RefreshModulators recomputes the modulated vector only when it is stale.
func (v *Voice) RefreshModulators(ctrl *gen.ControllerState) {
	if v.dirty {
		v.ComputeModulators(ctrl)
	}
}

// ForceQuickRelease rewrites the release time on the raw generator layer,
// used by exclusive-class cutoff (-7200 timecents) and note kills (-12000).
func (v *Voice) ForceQuickRelease(timecents int16) {
	v.Generators[gen.ReleaseVolEnv] = timecents
	v.MarkDirty()
}

// Rehome re-derives the playback position after the voice's sample data
// arrives asynchronously, as if the voice had been playing since StartTime.
func (v *Voice) Rehome(frames []float32, now, outputRate float64) {
	v.End = float64(len(frames)-1) +
		float64(v.Generators[gen.EndAddrsOffset]) +
		32768*float64(v.Generators[gen.EndAddrsCoarseOffset])
	v.Cursor = v.PlaybackStep * outputRate * (now - v.StartTime)
	v.SampleResolved = true
	if v.LoopMode == LoopNone {
		if v.Cursor >= v.End {
			v.SetFinished()
		}
		return
	}
	if v.Cursor > v.LoopEnd {
		loopLen := v.LoopEnd - v.LoopStart
		// The trailing -1 is deliberate: removing it clicks audibly when a
		// late-arriving sample re-enters its loop.
		v.Cursor = math.Mod(v.Cursor, loopLen) + v.LoopStart - 1
	}
}
