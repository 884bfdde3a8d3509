package engine

import (
	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/sample"
	"github.com/msveshnikov/spessasynth-go/internal/voice"
)

// Channel is one MIDI channel: its controller table, hold-pedal state,
// NRPN vibrato, preset assignment and live voices. Voices under the hold
// pedal keep playing from Voices; Sustained only tracks which of them owe a
// release when the pedal lifts.
type Channel struct {
	Controllers gen.ControllerState
	HoldPedal   bool
	Vibrato     voice.Vibrato
	Voices      []*voice.Voice
	Sustained   []*voice.Voice
	Muted       bool
	Preset      sample.Preset

	builder *voice.Builder
}

func newChannel(outputRate float64, store *sample.Store) *Channel {
	return &Channel{
		Controllers: gen.NewControllerState(),
		builder:     voice.NewBuilder(outputRate, store),
	}
}

// extraCents is the channel-wide pitch offset: NRPN tuning in cents plus
// transpose in semitones.
func (c *Channel) extraCents() float64 {
	return float64(c.Controllers[gen.CtrlChannelTuning]) +
		100*float64(c.Controllers[gen.CtrlChannelTranspose])
}

// noteOn builds and registers the voices for one note, applying
// exclusive-class cutoff to competing voices first. Only voices that were
// live before this note-on are candidates for the cutoff, so sibling zones
// of the same note sharing a class never cut each other. It returns any
// dump requests for samples that are not decoded yet.
func (c *Channel) noteOn(channelIndex, note, velocity int, now float64) []voice.DumpRequest {
	if c.Preset == nil {
		return nil
	}
	voices, dumps := c.builder.Build(channelIndex, note, velocity, c.Preset, now)
	existing := c.Voices
	for _, nv := range voices {
		if nv.ExclusiveClass != 0 {
			for _, old := range existing {
				if old.ExclusiveClass == nv.ExclusiveClass {
					old.ForceQuickRelease(-7200)
					old.ComputeModulators(&c.Controllers)
					old.ReleaseImmediate(now)
				}
			}
		}
		nv.ComputeModulators(&c.Controllers)
	}
	c.Voices = append(c.Voices, voices...)
	return dumps
}

// noteOff releases matching voices, or parks them on the sustain list when
// the hold pedal is down.
func (c *Channel) noteOff(note int, now float64) {
	for _, v := range c.Voices {
		if v.MidiNote != note || v.IsInRelease {
			continue
		}
		if c.HoldPedal {
			c.Sustained = append(c.Sustained, v)
		} else {
			v.Release(now)
		}
	}
}

// killNote force-releases matching voices with a near-instant release.
func (c *Channel) killNote(note int, now float64) {
	for _, v := range c.Voices {
		if v.MidiNote != note {
			continue
		}
		v.ForceQuickRelease(-12000)
		v.ComputeModulators(&c.Controllers)
		v.ReleaseImmediate(now)
	}
}

// setController stores a controller value and handles the sustain pedal
// threshold. Every live voice's modulated vector is rebuilt.
func (c *Channel) setController(index, value int, now float64) {
	if !c.Controllers.Set(index, value) {
		return
	}
	if index == gen.CCSustainPedal {
		down := value >= 64
		if down && !c.HoldPedal {
			c.HoldPedal = true
		} else if !down && c.HoldPedal {
			c.HoldPedal = false
			for _, v := range c.Sustained {
				v.Release(now)
			}
			c.Sustained = c.Sustained[:0]
		}
	}
	c.recomputeModulators()
}

// ccReset restores controller defaults, keeping channelTranspose and the
// excluded indices, and clears pedal and vibrato state.
func (c *Channel) ccReset(excluded []int, now float64) {
	c.Controllers.Reset(excluded)
	if c.HoldPedal {
		c.HoldPedal = false
		for _, v := range c.Sustained {
			v.Release(now)
		}
		c.Sustained = c.Sustained[:0]
	}
	c.Vibrato = voice.Vibrato{}
	c.recomputeModulators()
}

func (c *Channel) recomputeModulators() {
	for _, v := range c.Voices {
		v.ComputeModulators(&c.Controllers)
	}
}

// compact drops finished voices from both lists after a render pass.
func (c *Channel) compact() {
	live := c.Voices[:0]
	for _, v := range c.Voices {
		if !v.Finished {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(c.Voices); i++ {
		c.Voices[i] = nil
	}
	c.Voices = live
	if len(c.Sustained) > 0 {
		kept := c.Sustained[:0]
		for _, v := range c.Sustained {
			if !v.Finished {
				kept = append(kept, v)
			}
		}
		for i := len(kept); i < len(c.Sustained); i++ {
			c.Sustained[i] = nil
		}
		c.Sustained = kept
	}
}

// dropAll finishes every voice immediately.
func (c *Channel) dropAll() {
	for _, v := range c.Voices {
		v.SetFinished()
	}
	c.Voices = c.Voices[:0]
	c.Sustained = c.Sustained[:0]
}

// releaseAll releases every voice that is not already releasing, including
// sustained ones.
func (c *Channel) releaseAll(now float64) {
	for _, v := range c.Voices {
		if !v.IsInRelease {
			v.Release(now)
		}
	}
	c.Sustained = c.Sustained[:0]
}

// setPreset swaps the preset and drops the voice cache built against the
// previous one.
func (c *Channel) setPreset(p sample.Preset) {
	c.Preset = p
	c.builder.InvalidateCache()
}
