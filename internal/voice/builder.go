package voice

import (
	"math"

	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/sample"
	"github.com/msveshnikov/spessasynth-go/internal/units"
)

// DumpRequest asks the host to decode and dump a sample that a freshly
// built voice references but the store does not hold yet.
type DumpRequest struct {
	Sample *sample.Sample
}

// Builder turns preset zones into playable voices. Built voice groups are
// cached per (note, velocity); a group only enters the cache once every
// referenced sample is resolved, because the sample end position cannot be
// known before the data exists.
type Builder struct {
	OutputRate float64
	Store      *sample.Store

	cache map[cacheKey][]*Voice
}

type cacheKey struct {
	note, velocity int
}

func NewBuilder(outputRate float64, store *sample.Store) *Builder {
	return &Builder{
		OutputRate: outputRate,
		Store:      store,
		cache:      make(map[cacheKey][]*Voice),
	}
}

// InvalidateCache drops every cached voice group, used when the preset
// assignment changes.
func (b *Builder) InvalidateCache() {
	for k := range b.cache {
		delete(b.cache, k)
	}
}

// Build returns the voices for one note-on, plus dump requests for any
// samples whose data has not been published yet. Cache hits only refresh
// the start time.
func (b *Builder) Build(channelIndex, midiNote, velocity int, preset sample.Preset, now float64) ([]*Voice, []DumpRequest) {
	key := cacheKey{midiNote, velocity}
	if cached, ok := b.cache[key]; ok {
		voices := make([]*Voice, len(cached))
		for i, tmpl := range cached {
			v := *tmpl
			v.StartTime = now
			v.ChannelIndex = channelIndex
			voices[i] = &v
		}
		return voices, nil
	}

	zones := preset.Zones(midiNote, velocity)
	if len(zones) == 0 {
		return nil, nil
	}
	voices := make([]*Voice, 0, len(zones))
	var dumps []DumpRequest
	allResolved := true
	for _, z := range zones {
		resolved := b.Store.Has(z.Sample.ID)
		if !resolved {
			dumps = append(dumps, DumpRequest{Sample: z.Sample})
			allResolved = false
		}
		voices = append(voices, b.buildOne(channelIndex, midiNote, velocity, z, resolved, now))
	}
	if allResolved {
		templates := make([]*Voice, len(voices))
		for i, v := range voices {
			tmpl := *v
			templates[i] = &tmpl
		}
		b.cache[key] = templates
	}
	return voices, dumps
}

func (b *Builder) buildOne(channelIndex, midiNote, velocity int, z sample.Zone, resolved bool, now float64) *Voice {
	g := gen.Combine(z.PresetGens, z.InstrumentGens)

	rootKey := z.Sample.RootPitch
	if g[gen.OverridingRootKey] >= 0 {
		rootKey = int(g[gen.OverridingRootKey])
	}
	targetKey := midiNote
	if g[gen.Keynum] >= 0 {
		targetKey = int(g[gen.Keynum])
	}
	vel := velocity
	if g[gen.Velocity] >= 0 {
		vel = int(g[gen.Velocity])
	}

	loopStart := float64(z.Sample.LoopStart) +
		float64(g[gen.StartloopAddrsOffset]) + 32768*float64(g[gen.StartloopAddrsCoarseOffset])
	loopEnd := float64(z.Sample.LoopEnd) +
		float64(g[gen.EndloopAddrsOffset]) + 32768*float64(g[gen.EndloopAddrsCoarseOffset])
	var loopMode LoopMode
	switch g[gen.SampleModes] & 3 {
	case 1:
		loopMode = LoopContinuous
	case 3:
		loopMode = LoopUntilRelease
	default: // 0 plays through; 2 is unused and treated the same
		loopMode = LoopNone
	}
	if loopEnd-loopStart < 1 {
		loopMode = LoopNone
	}

	var dataLen int
	if frames, ok := b.Store.Get(z.Sample.ID); ok {
		dataLen = len(frames)
	}
	end := float64(dataLen-1) +
		float64(g[gen.EndAddrsOffset]) + 32768*float64(g[gen.EndAddrsCoarseOffset])

	v := &Voice{
		ChannelIndex:   channelIndex,
		MidiNote:       midiNote,
		Velocity:       vel,
		TargetKey:      targetKey,
		StartTime:      now,
		SampleID:       z.Sample.ID,
		SampleRate:     z.Sample.SampleRate,
		Cursor:         float64(g[gen.StartAddrsOffset]) + 32768*float64(g[gen.StartAddrsCoarseOffset]),
		PlaybackStep:   z.Sample.SampleRate / b.OutputRate * units.CentsToRatio(float64(z.Sample.PitchCorrection)),
		RootKey:        rootKey,
		LoopStart:      loopStart,
		LoopEnd:        loopEnd,
		End:            end,
		LoopMode:       loopMode,
		ExclusiveClass: int(g[gen.ExclusiveClass]),
		SampleResolved: resolved,

		Generators: g,
		Modulators: z.Modulators,

		VolEnvState:      EnvDelay,
		AttenuationDb:    silenceDb,
		ModEnvValue:      0,
		TuningRatio:      1,
		ReleaseStartTime: math.Inf(1),
	}
	v.filter.reset()
	v.MarkDirty()
	return v
}
