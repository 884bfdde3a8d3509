package engine

import (
	"math"
	"testing"

	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/sample"
	"github.com/msveshnikov/spessasynth-go/internal/voice"
)

type fixedPreset struct {
	zones []sample.Zone
}

func (p *fixedPreset) Zones(note, velocity int) []sample.Zone {
	return p.zones
}

func sineSample(id, frames int, rate float64) *sample.Sample {
	data := make([]float32, frames)
	for i := range data {
		data[i] = float32(math.Sin(2 * math.Pi * 220 * float64(i) / rate))
	}
	return &sample.Sample{
		ID:         id,
		SampleRate: rate,
		RootPitch:  60,
		LoopStart:  100,
		LoopEnd:    frames - 100,
		Data:       data,
	}
}

func loopingPreset(s *sample.Sample, override func(*gen.Vec)) *fixedPreset {
	instr := gen.NewInstrumentVec()
	instr[gen.SampleModes] = 1
	if override != nil {
		override(&instr)
	}
	return &fixedPreset{zones: []sample.Zone{{
		Sample:         s,
		InstrumentGens: instr,
		Modulators:     gen.DefaultModulators(),
	}}}
}

func newOut(n int) voice.Out {
	return voice.Out{
		DryL: make([]float32, n), DryR: make([]float32, n),
		RevL: make([]float32, n), RevR: make([]float32, n),
		ChoL: make([]float32, n), ChoR: make([]float32, n),
	}
}

func zeroOut(out voice.Out) {
	for _, plane := range [][]float32{out.DryL, out.DryR, out.RevL, out.RevR, out.ChoL, out.ChoR} {
		for i := range plane {
			plane[i] = 0
		}
	}
}

func processBlocks(p *Processor, out voice.Out, n int) {
	for i := 0; i < n; i++ {
		zeroOut(out)
		p.Process(out)
	}
}

func energy(buf []float32) float64 {
	var sum float64
	for _, s := range buf {
		sum += math.Abs(float64(s))
	}
	return sum
}

func TestSingleMiddleC(t *testing.T) {
	p := New(Config{SampleRate: 48000, BlockSize: 128, Channels: 2})
	s := sineSample(1, 4000, 44100)
	s.LoopEnd = 200
	p.SetPreset(0, loopingPreset(s, nil))

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	out := newOut(128)
	var left, right float64
	for i := 0; i < 4; i++ { // 512 frames
		zeroOut(out)
		p.Process(out)
		left += energy(out.DryL)
		right += energy(out.DryR)
	}
	if left == 0 || right == 0 {
		t.Fatalf("expected output in both channels, got %v/%v", left, right)
	}

	v := p.channels[0].Voices[0]
	want := math.Mod(512*44100.0/48000.0, 100) + 100
	if math.Abs(v.Cursor-want) > 1e-2 {
		t.Errorf("cursor = %v, want %v", v.Cursor, want)
	}
}

func TestHoldPedal(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 441, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, nil))
	out := newOut(441)

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	processBlocks(p, out, 10) // t = 0.1
	p.Post(Event{Kind: EventCCChange, Channel: 0, Controller: gen.CCSustainPedal, Value: 127})
	processBlocks(p, out, 10) // t = 0.2
	p.Post(Event{Kind: EventNoteOff, Channel: 0, Note: 60})
	processBlocks(p, out, 10) // t = 0.3

	ch := p.channels[0]
	if len(ch.Voices) != 1 {
		t.Fatalf("live voices = %d, want 1", len(ch.Voices))
	}
	v := ch.Voices[0]
	if v.IsInRelease {
		t.Error("held voice must not be in release")
	}
	if len(ch.Sustained) != 1 {
		t.Fatalf("sustained voices = %d, want 1", len(ch.Sustained))
	}

	p.Post(Event{Kind: EventCCChange, Channel: 0, Controller: gen.CCSustainPedal, Value: 0})
	processBlocks(p, out, 1)
	if !v.IsInRelease {
		t.Fatal("voice must release when the pedal lifts")
	}
	if math.Abs(v.ReleaseStartTime-0.3) > 1e-6 {
		t.Errorf("releaseStartTime = %v, want 0.3", v.ReleaseStartTime)
	}
	if len(ch.Sustained) != 0 {
		t.Error("sustained list not emptied")
	}
}

func TestExclusiveClassCutoff(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, func(v *gen.Vec) {
		v[gen.ExclusiveClass] = 1
	}))
	out := newOut(128)

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	processBlocks(p, out, 1)
	v1 := p.channels[0].Voices[0]

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 62, Velocity: 100})
	processBlocks(p, out, 1)

	if len(p.channels[0].Voices) != 2 {
		t.Fatalf("voices = %d, want both to coexist momentarily", len(p.channels[0].Voices))
	}
	if !v1.IsInRelease {
		t.Error("first voice must be cut by the exclusive class")
	}
	if v1.Generators[gen.ReleaseVolEnv] != -7200 {
		t.Errorf("first voice releaseVolEnv = %d, want -7200", v1.Generators[gen.ReleaseVolEnv])
	}
	v2 := p.channels[0].Voices[1]
	if v2.IsInRelease {
		t.Error("second voice must keep sounding")
	}
}

func TestExclusiveClassSparesSiblingZones(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2})
	s := sineSample(1, 44100, 44100)
	instr := gen.NewInstrumentVec()
	instr[gen.SampleModes] = 1
	instr[gen.ExclusiveClass] = 1
	// Two zones sharing a class, as in an L/R split percussion hit.
	left, right := instr, instr
	left[gen.Pan] = -500
	right[gen.Pan] = 500
	p.SetPreset(0, &fixedPreset{zones: []sample.Zone{
		{Sample: s, InstrumentGens: left, Modulators: gen.DefaultModulators()},
		{Sample: s, InstrumentGens: right, Modulators: gen.DefaultModulators()},
	}})
	out := newOut(128)

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	processBlocks(p, out, 1)
	if len(p.channels[0].Voices) != 2 {
		t.Fatalf("voices = %d, want 2", len(p.channels[0].Voices))
	}
	for i, v := range p.channels[0].Voices {
		if v.IsInRelease {
			t.Errorf("sibling zone %d cut by its own note-on", i)
		}
	}

	// A second hit must still cut both earlier voices.
	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 62, Velocity: 100})
	processBlocks(p, out, 1)
	voices := p.channels[0].Voices
	for _, v := range voices {
		if v.MidiNote == 60 && !v.IsInRelease {
			t.Error("previous hit not cut by the exclusive class")
		}
		if v.MidiNote == 62 && v.IsInRelease {
			t.Error("new hit cut by its own note-on")
		}
	}
}

func TestKillNotesStealsLowestVelocities(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, nil))
	out := newOut(128)

	for i := 0; i < 20; i++ {
		p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 40 + i, Velocity: 127 - i})
	}
	processBlocks(p, out, 1)
	if got := len(p.channels[0].Voices); got != 20 {
		t.Fatalf("voices = %d, want 20", got)
	}

	p.Post(Event{Kind: EventKillNotes, Count: 3})
	processBlocks(p, out, 1)

	voices := p.channels[0].Voices
	if len(voices) != 17 {
		t.Fatalf("voices after steal = %d, want 17", len(voices))
	}
	prevVel := 128
	for _, v := range voices {
		if v.Velocity < 111 {
			t.Errorf("low-velocity voice %d survived", v.Velocity)
		}
		if v.Velocity >= prevVel {
			t.Errorf("survivor ordering disturbed: %d after %d", v.Velocity, prevVel)
		}
		prevVel = v.Velocity
	}
}

func TestVoiceCapOverflowSteals(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2, VoiceCap: 10})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, nil))
	out := newOut(128)

	for i := 0; i < 13; i++ {
		p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 40 + i, Velocity: 127 - i})
	}
	processBlocks(p, out, 1)
	if got := len(p.channels[0].Voices); got != 10 {
		t.Fatalf("voices = %d, want cap 10", got)
	}
	for _, v := range p.channels[0].Voices {
		if v.Velocity < 118 {
			t.Errorf("velocity %d should have been stolen", v.Velocity)
		}
	}
}

func TestAsyncDumpArrival(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 441, Channels: 2})
	s := sineSample(1, 44100, 44100)
	data := s.Data
	s.Data = nil
	s.Compressed = true
	p.SetPreset(0, loopingPreset(s, nil))
	out := newOut(441)

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	zeroOut(out)
	p.Process(out)

	ch := p.channels[0]
	if len(ch.Voices) != 1 {
		t.Fatalf("voices = %d, want 1", len(ch.Voices))
	}
	v := ch.Voices[0]
	if v.Finished {
		t.Fatal("waiting voice must not finish")
	}
	if energy(out.DryL) != 0 {
		t.Fatal("waiting voice must render silence")
	}

	// The processor must have asked for the missing sample.
	requested := false
drain:
	for {
		select {
		case u := <-p.Updates():
			if u.Kind == UpdateDumpRequest {
				for _, id := range u.SampleIDs {
					if id == 1 {
						requested = true
					}
				}
			}
		default:
			break drain
		}
	}
	if !requested {
		t.Error("no dump request emitted for the missing sample")
	}

	processBlocks(p, out, 4) // now = 0.05
	p.Post(Event{Kind: EventSampleDump, SampleID: 1, Frames: data})
	zeroOut(out)
	p.Process(out)

	step := 1.0 // 44100 source at 44100 output
	wantAfterBlock := step*44100*0.05 + 441*step
	if math.Abs(v.Cursor-wantAfterBlock) > 2 {
		t.Errorf("rehomed cursor = %v, want about %v", v.Cursor, wantAfterBlock)
	}
	if energy(out.DryL) == 0 {
		t.Error("voice must sound once the dump lands")
	}
}

func TestControllerChangeAffectsNextBlock(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 441, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, nil))
	out := newOut(441)

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 127})
	processBlocks(p, out, 20)
	zeroOut(out)
	p.Process(out)
	loud := energy(out.DryL)

	p.Post(Event{Kind: EventCCChange, Channel: 0, Controller: gen.CCExpression, Value: 10})
	zeroOut(out)
	p.Process(out)
	quiet := energy(out.DryL)
	if quiet >= loud/2 {
		t.Errorf("expression drop had no effect: %v -> %v", loud, quiet)
	}
}

func TestMutedChannelSkipped(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 441, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, nil))
	out := newOut(441)

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	processBlocks(p, out, 5)
	p.Post(Event{Kind: EventMuteChannel, Channel: 0, Mute: true})
	zeroOut(out)
	p.Process(out)
	if energy(out.DryL) != 0 {
		t.Error("muted channel still rendered")
	}
}

func TestStopAllModes(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 441, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, func(v *gen.Vec) {
		v[gen.ReleaseVolEnv] = -3986 // about 0.1 s
	}))
	out := newOut(441)

	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 64, Velocity: 100})
	processBlocks(p, out, 1)

	p.Post(Event{Kind: EventStopAll, Mode: 0})
	processBlocks(p, out, 1)
	if len(p.channels[0].Voices) == 0 {
		t.Fatal("released voices should still be ringing")
	}
	for _, v := range p.channels[0].Voices {
		if !v.IsInRelease {
			t.Error("release-mode stopAll left a voice unreleased")
		}
	}

	p.Post(Event{Kind: EventStopAll, Mode: 1})
	processBlocks(p, out, 1)
	if got := p.liveCount(); got != 0 {
		t.Errorf("drop-mode stopAll left %d voices", got)
	}
}

func TestVoiceCountInvariant(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 3})
	s := sineSample(1, 44100, 44100)
	for ch := 0; ch < 3; ch++ {
		p.SetPreset(ch, loopingPreset(s, nil))
		p.Post(Event{Kind: EventNoteOn, Channel: ch, Note: 60 + ch, Velocity: 100})
	}
	out := newOut(128)
	processBlocks(p, out, 2)

	sum := 0
	for _, ch := range p.channels {
		sum += len(ch.Voices)
	}
	if sum != p.liveCount() {
		t.Errorf("liveCount %d != channel sum %d", p.liveCount(), sum)
	}
	if sum != 3 {
		t.Errorf("live voices = %d, want 3", sum)
	}
}

func TestVoiceCountUpdateEmitted(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, nil))
	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	out := newOut(128)
	processBlocks(p, out, 1)

	found := false
	for !found {
		select {
		case u := <-p.Updates():
			if u.Kind == UpdateVoiceCounts && len(u.VoiceCounts) == 2 && u.VoiceCounts[0] == 1 {
				found = true
			}
		default:
			t.Fatal("no voice-count update emitted")
		}
	}
}

func TestClearCacheDropsVoicesAndStore(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, nil))
	out := newOut(128)
	p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 60, Velocity: 100})
	processBlocks(p, out, 1)
	if p.store.Len() == 0 {
		t.Fatal("store should hold the dumped sample")
	}

	p.Post(Event{Kind: EventClearCache})
	processBlocks(p, out, 1)
	if p.liveCount() != 0 {
		t.Error("clearCache left live voices")
	}
	if p.store.Len() != 0 {
		t.Error("clearCache left store entries")
	}
}

func TestAddChannel(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2})
	out := newOut(128)
	p.Post(Event{Kind: EventAddChannel})
	processBlocks(p, out, 1)
	if p.ChannelCount() != 3 {
		t.Errorf("channels = %d, want 3", p.ChannelCount())
	}
	acked := false
	for {
		select {
		case u := <-p.Updates():
			if u.Kind == UpdateAck && u.Acked == EventAddChannel {
				acked = true
			}
			continue
		default:
		}
		break
	}
	if !acked {
		t.Error("addChannel not acknowledged")
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2})
	out := newOut(128)
	p.Post(Event{Kind: EventKind(99)})
	processBlocks(p, out, 1) // must not panic
}

func BenchmarkProcess16Voices(b *testing.B) {
	p := New(Config{SampleRate: 44100, BlockSize: 128, Channels: 2})
	s := sineSample(1, 44100, 44100)
	p.SetPreset(0, loopingPreset(s, nil))
	for i := 0; i < 16; i++ {
		p.Post(Event{Kind: EventNoteOn, Channel: 0, Note: 40 + i, Velocity: 100})
	}
	out := newOut(128)
	p.Process(out)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Process(out)
	}
}
