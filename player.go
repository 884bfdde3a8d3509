// Package spessasynth is a SoundFont-style sample synthesizer: banks of
// sampled instruments driven by MIDI-like channel events, rendered in
// fixed-size blocks behind a realtime audio callback. The package exposes
// the control surface; the synthesis core lives under internal/.
package spessasynth

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/msveshnikov/spessasynth-go/internal/audio"
	"github.com/msveshnikov/spessasynth-go/internal/engine"
	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/midi"
	"github.com/msveshnikov/spessasynth-go/internal/soundbank"
	"github.com/msveshnikov/spessasynth-go/internal/units"
	"github.com/msveshnikov/spessasynth-go/internal/voice"
)

// Update reports the per-channel live voice counts whenever the total
// changes between blocks.
type Update struct {
	VoiceCounts []int
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	blockSize  int
	channels   int
	voiceCap   int
	reverb     bool
	chorus     bool
	backend    string
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		blockSize: 128,
		channels:  16,
		reverb:    true,
		chorus:    true,
		backend:   "ebiten",
	}
}

// WithBlockSize sets the internal render block length in frames.
func WithBlockSize(frames int) PlayerOption {
	return func(cfg *playerConfig) {
		if frames > 0 {
			cfg.blockSize = frames
		}
	}
}

// WithChannelCount sets the initial number of MIDI channels.
func WithChannelCount(n int) PlayerOption {
	return func(cfg *playerConfig) {
		if n > 0 {
			cfg.channels = n
		}
	}
}

// WithVoiceCap overrides the global live-voice cap.
func WithVoiceCap(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.voiceCap = n
	}
}

// WithReverb enables or disables the reverb bus consumer. Disabled, the
// reverb sends are rendered and discarded.
func WithReverb(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.reverb = enabled
	}
}

// WithChorus enables or disables the chorus bus consumer.
func WithChorus(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.chorus = enabled
	}
}

// WithBackend selects the audio output backend: "ebiten" (default), "oto",
// or "none" for hosts that pull blocks through Process themselves.
func WithBackend(name string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = name
	}
}

type audioBackend interface {
	Play()
	Pause()
	Stop() error
}

// Player owns the synthesis processor, the effect buses and the audio
// backend. The control methods post events onto the processor's inbound
// queue and never block; they are safe to call from any goroutine.
type Player struct {
	mu         sync.Mutex
	proc       *engine.Processor
	bank       *soundbank.Bank
	sampleRate int
	blockSize  int

	reverb *reverbBus
	chorus *chorusBus

	planes  voice.Out
	pending []float32
	pendPos int

	masterGain uint64

	backendName string
	backend     audioBackend

	watch   chan Update
	watchMu sync.Mutex
	done    chan struct{}
}

// NewPlayer creates a synthesizer rendering at sampleRate Hz.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Player{
		proc: engine.New(engine.Config{
			SampleRate: sampleRate,
			BlockSize:  cfg.blockSize,
			Channels:   cfg.channels,
			VoiceCap:   cfg.voiceCap,
		}),
		sampleRate:  sampleRate,
		blockSize:   cfg.blockSize,
		masterGain:  math.Float64bits(1),
		backendName: cfg.backend,
		done:        make(chan struct{}),
	}
	n := cfg.blockSize
	p.planes = voice.Out{
		DryL: make([]float32, n), DryR: make([]float32, n),
		RevL: make([]float32, n), RevR: make([]float32, n),
		ChoL: make([]float32, n), ChoR: make([]float32, n),
	}
	p.pending = make([]float32, 0, n*2)
	if cfg.reverb {
		p.reverb = newReverbBus(sampleRate)
	}
	if cfg.chorus {
		p.chorus = newChorusBus(sampleRate)
	}
	go p.serveUpdates()
	return p, nil
}

// LoadBank loads a soundbank manifest and assigns its default preset to
// every channel. Presets for other bank/program pairs become reachable
// through ProgramChange.
func (p *Player) LoadBank(path string) error {
	bank, err := soundbank.Load(path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bank = bank
	p.proc.SetResolver(bank.Preset)
	preset := bank.FirstPreset()
	if preset == nil {
		return errors.New("bank has no presets")
	}
	for ch := 0; ch < p.proc.ChannelCount(); ch++ {
		p.proc.SetPreset(ch, preset)
	}
	return nil
}

// PreloadSamples publishes every bank sample to the store up front,
// bypassing the on-demand dump protocol. Offline rendering uses this for
// determinism.
func (p *Player) PreloadSamples() {
	p.mu.Lock()
	bank := p.bank
	p.mu.Unlock()
	if bank == nil {
		return
	}
	for _, s := range bank.Samples {
		if frames, ok := bank.Frames(s.ID); ok {
			p.proc.Post(engine.Event{Kind: engine.EventSampleDump, SampleID: s.ID, Frames: frames})
		}
	}
}

// serveUpdates pumps the processor's outbound queue: dump requests are
// answered from the loaded bank (standing in for the async decoder), and
// voice-count updates are forwarded to Watch.
func (p *Player) serveUpdates() {
	for {
		select {
		case <-p.done:
			return
		case u := <-p.proc.Updates():
			switch u.Kind {
			case engine.UpdateDumpRequest:
				p.mu.Lock()
				bank := p.bank
				p.mu.Unlock()
				if bank == nil {
					break
				}
				for _, id := range u.SampleIDs {
					if frames, ok := bank.Frames(id); ok {
						p.proc.Post(engine.Event{Kind: engine.EventSampleDump, SampleID: id, Frames: frames})
					}
				}
			case engine.UpdateVoiceCounts:
				p.watchMu.Lock()
				ch := p.watch
				p.watchMu.Unlock()
				if ch != nil {
					select {
					case ch <- Update{VoiceCounts: u.VoiceCounts}:
					default:
					}
				}
			}
		}
	}
}

// Watch returns a channel receiving voice-count updates. The channel is
// buffered; a slow receiver misses intermediate updates rather than
// stalling the synthesizer.
func (p *Player) Watch() <-chan Update {
	ch := make(chan Update, 8)
	p.watchMu.Lock()
	p.watch = ch
	p.watchMu.Unlock()
	return ch
}

// Play opens the configured audio backend and starts pulling blocks.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend != nil {
		p.backend.Play()
		return nil
	}
	backend, err := p.openBackend()
	if err != nil {
		return err
	}
	p.backend = backend
	if p.backend != nil {
		p.backend.Play()
	}
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend != nil {
		p.backend.Pause()
	}
}

// Stop tears down the audio backend and the update pump. The Player cannot
// be restarted afterwards.
func (p *Player) Stop() error {
	p.mu.Lock()
	backend := p.backend
	p.backend = nil
	p.mu.Unlock()
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	if backend != nil {
		return backend.Stop()
	}
	return nil
}

// SetMasterVolume sets the runtime master gain scalar. 1.0 is default.
func (p *Player) SetMasterVolume(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&p.masterGain, math.Float64bits(gain))
}

// SetMasterVolumeDb sets the master gain in decibels; 0 dB is unity,
// negative values attenuate.
func (p *Player) SetMasterVolumeDb(db float64) {
	p.SetMasterVolume(units.DecibelsToGain(db))
}

func (p *Player) masterVolume() float32 {
	return float32(math.Float64frombits(atomic.LoadUint64(&p.masterGain)))
}

// OutputLevel returns the peak magnitude of the most recently rendered
// output buffer, or 0 when no metering backend is running.
func (p *Player) OutputLevel() float32 {
	p.mu.Lock()
	backend := p.backend
	p.mu.Unlock()
	if m, ok := backend.(interface{ Level() float32 }); ok {
		return m.Level()
	}
	return 0
}

// SampleRate returns the output rate in Hz.
func (p *Player) SampleRate() int { return p.sampleRate }

// Process fills dst with interleaved stereo frames, rendering as many
// internal blocks as needed. It implements the audio backend's sample
// source and can be called directly by hosts with their own output path.
func (p *Player) Process(dst []float32) {
	for written := 0; written < len(dst); {
		if p.pendPos >= len(p.pending) {
			p.renderBlock()
		}
		n := copy(dst[written:], p.pending[p.pendPos:])
		p.pendPos += n
		written += n
	}
}

func (p *Player) renderBlock() {
	out := p.planes
	n := len(out.DryL)
	zero(out.DryL)
	zero(out.DryR)
	zero(out.RevL)
	zero(out.RevR)
	zero(out.ChoL)
	zero(out.ChoR)
	p.proc.Process(out)
	if p.reverb != nil {
		p.reverb.process(out)
	}
	if p.chorus != nil {
		p.chorus.process(out)
	}
	gain := p.masterVolume()
	pending := p.pending[:n*2]
	for i := 0; i < n; i++ {
		pending[i*2] = out.DryL[i] * gain
		pending[i*2+1] = out.DryR[i] * gain
	}
	p.pending = pending
	p.pendPos = 0
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

// NoteOn starts a note. Velocity 0 is treated as a note-off, matching MIDI
// running status.
func (p *Player) NoteOn(channel, note, velocity int) {
	if velocity <= 0 {
		p.NoteOff(channel, note)
		return
	}
	p.proc.Post(engine.Event{Kind: engine.EventNoteOn, Channel: channel, Note: note, Velocity: velocity})
}

// NoteOff releases a note, honoring the hold pedal.
func (p *Player) NoteOff(channel, note int) {
	p.proc.Post(engine.Event{Kind: engine.EventNoteOff, Channel: channel, Note: note})
}

// KillNote force-releases a note with a near-instant fade.
func (p *Player) KillNote(channel, note int) {
	p.proc.Post(engine.Event{Kind: engine.EventKillNote, Channel: channel, Note: note})
}

// ControlChange updates a 7-bit MIDI controller.
func (p *Player) ControlChange(channel, controller, value int) {
	p.proc.Post(engine.Event{Kind: engine.EventCCChange, Channel: channel, Controller: controller, Value: value})
}

// PitchWheel sets the 14-bit pitch wheel position (center 8192).
func (p *Player) PitchWheel(channel, value int) {
	p.proc.Post(engine.Event{Kind: engine.EventCCChange, Channel: channel, Controller: gen.CtrlPitchWheel, Value: value})
}

// ChannelPressure sets the channel aftertouch (0-127).
func (p *Player) ChannelPressure(channel, value int) {
	p.proc.Post(engine.Event{Kind: engine.EventCCChange, Channel: channel, Controller: gen.CtrlChannelPressure, Value: value << 7})
}

// Transpose shifts the channel by whole semitones; it survives controller
// resets.
func (p *Player) Transpose(channel, semitones int) {
	p.proc.Post(engine.Event{Kind: engine.EventCCChange, Channel: channel, Controller: gen.CtrlChannelTranspose, Value: semitones})
}

// ChannelTuning detunes the channel in cents.
func (p *Player) ChannelTuning(channel, cents int) {
	p.proc.Post(engine.Event{Kind: engine.EventCCChange, Channel: channel, Controller: gen.CtrlChannelTuning, Value: cents})
}

// ProgramChange selects a preset from the loaded bank.
func (p *Player) ProgramChange(channel, bank, program int) {
	p.proc.Post(engine.Event{Kind: engine.EventProgramChange, Channel: channel, Bank: bank, Program: program})
}

// ResetControllers restores a channel's controllers to defaults, keeping
// the transpose and the listed controller indices.
func (p *Player) ResetControllers(channel int, excluded ...int) {
	p.proc.Post(engine.Event{Kind: engine.EventCCReset, Channel: channel, Excluded: excluded})
}

// SetChannelVibrato configures the channel-wide vibrato: onset delay in
// seconds, depth in cents, rate in Hz.
func (p *Player) SetChannelVibrato(channel int, delay, depth, rate float64) {
	p.proc.Post(engine.Event{
		Kind:    engine.EventSetChannelVibrato,
		Channel: channel,
		Vibrato: voice.Vibrato{Delay: delay, Depth: depth, Rate: rate},
	})
}

// MuteChannel toggles a channel's mute flag; muted channels are skipped
// before synthesis.
func (p *Player) MuteChannel(channel int, mute bool) {
	p.proc.Post(engine.Event{Kind: engine.EventMuteChannel, Channel: channel, Mute: mute})
}

// StopAll silences every channel: release lets voices ring out, otherwise
// they are dropped immediately.
func (p *Player) StopAll(release bool) {
	mode := 1
	if release {
		mode = 0
	}
	p.proc.Post(engine.Event{Kind: engine.EventStopAll, Mode: mode})
}

// KillVoices voice-steals exactly n voices, lowest velocity first.
func (p *Player) KillVoices(n int) {
	p.proc.Post(engine.Event{Kind: engine.EventKillNotes, Count: n})
}

// AddChannel appends a freshly initialized channel.
func (p *Player) AddChannel() {
	p.proc.Post(engine.Event{Kind: engine.EventAddChannel})
}

// DumpSample publishes decoded mono frames for a sample id, rehoming any
// live voices that were waiting for it.
func (p *Player) DumpSample(id int, frames []float32) {
	p.proc.Post(engine.Event{Kind: engine.EventSampleDump, SampleID: id, Frames: frames})
}

// ClearSamples empties the sample store, dropping all live voices first.
func (p *Player) ClearSamples() {
	p.proc.Post(engine.Event{Kind: engine.EventClearCache})
}

// PlayMIDIFile schedules a standard MIDI file's events against the wall
// clock and returns the file's duration. Playback itself happens on the
// audio thread as the events fall due.
func (p *Player) PlayMIDIFile(path string) (time.Duration, error) {
	schedule, err := midi.LoadSMF(path)
	if err != nil {
		return 0, err
	}
	go func() {
		start := time.Now()
		for _, te := range schedule {
			due := start.Add(time.Duration(te.At * float64(time.Second)))
			if wait := time.Until(due); wait > 0 {
				select {
				case <-p.done:
					return
				case <-time.After(wait):
				}
			}
			p.proc.Post(te.Event)
		}
	}()
	return time.Duration(schedule.Duration() * float64(time.Second)), nil
}

func (p *Player) openBackend() (audioBackend, error) {
	switch p.backendName {
	case "none":
		return nil, nil
	case "oto":
		return audio.NewOtoPlayer(p.sampleRate, p)
	case "ebiten":
		return audio.NewPlayer(p.sampleRate, p)
	default:
		return openExtraBackend(p.backendName, p.sampleRate, p.blockSize, p)
	}
}
