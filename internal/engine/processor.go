package engine

import (
	"slices"

	"github.com/msveshnikov/spessasynth-go/internal/sample"
	"github.com/msveshnikov/spessasynth-go/internal/voice"
)

// DefaultVoiceCap bounds the number of simultaneously live voices across
// all channels; exceeding it steals the quietest (lowest-velocity) voices.
const DefaultVoiceCap = 400

const (
	defaultChannels  = 16
	defaultBlockSize = 128
	eventQueueSize   = 1024
	updateQueueSize  = 64
)

// PresetResolver maps a bank/program pair to a preset, used when draining
// programChange events. It must not block.
type PresetResolver func(bank, program int) sample.Preset

// Config carries the processor construction parameters; zero values select
// the defaults.
type Config struct {
	SampleRate int
	BlockSize  int
	Channels   int
	VoiceCap   int
	Resolver   PresetResolver
}

// Processor is the top-level block renderer. All state it owns is only
// touched from the audio thread; control arrives through the inbound event
// queue and results leave through the non-blocking outbound queue.
type Processor struct {
	rate      float64
	blockSize int
	channels  []*Channel
	store     *sample.Store
	resolver  PresetResolver

	inbound  chan Event
	outbound chan Update

	scratch   []float32
	now       float64
	lastCount int
	voiceCap  int

	countsBuf []int
	stealBuf  []*voice.Voice
}

func New(cfg Config) *Processor {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = defaultBlockSize
	}
	if cfg.Channels <= 0 {
		cfg.Channels = defaultChannels
	}
	if cfg.VoiceCap <= 0 {
		cfg.VoiceCap = DefaultVoiceCap
	}
	p := &Processor{
		rate:      float64(cfg.SampleRate),
		blockSize: cfg.BlockSize,
		store:     sample.NewStore(),
		resolver:  cfg.Resolver,
		inbound:   make(chan Event, eventQueueSize),
		outbound:  make(chan Update, updateQueueSize),
		scratch:   make([]float32, cfg.BlockSize),
		voiceCap:  cfg.VoiceCap,
		countsBuf: make([]int, 0, cfg.Channels),
		stealBuf:  make([]*voice.Voice, 0, cfg.VoiceCap),
	}
	for i := 0; i < cfg.Channels; i++ {
		p.channels = append(p.channels, newChannel(p.rate, p.store))
	}
	return p
}

// SampleRate returns the output rate in Hz.
func (p *Processor) SampleRate() int { return int(p.rate) }

// BlockSize returns the frame count one Process call expects.
func (p *Processor) BlockSize() int { return p.blockSize }

// ChannelCount returns the current number of channels.
func (p *Processor) ChannelCount() int { return len(p.channels) }

// Now returns the audio clock in seconds; it advances by one block per
// Process call.
func (p *Processor) Now() float64 { return p.now }

// Store exposes the sample store for setup-time inspection. The audio
// thread owns it once processing starts.
func (p *Processor) Store() *sample.Store { return p.store }

// SetResolver installs the bank lookup used by programChange events. Call
// before the audio thread starts.
func (p *Processor) SetResolver(r PresetResolver) {
	p.resolver = r
}

// SetPreset assigns a preset to a channel directly, for setup before the
// audio thread starts. During playback use a programChange event instead.
func (p *Processor) SetPreset(channel int, preset sample.Preset) {
	if channel >= 0 && channel < len(p.channels) {
		p.channels[channel].setPreset(preset)
	}
}

// Post enqueues a control event from the producer side. It never blocks;
// it reports false when the queue is full and the event was dropped.
func (p *Processor) Post(ev Event) bool {
	select {
	case p.inbound <- ev:
		return true
	default:
		return false
	}
}

// Updates returns the outbound notification queue.
func (p *Processor) Updates() <-chan Update {
	return p.outbound
}

func (p *Processor) trySend(u Update) {
	select {
	case p.outbound <- u:
	default:
	}
}

// Process renders one block into the output planes. Events posted before
// the call are drained first, in arrival order, so a sample dump affects
// the same block's render of its voices. The call always fills the planes
// and never fails; missing data renders as silence.
func (p *Processor) Process(out voice.Out) {
	p.drainEvents()

	n := len(out.DryL)
	if n == 0 {
		return
	}
	if len(p.scratch) < n {
		p.scratch = make([]float32, n)
	}
	scratch := p.scratch[:n]

	for _, ch := range p.channels {
		if len(ch.Voices) == 0 {
			continue
		}
		if ch.Muted {
			// Muted channels render nothing, but voices finished by steal
			// or stopAll must still be compacted away.
			ch.compact()
			continue
		}
		extra := ch.extraCents()
		for _, v := range ch.Voices {
			v.RefreshModulators(&ch.Controllers)
			data, _ := p.store.Get(v.SampleID)
			voice.RenderBlock(v, data, out, scratch, p.now, p.rate, ch.Vibrato, extra)
		}
		ch.compact()
	}

	if total := p.liveCount(); total != p.lastCount {
		p.lastCount = total
		counts := p.countsBuf[:0]
		for _, ch := range p.channels {
			counts = append(counts, len(ch.Voices))
		}
		p.countsBuf = counts
		p.trySend(Update{Kind: UpdateVoiceCounts, VoiceCounts: slices.Clone(counts)})
	}

	p.now += float64(n) / p.rate
}

func (p *Processor) liveCount() int {
	total := 0
	for _, ch := range p.channels {
		total += len(ch.Voices)
	}
	return total
}

func (p *Processor) drainEvents() {
	for {
		select {
		case ev := <-p.inbound:
			p.handle(ev)
		default:
			return
		}
	}
}

func (p *Processor) channel(i int) *Channel {
	if i < 0 || i >= len(p.channels) {
		return nil
	}
	return p.channels[i]
}

func (p *Processor) handle(ev Event) {
	switch ev.Kind {
	case EventNoteOn:
		ch := p.channel(ev.Channel)
		if ch == nil || ch.Muted {
			return
		}
		dumps := ch.noteOn(ev.Channel, ev.Note, ev.Velocity, p.now)
		p.requestDumps(dumps)
		if over := p.liveCount() - p.voiceCap; over > 0 {
			p.steal(over)
		}
	case EventNoteOff:
		if ch := p.channel(ev.Channel); ch != nil {
			ch.noteOff(ev.Note, p.now)
		}
	case EventKillNote:
		if ch := p.channel(ev.Channel); ch != nil {
			ch.killNote(ev.Note, p.now)
		}
	case EventCCChange:
		if ch := p.channel(ev.Channel); ch != nil {
			ch.setController(ev.Controller, ev.Value, p.now)
		}
	case EventCCReset:
		if ch := p.channel(ev.Channel); ch != nil {
			ch.ccReset(ev.Excluded, p.now)
		}
	case EventSetChannelVibrato:
		if ch := p.channel(ev.Channel); ch != nil {
			ch.Vibrato = ev.Vibrato
		}
	case EventSampleDump:
		p.store.Dump(ev.SampleID, ev.Frames)
		for _, ch := range p.channels {
			for _, v := range ch.Voices {
				if v.SampleID == ev.SampleID && !v.SampleResolved {
					v.Rehome(ev.Frames, p.now, p.rate)
				}
			}
		}
	case EventClearCache:
		for _, ch := range p.channels {
			ch.dropAll()
			ch.builder.InvalidateCache()
		}
		p.store.Clear()
	case EventStopAll:
		for _, ch := range p.channels {
			if ev.Mode == 1 {
				ch.dropAll()
			} else {
				ch.releaseAll(p.now)
			}
		}
		p.trySend(Update{Kind: UpdateAck, Acked: EventStopAll})
	case EventKillNotes:
		p.steal(ev.Count)
	case EventMuteChannel:
		if ch := p.channel(ev.Channel); ch != nil {
			ch.Muted = ev.Mute
		}
	case EventAddChannel:
		p.channels = append(p.channels, newChannel(p.rate, p.store))
		p.trySend(Update{Kind: UpdateAck, Acked: EventAddChannel})
	case EventProgramChange:
		ch := p.channel(ev.Channel)
		if ch == nil || p.resolver == nil {
			return
		}
		if preset := p.resolver(ev.Bank, ev.Program); preset != nil {
			ch.setPreset(preset)
		}
	default:
		// Unknown events are ignored.
	}
}

func (p *Processor) requestDumps(dumps []voice.DumpRequest) {
	if len(dumps) == 0 {
		return
	}
	pending := make([]int, 0, len(dumps))
	for _, d := range dumps {
		if d.Sample.Data != nil {
			// Decoded frames are already in hand; publish them right away
			// so this very block renders from them.
			p.handle(Event{Kind: EventSampleDump, SampleID: d.Sample.ID, Frames: d.Sample.Data})
			continue
		}
		pending = append(pending, d.Sample.ID)
	}
	if len(pending) > 0 {
		p.trySend(Update{Kind: UpdateDumpRequest, SampleIDs: pending})
	}
}

// steal removes the n lowest-velocity live voices across all channels.
func (p *Processor) steal(n int) {
	if n <= 0 {
		return
	}
	all := p.stealBuf[:0]
	for _, ch := range p.channels {
		all = append(all, ch.Voices...)
	}
	p.stealBuf = all
	slices.SortStableFunc(all, func(a, b *voice.Voice) int {
		return a.Velocity - b.Velocity
	})
	if n > len(all) {
		n = len(all)
	}
	for _, v := range all[:n] {
		v.SetFinished()
	}
	for _, ch := range p.channels {
		ch.compact()
	}
}
