// Package audio provides the realtime output backends that pull rendered
// blocks from the synthesizer. The default backend runs on the ebiten audio
// context; an oto backend and a portaudio backend (build tag "portaudio")
// cover hosts without ebiten.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Source produces interleaved stereo float32 frames. Process is called on
// the audio thread; it must not block or allocate.
type Source interface {
	Process(dst []float32)
}

// BlockStream adapts a Source to the little-endian byte stream the output
// backends pull from. Alongside the conversion it tracks the running frame
// count and the peak of the most recent pull, so hosts can derive the true
// playback position and drive level meters without another tap into the
// audio path. Read is called from a single backend goroutine, so the
// stream carries no lock; the counters are atomic for the readers on other
// goroutines.
type BlockStream struct {
	source Source
	buf    []float32
	frames atomic.Int64
	peak   atomic.Uint32
}

func NewBlockStream(source Source) *BlockStream {
	return &BlockStream{source: source}
}

func (s *BlockStream) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	s.buf = s.buf[:need]
	s.source.Process(s.buf)
	var peak float32
	for i, v := range s.buf {
		a := v
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	s.peak.Store(math.Float32bits(peak))
	s.frames.Add(int64(frames))
	return frames * 8, nil
}

// Frames returns the total number of stereo frames rendered so far.
func (s *BlockStream) Frames() int64 {
	return s.frames.Load()
}

// Peak returns the peak magnitude of the most recent pull.
func (s *BlockStream) Peak() float32 {
	return math.Float32frombits(s.peak.Load())
}

// Player is the ebiten-context backend.
type Player struct {
	player *ebitaudio.Player
	stream *BlockStream
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewPlayer(sampleRate int, source Source) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	stream := NewBlockStream(source)
	pl, err := ctx.NewPlayerF32(stream)
	if err != nil {
		return nil, err
	}
	return &Player{
		player: pl,
		stream: stream,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position returns the current playback position (what the listener
// actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

// Rendered returns the number of frames pulled from the synthesizer,
// which runs ahead of Position by the driver's buffering.
func (p *Player) Rendered() int64 {
	return p.stream.Frames()
}

// Level returns the peak magnitude of the most recently rendered buffer.
func (p *Player) Level() float32 {
	return p.stream.Peak()
}

func (p *Player) Stop() error {
	p.player.Pause()
	return p.player.Close()
}
