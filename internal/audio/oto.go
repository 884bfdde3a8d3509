package audio

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer drives a Source through an oto context directly, for hosts
// that do not want the ebiten context.
type OtoPlayer struct {
	ctx    *oto.Context
	player *oto.Player
	stream *BlockStream
}

func NewOtoPlayer(sampleRate int, source Source) (*OtoPlayer, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	stream := NewBlockStream(source)
	return &OtoPlayer{
		ctx:    ctx,
		player: ctx.NewPlayer(stream),
		stream: stream,
	}, nil
}

func (o *OtoPlayer) Play()  { o.player.Play() }
func (o *OtoPlayer) Pause() { o.player.Pause() }
func (o *OtoPlayer) IsPlaying() bool {
	return o.player.IsPlaying()
}

// Rendered returns the number of frames pulled from the synthesizer.
func (o *OtoPlayer) Rendered() int64 {
	return o.stream.Frames()
}

// Level returns the peak magnitude of the most recently rendered buffer.
func (o *OtoPlayer) Level() float32 {
	return o.stream.Peak()
}

func (o *OtoPlayer) Stop() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
