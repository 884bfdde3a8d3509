//go:build portaudio

package audio

import "github.com/gordonklaus/portaudio"

// PortAudioPlayer is the callback-model backend for hosts built with the
// portaudio tag. The stream calls straight into Source.Process on
// portaudio's audio thread.
type PortAudioPlayer struct {
	stream *portaudio.Stream
	source Source
}

func NewPortAudioPlayer(sampleRate, bufferSize int, source Source) (*PortAudioPlayer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	p := &PortAudioPlayer{source: source}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), bufferSize, p.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	p.stream = stream
	return p, nil
}

func (p *PortAudioPlayer) callback(out []float32) {
	p.source.Process(out)
}

func (p *PortAudioPlayer) Play() {
	p.stream.Start()
}

func (p *PortAudioPlayer) Pause() {
	p.stream.Stop()
}

func (p *PortAudioPlayer) Stop() error {
	err := p.stream.Close()
	portaudio.Terminate()
	return err
}
