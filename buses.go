package spessasynth

import (
	"github.com/msveshnikov/spessasynth-go/internal/effects"
	"github.com/msveshnikov/spessasynth-go/internal/voice"
)

// reverbBus and chorusBus adapt the effect processors to the render loop's
// plane layout.

type reverbBus struct {
	fx *effects.Reverb
}

func newReverbBus(sampleRate int) *reverbBus {
	return &reverbBus{fx: effects.NewReverb(sampleRate, 0.6, 0.75, 0.4)}
}

func (b *reverbBus) process(out voice.Out) {
	b.fx.ProcessSend(out.RevL, out.RevR, out.DryL, out.DryR)
}

type chorusBus struct {
	fx *effects.Chorus
}

func newChorusBus(sampleRate int) *chorusBus {
	return &chorusBus{fx: effects.NewChorus(sampleRate, 15, 0.3, 3, 1.5, 0.5)}
}

func (b *chorusBus) process(out voice.Out) {
	b.fx.ProcessSend(out.ChoL, out.ChoR, out.DryL, out.DryR)
}
