package effects

import "math"

// Chorus implements a modulated delay fed from the chorus send bus.
type Chorus struct {
	bufL, bufR []float32
	pos        int
	size       int
	depth      float32 // modulation depth in samples
	rate       float64 // modulation rate in radians per sample
	phase      float64
	feedback   float32
	level      float32
}

// NewChorus creates a chorus bus processor.
// delayMs: with depthMs, sets the delay line length; the read tap sweeps
// around the middle of the line, about (delayMs+depthMs)/2 ms, not delayMs
// feedback: feedback amount 0..1
// depthMs: modulation depth in ms
// rateHz: modulation rate in Hz (typically 0.1-5Hz)
// level: wet output level 0..1
func NewChorus(sampleRate int, delayMs, feedback, depthMs, rateHz, level float32) *Chorus {
	baseSamples := int(float64(delayMs) * float64(sampleRate) / 1000.0)
	depthSamples := float64(depthMs) * float64(sampleRate) / 1000.0
	size := baseSamples + int(depthSamples) + 2
	if size < 4 {
		size = 4
	}
	return &Chorus{
		bufL:     make([]float32, size),
		bufR:     make([]float32, size),
		size:     size,
		depth:    float32(depthSamples),
		rate:     2.0 * math.Pi * float64(rateHz) / float64(sampleRate),
		feedback: clamp(feedback, 0, 0.9),
		level:    clamp(level, 0, 1),
	}
}

// ProcessSend writes the send block into the modulated delay line and adds
// the delayed signal onto the main planes.
func (c *Chorus) ProcessSend(inL, inR, outL, outR []float32) {
	for i := range inL {
		mod := float32(math.Sin(c.phase)) * c.depth
		c.phase += c.rate
		if c.phase > 2*math.Pi {
			c.phase -= 2 * math.Pi
		}
		c.bufL[c.pos] = inL[i]
		c.bufR[c.pos] = inR[i]

		delay := float32(c.size/2) + mod
		readPos := float32(c.pos) - delay
		for readPos < 0 {
			readPos += float32(c.size)
		}
		idx := int(readPos)
		frac := readPos - float32(idx)
		idx2 := idx + 1
		if idx2 >= c.size {
			idx2 = 0
		}
		delL := c.bufL[idx]*(1-frac) + c.bufL[idx2]*frac
		delR := c.bufR[idx]*(1-frac) + c.bufR[idx2]*frac

		c.bufL[c.pos] += delL * c.feedback
		c.bufR[c.pos] += delR * c.feedback

		c.pos++
		if c.pos >= c.size {
			c.pos = 0
		}
		outL[i] += delL * c.level
		outR[i] += delR * c.level
	}
}

func (c *Chorus) Reset() {
	for i := range c.bufL {
		c.bufL[i] = 0
		c.bufR[i] = 0
	}
	c.pos = 0
	c.phase = 0
}
