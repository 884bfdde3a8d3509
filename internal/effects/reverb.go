package effects

// Reverb implements a Schroeder-style reverb with four comb filters and two
// allpass filters, fed from the reverb send bus.
type Reverb struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
	level   float32
}

type combFilter struct {
	buf []float32
	pos int
	fb  float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

// NewReverb creates a reverb bus processor.
// roomSize: 0..1 controls delay lengths
// feedback: 0..1 controls decay time
// level: wet output level 0..1
func NewReverb(sampleRate int, roomSize, feedback, level float32) *Reverb {
	base := int(float32(sampleRate) * roomSize * 0.05)
	if base < 10 {
		base = 10
	}
	fb := clamp(feedback, 0, 0.95)
	r := &Reverb{level: clamp(level, 0, 1)}
	// Comb filter delay lengths (prime-ish ratios to avoid resonances)
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range r.combs {
		r.combs[i] = combFilter{
			buf: make([]float32, combLens[i]),
			fb:  fb,
		}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range r.allpass {
		n := apLens[i]
		if n < 1 {
			n = 1
		}
		r.allpass[i] = allpassFilter{
			buf: make([]float32, n),
			fb:  0.5,
		}
	}
	return r
}

// ProcessSend runs the send block through the filter network and adds the
// wet signal onto the main planes. The tail keeps ringing on later blocks
// even when the send goes silent.
func (r *Reverb) ProcessSend(inL, inR, outL, outR []float32) {
	for i := range inL {
		mono := (inL[i] + inR[i]) * 0.5
		var wet float32
		for c := range r.combs {
			wet += r.combs[c].process(mono)
		}
		wet *= 0.25
		for a := range r.allpass {
			wet = r.allpass[a].process(wet)
		}
		wet *= r.level
		outL[i] += wet
		outR[i] += wet
	}
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		for j := range r.combs[i].buf {
			r.combs[i].buf[j] = 0
		}
		r.combs[i].pos = 0
	}
	for i := range r.allpass {
		for j := range r.allpass[i].buf {
			r.allpass[i].buf[j] = 0
		}
		r.allpass[i].pos = 0
	}
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}
