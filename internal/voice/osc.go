package voice

// fill renders len(buf) output frames of raw sample playback with a
// fractional cursor and linear interpolation. inRelease selects the
// end-of-loop behavior for until-release loops.
func fill(v *Voice, data []float32, buf []float32, inRelease bool) {
	if len(data) < 2 {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	looping := v.LoopMode == LoopContinuous || (v.LoopMode == LoopUntilRelease && !inRelease)
	loopLen := v.LoopEnd - v.LoopStart
	step := v.PlaybackStep * v.TuningRatio
	last := len(data) - 2
	for i := range buf {
		if v.Finished {
			buf[i] = 0
			continue
		}
		pos := v.Cursor
		if pos < 0 {
			pos = 0
		}
		idx := int(pos)
		if idx > last {
			idx = last
		}
		frac := float32(pos - float64(idx))
		buf[i] = (1-frac)*data[idx] + frac*data[idx+1]

		v.Cursor += step
		if looping {
			for v.Cursor >= v.LoopEnd {
				v.Cursor -= loopLen
			}
		} else if v.Cursor >= v.End {
			v.Cursor = v.End
			v.SetFinished()
		}
	}
}
