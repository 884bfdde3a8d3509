// Package midi maps MIDI messages onto the synthesizer's inbound event
// queue and loads standard MIDI files into timestamped event schedules.
// It is the boundary between gomidi's message types and the core: nothing
// below this package knows about MIDI wire formats.
package midi

import (
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/msveshnikov/spessasynth-go/internal/engine"
	"github.com/msveshnikov/spessasynth-go/internal/gen"
)

// TimedEvent is one scheduled inbound event.
type TimedEvent struct {
	At    float64 // seconds from the start of the schedule
	Event engine.Event
}

// Schedule is a time-ordered list of inbound events.
type Schedule []TimedEvent

// Duration returns the time of the last event.
func (s Schedule) Duration() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].At
}

// EventForMessage translates a live MIDI message into an inbound event.
// Messages with no synthesizer meaning report ok=false.
func EventForMessage(msg gomidi.Message) (ev engine.Event, ok bool) {
	var channel, key, velocity, controller, value, program, pressure uint8
	var pitchAbs uint16
	var pitchRel int16
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		if velocity == 0 {
			// Running-status note-off.
			return engine.Event{Kind: engine.EventNoteOff, Channel: int(channel), Note: int(key)}, true
		}
		return engine.Event{Kind: engine.EventNoteOn, Channel: int(channel), Note: int(key), Velocity: int(velocity)}, true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return engine.Event{Kind: engine.EventNoteOff, Channel: int(channel), Note: int(key)}, true
	case msg.GetControlChange(&channel, &controller, &value):
		return engine.Event{Kind: engine.EventCCChange, Channel: int(channel), Controller: int(controller), Value: int(value)}, true
	case msg.GetPitchBend(&channel, &pitchRel, &pitchAbs):
		return engine.Event{Kind: engine.EventCCChange, Channel: int(channel), Controller: gen.CtrlPitchWheel, Value: int(pitchAbs)}, true
	case msg.GetAfterTouch(&channel, &pressure):
		return engine.Event{Kind: engine.EventCCChange, Channel: int(channel), Controller: gen.CtrlChannelPressure, Value: int(pressure) << 7}, true
	case msg.GetPolyAfterTouch(&channel, &key, &pressure):
		return engine.Event{Kind: engine.EventCCChange, Channel: int(channel), Controller: gen.CtrlPolyPressure, Value: int(pressure) << 7}, true
	case msg.GetProgramChange(&channel, &program):
		return engine.Event{Kind: engine.EventProgramChange, Channel: int(channel), Program: int(program)}, true
	default:
		return engine.Event{}, false
	}
}

// LoadSMF reads a standard MIDI file into a schedule, merging all tracks
// into absolute time order.
func LoadSMF(path string) (Schedule, error) {
	var schedule Schedule
	rd := smf.ReadTracks(path)
	rd.Do(func(te smf.TrackEvent) {
		ev, ok := EventForMessage(gomidi.Message(te.Message))
		if !ok {
			return
		}
		schedule = append(schedule, TimedEvent{
			At:    float64(te.AbsMicroSeconds) / 1e6,
			Event: ev,
		})
	})
	if err := rd.Error(); err != nil {
		return nil, err
	}
	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].At < schedule[j].At
	})
	return schedule, nil
}
