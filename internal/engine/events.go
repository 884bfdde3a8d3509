// Package engine is the multi-channel voice manager: per-channel controller
// state, the inbound event queue drained at block boundaries, voice
// stealing, and the top-level block processor that renders every live voice
// into the output planes.
package engine

import (
	"github.com/msveshnikov/spessasynth-go/internal/voice"
)

// EventKind tags the inbound control events.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventKillNote
	EventCCChange
	EventCCReset
	EventSetChannelVibrato
	EventSampleDump
	EventClearCache
	EventStopAll
	EventKillNotes
	EventMuteChannel
	EventAddChannel
	EventProgramChange
)

// Event is the tagged union delivered on the inbound queue. Only the fields
// relevant to Kind are read; everything else is ignored.
type Event struct {
	Kind    EventKind
	Channel int

	Note     int
	Velocity int

	Controller int
	Value      int
	Excluded   []int

	Vibrato voice.Vibrato

	SampleID int
	Frames   []float32

	Mode  int // stopAll: 1 drops voices immediately, 0 releases them
	Count int // killNotes
	Mute  bool

	Bank    int
	Program int
}

// UpdateKind tags outbound notifications.
type UpdateKind int

const (
	// UpdateVoiceCounts reports the per-channel live voice counts after a
	// block in which the total changed.
	UpdateVoiceCounts UpdateKind = iota
	// UpdateAck acknowledges an addChannel or stopAll event.
	UpdateAck
	// UpdateDumpRequest asks the host to decode and dump the listed sample
	// ids; their voices stay silent until the dump arrives.
	UpdateDumpRequest
)

// Update is an outbound notification. Sends never block; a slow consumer
// just misses intermediate updates.
type Update struct {
	Kind        UpdateKind
	VoiceCounts []int
	Acked       EventKind
	SampleIDs   []int
}
