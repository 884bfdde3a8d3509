package midi

import (
	"path/filepath"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/msveshnikov/spessasynth-go/internal/engine"
	"github.com/msveshnikov/spessasynth-go/internal/gen"
)

func TestEventForMessage(t *testing.T) {
	for _, tc := range []struct {
		name string
		msg  gomidi.Message
		want engine.Event
	}{
		{
			"note on",
			gomidi.NoteOn(2, 60, 100),
			engine.Event{Kind: engine.EventNoteOn, Channel: 2, Note: 60, Velocity: 100},
		},
		{
			"note off",
			gomidi.NoteOff(2, 60),
			engine.Event{Kind: engine.EventNoteOff, Channel: 2, Note: 60},
		},
		{
			"note on with zero velocity is note off",
			gomidi.NoteOn(1, 72, 0),
			engine.Event{Kind: engine.EventNoteOff, Channel: 1, Note: 72},
		},
		{
			"control change",
			gomidi.ControlChange(0, 64, 127),
			engine.Event{Kind: engine.EventCCChange, Channel: 0, Controller: 64, Value: 127},
		},
		{
			"program change",
			gomidi.ProgramChange(3, 12),
			engine.Event{Kind: engine.EventProgramChange, Channel: 3, Program: 12},
		},
		{
			"channel pressure",
			gomidi.AfterTouch(0, 64),
			engine.Event{Kind: engine.EventCCChange, Channel: 0, Controller: gen.CtrlChannelPressure, Value: 64 << 7},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := EventForMessage(tc.msg)
			if !ok {
				t.Fatal("message not translated")
			}
			if got.Kind != tc.want.Kind || got.Channel != tc.want.Channel ||
				got.Note != tc.want.Note || got.Velocity != tc.want.Velocity ||
				got.Controller != tc.want.Controller || got.Value != tc.want.Value ||
				got.Program != tc.want.Program {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPitchBendMapsToWheelSlot(t *testing.T) {
	ev, ok := EventForMessage(gomidi.Pitchbend(0, 0))
	if !ok {
		t.Fatal("pitch bend not translated")
	}
	if ev.Controller != gen.CtrlPitchWheel {
		t.Errorf("controller = %d, want pitch wheel slot", ev.Controller)
	}
	if ev.Value != 8192 {
		t.Errorf("centered bend value = %d, want 8192", ev.Value)
	}
}

func TestUntranslatableMessageSkipped(t *testing.T) {
	if _, ok := EventForMessage(gomidi.Activesense()); ok {
		t.Error("active sense should not translate")
	}
}

func TestLoadSMF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mid")

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(960, gomidi.NoteOff(0, 60)) // one beat at 960 ticks/quarter
	tr.Add(0, gomidi.NoteOn(0, 64, 90))
	tr.Add(960, gomidi.NoteOff(0, 64))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	schedule, err := LoadSMF(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(schedule) != 4 {
		t.Fatalf("schedule has %d events, want 4", len(schedule))
	}
	if schedule[0].Event.Kind != engine.EventNoteOn || schedule[0].At != 0 {
		t.Errorf("first event wrong: %+v", schedule[0])
	}
	// At 120 BPM a beat is half a second.
	if d := schedule[1].At; d < 0.45 || d > 0.55 {
		t.Errorf("note off at %v, want about 0.5", d)
	}
	if schedule.Duration() < 0.9 || schedule.Duration() > 1.1 {
		t.Errorf("duration = %v, want about 1.0", schedule.Duration())
	}
	for i := 1; i < len(schedule); i++ {
		if schedule[i].At < schedule[i-1].At {
			t.Fatal("schedule not time-ordered")
		}
	}
}
