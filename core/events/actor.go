package events

// ActorState is the animation-facing state of a sequenced actor.
type ActorState string

const (
	ActorIdle     ActorState = "idle"
	ActorStanding ActorState = "standing"
	ActorSpeaking ActorState = "speaking"
)

const (
	// KindActorStateChanged identifies an actor state transition.
	KindActorStateChanged Kind = "actor.state_changed"
	// KindRecordingStarted identifies the start of utterance capture.
	KindRecordingStarted Kind = "recording.started"
	// KindRecordingStopped identifies the end of utterance capture.
	KindRecordingStopped Kind = "recording.stopped"
)

// ActorStateChanged marks an actor transition between idle, standing and
// speaking. Emotion carries the bounded intensity active for the current
// response cycle (0 neutral, 1 aggressive).
type ActorStateChanged struct {
	Base
	Actor   Speaker
	State   ActorState
	Emotion float64
}

// NewActorStateChanged creates an actor state changed event.
func NewActorStateChanged(actor Speaker, state ActorState, emotion float64) ActorStateChanged {
	return ActorStateChanged{Base: NewBase(KindActorStateChanged), Actor: actor, State: state, Emotion: emotion}
}

// RecordingStarted marks the start of utterance capture.
type RecordingStarted struct{ Base }

// NewRecordingStarted creates a recording started event.
func NewRecordingStarted() RecordingStarted {
	return RecordingStarted{Base: NewBase(KindRecordingStarted)}
}

// RecordingStopped marks the end of utterance capture.
type RecordingStopped struct {
	Base
	Samples int
}

// NewRecordingStopped creates a recording stopped event.
func NewRecordingStopped(samples int) RecordingStopped {
	return RecordingStopped{Base: NewBase(KindRecordingStopped), Samples: samples}
}
