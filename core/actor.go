package courtroom

import (
	"strings"
	"time"

	"github.com/justix/courtsim-core/core/events"
)

// Clock provides the current time to the actor sequencers. Injecting it
// keeps response timing deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

const (
	defaultStandDuration = 1500 * time.Millisecond
	defaultSpeechHold    = 2 * time.Second
)

// defaultAggressionCues are matched, lowercased, against the emotion label
// of a reply. A hit drives the actor's emotion intensity to full.
var defaultAggressionCues = []string{"aggressive", "yell"}

// classifyEmotion maps a free-form emotion label onto the bounded intensity
// the animation layer consumes.
func classifyEmotion(label string, cues []string) float64 {
	lowered := strings.ToLower(label)
	for _, cue := range cues {
		if strings.Contains(lowered, cue) {
			return 1.0
		}
	}
	return 0.0
}

// Actor sequences one counterpart's response cycle through idle, standing
// and speaking. It holds no timers of its own; the owner calls Advance on
// every tick and the actor compares deadlines against the injected clock,
// so a stalled loop pauses the cycle instead of firing callbacks late.
type Actor struct {
	name  events.Speaker
	clock Clock

	standDuration  time.Duration
	fallbackHold   time.Duration
	aggressionCues []string

	state    events.ActorState
	deadline time.Time
	emotion  float64
	hold     time.Duration

	onStateChanged func(events.ActorStateChanged)
	onSpeak        func()
}

type ActorOption func(*Actor)

// WithActorClock replaces the wall clock.
func WithActorClock(clock Clock) ActorOption {
	return func(a *Actor) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithStandDuration overrides how long the actor holds the standing pose
// before speaking.
func WithStandDuration(d time.Duration) ActorOption {
	return func(a *Actor) {
		if d > 0 {
			a.standDuration = d
		}
	}
}

// WithFallbackHold overrides the speaking hold used when a reply carries no
// playable audio to length the hold from.
func WithFallbackHold(d time.Duration) ActorOption {
	return func(a *Actor) {
		if d > 0 {
			a.fallbackHold = d
		}
	}
}

// WithAggressionCues overrides the emotion labels that drive the actor's
// intensity to full.
func WithAggressionCues(cues ...string) ActorOption {
	return func(a *Actor) {
		if len(cues) > 0 {
			a.aggressionCues = cues
		}
	}
}

// WithActorTransitionCallback registers the consumer of state transitions.
func WithActorTransitionCallback(callback func(events.ActorStateChanged)) ActorOption {
	return func(a *Actor) {
		if callback != nil {
			a.onStateChanged = callback
		}
	}
}

// WithSpeakCallback registers the hook fired on entering the speaking state,
// where audio playback belongs.
func WithSpeakCallback(callback func()) ActorOption {
	return func(a *Actor) {
		if callback != nil {
			a.onSpeak = callback
		}
	}
}

// NewActor creates an idle actor for the named counterpart.
func NewActor(name events.Speaker, opts ...ActorOption) *Actor {
	actor := &Actor{
		name:  name,
		clock: systemClock{},

		standDuration:  defaultStandDuration,
		fallbackHold:   defaultSpeechHold,
		aggressionCues: defaultAggressionCues,

		state: events.ActorIdle,

		onStateChanged: func(events.ActorStateChanged) {},
		onSpeak:        func() {},
	}

	for _, opt := range opts {
		opt(actor)
	}

	return actor
}

// Name returns the counterpart this actor animates.
func (a *Actor) Name() events.Speaker { return a.name }

// State returns the current animation state.
func (a *Actor) State() events.ActorState { return a.state }

// Emotion returns the intensity active for the current cycle.
func (a *Actor) Emotion() float64 { return a.emotion }

// Begin starts a response cycle. An in-flight cycle is cut short: the actor
// sits first, then stands for the new reply. clipDuration is the playable
// length of the reply's audio; zero means no audio and selects the fallback
// hold.
func (a *Actor) Begin(emotionLabel string, clipDuration time.Duration) {
	a.Reset()

	a.emotion = classifyEmotion(emotionLabel, a.aggressionCues)
	a.hold = clipDuration
	if a.hold <= 0 {
		a.hold = a.fallbackHold
	}

	a.transition(events.ActorStanding, a.clock.Now().Add(a.standDuration))
}

// Advance moves the cycle forward if the current phase's deadline has
// passed. Safe to call at any cadence; an idle actor ignores it.
func (a *Actor) Advance(now time.Time) {
	switch a.state {
	case events.ActorStanding:
		if !now.Before(a.deadline) {
			a.transition(events.ActorSpeaking, now.Add(a.hold))
			a.onSpeak()
		}
	case events.ActorSpeaking:
		if !now.Before(a.deadline) {
			a.sit()
		}
	}
}

// Reset returns the actor to idle regardless of phase. Resetting an idle
// actor is a no-op and emits nothing.
func (a *Actor) Reset() {
	if a.state == events.ActorIdle {
		return
	}
	a.sit()
}

func (a *Actor) sit() {
	a.emotion = 0
	a.transition(events.ActorIdle, time.Time{})
}

func (a *Actor) transition(state events.ActorState, deadline time.Time) {
	a.state = state
	a.deadline = deadline
	a.onStateChanged(events.NewActorStateChanged(a.name, state, a.emotion))
}
