package courtroom

import (
	"context"
	"time"

	"github.com/justix/courtsim-core/core/audio"
	"github.com/justix/courtsim-core/core/events"
	"github.com/justix/courtsim-core/core/realtime"
	"github.com/justix/courtsim-core/core/session"
)

type CourtroomOption func(*Courtroom)

// SessionAPI is the REST surface used to join and end meetings and to fetch
// evidence material.
type SessionAPI interface {
	Join(ctx context.Context, code string) (*session.Joined, error)
	End(ctx context.Context, meetingID string) (*session.EndReport, error)
	FetchEvidence(ctx context.Context, urls []string) []session.Evidence
}

// WithSessionClient sets the client for the join and end endpoints.
func WithSessionClient(client SessionAPI) CourtroomOption {
	return func(c *Courtroom) { c.session = client }
}

// Channel is the realtime connection a courtroom speaks and listens through.
type Channel interface {
	Connect(ctx context.Context, meetingID string) error
	EmitAudio(base64Audio string, speaker events.Speaker) error
	Close()
}

// ChannelFactory builds a fresh channel for one meeting. The courtroom
// passes its own queueing function and the consumers inbound events should
// reach; rejoining always builds a new channel instead of reusing the old.
type ChannelFactory func(enqueue func(func()), onReply func(events.CounterpartReply), onDisconnected func()) Channel

// WithChannelFactory replaces how realtime channels are built.
func WithChannelFactory(factory ChannelFactory) CourtroomOption {
	return func(c *Courtroom) {
		if factory != nil {
			c.channelFactory = factory
		}
	}
}

// WithRealtimeEndpoint points the default channel factory at the realtime
// service's websocket URL.
func WithRealtimeEndpoint(url string) CourtroomOption {
	return func(c *Courtroom) {
		c.channelFactory = func(enqueue func(func()), onReply func(events.CounterpartReply), onDisconnected func()) Channel {
			return realtime.NewChannel(url, enqueue,
				realtime.WithConnectCallback(func(e events.ChannelConnected) { c.callbacks.onConnected(e) }),
				realtime.WithReplyCallback(onReply),
				realtime.WithDisconnectCallback(onDisconnected),
			)
		}
	}
}

// UtteranceRecorder captures one spoken utterance from the microphone.
// EncodingInfo reports the capture encoding, which must match the wire
// format before any utterance is accepted.
type UtteranceRecorder interface {
	Start(ctx context.Context) error
	Stop() (audio.Buffer, error)
	EncodingInfo() audio.EncodingInfo
	Close() error
}

// WithRecorder sets the microphone capture client.
func WithRecorder(recorder UtteranceRecorder) CourtroomOption {
	return func(c *Courtroom) { c.recorder.set(recorder) }
}

// SpeechPlayer plays back decoded reply audio.
type SpeechPlayer interface {
	Play(buf audio.Buffer) error
	Close() error
}

// WithPlayer sets the playback client.
func WithPlayer(player SpeechPlayer) CourtroomOption {
	return func(c *Courtroom) { c.player.set(player) }
}

// WithClock replaces the wall clock used for response sequencing.
func WithClock(clock Clock) CourtroomOption {
	return func(c *Courtroom) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTickInterval overrides the cadence of the Run loop.
func WithTickInterval(interval time.Duration) CourtroomOption {
	return func(c *Courtroom) {
		if interval > 0 {
			c.tickInterval = interval
		}
	}
}

// WithActorOptions forwards options to the opposing lawyer's sequencer.
func WithActorOptions(opts ...ActorOption) CourtroomOption {
	return func(c *Courtroom) { c.actorOptions = append(c.actorOptions, opts...) }
}

// callbacks are the courtroom's consumer notifications. All of them run on
// the draining goroutine.
type callbacks struct {
	onSessionJoined    func(events.SessionJoined)
	onSessionEnded     func(events.SessionEnded)
	onSessionEndFailed func(events.SessionEndFailed)
	onEvidenceUpdated  func(events.EvidenceUpdated)
	onReply            func(events.CounterpartReply)
	onActorState       func(events.ActorStateChanged)
	onRecordingStarted func(events.RecordingStarted)
	onRecordingStopped func(events.RecordingStopped)
	onConnected        func(events.ChannelConnected)
	onDisconnected     func(events.ChannelDisconnected)
}

func defaultCallbacks() callbacks {
	return callbacks{
		onSessionJoined:    func(events.SessionJoined) {},
		onSessionEnded:     func(events.SessionEnded) {},
		onSessionEndFailed: func(events.SessionEndFailed) {},
		onEvidenceUpdated:  func(events.EvidenceUpdated) {},
		onReply:            func(events.CounterpartReply) {},
		onActorState:       func(events.ActorStateChanged) {},
		onRecordingStarted: func(events.RecordingStarted) {},
		onRecordingStopped: func(events.RecordingStopped) {},
		onConnected:        func(events.ChannelConnected) {},
		onDisconnected:     func(events.ChannelDisconnected) {},
	}
}

// WithSessionJoinedCallback registers the consumer of successful joins.
func WithSessionJoinedCallback(callback func(events.SessionJoined)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onSessionJoined = callback
		}
	}
}

// WithSessionEndedCallback registers the consumer of the closing report.
func WithSessionEndedCallback(callback func(events.SessionEnded)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onSessionEnded = callback
		}
	}
}

// WithSessionEndFailedCallback registers the consumer of failed end
// requests, so the triggering affordance can re-enable.
func WithSessionEndFailedCallback(callback func(events.SessionEndFailed)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onSessionEndFailed = callback
		}
	}
}

// WithEvidenceUpdatedCallback registers the consumer of evidence snapshot
// publications.
func WithEvidenceUpdatedCallback(callback func(events.EvidenceUpdated)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onEvidenceUpdated = callback
		}
	}
}

// WithReplyCallback registers the consumer of counterpart replies.
func WithReplyCallback(callback func(events.CounterpartReply)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onReply = callback
		}
	}
}

// WithActorStateCallback registers the consumer of actor transitions.
func WithActorStateCallback(callback func(events.ActorStateChanged)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onActorState = callback
		}
	}
}

// WithRecordingStartedCallback registers the consumer of capture starts.
func WithRecordingStartedCallback(callback func(events.RecordingStarted)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onRecordingStarted = callback
		}
	}
}

// WithRecordingStoppedCallback registers the consumer of capture stops.
func WithRecordingStoppedCallback(callback func(events.RecordingStopped)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onRecordingStopped = callback
		}
	}
}

// WithDisconnectedCallback registers the consumer of channel teardowns
// observed from the network side.
// WithConnectedCallback registers the consumer of the realtime channel
// reaching the connected state.
func WithConnectedCallback(callback func(events.ChannelConnected)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onConnected = callback
		}
	}
}

func WithDisconnectedCallback(callback func(events.ChannelDisconnected)) CourtroomOption {
	return func(c *Courtroom) {
		if callback != nil {
			c.callbacks.onDisconnected = callback
		}
	}
}
