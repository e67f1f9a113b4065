package events

const (
	// KindChannelConnected identifies the channel reaching the connected state.
	KindChannelConnected Kind = "channel.connected"
	// KindChannelDisconnected identifies channel teardown.
	KindChannelDisconnected Kind = "channel.disconnected"
	// KindCounterpartReply identifies one AI-generated reply.
	KindCounterpartReply Kind = "channel.counterpart_reply"
)

// ChannelConnected marks the realtime channel reaching the connected state.
type ChannelConnected struct {
	Base
	MeetingID string
}

// NewChannelConnected creates a channel connected event.
func NewChannelConnected(meetingID string) ChannelConnected {
	return ChannelConnected{Base: NewBase(KindChannelConnected), MeetingID: meetingID}
}

// ChannelDisconnected marks realtime channel teardown.
type ChannelDisconnected struct{ Base }

// NewChannelDisconnected creates a channel disconnected event.
func NewChannelDisconnected() ChannelDisconnected {
	return ChannelDisconnected{Base: NewBase(KindChannelDisconnected)}
}

// CounterpartReply carries one AI-generated reply from the realtime channel.
// Audio, when present, is a base64 linear-PCM container. The reply is never
// retained beyond the handling of the event.
type CounterpartReply struct {
	Base
	Text    string
	Audio   string
	Speaker Speaker
	Emotion string
}

// NewCounterpartReply creates a counterpart reply event.
func NewCounterpartReply(text, audio string, speaker Speaker, emotion string) CounterpartReply {
	return CounterpartReply{
		Base:    NewBase(KindCounterpartReply),
		Text:    text,
		Audio:   audio,
		Speaker: speaker,
		Emotion: emotion,
	}
}
