package courtroom

import (
	"encoding/base64"

	"github.com/justix/courtsim-core/core/audio"
	"github.com/justix/courtsim-core/core/events"
)

// pendingClip holds the opposing lawyer's reply audio between the reply
// arriving and the actor reaching its speaking state.
type pendingClip struct {
	buf audio.Buffer
}

// handleReply runs on the draining goroutine for every counterpart reply.
// Replies from the opposing lawyer go through the stand-speak-sit cycle;
// everyone else's audio plays immediately.
func (c *Courtroom) handleReply(reply events.CounterpartReply) {
	c.appendTranscript(reply.Speaker, reply.Text, reply.Emotion)
	c.callbacks.onReply(reply)

	clip := c.decodeReplyAudio(reply.Audio)

	switch reply.Speaker {
	case events.SpeakerOpposingLawyer:
		c.pendingSpeech = pendingClip{buf: clip}
		c.lawyer.Begin(reply.Emotion, clip.Duration())
	default:
		if !clip.IsEmpty() {
			c.playClip(clip)
		}
	}
}

// decodeReplyAudio turns a reply's base64 payload into a playable buffer.
// Undecodable audio degrades to a silent reply rather than failing the
// whole event.
func (c *Courtroom) decodeReplyAudio(encoded string) audio.Buffer {
	if encoded == "" {
		return audio.Buffer{}
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		logger.Warn("failed to decode reply audio payload", "error", err)
		return audio.Buffer{}
	}

	buf, err := audio.DecodeWAV(raw)
	if err != nil {
		logger.Warn("failed to parse reply audio container", "error", err)
		return audio.Buffer{}
	}
	return buf
}

func (c *Courtroom) playPendingSpeech() {
	clip := c.pendingSpeech.buf
	c.pendingSpeech = pendingClip{}
	if clip.IsEmpty() {
		return
	}
	c.playClip(clip)
}

func (c *Courtroom) playClip(clip audio.Buffer) {
	if err := c.player.Play(clip); err != nil {
		logger.Warn("failed to play reply audio", "error", err)
	}
}

// handleDisconnect runs on the draining goroutine when the channel drops
// from the network side. The meeting stays joined; a rejoin builds a fresh
// channel.
func (c *Courtroom) handleDisconnect() {
	c.channel = nil
	c.lawyer.Reset()
	c.callbacks.onDisconnected(events.NewChannelDisconnected())
}
