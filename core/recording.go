package courtroom

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/justix/courtsim-core/core/audio"
	"github.com/justix/courtsim-core/core/events"
)

// StartSpeaking begins capturing the user's utterance. Starting while
// already recording is a no-op.
func (c *Courtroom) StartSpeaking(ctx context.Context) error {
	if c.recording {
		return nil
	}

	if info := c.recorder.encodingInfo(); !info.IsZero() && info != audio.GetDefaultEncodingInfo() {
		return fmt.Errorf("%w: capture encoding %s at %d Hz does not match the wire format",
			ErrNotConfigured, info.Format.Name(), info.SampleRate)
	}

	if err := c.recorder.Start(ctx); err != nil {
		return fmt.Errorf("failed to start utterance capture: %w", err)
	}

	c.recording = true
	c.callbacks.onRecordingStarted(events.NewRecordingStarted())
	return nil
}

// StopSpeaking ends the capture and streams the utterance to the meeting as
// the user's speech. An empty capture is dropped silently; stopping while
// not recording is a no-op.
func (c *Courtroom) StopSpeaking(ctx context.Context) error {
	if !c.recording {
		return nil
	}
	c.recording = false

	buf, err := c.recorder.Stop()
	if err != nil {
		return fmt.Errorf("failed to stop utterance capture: %w", err)
	}
	c.callbacks.onRecordingStopped(events.NewRecordingStopped(len(buf.Samples)))

	if buf.IsEmpty() {
		return nil
	}
	if c.channel == nil {
		return ErrNoSession
	}

	ctx, span := tracer.Start(ctx, "send utterance")
	defer span.End()

	container, err := audio.EncodeWAV(buf)
	if err != nil {
		err = fmt.Errorf("failed to encode utterance: %w", err)
		span.RecordError(err)
		return err
	}

	c.appendTranscript(events.SpeakerUser, "", "")

	encoded := base64.StdEncoding.EncodeToString(container)
	if err := c.channel.EmitAudio(encoded, events.SpeakerUser); err != nil {
		err = fmt.Errorf("failed to stream utterance: %w", err)
		span.RecordError(err)
		return err
	}

	return nil
}
