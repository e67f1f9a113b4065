package courtroom

import (
	"context"

	"github.com/justix/courtsim-core/core/audio"
)

// utteranceRecorder normalizes optional capture wiring. A courtroom without
// a configured microphone treats recording operations as no-ops instead of
// failing, which keeps text-only and test configurations simple.
type utteranceRecorder struct {
	client UtteranceRecorder
}

func (r *utteranceRecorder) set(client UtteranceRecorder) {
	if r != nil {
		r.client = client
	}
}

func (r *utteranceRecorder) isConfigured() bool {
	return r != nil && r.client != nil
}

func (r *utteranceRecorder) Start(ctx context.Context) error {
	if !r.isConfigured() {
		return nil
	}
	return r.client.Start(ctx)
}

func (r *utteranceRecorder) Stop() (audio.Buffer, error) {
	if !r.isConfigured() {
		return audio.Buffer{}, nil
	}
	return r.client.Stop()
}

func (r *utteranceRecorder) encodingInfo() audio.EncodingInfo {
	if !r.isConfigured() {
		return audio.EncodingInfo{}
	}
	return r.client.EncodingInfo()
}

func (r *utteranceRecorder) Close() error {
	if !r.isConfigured() {
		return nil
	}
	return r.client.Close()
}

// speechPlayer normalizes optional playback wiring the same way.
type speechPlayer struct {
	client SpeechPlayer
}

func (p *speechPlayer) set(client SpeechPlayer) {
	if p != nil {
		p.client = client
	}
}

func (p *speechPlayer) isConfigured() bool {
	return p != nil && p.client != nil
}

func (p *speechPlayer) Play(buf audio.Buffer) error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Play(buf)
}

func (p *speechPlayer) Close() error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Close()
}
