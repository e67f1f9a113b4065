// Package miniaudio plays reply audio on the default output device and
// offers an alternative capture backend on hosts without a working
// portaudio installation.
package miniaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/justix/courtsim-core/core/audio"
)

// defaultMaxUtterance bounds a single capture.
const defaultMaxUtterance = 30 * time.Second

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient

	maxDuration time.Duration

	mu        sync.Mutex
	samples   []float32
	capturing bool
}

type ClientOption func(*Client)

// WithMaxUtterance overrides the capture length cap.
func WithMaxUtterance(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.maxDuration = d
		}
	}
}

// NewClient initializes both devices. Playback starts immediately so reply
// audio can be fed without further setup; capture starts per utterance.
func NewClient(opts ...ClientOption) (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
		maxDuration:  defaultMaxUtterance,
	}
	for _, opt := range opts {
		opt(&client)
	}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}
	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}
	if err := client.captureClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

// Play queues one decoded clip on the output device. It returns as soon as
// the clip is queued; the device drains it in the background.
func (c *Client) Play(buf audio.Buffer) error {
	if buf.IsEmpty() {
		return nil
	}

	pcm := make([]byte, 0, len(buf.Samples)*2)
	for _, sample := range buf.Samples {
		value := int16(sample * 32767)
		pcm = append(pcm, byte(value), byte(value>>8))
	}
	return c.playbackClient.SendAudio(pcm)
}

// Start begins accumulating an utterance from the input device.
func (c *Client) Start(_ context.Context) error {
	c.mu.Lock()
	if c.capturing {
		c.mu.Unlock()
		return nil
	}
	c.samples = c.samples[:0]
	c.capturing = true
	maxSamples := int(c.maxDuration.Seconds() * float64(audio.DefaultSampleRate))
	c.mu.Unlock()

	return c.captureClient.Start(func(pcm []byte) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.capturing || len(c.samples) >= maxSamples {
			return
		}
		for i := 0; i+1 < len(pcm) && len(c.samples) < maxSamples; i += 2 {
			value := int16(pcm[i]) | int16(pcm[i+1])<<8
			c.samples = append(c.samples, float32(value)/32767)
		}
	})
}

// Stop ends the capture and returns the utterance, trimmed to what was
// recorded.
func (c *Client) Stop() (audio.Buffer, error) {
	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return audio.Buffer{}, nil
	}
	c.capturing = false
	c.mu.Unlock()

	if err := c.captureClient.Stop(); err != nil {
		return audio.Buffer{}, err
	}

	c.mu.Lock()
	samples := make([]float32, len(c.samples))
	copy(samples, c.samples)
	c.mu.Unlock()

	return audio.Buffer{
		Samples:    samples,
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
	}, nil
}

// Close releases both devices and the context.
func (c *Client) Close() error {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	if err := c.audioContext.Uninit(); err != nil {
		return err
	}
	c.audioContext.Free()
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
		Format:     audio.EncodingLinear16,
	}
}
