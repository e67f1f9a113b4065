// Package portaudio captures spoken utterances from the default input
// device.
package portaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/justix/courtsim-core/core/audio"
)

const defaultBufferSize = 1024

// defaultMaxUtterance bounds a single capture; a recorder left running
// stops filling its buffer past this point.
const defaultMaxUtterance = 30 * time.Second

type Recorder struct {
	bufferSize  int
	maxDuration time.Duration
	stream      *portaudio.Stream
	in          []int16

	mu        sync.Mutex
	samples   []float32
	capturing bool
	stop      chan struct{}
	done      chan struct{}
}

type RecorderOption func(*Recorder)

// WithBufferSize overrides the device read size in frames.
func WithBufferSize(frames int) RecorderOption {
	return func(r *Recorder) {
		if frames > 0 {
			r.bufferSize = frames
		}
	}
}

// WithMaxUtterance overrides the capture length cap.
func WithMaxUtterance(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.maxDuration = d
		}
	}
}

// NewRecorder initializes the input device. Callers own the recorder until
// Close, which releases the device again.
func NewRecorder(opts ...RecorderOption) (*Recorder, error) {
	recorder := &Recorder{
		bufferSize:  defaultBufferSize,
		maxDuration: defaultMaxUtterance,
	}
	for _, opt := range opts {
		opt(recorder)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize device host: %w", err)
	}

	recorder.in = make([]int16, recorder.bufferSize)
	stream, err := portaudio.OpenDefaultStream(
		1, 0, float64(audio.DefaultSampleRate), recorder.bufferSize, recorder.in,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}
	recorder.stream = stream

	return recorder, nil
}

// Start begins accumulating samples. Starting an already-capturing recorder
// is a no-op.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capturing {
		return nil
	}

	if err := r.stream.Start(); err != nil {
		return fmt.Errorf("failed to start capture stream: %w", err)
	}

	r.samples = r.samples[:0]
	r.capturing = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.capture(ctx, r.stop, r.done)
	return nil
}

func (r *Recorder) capture(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	maxSamples := int(r.maxDuration.Seconds() * float64(audio.DefaultSampleRate))
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}

		if err := r.stream.Read(); err != nil {
			continue
		}

		r.mu.Lock()
		for _, value := range r.in {
			r.samples = append(r.samples, float32(value)/32767)
		}
		filled := len(r.samples) >= maxSamples
		if filled {
			r.samples = r.samples[:maxSamples]
		}
		r.mu.Unlock()

		if filled {
			return
		}
	}
}

// Stop ends the capture and returns the utterance, trimmed to exactly what
// was recorded. Stopping a recorder that is not capturing returns an empty
// buffer.
func (r *Recorder) Stop() (audio.Buffer, error) {
	r.mu.Lock()
	if !r.capturing {
		r.mu.Unlock()
		return audio.Buffer{}, nil
	}
	r.capturing = false
	stop, done := r.stop, r.done
	r.mu.Unlock()

	close(stop)
	<-done

	if err := r.stream.Stop(); err != nil {
		return audio.Buffer{}, fmt.Errorf("failed to stop capture stream: %w", err)
	}

	r.mu.Lock()
	samples := make([]float32, len(r.samples))
	copy(samples, r.samples)
	r.mu.Unlock()

	return audio.Buffer{
		Samples:    samples,
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
	}, nil
}

// Close releases the stream and the device host.
func (r *Recorder) Close() error {
	if _, err := r.Stop(); err != nil {
		return err
	}

	if err := r.stream.Close(); err != nil {
		return fmt.Errorf("failed to close capture stream: %w", err)
	}
	return portaudio.Terminate()
}

func (r *Recorder) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
		Format:     audio.EncodingLinear16,
	}
}
