package audio

import "time"

// Buffer holds uncompressed audio as float32 samples in [-1, 1], interleaved
// by channel.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Duration reports the playback length of the buffer. Zero-valued buffers
// report zero rather than dividing by zero.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}

	frames := len(b.Samples) / b.Channels
	return time.Duration(float64(frames) / float64(b.SampleRate) * float64(time.Second))
}

// IsEmpty reports whether the buffer carries no samples.
func (b Buffer) IsEmpty() bool {
	return len(b.Samples) == 0
}

// EncodingInfo describes the buffer in the shared encoding vocabulary used by
// capture and playback clients.
func (b Buffer) EncodingInfo() EncodingInfo {
	return EncodingInfo{
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		Format:     EncodingLinear16,
	}
}
