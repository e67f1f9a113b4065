package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// The wire container is a canonical 44-byte RIFF/WAVE header followed by
// little-endian signed 16-bit linear PCM samples, interleaved by channel.
// This is the only audio format the courtsim backend speaks.

const (
	wavHeaderSize = 44
	wavFormatPCM  = 1

	bitsPerSample = 16

	// sampleScale converts between float samples in [-1, 1] and int16.
	// The backend normalizes by 32767 on both directions, so max negative
	// amplitude is -32767, not -32768.
	sampleScale = 32767
)

var (
	// ErrInvalidBuffer rejects encoding input before any bytes are written.
	ErrInvalidBuffer = errors.New("audio: invalid buffer")
	// ErrMalformedContainer rejects wire payloads that are not a parsable
	// linear-PCM container.
	ErrMalformedContainer = errors.New("audio: malformed container")
)

// EncodeWAV serializes the buffer into the canonical container. Samples are
// expected to already be trimmed to the desired duration; no trimming or
// resampling happens here.
//
// The output is deterministic: exactly 44 + 2*len(samples) bytes.
func EncodeWAV(buf Buffer) ([]byte, error) {
	if buf.IsEmpty() {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidBuffer)
	}
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidBuffer, buf.SampleRate)
	}

	channels := buf.Channels
	if channels <= 0 {
		channels = DefaultChannels
	}

	frames := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: buf.SampleRate},
		SourceBitDepth: bitsPerSample,
		Data:           make([]int, len(buf.Samples)),
	}
	for i, sample := range buf.Samples {
		frames.Data[i] = int(math.Round(float64(sample) * sampleScale))
	}

	sink := &wavSink{}
	encoder := wav.NewEncoder(sink, buf.SampleRate, bitsPerSample, channels, wavFormatPCM)
	if err := encoder.Write(frames); err != nil {
		return nil, fmt.Errorf("failed to write samples: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize container: %w", err)
	}

	return sink.buf, nil
}

// DecodeWAV parses a canonical container back into a sample buffer. Chunks
// between the format block and the data chunk are skipped by their declared
// length; a data length that overruns the payload yields the samples that are
// actually present, while any other overrunning chunk fails the scan.
func DecodeWAV(data []byte) (Buffer, error) {
	if len(data) < wavHeaderSize {
		return Buffer{}, fmt.Errorf("%w: %d bytes is shorter than the minimum header", ErrMalformedContainer, len(data))
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return Buffer{}, fmt.Errorf("%w: missing RIFF/WAVE preamble", ErrMalformedContainer)
	}
	if depth := int(decoder.BitDepth); depth != bitsPerSample {
		return Buffer{}, fmt.Errorf("%w: unsupported bit depth %d", ErrMalformedContainer, depth)
	}

	frames, err := decoder.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	channels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)
	if frames.Format != nil {
		if frames.Format.NumChannels > 0 {
			channels = frames.Format.NumChannels
		}
		if frames.Format.SampleRate > 0 {
			sampleRate = frames.Format.SampleRate
		}
	}

	samples := make([]float32, len(frames.Data))
	for i, value := range frames.Data {
		samples[i] = float32(value) / sampleScale
	}

	return Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// wavSink is an in-memory io.WriteSeeker for the encoder, which seeks back
// over already written bytes to patch the chunk sizes on Close.
type wavSink struct {
	buf []byte
	pos int
}

func (s *wavSink) Write(p []byte) (int, error) {
	if need := s.pos + len(p); need > len(s.buf) {
		if need > cap(s.buf) {
			grown := make([]byte, need, max(need, 2*cap(s.buf)))
			copy(grown, s.buf)
			s.buf = grown
		} else {
			s.buf = s.buf[:need]
		}
	}
	copy(s.buf[s.pos:], p)
	s.pos += len(p)
	return len(p), nil
}

func (s *wavSink) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = s.pos + int(offset)
	case io.SeekEnd:
		next = len(s.buf) + int(offset)
	default:
		return 0, fmt.Errorf("unsupported whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("seek before start of buffer")
	}

	s.pos = next
	return int64(next), nil
}
