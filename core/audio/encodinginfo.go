package audio

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 1
	DefaultFormat     = "linear16"
)

// GetDefaultEncodingInfo describes the wire format: 16-bit linear PCM,
// mono, 44100 Hz. Capture clients are validated against it before any
// utterance is encoded.
func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		Format:     encodingFormat(DefaultFormat),
	}
}

type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

const EncodingLinear16 encodingFormat = "linear16"
