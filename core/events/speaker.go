package events

import "strings"

// Speaker identifies who produced an utterance on the realtime channel.
type Speaker string

const (
	SpeakerUser           Speaker = "User"
	SpeakerOpposingLawyer Speaker = "Opposing Lawyer"
	SpeakerJudge          Speaker = "Judge"
	SpeakerUnknown        Speaker = ""
)

// ParseSpeaker maps a wire speaker label to a known Speaker. The producing
// service does not normalize labels, so matching ignores case and spacing.
func ParseSpeaker(label string) Speaker {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", ""))
	switch normalized {
	case "user":
		return SpeakerUser
	case "opposinglawyer", "opposing_lawyer":
		return SpeakerOpposingLawyer
	case "judge":
		return SpeakerJudge
	}
	return SpeakerUnknown
}
