package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/justix/courtsim-core/core/events"
)

const (
	eventJoinMeeting = "join_meeting"
	eventAudioStream = "audio_stream"
	eventAIResponse  = "ai_response"
)

// envelope is the framing for every message on the channel: a named event
// plus its raw payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("realtime: failed to marshal %s payload: %w", event, err)
	}
	return json.Marshal(envelope{Event: event, Data: data})
}

func unmarshalEnvelope(msg []byte) (envelope, error) {
	var parsed envelope
	if err := json.Unmarshal(msg, &parsed); err != nil {
		return envelope{}, err
	}
	return parsed, nil
}

type audioStreamPayload struct {
	MeetingID string `json:"meetingId"`
	Audio     string `json:"audio"`
	Speaker   string `json:"speaker"`
}

// wireReply mirrors the loosely-typed object the backend sends as element 0
// of an ai_response payload. encoding/json matches keys case-insensitively,
// which is exactly the tolerance the producing service requires ("audio" and
// "Audio" are both seen in the wild); the contract test pins this behavior.
type wireReply struct {
	Text    string `json:"text"`
	Audio   string `json:"audio"`
	Speaker string `json:"speaker"`
	Emotion string `json:"emotion"`
}

// parseReply extracts the first element of an ai_response payload array into
// a typed reply event.
func parseReply(data json.RawMessage) (events.CounterpartReply, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return events.CounterpartReply{}, fmt.Errorf("payload is not an array: %w", err)
	}
	if len(elements) == 0 {
		return events.CounterpartReply{}, fmt.Errorf("payload array is empty")
	}

	var reply wireReply
	if err := json.Unmarshal(elements[0], &reply); err != nil {
		return events.CounterpartReply{}, fmt.Errorf("payload element is not an object: %w", err)
	}

	return events.NewCounterpartReply(reply.Text, reply.Audio, events.ParseSpeaker(reply.Speaker), reply.Emotion), nil
}
