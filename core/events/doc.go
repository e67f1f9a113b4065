// Package events defines the typed courtroom event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - channel.*
//   - recording.*
//   - actor.*
//
// session events
//
//   - SessionJoined (session.joined): a meeting join succeeded; carries the
//     meeting/case identifiers and case metadata.
//   - SessionEnded (session.ended): the end-session request succeeded;
//     carries the closing report.
//   - SessionEndFailed (session.end_failed): the end-session request failed;
//     the affordance that triggered it should re-enable.
//   - EvidenceUpdated (session.evidence_updated): a new immutable evidence
//     snapshot was published; carries the page count.
//
// channel events
//
//   - ChannelConnected (channel.connected): the realtime channel reached the
//     connected state and announced the meeting.
//   - ChannelDisconnected (channel.disconnected): the realtime channel was
//     torn down.
//   - CounterpartReply (channel.counterpart_reply): one AI-generated reply
//     (text, optional base64 audio, speaker, emotion).
//
// recording events
//
//   - RecordingStarted (recording.started): utterance capture began.
//   - RecordingStopped (recording.stopped): utterance capture ended; carries
//     the captured sample count.
//
// actor events
//
//   - ActorStateChanged (actor.state_changed): an actor transitioned between
//     idle, standing and speaking.
package events
