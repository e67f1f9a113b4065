package courtroom

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/justix/courtsim-core/core/audio"
	"github.com/justix/courtsim-core/core/events"
	"github.com/justix/courtsim-core/core/session"
)

type fakeSession struct {
	mu sync.Mutex

	joined   *session.Joined
	joinErr  error
	report   *session.EndReport
	endErr   error
	evidence []session.Evidence

	joinCodes  []string
	endedIDs   []string
	fetchedURL [][]string
}

func (s *fakeSession) Join(_ context.Context, code string) (*session.Joined, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinCodes = append(s.joinCodes, code)
	if s.joinErr != nil {
		return nil, s.joinErr
	}
	return s.joined, nil
}

func (s *fakeSession) End(_ context.Context, meetingID string) (*session.EndReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endedIDs = append(s.endedIDs, meetingID)
	if s.endErr != nil {
		return nil, s.endErr
	}
	return s.report, nil
}

func (s *fakeSession) FetchEvidence(_ context.Context, urls []string) []session.Evidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchedURL = append(s.fetchedURL, urls)
	return s.evidence
}

type fakeChannel struct {
	meetingID  string
	connectErr error
	closed     bool
	emitted    []emittedAudio
}

type emittedAudio struct {
	audio   string
	speaker events.Speaker
}

func (c *fakeChannel) Connect(_ context.Context, meetingID string) error {
	if c.connectErr != nil {
		return c.connectErr
	}
	c.meetingID = meetingID
	return nil
}

func (c *fakeChannel) EmitAudio(base64Audio string, speaker events.Speaker) error {
	c.emitted = append(c.emitted, emittedAudio{audio: base64Audio, speaker: speaker})
	return nil
}

func (c *fakeChannel) Close() { c.closed = true }

// channelHarness captures what the courtroom wires into its channels.
type channelHarness struct {
	channels       []*fakeChannel
	onReply        func(events.CounterpartReply)
	onDisconnected func()
}

func (h *channelHarness) factory() ChannelFactory {
	return func(_ func(func()), onReply func(events.CounterpartReply), onDisconnected func()) Channel {
		channel := &fakeChannel{}
		h.channels = append(h.channels, channel)
		h.onReply = onReply
		h.onDisconnected = onDisconnected
		return channel
	}
}

func (h *channelHarness) current(t *testing.T) *fakeChannel {
	t.Helper()
	if len(h.channels) == 0 {
		t.Fatal("no channel was built")
	}
	return h.channels[len(h.channels)-1]
}

type fakeRecorder struct {
	buf      audio.Buffer
	encoding audio.EncodingInfo
	started  bool
	stopped  bool
}

func (r *fakeRecorder) Start(context.Context) error { r.started = true; return nil }
func (r *fakeRecorder) Stop() (audio.Buffer, error) { r.stopped = true; return r.buf, nil }
func (r *fakeRecorder) Close() error                { return nil }

func (r *fakeRecorder) EncodingInfo() audio.EncodingInfo {
	if r.encoding.IsZero() {
		return audio.GetDefaultEncodingInfo()
	}
	return r.encoding
}

type fakePlayer struct {
	played []audio.Buffer
}

func (p *fakePlayer) Play(buf audio.Buffer) error {
	p.played = append(p.played, buf)
	return nil
}
func (p *fakePlayer) Close() error { return nil }

func testJoined() *session.Joined {
	return &session.Joined{
		MeetingID:   "meeting-1",
		CaseID:      "case-1",
		CaseTitle:   "State v. Doe",
		CaseSummary: "An alleged breach of contract.",
	}
}

// tickUntil drives the courtroom's loop until cond holds or a deadline
// passes, standing in for the frame loop that normally drains it.
func tickUntil(t *testing.T, c *Courtroom, clock *fakeClock, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		c.Tick(clock.Now())
		time.Sleep(time.Millisecond)
	}
}

func TestCourtroomJoinConnectsChannelAndPublishesEvidence(t *testing.T) {
	clock := newFakeClock()
	joined := testJoined()
	joined.EvidencePages = []string{"https://example.com/page-1.png"}
	backend := &fakeSession{
		joined:   joined,
		evidence: []session.Evidence{{URL: "https://example.com/page-1.png"}},
	}
	harness := &channelHarness{}

	var joinedEvent *events.SessionJoined
	evidencePages := 0
	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
		WithSessionJoinedCallback(func(e events.SessionJoined) { joinedEvent = &e }),
		WithEvidenceUpdatedCallback(func(e events.EvidenceUpdated) { evidencePages = e.Pages }),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	if got := backend.joinCodes; len(got) != 1 || got[0] != "ABC123" {
		t.Fatalf("expected one join with ABC123, got %v", got)
	}
	if harness.current(t).meetingID != "meeting-1" {
		t.Fatalf("expected channel connected to meeting-1, got %q", harness.current(t).meetingID)
	}
	if c.MeetingID() != "meeting-1" {
		t.Fatalf("expected active meeting-1, got %q", c.MeetingID())
	}
	if c.Case().Title != "State v. Doe" {
		t.Fatalf("expected case metadata, got %+v", c.Case())
	}
	if joinedEvent == nil || joinedEvent.MeetingID != "meeting-1" {
		t.Fatalf("expected session joined notification, got %+v", joinedEvent)
	}

	tickUntil(t, c, clock, func() bool { return evidencePages == 1 })
	if c.Evidence().PageCount() != 1 {
		t.Fatalf("expected 1 evidence page, got %d", c.Evidence().PageCount())
	}
}

func TestCourtroomJoinRequiresConfiguration(t *testing.T) {
	c := NewCourtroom()
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCourtroomJoinFailureLeavesNoMeeting(t *testing.T) {
	backend := &fakeSession{joinErr: fmt.Errorf("boom")}
	harness := &channelHarness{}
	c := NewCourtroom(WithSessionClient(backend), WithChannelFactory(harness.factory()))
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err == nil {
		t.Fatal("expected join to fail")
	}
	if c.MeetingID() != "" {
		t.Fatalf("expected no active meeting, got %q", c.MeetingID())
	}
	if len(harness.channels) != 0 {
		t.Fatal("expected no channel to be built")
	}
}

func TestCourtroomRejoinReplacesChannelAndDiscardsStaleEvidence(t *testing.T) {
	clock := newFakeClock()
	stale := make(chan struct{})
	backend := &fakeSession{joined: testJoined()}
	harness := &channelHarness{}
	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	first := harness.current(t)

	// Simulate a slow evidence fetch from the first meeting landing after
	// the courtroom has already moved to a second meeting.
	go func() {
		c.fetchEvidence(context.Background(), "meeting-1", []string{"late"})
		close(stale)
	}()
	<-stale

	second := testJoined()
	second.MeetingID = "meeting-2"
	backend.mu.Lock()
	backend.joined = second
	backend.mu.Unlock()

	if err := c.Join(context.Background(), "XYZ789"); err != nil {
		t.Fatalf("failed to rejoin: %v", err)
	}
	if !first.closed {
		t.Fatal("expected the first channel to be closed on rejoin")
	}
	if harness.current(t).meetingID != "meeting-2" {
		t.Fatalf("expected channel connected to meeting-2, got %q", harness.current(t).meetingID)
	}

	c.Tick(clock.Now())
	if c.Evidence().PageCount() != 0 {
		t.Fatal("expected the stale fetch to be discarded")
	}
}

func TestCourtroomEndDeliversClosingReport(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeSession{
		joined: testJoined(),
		report: &session.EndReport{Summary: "Well argued.", Score: 87, Feedback: "Cite precedent earlier."},
	}
	harness := &channelHarness{}

	var ended *events.SessionEnded
	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
		WithSessionEndedCallback(func(e events.SessionEnded) { ended = &e }),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if err := c.End(context.Background()); err != nil {
		t.Fatalf("failed to request end: %v", err)
	}
	if !c.IsEnding() {
		t.Fatal("expected an end request to be in flight")
	}

	tickUntil(t, c, clock, func() bool { return ended != nil })
	if ended.Score != 87 || ended.Summary != "Well argued." {
		t.Fatalf("unexpected closing report: %+v", ended)
	}
	if c.MeetingID() != "" {
		t.Fatalf("expected the meeting to be cleared, got %q", c.MeetingID())
	}
	if !harness.current(t).closed {
		t.Fatal("expected the channel to be closed")
	}
	if c.IsEnding() {
		t.Fatal("expected the end request to be settled")
	}
}

func TestCourtroomEndFailureKeepsMeetingJoined(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeSession{joined: testJoined(), endErr: fmt.Errorf("backend unavailable")}
	harness := &channelHarness{}

	var failed *events.SessionEndFailed
	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
		WithSessionEndFailedCallback(func(e events.SessionEndFailed) { failed = &e }),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if err := c.End(context.Background()); err != nil {
		t.Fatalf("failed to request end: %v", err)
	}

	tickUntil(t, c, clock, func() bool { return failed != nil })
	if failed.Err == nil {
		t.Fatal("expected the failure to carry its error")
	}
	if c.MeetingID() != "meeting-1" {
		t.Fatal("expected the meeting to stay joined after a failed end")
	}
	if harness.current(t).closed {
		t.Fatal("expected the channel to stay open after a failed end")
	}
	if c.IsEnding() {
		t.Fatal("expected the end request to be settled so it can be retried")
	}
}

func TestCourtroomEndWithoutMeeting(t *testing.T) {
	c := NewCourtroom(WithSessionClient(&fakeSession{}))
	defer c.Close()

	if err := c.End(context.Background()); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCourtroomStopSpeakingStreamsUtterance(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeSession{joined: testJoined()}
	harness := &channelHarness{}
	recorder := &fakeRecorder{buf: audio.Buffer{
		Samples:    make([]float32, audio.DefaultSampleRate/2),
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
	}}

	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
		WithRecorder(recorder),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if err := c.StartSpeaking(context.Background()); err != nil {
		t.Fatalf("failed to start speaking: %v", err)
	}
	if !c.IsRecording() {
		t.Fatal("expected recording to be in progress")
	}
	if err := c.StopSpeaking(context.Background()); err != nil {
		t.Fatalf("failed to stop speaking: %v", err)
	}

	channel := harness.current(t)
	if len(channel.emitted) != 1 {
		t.Fatalf("expected one emitted utterance, got %d", len(channel.emitted))
	}
	if channel.emitted[0].speaker != events.SpeakerUser {
		t.Fatalf("expected the user speaker, got %q", channel.emitted[0].speaker)
	}

	raw, err := base64.StdEncoding.DecodeString(channel.emitted[0].audio)
	if err != nil {
		t.Fatalf("expected base64 audio, got %v", err)
	}
	decoded, err := audio.DecodeWAV(raw)
	if err != nil {
		t.Fatalf("expected a parsable container, got %v", err)
	}
	if len(decoded.Samples) != len(recorder.buf.Samples) {
		t.Fatalf("expected %d samples, got %d", len(recorder.buf.Samples), len(decoded.Samples))
	}

	transcript := c.Transcript()
	if len(transcript) != 1 || transcript[0].Speaker != events.SpeakerUser {
		t.Fatalf("expected a user transcript entry, got %+v", transcript)
	}
	if transcript[0].ID == "" {
		t.Fatal("expected the transcript entry to carry an identifier")
	}
}

func TestCourtroomStopSpeakingDropsEmptyCapture(t *testing.T) {
	backend := &fakeSession{joined: testJoined()}
	harness := &channelHarness{}
	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithRecorder(&fakeRecorder{}),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if err := c.StartSpeaking(context.Background()); err != nil {
		t.Fatalf("failed to start speaking: %v", err)
	}
	if err := c.StopSpeaking(context.Background()); err != nil {
		t.Fatalf("failed to stop speaking: %v", err)
	}

	if len(harness.current(t).emitted) != 0 {
		t.Fatal("expected an empty capture to be dropped")
	}
}

func TestCourtroomStartSpeakingRejectsMismatchedCaptureEncoding(t *testing.T) {
	backend := &fakeSession{joined: testJoined()}
	harness := &channelHarness{}
	recorder := &fakeRecorder{encoding: audio.EncodingInfo{
		SampleRate: 8000,
		Channels:   1,
		Format:     audio.EncodingLinear16,
	}}
	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithRecorder(recorder),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	if err := c.StartSpeaking(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for a mismatched capture encoding, got %v", err)
	}
	if recorder.started {
		t.Fatal("expected capture to never start")
	}
	if c.IsRecording() {
		t.Fatal("expected the courtroom to not be recording")
	}
}

func replyWithAudio(t *testing.T, speaker events.Speaker, emotion string, seconds float32) events.CounterpartReply {
	t.Helper()
	buf := audio.Buffer{
		Samples:    make([]float32, int(seconds*float32(audio.DefaultSampleRate))),
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
	}
	container, err := audio.EncodeWAV(buf)
	if err != nil {
		t.Fatalf("failed to encode reply audio: %v", err)
	}
	return events.NewCounterpartReply(
		"test line", base64.StdEncoding.EncodeToString(container), speaker, emotion,
	)
}

func TestCourtroomLawyerReplySequencesActorAndPlaysAudio(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeSession{joined: testJoined()}
	harness := &channelHarness{}
	player := &fakePlayer{}

	var states []events.ActorState
	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
		WithPlayer(player),
		WithActorStateCallback(func(e events.ActorStateChanged) { states = append(states, e.State) }),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	harness.onReply(replyWithAudio(t, events.SpeakerOpposingLawyer, "aggressive", 3))
	if c.LawyerState() != events.ActorStanding {
		t.Fatalf("expected the lawyer to stand, got %q", c.LawyerState())
	}
	if c.LawyerEmotion() != 1.0 {
		t.Fatalf("expected full emotion intensity, got %v", c.LawyerEmotion())
	}
	if len(player.played) != 0 {
		t.Fatal("expected playback to wait for the speaking state")
	}

	clock.advance(defaultStandDuration)
	c.Tick(clock.Now())
	if c.LawyerState() != events.ActorSpeaking {
		t.Fatalf("expected the lawyer to speak, got %q", c.LawyerState())
	}
	if len(player.played) != 1 {
		t.Fatalf("expected the reply audio to play, got %d clips", len(player.played))
	}

	clock.advance(3 * time.Second)
	c.Tick(clock.Now())
	if c.LawyerState() != events.ActorIdle {
		t.Fatalf("expected the lawyer to sit, got %q", c.LawyerState())
	}

	want := []events.ActorState{events.ActorStanding, events.ActorSpeaking, events.ActorIdle}
	if len(states) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), states)
	}

	transcript := c.Transcript()
	if len(transcript) != 1 || transcript[0].Speaker != events.SpeakerOpposingLawyer {
		t.Fatalf("expected a lawyer transcript entry, got %+v", transcript)
	}
	if transcript[0].Emotion != "aggressive" {
		t.Fatalf("expected the emotion label to be recorded, got %q", transcript[0].Emotion)
	}
}

func TestCourtroomJudgeReplyPlaysImmediately(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeSession{joined: testJoined()}
	harness := &channelHarness{}
	player := &fakePlayer{}

	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
		WithPlayer(player),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	harness.onReply(replyWithAudio(t, events.SpeakerJudge, "stern", 1))
	if len(player.played) != 1 {
		t.Fatalf("expected immediate playback, got %d clips", len(player.played))
	}
	if c.LawyerState() != events.ActorIdle {
		t.Fatal("expected the judge's reply to bypass the lawyer's sequencer")
	}
}

func TestCourtroomLawyerReplyWithoutAudioUsesFallbackHold(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeSession{joined: testJoined()}
	harness := &channelHarness{}
	player := &fakePlayer{}

	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
		WithPlayer(player),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	harness.onReply(events.NewCounterpartReply("silent line", "", events.SpeakerOpposingLawyer, "calm"))

	clock.advance(defaultStandDuration)
	c.Tick(clock.Now())
	if c.LawyerState() != events.ActorSpeaking {
		t.Fatalf("expected the lawyer to speak, got %q", c.LawyerState())
	}
	if len(player.played) != 0 {
		t.Fatal("expected no playback for a silent reply")
	}

	clock.advance(defaultSpeechHold)
	c.Tick(clock.Now())
	if c.LawyerState() != events.ActorIdle {
		t.Fatalf("expected the lawyer to sit after the fallback hold, got %q", c.LawyerState())
	}
}

func TestCourtroomDisconnectResetsLawyerAndNotifies(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeSession{joined: testJoined()}
	harness := &channelHarness{}

	disconnected := false
	c := NewCourtroom(
		WithSessionClient(backend),
		WithChannelFactory(harness.factory()),
		WithClock(clock),
		WithDisconnectedCallback(func(events.ChannelDisconnected) { disconnected = true }),
	)
	defer c.Close()

	if err := c.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	harness.onReply(events.NewCounterpartReply("line", "", events.SpeakerOpposingLawyer, ""))

	harness.onDisconnected()
	if !disconnected {
		t.Fatal("expected a disconnect notification")
	}
	if c.LawyerState() != events.ActorIdle {
		t.Fatal("expected the lawyer to reset on disconnect")
	}
	if c.MeetingID() != "meeting-1" {
		t.Fatal("expected the meeting to stay joined for a rejoin")
	}
}
