// Package courtroom coordinates a simulated-hearing session: joining and
// ending meetings, streaming the user's speech, and sequencing the AI
// counterparts' replies into animation-ready state.
package courtroom

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justix/courtsim-core/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTickInterval = 50 * time.Millisecond

var (
	// ErrNoSession rejects operations that need a joined meeting.
	ErrNoSession = fmt.Errorf("courtroom: no active meeting")
	// ErrNotConfigured rejects operations on a courtroom whose wiring is
	// missing or does not match the wire format.
	ErrNotConfigured = fmt.Errorf("courtroom: session client or realtime channel not configured")
)

// CaseInfo is the metadata of the case under trial, delivered on join.
type CaseInfo struct {
	ID      string
	Title   string
	Summary string
}

// Courtroom is the session's composition root. It owns the dispatcher that
// serializes all consumer-visible work, the realtime channel of the current
// meeting, and the actor sequencing replies.
//
// Contract: Join, End, StartSpeaking, StopSpeaking and Tick belong to a
// single owning goroutine, the one driving Run or calling Tick. Everything
// arriving from other goroutines crosses through the dispatcher.
type Courtroom struct {
	session        SessionAPI
	channelFactory ChannelFactory
	channel        Channel

	dispatcher *Dispatcher
	clock      Clock

	recorder utteranceRecorder
	player   speechPlayer

	lawyer       *Actor
	actorOptions []ActorOption

	callbacks    callbacks
	tickInterval time.Duration

	meetingID  string
	caseInfo   CaseInfo
	transcript []TranscriptEntry
	evidence   atomic.Pointer[EvidenceSnapshot]

	pendingSpeech pendingClip
	recording     bool
	ending        atomic.Bool
	closeOnce     sync.Once
}

// NewCourtroom builds a courtroom. A session client is required for joins;
// audio devices and callbacks are optional.
func NewCourtroom(opts ...CourtroomOption) *Courtroom {
	c := &Courtroom{
		dispatcher:   NewDispatcher(),
		clock:        systemClock{},
		callbacks:    defaultCallbacks(),
		tickInterval: defaultTickInterval,
	}
	c.evidence.Store(&EvidenceSnapshot{})

	for _, opt := range opts {
		opt(c)
	}

	actorOptions := append([]ActorOption{
		WithActorClock(c.clock),
		WithActorTransitionCallback(func(e events.ActorStateChanged) { c.callbacks.onActorState(e) }),
		WithSpeakCallback(c.playPendingSpeech),
	}, c.actorOptions...)
	c.lawyer = NewActor(events.SpeakerOpposingLawyer, actorOptions...)

	return c
}

// Join requests entry into the meeting behind code and connects the
// realtime channel. It blocks until both succeed or fail; cancelling ctx
// abandons the attempt. Joining while another meeting is active closes that
// meeting's channel first and replaces all per-meeting state.
func (c *Courtroom) Join(ctx context.Context, code string) error {
	ctx, span := tracer.Start(ctx, "join meeting")
	defer span.End()

	if c.session == nil || c.channelFactory == nil {
		span.RecordError(ErrNotConfigured)
		span.SetStatus(codes.Error, ErrNotConfigured.Error())
		return ErrNotConfigured
	}

	joined, err := c.session.Join(ctx, code)
	if err != nil {
		err = fmt.Errorf("failed to join meeting: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("meeting.id", joined.MeetingID))

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}

	channel := c.channelFactory(c.dispatcher.Enqueue, c.handleReply, c.handleDisconnect)
	if err := channel.Connect(ctx, joined.MeetingID); err != nil {
		channel.Close()
		err = fmt.Errorf("failed to connect realtime channel: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.channel = channel
	c.meetingID = joined.MeetingID
	c.caseInfo = CaseInfo{ID: joined.CaseID, Title: joined.CaseTitle, Summary: joined.CaseSummary}
	c.transcript = nil
	c.pendingSpeech = pendingClip{}
	c.lawyer.Reset()
	c.evidence.Store(&EvidenceSnapshot{})

	c.callbacks.onSessionJoined(events.NewSessionJoined(
		joined.MeetingID, joined.CaseID, joined.CaseTitle, joined.CaseSummary,
	))

	if len(joined.EvidencePages) > 0 {
		span.AddEvent("evidence fetch started",
			trace.WithAttributes(attribute.Int("evidence.pages", len(joined.EvidencePages))),
		)
		go c.fetchEvidence(ctx, joined.MeetingID, joined.EvidencePages)
	}

	return nil
}

// fetchEvidence downloads evidence pages off the owning goroutine and
// publishes them as one immutable snapshot. A fetch outlived by a rejoin is
// discarded instead of overwriting the new meeting's evidence.
func (c *Courtroom) fetchEvidence(ctx context.Context, meetingID string, urls []string) {
	pages := c.session.FetchEvidence(ctx, urls)

	c.dispatcher.Enqueue(func() {
		if c.meetingID != meetingID {
			return
		}
		c.evidence.Store(&EvidenceSnapshot{FetchedAt: c.clock.Now(), Pages: pages})
		c.callbacks.onEvidenceUpdated(events.NewEvidenceUpdated(len(pages)))
	})
}

// End requests the meeting's closing report without blocking the caller.
// The outcome arrives as a SessionEnded or SessionEndFailed notification on
// a later tick; a failed request leaves the meeting joined so it can be
// retried. A second End while one is in flight is ignored.
func (c *Courtroom) End(ctx context.Context) error {
	if c.meetingID == "" {
		return ErrNoSession
	}
	if !c.ending.CompareAndSwap(false, true) {
		return nil
	}

	meetingID := c.meetingID
	go func() {
		report, err := c.session.End(ctx, meetingID)

		c.dispatcher.Enqueue(func() {
			c.ending.Store(false)

			if err != nil {
				c.callbacks.onSessionEndFailed(events.NewSessionEndFailed(err))
				return
			}

			if c.channel != nil {
				c.channel.Close()
				c.channel = nil
			}
			c.meetingID = ""
			c.lawyer.Reset()
			c.callbacks.onSessionEnded(events.NewSessionEnded(report.Summary, report.Score, report.Feedback))
		})
	}()

	return nil
}

// Tick drains queued work and advances response sequencing. Call it from
// the owning goroutine at a steady cadence, or let Run do it.
func (c *Courtroom) Tick(now time.Time) {
	c.dispatcher.Drain()
	c.lawyer.Advance(now)
}

// Run ticks the courtroom until ctx is cancelled, then closes it.
func (c *Courtroom) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-ticker.C:
			c.Tick(c.clock.Now())
		}
	}
}

// Close tears down the channel, the audio devices and the dispatcher.
func (c *Courtroom) Close() {
	c.closeOnce.Do(func() {
		if c.channel != nil {
			c.channel.Close()
			c.channel = nil
		}

		if err := c.recorder.Close(); err != nil {
			logger.Warn("failed to close recorder", "error", err)
		}
		if err := c.player.Close(); err != nil {
			logger.Warn("failed to close player", "error", err)
		}

		c.dispatcher.Close()
	})
}

// MeetingID returns the active meeting's identifier, empty when none.
func (c *Courtroom) MeetingID() string { return c.meetingID }

// Case returns the active meeting's case metadata.
func (c *Courtroom) Case() CaseInfo { return c.caseInfo }

// Evidence returns the current immutable evidence snapshot. Safe from any
// goroutine.
func (c *Courtroom) Evidence() *EvidenceSnapshot { return c.evidence.Load() }

// IsRecording reports whether an utterance capture is in progress.
func (c *Courtroom) IsRecording() bool { return c.recording }

// IsEnding reports whether an end request is in flight, so the triggering
// affordance can disable itself.
func (c *Courtroom) IsEnding() bool { return c.ending.Load() }

// LawyerState returns the opposing lawyer's animation state.
func (c *Courtroom) LawyerState() events.ActorState { return c.lawyer.State() }

// LawyerEmotion returns the opposing lawyer's current emotion intensity.
func (c *Courtroom) LawyerEmotion() float64 { return c.lawyer.Emotion() }
