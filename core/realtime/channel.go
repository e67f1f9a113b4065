// Package realtime maintains the persistent bidirectional channel used to
// exchange speech audio with the AI counterparts during a meeting.
//
// Inbound events are never processed on the read goroutine: every consumer
// callback is handed to the injected enqueue function and runs on whichever
// loop drains it. A channel that has been closed suppresses its still-queued
// callbacks, so consumers never observe events from a torn-down connection.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/justix/courtsim-core/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// State is the connection lifecycle of a channel.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// ErrNotConnected rejects an emit attempted while the channel is not in the
// connected state. Callers log and drop; the audio is not buffered.
var ErrNotConnected = fmt.Errorf("realtime: channel not connected")

// Channel is a single persistent connection to the courtsim realtime
// endpoint. Construct one per meeting; reconnecting means closing the old
// channel completely and building a new one.
type Channel struct {
	url     string
	enqueue func(func())

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	meetingID string

	options channelOptions
}

type channelOptions struct {
	onConnected    func(events.ChannelConnected)
	onReply        func(events.CounterpartReply)
	onDisconnected func()
	dialer         *websocket.Dialer
}

type ChannelOption func(*channelOptions)

// WithConnectCallback registers a consumer notification for the channel
// reaching the connected state. The callback runs on the draining loop.
func WithConnectCallback(callback func(events.ChannelConnected)) ChannelOption {
	return func(o *channelOptions) {
		if callback != nil {
			o.onConnected = callback
		}
	}
}

// WithReplyCallback registers the consumer for inbound counterpart replies.
// The callback runs on the draining loop, never on the network goroutine.
func WithReplyCallback(callback func(events.CounterpartReply)) ChannelOption {
	return func(o *channelOptions) {
		if callback != nil {
			o.onReply = callback
		}
	}
}

// WithDisconnectCallback registers a consumer notification for teardown
// observed from the network side.
func WithDisconnectCallback(callback func()) ChannelOption {
	return func(o *channelOptions) {
		if callback != nil {
			o.onDisconnected = callback
		}
	}
}

// WithDialer replaces the websocket dialer, e.g. to shorten handshake
// timeouts in tests.
func WithDialer(dialer *websocket.Dialer) ChannelOption {
	return func(o *channelOptions) {
		if dialer != nil {
			o.dialer = dialer
		}
	}
}

// NewChannel builds a disconnected channel. url is the ws(s) endpoint of the
// realtime service; enqueue hands inbound work to the consumer loop.
func NewChannel(url string, enqueue func(func()), opts ...ChannelOption) *Channel {
	channel := &Channel{
		url:     url,
		enqueue: enqueue,
		state:   StateDisconnected,
		options: channelOptions{
			onConnected:    func(events.ChannelConnected) {},
			onReply:        func(events.CounterpartReply) {},
			onDisconnected: func() {},
			dialer:         websocket.DefaultDialer,
		},
	}
	if channel.enqueue == nil {
		channel.enqueue = func(action func()) { action() }
	}

	for _, opt := range opts {
		opt(&channel.options)
	}

	return channel
}

// State reports the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect opens the connection and announces the meeting with a join_meeting
// event. The channel must be freshly constructed or fully closed.
func (c *Channel) Connect(ctx context.Context, meetingID string) error {
	ctx, span := tracer.Start(ctx, "connect channel")
	defer span.End()
	span.SetAttributes(attribute.String("meeting.id", meetingID))

	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		err := fmt.Errorf("realtime: connect attempted while %s", state)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	c.state = StateConnecting
	c.meetingID = meetingID
	c.mu.Unlock()

	conn, _, err := c.options.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		err = fmt.Errorf("realtime: failed to open socket connection: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	if err := c.writeEvent(eventJoinMeeting, meetingID); err != nil {
		c.Close()
		err = fmt.Errorf("realtime: failed to announce meeting: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.enqueue(func() {
		if c.State() != StateConnected {
			return
		}
		c.options.onConnected(events.NewChannelConnected(meetingID))
	})

	go c.readAndProcessMessages(conn)
	return nil
}

// EmitAudio streams one base64-encoded utterance container to the backend.
func (c *Channel) EmitAudio(base64Audio string, speaker events.Speaker) error {
	c.mu.Lock()
	state := c.state
	meetingID := c.meetingID
	c.mu.Unlock()

	if state != StateConnected {
		logger.Warn("dropping audio emit on unconnected channel", "state", string(state))
		return ErrNotConnected
	}

	return c.writeEvent(eventAudioStream, audioStreamPayload{
		MeetingID: meetingID,
		Audio:     base64Audio,
		Speaker:   string(speaker),
	})
}

// Close tears the connection down. Pending actions already queued on the
// consumer loop stay queued, but their callbacks check the channel state
// before applying, so a closed channel's events are discarded rather than
// acted on.
func (c *Channel) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (c *Channel) writeEvent(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	data, err := marshalEnvelope(event, payload)
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("realtime: failed to write %s event: %w", event, err)
	}
	return nil
}

func (c *Channel) readAndProcessMessages(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
			) && c.State() == StateConnected {
				logger.Warn("failed to read channel message", "error", err)
			}

			wasConnected := false
			c.mu.Lock()
			if c.conn == conn {
				wasConnected = c.state == StateConnected
				c.conn = nil
				c.state = StateDisconnected
			}
			c.mu.Unlock()
			conn.Close()

			if wasConnected {
				c.enqueue(c.options.onDisconnected)
			}
			return
		}

		c.processMessage(msg)
	}
}

// processMessage parses one inbound frame. A malformed frame is logged and
// dropped; it never terminates the read loop or the consumer drain.
func (c *Channel) processMessage(msg []byte) {
	parsed, err := unmarshalEnvelope(msg)
	if err != nil {
		logger.Warn("failed to unmarshal channel message", "error", err)
		return
	}

	switch parsed.Event {
	case eventAIResponse:
		reply, err := parseReply(parsed.Data)
		if err != nil {
			logger.Warn("dropping unparsable ai_response event", "error", err)
			return
		}

		c.enqueue(func() {
			// Stale events from a channel torn down after enqueueing are
			// discarded instead of acting on a dead connection.
			if c.State() != StateConnected {
				return
			}
			c.options.onReply(reply)
		})
	default:
		logger.Debug("ignoring unknown channel event", "event", parsed.Event)
	}
}
