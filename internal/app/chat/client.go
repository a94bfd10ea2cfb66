/*
Package chat contains the core logic for real-time room presence, chat
broadcasting, and peer-connection signaling.

This file defines the Client struct, representing an active WebSocket
connection. It manages the connection's lifecycle, the read/write pumps, and
dispatch of inbound events to the Coordinator.
*/
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"peerchat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = 25 * time.Second

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// MaxContentBytes is the maximum allowed size for chat message content.
	MaxContentBytes = 5000

	// sendQueueSize is the capacity of the per-connection outbound queue.
	sendQueueSize = 256
)

// Client represents one live websocket connection and its transport identity.
type Client struct {
	// id is the opaque connection identity used for presence and signaling.
	id string

	// coordinator drives the session state machine for this connection.
	coordinator *Coordinator

	// conn is the underlying WebSocket connection. Nil in tests that drive the
	// coordinator directly.
	conn *websocket.Conn

	// send is the buffered queue of outbound frames.
	send chan []byte

	// closeOnce guards the send queue against double close.
	closeOnce sync.Once

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded websocket connection.
func NewClient(id string, coordinator *Coordinator, wsConn *websocket.Conn) *Client {
	clientLogger := logx.Logger().With().
		Str("conn_id", id).
		Logger()

	return &Client{
		id:          id,
		coordinator: coordinator,
		conn:        wsConn,
		send:        make(chan []byte, sendQueueSize),
		logger:      clientLogger,
	}
}

// ID returns the connection identity.
func (c *Client) ID() string {
	return c.id
}

// enqueue places a marshaled frame on the send queue without blocking.
// Returns false when the queue is full or closed.
func (c *Client) enqueue(frame []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend closes the send queue exactly once, terminating the write pump.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Send marshals the payload into an event envelope and queues it for this
// connection. A full queue drops the frame with a warning.
func (c *Client) Send(event string, payload any) {
	envelope, err := NewEnvelope(event, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Error marshaling event for client")
		return
	}

	frame, err := json.Marshal(envelope)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Error marshaling envelope for client")
		return
	}

	if !c.enqueue(frame) {
		c.logger.Warn().Int("queue_len", len(c.send)).Str("event", event).Msg("Client send queue full, dropping event")
	}
}

// SendError queues an error event carrying a string reason.
func (c *Client) SendError(reason string) {
	c.Send(EvtError, reason)
}

// ReadPump reads frames from the WebSocket connection, handles heartbeats
// (Pong), dispatches events to the Coordinator, and performs cleanup when the
// connection closes. A missed heartbeat is treated the same as an explicit
// disconnect.
func (c *Client) ReadPump(ctx context.Context) {
	defer c.cleanupOnDisconnect(ctx)

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.dispatch(ctx, frame)
	}
}

// cleanupOnDisconnect runs the coordinator's disconnect path and closes the
// underlying connection when the read pump terminates.
func (c *Client) cleanupOnDisconnect(ctx context.Context) {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.coordinator.HandleDisconnect(ctx, c)

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Client connection close error")
	}
}

// dispatch decodes one inbound envelope and routes it to the Coordinator.
func (c *Client) dispatch(ctx context.Context, frame []byte) {
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		c.logger.Warn().Err(err).Bytes("frame", frame).Msg("Client sent invalid JSON")
		return
	}

	switch envelope.Event {
	case EvtJoinRoom:
		var payload JoinRoomPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid join_room payload")
			return
		}
		c.coordinator.HandleJoin(ctx, c, payload)

	case EvtSendMessage:
		var payload SendMessagePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid send_message payload")
			return
		}
		c.coordinator.HandleSendMessage(ctx, c, payload)

	case EvtChangeNickname:
		var payload ChangeNicknamePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid change_nickname payload")
			return
		}
		c.coordinator.HandleChangeNickname(ctx, c, payload)

	case EvtWebRTCOffer, EvtWebRTCAnswer, EvtWebRTCCandidate:
		var payload SignalPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.logger.Warn().Err(err).Str("event", envelope.Event).Msg("Client sent invalid signaling payload")
			return
		}

		kind := SignalOffer
		switch envelope.Event {
		case EvtWebRTCAnswer:
			kind = SignalAnswer
		case EvtWebRTCCandidate:
			kind = SignalCandidate
		}
		c.coordinator.HandleSignal(c, kind, payload)

	default:
		c.logger.Warn().Str("event", envelope.Event).Msg("Client sent unsupported event")
	}
}

// WritePump writes frames from the send queue to the WebSocket connection and
// keeps the heartbeat alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame pulled from the send queue. Returns false
// when the write pump should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a heartbeat ping. Returns false on write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
