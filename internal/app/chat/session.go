/*
Package chat contains the core logic for real-time room presence, chat
broadcasting, and peer-connection signaling.

This file defines the Coordinator, the per-connection state machine driving
join, message send, nickname change, signaling, and disconnect. A connection
moves Connected -> Joined -> Disconnected; "Joined" is exactly "has a record in
the PresenceTable".
*/
package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"peerchat/internal/pkg/logx"
)

const (
	// DefaultFontFamily is applied to messages that do not specify one.
	DefaultFontFamily = "sans-serif"

	// DefaultTextColor is applied to messages that do not specify one.
	DefaultTextColor = "#ffffff"
)

// NicknameRegistry arbitrates exclusive claims on display names across the
// whole system. Claims survive the connection that made them only until
// release; the unique constraint behind Claim is the linearization point for
// concurrent claims.
type NicknameRegistry interface {
	// IsAvailable is an advisory read; it may race with a concurrent Claim.
	IsAvailable(ctx context.Context, nickname string) (bool, error)

	// Claim atomically reserves the nickname. false means already taken.
	Claim(ctx context.Context, nickname string) (bool, error)

	// Release idempotently frees the nickname.
	Release(ctx context.Context, nickname string) error
}

// MessageStore is the durable append log for chat messages.
type MessageStore interface {
	Append(ctx context.Context, roomID int64, nickname string, content string, fontFamily string, profileImage *string) error
}

// Coordinator ties the nickname registry, presence table, hub, and signaling
// relay together per connection. It is the single writer of presence and group
// membership; each connection's read goroutine calls into it sequentially.
type Coordinator struct {
	registry NicknameRegistry
	messages MessageStore
	presence *PresenceTable
	hub      *Hub
	relay    *SignalingRelay
	logger   zerolog.Logger
}

// NewCoordinator constructs a Coordinator over the given collaborators.
func NewCoordinator(registry NicknameRegistry, messages MessageStore, hub *Hub) *Coordinator {
	return &Coordinator{
		registry: registry,
		messages: messages,
		presence: NewPresenceTable(),
		hub:      hub,
		relay:    NewSignalingRelay(hub),
		logger:   logx.Logger().With().Str("component", "Coordinator").Logger(),
	}
}

// Presence exposes the presence table for read-only introspection.
func (co *Coordinator) Presence() *PresenceTable {
	return co.presence
}

// HandleJoin processes a join_room request. Each failing step short-circuits
// and leaves the connection in the Connected (not joined) state.
func (co *Coordinator) HandleJoin(ctx context.Context, c *Client, p JoinRoomPayload) {
	if _, joined := co.presence.Get(c.ID()); joined {
		co.logger.Warn().Str("conn_id", c.ID()).Msg("Join requested by an already joined connection, ignoring.")
		return
	}

	if p.Nickname == "" {
		c.SendError("Nickname is required")
		return
	}

	// Advisory check first; the registry errs on the side of availability when
	// the durable store is unreachable so the room stays usable.
	available, err := co.registry.IsAvailable(ctx, p.Nickname)
	if err != nil {
		co.logger.Error().Err(err).Str("nickname", p.Nickname).Msg("Nickname availability check failed, continuing permissively.")
		available = true
	}
	if !available {
		c.Send(EvtNicknameTaken, NicknameTakenPayload{Nickname: p.Nickname})
		return
	}

	// The atomic claim is the actual authority; losing the race here is
	// reported identically to a failed availability check.
	claimed, err := co.registry.Claim(ctx, p.Nickname)
	if err != nil {
		co.logger.Error().Err(err).Str("nickname", p.Nickname).Msg("Nickname claim failed, continuing permissively.")
		claimed = true
	}
	if !claimed {
		c.Send(EvtNicknameTaken, NicknameTakenPayload{Nickname: p.Nickname})
		return
	}

	co.hub.Subscribe(p.RoomID, c)
	co.presence.Add(Participant{ConnID: c.ID(), Nickname: p.Nickname, RoomID: p.RoomID})

	co.hub.BroadcastExcept(p.RoomID, c.ID(), EvtUserJoined, UserEventPayload{
		Nickname:  p.Nickname,
		UserID:    c.ID(),
		Timestamp: time.Now(),
	})

	existing := co.presence.ListByRoom(p.RoomID, c.ID())
	existingUsers := make([]RoomUser, 0, len(existing))
	for _, participant := range existing {
		existingUsers = append(existingUsers, RoomUser{
			Nickname: participant.Nickname,
			UserID:   participant.ConnID,
		})
	}
	c.Send(EvtExistingUsers, existingUsers)

	// History is deliberately empty: every session starts fresh. Clients that
	// want the backlog fetch it over the REST history endpoint.
	c.Send(EvtMessageHistory, []NewMessagePayload{})

	co.logger.Info().
		Str("conn_id", c.ID()).
		Str("nickname", p.Nickname).
		Int64("room_id", p.RoomID).
		Msg("Participant joined room.")
}

// HandleSendMessage persists the message and broadcasts it to the whole room,
// including the sender. A persistence failure is reported to the sender only;
// the room is not notified and no retry is attempted.
func (co *Coordinator) HandleSendMessage(ctx context.Context, c *Client, p SendMessagePayload) {
	participant, joined := co.presence.Get(c.ID())
	if !joined {
		c.SendError("Join a room before sending messages")
		return
	}

	if p.Content == "" {
		return
	}
	if len(p.Content) > MaxContentBytes {
		c.SendError("Message is too long")
		return
	}

	fontFamily := p.FontFamily
	if fontFamily == "" {
		fontFamily = DefaultFontFamily
	}
	textColor := p.TextColor
	if textColor == "" {
		textColor = DefaultTextColor
	}
	var profileImage *string
	if p.ProfileImage != "" {
		profileImage = &p.ProfileImage
	}

	if err := co.messages.Append(ctx, participant.RoomID, participant.Nickname, p.Content, fontFamily, profileImage); err != nil {
		co.logger.Error().Err(err).
			Str("conn_id", c.ID()).
			Int64("room_id", participant.RoomID).
			Msg("Failed to persist message.")
		c.SendError("Failed to send message")
		return
	}

	co.hub.Broadcast(participant.RoomID, EvtNewMessage, NewMessagePayload{
		Nickname:     participant.Nickname,
		Content:      p.Content,
		FontFamily:   fontFamily,
		TextColor:    textColor,
		ProfileImage: profileImage,
		CreatedAt:    time.Now(),
	})
}

// HandleChangeNickname moves the registry claim to the new nickname, then
// updates presence and announces the change to the room. A lost claim leaves
// every piece of state untouched.
func (co *Coordinator) HandleChangeNickname(ctx context.Context, c *Client, p ChangeNicknamePayload) {
	participant, joined := co.presence.Get(c.ID())
	if !joined {
		co.logger.Warn().Str("conn_id", c.ID()).Msg("Nickname change requested by a connection that never joined, ignoring.")
		return
	}

	if p.NewNickname == "" || p.NewNickname == participant.Nickname {
		return
	}

	claimed, err := co.registry.Claim(ctx, p.NewNickname)
	if err != nil {
		co.logger.Error().Err(err).Str("nickname", p.NewNickname).Msg("Nickname claim failed during change, continuing permissively.")
		claimed = true
	}
	if !claimed {
		c.Send(EvtNicknameTaken, NicknameTakenPayload{Nickname: p.NewNickname})
		return
	}

	if err := co.registry.Release(ctx, participant.Nickname); err != nil {
		co.logger.Error().Err(err).Str("nickname", participant.Nickname).Msg("Failed to release previous nickname claim.")
	}

	co.presence.UpdateNickname(c.ID(), p.NewNickname)

	co.hub.Broadcast(participant.RoomID, EvtNicknameChanged, NicknameChangedPayload{
		OldNickname: participant.Nickname,
		NewNickname: p.NewNickname,
	})

	co.logger.Info().
		Str("conn_id", c.ID()).
		Str("old_nickname", participant.Nickname).
		Str("new_nickname", p.NewNickname).
		Msg("Participant changed nickname.")
}

// HandleSignal forwards a negotiation envelope to its target connection.
func (co *Coordinator) HandleSignal(c *Client, kind SignalKind, p SignalPayload) {
	var body = p.Offer
	switch kind {
	case SignalAnswer:
		body = p.Answer
	case SignalCandidate:
		body = p.Candidate
	}

	co.relay.Forward(kind, c.ID(), p.To, body)
}

// HandleDisconnect runs the departure path: release the nickname claim, drop
// presence and group membership, and announce user_left to the remaining
// members. A connection that never joined is a no-op beyond unregistering.
func (co *Coordinator) HandleDisconnect(ctx context.Context, c *Client) {
	participant, wasJoined := co.presence.Remove(c.ID())

	co.hub.Unregister(c)

	if !wasJoined {
		return
	}

	if err := co.registry.Release(ctx, participant.Nickname); err != nil {
		co.logger.Error().Err(err).Str("nickname", participant.Nickname).Msg("Failed to release nickname claim on disconnect.")
	}

	co.hub.Broadcast(participant.RoomID, EvtUserLeft, UserEventPayload{
		Nickname:  participant.Nickname,
		UserID:    c.ID(),
		Timestamp: time.Now(),
	})

	co.logger.Info().
		Str("conn_id", c.ID()).
		Str("nickname", participant.Nickname).
		Int64("room_id", participant.RoomID).
		Msg("Participant left room.")
}
