/*
Package chat contains the core logic for real-time room presence, chat
broadcasting, and peer-connection signaling.

This file defines the SignalingRelay, the stateless point-to-point forwarder
for peer-connection negotiation envelopes. The relay never inspects the body;
the media session itself is negotiated directly between the browsers.
*/
package chat

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"peerchat/internal/pkg/logx"
)

// SignalKind identifies one of the negotiation envelope kinds and the JSON
// field its body travels under.
type SignalKind struct {
	Event string
	Field string
}

var (
	// SignalOffer carries a session description offer.
	SignalOffer = SignalKind{Event: EvtWebRTCOffer, Field: "offer"}

	// SignalAnswer carries a session description answer.
	SignalAnswer = SignalKind{Event: EvtWebRTCAnswer, Field: "answer"}

	// SignalCandidate carries an ICE candidate.
	SignalCandidate = SignalKind{Event: EvtWebRTCCandidate, Field: "candidate"}
)

// SignalingRelay forwards opaque negotiation envelopes between two connection
// identities.
type SignalingRelay struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewSignalingRelay creates a relay delivering through the given hub.
func NewSignalingRelay(hub *Hub) *SignalingRelay {
	return &SignalingRelay{
		hub:    hub,
		logger: logx.Logger().With().Str("component", "SignalingRelay").Logger(),
	}
}

// Forward delivers {from: fromConnID, <kind-field>: body} to toConnID with the
// body unmodified. A disconnected target drops the envelope silently; the
// sender's own peer-disconnect detection cleans up independently.
func (r *SignalingRelay) Forward(kind SignalKind, fromConnID string, toConnID string, body json.RawMessage) {
	if toConnID == "" {
		r.logger.Warn().
			Str("event", kind.Event).
			Str("from", fromConnID).
			Msg("Signaling envelope without a target, dropping.")
		return
	}

	payload := map[string]any{
		"from":     fromConnID,
		kind.Field: body,
	}

	if !r.hub.Unicast(toConnID, kind.Event, payload) {
		r.logger.Debug().
			Str("event", kind.Event).
			Str("from", fromConnID).
			Str("to", toConnID).
			Msg("Signaling target gone, envelope dropped.")
	}
}
