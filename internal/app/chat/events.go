/*
Package chat contains the core logic for real-time room presence, chat
broadcasting, and peer-connection signaling.

This file defines the wire envelope and the inbound/outbound event vocabulary
exchanged over the websocket.
*/
package chat

import (
	"encoding/json"
	"time"
)

// Inbound events (client -> coordinator).
const (
	EvtJoinRoom        = "join_room"
	EvtSendMessage     = "send_message"
	EvtChangeNickname  = "change_nickname"
	EvtWebRTCOffer     = "webrtc_offer"
	EvtWebRTCAnswer    = "webrtc_answer"
	EvtWebRTCCandidate = "webrtc_ice_candidate"
)

// Outbound events (coordinator -> client). The three webrtc_* events are also
// emitted outbound, relayed with a "from" field added.
const (
	EvtNicknameTaken   = "nickname_taken"
	EvtUserJoined      = "user_joined"
	EvtExistingUsers   = "existing_users"
	EvtMessageHistory  = "message_history"
	EvtNewMessage      = "new_message"
	EvtNicknameChanged = "nickname_changed"
	EvtUserLeft        = "user_left"
	EvtError           = "error"
)

// Envelope is the JSON frame carried in both directions over the websocket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals the payload into a ready-to-send envelope.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// JoinRoomPayload is the inbound payload for join_room.
type JoinRoomPayload struct {
	RoomID       int64  `json:"roomId"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// SendMessagePayload is the inbound payload for send_message.
type SendMessagePayload struct {
	RoomID       int64  `json:"roomId"`
	Nickname     string `json:"nickname"`
	Content      string `json:"content"`
	FontFamily   string `json:"fontFamily,omitempty"`
	TextColor    string `json:"textColor,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// ChangeNicknamePayload is the inbound payload for change_nickname.
type ChangeNicknamePayload struct {
	RoomID      int64  `json:"roomId"`
	OldNickname string `json:"oldNickname"`
	NewNickname string `json:"newNickname"`
}

// SignalPayload is the inbound payload for the three webrtc_* events. Exactly
// one of Offer, Answer or Candidate is set, depending on the event; the body
// is an opaque blob owned by the peers.
type SignalPayload struct {
	To        string          `json:"to"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// NicknameTakenPayload is unicast to a connection whose claim failed.
type NicknameTakenPayload struct {
	Nickname string `json:"nickname"`
}

// UserEventPayload announces a join or departure to a room.
type UserEventPayload struct {
	Nickname  string    `json:"nickname"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomUser is one entry of the existing_users listing.
type RoomUser struct {
	Nickname string `json:"nickname"`
	UserID   string `json:"userId"`
}

// NewMessagePayload is broadcast for every accepted chat message.
type NewMessagePayload struct {
	Nickname     string    `json:"nickname"`
	Content      string    `json:"content"`
	FontFamily   string    `json:"fontFamily"`
	TextColor    string    `json:"textColor"`
	ProfileImage *string   `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NicknameChangedPayload is broadcast after a successful nickname change.
type NicknameChangedPayload struct {
	OldNickname string `json:"oldNickname"`
	NewNickname string `json:"newNickname"`
}
