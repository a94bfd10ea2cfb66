package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// fakeRegistry is an in-memory NicknameRegistry recording the order of claim
// and release operations.
type fakeRegistry struct {
	mu       sync.Mutex
	claimed  map[string]bool
	ops      []string
	availErr error
	claimErr error

	// availAlways makes IsAvailable report true regardless of claims,
	// simulating the advisory read racing with another connection's claim.
	availAlways bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{claimed: make(map[string]bool)}
}

func (f *fakeRegistry) IsAvailable(_ context.Context, nickname string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.availErr != nil {
		return false, f.availErr
	}
	if f.availAlways {
		return true, nil
	}
	return !f.claimed[nickname], nil
}

func (f *fakeRegistry) Claim(_ context.Context, nickname string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	f.ops = append(f.ops, "claim:"+nickname)
	if f.claimed[nickname] {
		return false, nil
	}
	f.claimed[nickname] = true
	return true, nil
}

func (f *fakeRegistry) Release(_ context.Context, nickname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "release:"+nickname)
	delete(f.claimed, nickname)
	return nil
}

func (f *fakeRegistry) isClaimed(nickname string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claimed[nickname]
}

func (f *fakeRegistry) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

type appendedMessage struct {
	roomID     int64
	nickname   string
	content    string
	fontFamily string
}

// fakeMessageStore is an in-memory MessageStore with an injectable failure.
type fakeMessageStore struct {
	mu        sync.Mutex
	appended  []appendedMessage
	appendErr error
}

func (f *fakeMessageStore) Append(_ context.Context, roomID int64, nickname, content, fontFamily string, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, appendedMessage{roomID: roomID, nickname: nickname, content: content, fontFamily: fontFamily})
	return nil
}

func (f *fakeMessageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

// newTestSession wires a coordinator over fakes and returns the pieces tests
// poke at directly.
func newTestSession() (*Coordinator, *Hub, *fakeRegistry, *fakeMessageStore) {
	registry := newFakeRegistry()
	messages := &fakeMessageStore{}
	hub := NewHub()
	return NewCoordinator(registry, messages, hub), hub, registry, messages
}

// joinClient registers a connection and drives it through a successful join.
func joinClient(t *testing.T, co *Coordinator, hub *Hub, id, nickname string, roomID int64) *Client {
	t.Helper()

	c := NewClient(id, co, nil)
	hub.Register(c)
	co.HandleJoin(context.Background(), c, JoinRoomPayload{RoomID: roomID, Nickname: nickname})

	if _, ok := co.Presence().Get(id); !ok {
		t.Fatalf("client %s did not join", id)
	}
	return c
}

// drain discards every queued frame.
func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func TestJoinSendsRoomStateToJoiner(t *testing.T) {
	co, hub, _, _ := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)

	// Joiner gets the member list and the (empty) history, in that order, and
	// never its own user_joined.
	first := recvEnvelope(t, a)
	if first.Event != EvtExistingUsers {
		t.Fatalf("first event = %q, want %q", first.Event, EvtExistingUsers)
	}
	var users []RoomUser
	if err := json.Unmarshal(first.Data, &users); err != nil {
		t.Fatalf("existing_users payload: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("existing_users for first joiner = %v, want empty", users)
	}

	second := recvEnvelope(t, a)
	if second.Event != EvtMessageHistory {
		t.Fatalf("second event = %q, want %q", second.Event, EvtMessageHistory)
	}
	var history []NewMessagePayload
	if err := json.Unmarshal(second.Data, &history); err != nil {
		t.Fatalf("message_history payload: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("message_history = %d entries, want 0", len(history))
	}

	requireNoFrame(t, a)
}

func TestJoinAnnouncesToPeersOnly(t *testing.T) {
	co, hub, _, _ := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)

	b := joinClient(t, co, hub, "b", "bob", 1)

	joined := recvEnvelope(t, a)
	if joined.Event != EvtUserJoined {
		t.Fatalf("peer event = %q, want %q", joined.Event, EvtUserJoined)
	}
	var announce UserEventPayload
	if err := json.Unmarshal(joined.Data, &announce); err != nil {
		t.Fatalf("user_joined payload: %v", err)
	}
	if announce.Nickname != "bob" || announce.UserID != "b" {
		t.Errorf("user_joined = %+v, want bob/b", announce)
	}

	listing := recvEnvelope(t, b)
	if listing.Event != EvtExistingUsers {
		t.Fatalf("joiner event = %q, want %q", listing.Event, EvtExistingUsers)
	}
	var users []RoomUser
	if err := json.Unmarshal(listing.Data, &users); err != nil {
		t.Fatalf("existing_users payload: %v", err)
	}
	if len(users) != 1 || users[0].UserID != "a" {
		t.Errorf("existing_users = %v, want only alice/a", users)
	}
}

func TestJoinRejectsTakenNickname(t *testing.T) {
	co, hub, registry, _ := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)

	b := NewClient("b", co, nil)
	hub.Register(b)
	co.HandleJoin(context.Background(), b, JoinRoomPayload{RoomID: 1, Nickname: "alice"})

	taken := recvEnvelope(t, b)
	if taken.Event != EvtNicknameTaken {
		t.Fatalf("event = %q, want %q", taken.Event, EvtNicknameTaken)
	}

	if _, ok := co.Presence().Get("b"); ok {
		t.Error("rejected connection has a presence record")
	}
	requireNoFrame(t, a)
	if !registry.isClaimed("alice") {
		t.Error("original claim lost after rejected join")
	}
}

func TestJoinLosesClaimRace(t *testing.T) {
	co, hub, registry, _ := newTestSession()
	registry.availAlways = true

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)

	// The availability read lies, so the join only fails at the claim.
	b := NewClient("b", co, nil)
	hub.Register(b)
	co.HandleJoin(context.Background(), b, JoinRoomPayload{RoomID: 1, Nickname: "alice"})

	taken := recvEnvelope(t, b)
	if taken.Event != EvtNicknameTaken {
		t.Fatalf("event = %q, want %q", taken.Event, EvtNicknameTaken)
	}
	if _, ok := co.Presence().Get("b"); ok {
		t.Error("connection that lost the claim race has a presence record")
	}
	requireNoFrame(t, a)
}

func TestConcurrentJoinsSameNicknameExactlyOneWins(t *testing.T) {
	co, hub, registry, _ := newTestSession()
	registry.availAlways = true

	a := NewClient("a", co, nil)
	b := NewClient("b", co, nil)
	hub.Register(a)
	hub.Register(b)

	var wg sync.WaitGroup
	for _, c := range []*Client{a, b} {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			co.HandleJoin(context.Background(), c, JoinRoomPayload{RoomID: 1, Nickname: "alice"})
		}(c)
	}
	wg.Wait()

	joined := 0
	rejected := 0
	for _, c := range []*Client{a, b} {
		if _, ok := co.Presence().Get(c.ID()); ok {
			joined++
			continue
		}
		env := recvEnvelope(t, c)
		if env.Event != EvtNicknameTaken {
			t.Errorf("loser's event = %q, want %q", env.Event, EvtNicknameTaken)
		}
		rejected++
	}
	if joined != 1 || rejected != 1 {
		t.Fatalf("joined = %d, rejected = %d, want exactly one of each", joined, rejected)
	}
	if !registry.isClaimed("alice") {
		t.Error("nickname not claimed after the winning join")
	}
}

func TestJoinPermissiveWhenRegistryFails(t *testing.T) {
	co, hub, registry, _ := newTestSession()
	registry.availErr = errors.New("registry down")
	registry.claimErr = errors.New("registry down")

	a := NewClient("a", co, nil)
	hub.Register(a)
	co.HandleJoin(context.Background(), a, JoinRoomPayload{RoomID: 1, Nickname: "alice"})

	if _, ok := co.Presence().Get("a"); !ok {
		t.Fatal("join failed while registry errors should be permissive")
	}
}

func TestJoinRequiresNickname(t *testing.T) {
	co, hub, _, _ := newTestSession()

	a := NewClient("a", co, nil)
	hub.Register(a)
	co.HandleJoin(context.Background(), a, JoinRoomPayload{RoomID: 1})

	envelope := recvEnvelope(t, a)
	if envelope.Event != EvtError {
		t.Errorf("event = %q, want %q", envelope.Event, EvtError)
	}
	if _, ok := co.Presence().Get("a"); ok {
		t.Error("connection joined without a nickname")
	}
}

func TestSendMessageBroadcastsWithDefaults(t *testing.T) {
	co, hub, _, messages := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)
	b := joinClient(t, co, hub, "b", "bob", 1)
	drain(a)
	drain(b)

	co.HandleSendMessage(context.Background(), a, SendMessagePayload{Content: "hello"})

	for _, member := range []*Client{a, b} {
		envelope := recvEnvelope(t, member)
		if envelope.Event != EvtNewMessage {
			t.Fatalf("client %s event = %q, want %q", member.ID(), envelope.Event, EvtNewMessage)
		}
		var msg NewMessagePayload
		if err := json.Unmarshal(envelope.Data, &msg); err != nil {
			t.Fatalf("new_message payload: %v", err)
		}
		if msg.Nickname != "alice" || msg.Content != "hello" {
			t.Errorf("new_message = %+v, want alice saying hello", msg)
		}
		if msg.FontFamily != DefaultFontFamily {
			t.Errorf("fontFamily = %q, want %q", msg.FontFamily, DefaultFontFamily)
		}
		if msg.TextColor != DefaultTextColor {
			t.Errorf("textColor = %q, want %q", msg.TextColor, DefaultTextColor)
		}
	}

	if messages.count() != 1 {
		t.Errorf("persisted %d messages, want 1", messages.count())
	}
}

func TestSendMessagePersistFailureNotifiesSenderOnly(t *testing.T) {
	co, hub, _, messages := newTestSession()
	messages.appendErr = errors.New("disk on fire")

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)
	b := joinClient(t, co, hub, "b", "bob", 1)
	drain(a)
	drain(b)

	co.HandleSendMessage(context.Background(), a, SendMessagePayload{Content: "hello"})

	envelope := recvEnvelope(t, a)
	if envelope.Event != EvtError {
		t.Errorf("sender event = %q, want %q", envelope.Event, EvtError)
	}
	requireNoFrame(t, b)
}

func TestSendMessageRejectsOversizedContent(t *testing.T) {
	co, hub, _, messages := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)

	co.HandleSendMessage(context.Background(), a, SendMessagePayload{Content: strings.Repeat("x", MaxContentBytes+1)})

	envelope := recvEnvelope(t, a)
	if envelope.Event != EvtError {
		t.Errorf("event = %q, want %q", envelope.Event, EvtError)
	}
	if messages.count() != 0 {
		t.Errorf("oversized message was persisted")
	}
}

func TestSendMessageRequiresJoin(t *testing.T) {
	co, hub, _, messages := newTestSession()

	a := NewClient("a", co, nil)
	hub.Register(a)

	co.HandleSendMessage(context.Background(), a, SendMessagePayload{Content: "hello"})

	envelope := recvEnvelope(t, a)
	if envelope.Event != EvtError {
		t.Errorf("event = %q, want %q", envelope.Event, EvtError)
	}
	if messages.count() != 0 {
		t.Error("message persisted for a connection that never joined")
	}
}

func TestChangeNicknameClaimsNewBeforeReleasingOld(t *testing.T) {
	co, hub, registry, _ := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)

	co.HandleChangeNickname(context.Background(), a, ChangeNicknamePayload{NewNickname: "alicia"})

	ops := registry.opLog()
	claimIdx, releaseIdx := -1, -1
	for i, op := range ops {
		switch op {
		case "claim:alicia":
			claimIdx = i
		case "release:alice":
			releaseIdx = i
		}
	}
	if claimIdx == -1 || releaseIdx == -1 || claimIdx > releaseIdx {
		t.Errorf("operation order = %v, want claim of new name before release of old", ops)
	}

	participant, _ := co.Presence().Get("a")
	if participant.Nickname != "alicia" {
		t.Errorf("presence nickname = %q, want %q", participant.Nickname, "alicia")
	}

	envelope := recvEnvelope(t, a)
	if envelope.Event != EvtNicknameChanged {
		t.Fatalf("event = %q, want %q", envelope.Event, EvtNicknameChanged)
	}
	var changed NicknameChangedPayload
	if err := json.Unmarshal(envelope.Data, &changed); err != nil {
		t.Fatalf("nickname_changed payload: %v", err)
	}
	if changed.OldNickname != "alice" || changed.NewNickname != "alicia" {
		t.Errorf("nickname_changed = %+v", changed)
	}
}

func TestChangeNicknameKeepsOldClaimWhenTargetTaken(t *testing.T) {
	co, hub, registry, _ := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)
	b := joinClient(t, co, hub, "b", "bob", 1)
	drain(a)
	drain(b)

	co.HandleChangeNickname(context.Background(), a, ChangeNicknamePayload{NewNickname: "bob"})

	envelope := recvEnvelope(t, a)
	if envelope.Event != EvtNicknameTaken {
		t.Fatalf("event = %q, want %q", envelope.Event, EvtNicknameTaken)
	}

	if !registry.isClaimed("alice") {
		t.Error("old claim released after failed change")
	}
	participant, _ := co.Presence().Get("a")
	if participant.Nickname != "alice" {
		t.Errorf("presence nickname = %q, want unchanged %q", participant.Nickname, "alice")
	}
	requireNoFrame(t, b)
}

func TestDisconnectReleasesClaimAndAnnounces(t *testing.T) {
	co, hub, registry, _ := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)
	b := joinClient(t, co, hub, "b", "bob", 1)
	drain(a)
	drain(b)

	co.HandleDisconnect(context.Background(), a)

	if registry.isClaimed("alice") {
		t.Error("nickname still claimed after disconnect")
	}
	if _, ok := co.Presence().Get("a"); ok {
		t.Error("presence record survived disconnect")
	}

	envelope := recvEnvelope(t, b)
	if envelope.Event != EvtUserLeft {
		t.Fatalf("event = %q, want %q", envelope.Event, EvtUserLeft)
	}
	var left UserEventPayload
	if err := json.Unmarshal(envelope.Data, &left); err != nil {
		t.Fatalf("user_left payload: %v", err)
	}
	if left.Nickname != "alice" || left.UserID != "a" {
		t.Errorf("user_left = %+v, want alice/a", left)
	}

	// The freed nickname is claimable again.
	c := joinClient(t, co, hub, "c", "alice", 1)
	if _, ok := co.Presence().Get(c.ID()); !ok {
		t.Error("released nickname could not be reclaimed")
	}
}

func TestDisconnectBeforeJoinIsSilent(t *testing.T) {
	co, hub, _, _ := newTestSession()

	a := NewClient("a", co, nil)
	hub.Register(a)
	b := joinClient(t, co, hub, "b", "bob", 1)
	drain(b)

	co.HandleDisconnect(context.Background(), a)

	requireNoFrame(t, b)
}

func TestSignalRelayAddsSenderIdentity(t *testing.T) {
	co, hub, _, _ := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)
	b := joinClient(t, co, hub, "b", "bob", 1)
	drain(a)
	drain(b)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0 mangled-on-purpose"}`)
	co.HandleSignal(a, SignalOffer, SignalPayload{To: "b", Offer: offer})

	envelope := recvEnvelope(t, b)
	if envelope.Event != EvtWebRTCOffer {
		t.Fatalf("event = %q, want %q", envelope.Event, EvtWebRTCOffer)
	}

	var relayed struct {
		From  string          `json:"from"`
		Offer json.RawMessage `json:"offer"`
	}
	if err := json.Unmarshal(envelope.Data, &relayed); err != nil {
		t.Fatalf("relayed payload: %v", err)
	}
	if relayed.From != "a" {
		t.Errorf("from = %q, want %q", relayed.From, "a")
	}

	// The body must pass through byte-for-byte semantically.
	var want, got map[string]any
	if err := json.Unmarshal(offer, &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(relayed.Offer, &got); err != nil {
		t.Fatalf("relayed offer body: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("relayed offer = %v, want %v", got, want)
	}
}

func TestSignalToDisconnectedTargetIsDropped(t *testing.T) {
	co, hub, _, _ := newTestSession()

	a := joinClient(t, co, hub, "a", "alice", 1)
	drain(a)

	co.HandleSignal(a, SignalCandidate, SignalPayload{To: "ghost", Candidate: json.RawMessage(`{}`)})

	requireNoFrame(t, a)
}
