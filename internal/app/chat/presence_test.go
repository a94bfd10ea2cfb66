package chat

import (
	"testing"
)

func TestPresenceTableAddGetRemove(t *testing.T) {
	table := NewPresenceTable()

	table.Add(Participant{ConnID: "c1", Nickname: "alice", RoomID: 1})

	got, ok := table.Get("c1")
	if !ok {
		t.Fatal("Get() after Add() returned ok = false")
	}
	if got.Nickname != "alice" || got.RoomID != 1 {
		t.Errorf("Get() = %+v, want alice in room 1", got)
	}

	removed, ok := table.Remove("c1")
	if !ok {
		t.Fatal("Remove() returned ok = false for present connection")
	}
	if removed.Nickname != "alice" {
		t.Errorf("Remove() returned %+v, want alice", removed)
	}

	if _, ok := table.Get("c1"); ok {
		t.Error("Get() after Remove() returned ok = true")
	}

	if _, ok := table.Remove("c1"); ok {
		t.Error("second Remove() returned ok = true")
	}
}

func TestPresenceTableUpdateNickname(t *testing.T) {
	table := NewPresenceTable()
	table.Add(Participant{ConnID: "c1", Nickname: "alice", RoomID: 1})

	if ok := table.UpdateNickname("c1", "alicia"); !ok {
		t.Fatal("UpdateNickname() returned false for present connection")
	}

	got, _ := table.Get("c1")
	if got.Nickname != "alicia" {
		t.Errorf("nickname after update = %q, want %q", got.Nickname, "alicia")
	}

	if ok := table.UpdateNickname("ghost", "x"); ok {
		t.Error("UpdateNickname() returned true for unknown connection")
	}
}

func TestPresenceTableListByRoom(t *testing.T) {
	table := NewPresenceTable()
	table.Add(Participant{ConnID: "c1", Nickname: "alice", RoomID: 1})
	table.Add(Participant{ConnID: "c2", Nickname: "bob", RoomID: 1})
	table.Add(Participant{ConnID: "c3", Nickname: "carol", RoomID: 2})

	listed := table.ListByRoom(1, "c2")
	if len(listed) != 1 {
		t.Fatalf("ListByRoom(1, c2) returned %d participants, want 1", len(listed))
	}
	if listed[0].ConnID != "c1" {
		t.Errorf("ListByRoom(1, c2)[0].ConnID = %q, want %q", listed[0].ConnID, "c1")
	}

	if got := table.ListByRoom(3, ""); len(got) != 0 {
		t.Errorf("ListByRoom(3) returned %d participants, want 0", len(got))
	}

	if got := table.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}
