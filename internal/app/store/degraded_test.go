package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Without a database pool the registry must stay permissive and the message
// log must degrade to a no-op, so chat keeps working during an outage.

func TestNicknameRegistryWithoutPool(t *testing.T) {
	registry := NewNicknameRegistry(nil)
	ctx := context.Background()

	available, err := registry.IsAvailable(ctx, "alice")
	if err != nil {
		t.Fatalf("IsAvailable() error = %v", err)
	}
	if !available {
		t.Error("IsAvailable() = false, want true without a pool")
	}

	claimed, err := registry.Claim(ctx, "alice")
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if !claimed {
		t.Error("Claim() = false, want true without a pool")
	}

	if err := registry.Release(ctx, "alice"); err != nil {
		t.Errorf("Release() error = %v", err)
	}

	if err := registry.ReleaseAll(ctx); err != nil {
		t.Errorf("ReleaseAll() error = %v", err)
	}
}

func TestMessageStoreWithoutPool(t *testing.T) {
	messages := NewMessageStore(nil)
	ctx := context.Background()

	if err := messages.Append(ctx, 1, "alice", "hello", "sans-serif", nil); err != nil {
		t.Errorf("Append() error = %v, want nil", err)
	}

	recent, err := messages.Recent(ctx, 1, 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Recent() = %d messages, want 0", len(recent))
	}
}

func TestRoomStoreWithoutPool(t *testing.T) {
	rooms := NewRoomStore(nil)
	ctx := context.Background()

	if _, err := rooms.GetOrCreate(ctx, "lobby"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetOrCreate() error = %v, want ErrUnavailable", err)
	}

	if _, err := rooms.GetByID(ctx, 1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetByID() error = %v, want ErrUnavailable", err)
	}
}

func TestAccountStoreWithoutPool(t *testing.T) {
	accounts := NewAccountStore(nil)
	ctx := context.Background()

	if _, err := accounts.Create(ctx, "a@b.c", "alice", "alice", "hash", "token"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Create() error = %v, want ErrUnavailable", err)
	}

	if _, err := accounts.GetByIdentifier(ctx, "alice"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetByIdentifier() error = %v, want ErrUnavailable", err)
	}

	if err := accounts.VerifyEmail(ctx, "token"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("VerifyEmail() error = %v, want ErrUnavailable", err)
	}

	if _, err := accounts.SetResetToken(ctx, "a@b.c", "token", time.Now()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("SetResetToken() error = %v, want ErrUnavailable", err)
	}

	if _, err := accounts.DeleteStale(ctx, time.Now()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("DeleteStale() error = %v, want ErrUnavailable", err)
	}
}
