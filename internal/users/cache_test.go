package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/trip-sharing/internal/models"
)

// countingDirectory records how many times the backing lookup ran
type countingDirectory struct {
	calls int
	fail  bool
}

func (d *countingDirectory) GetUserName(ctx context.Context, userID string) (string, error) {
	p, err := d.GetUserProfile(ctx, userID)
	return p.Name, err
}

func (d *countingDirectory) GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	d.calls++
	if d.fail {
		return models.UserProfile{}, errors.New("lookup down")
	}
	return models.UserProfile{ID: userID, Name: "Asha"}, nil
}

func TestCachedDirectoryHit(t *testing.T) {
	backing := &countingDirectory{}
	c := NewCachedDirectory(backing, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		name, err := c.GetUserName(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if name != "Asha" {
			t.Fatalf("got %q", name)
		}
	}
	if backing.calls != 1 {
		t.Fatalf("expected one backing call, got %d", backing.calls)
	}
}

func TestCachedDirectoryExpiry(t *testing.T) {
	backing := &countingDirectory{}
	c := NewCachedDirectory(backing, time.Millisecond)
	ctx := context.Background()

	c.GetUserProfile(ctx, "u1")
	time.Sleep(5 * time.Millisecond)
	c.GetUserProfile(ctx, "u1")
	if backing.calls != 2 {
		t.Fatalf("expected expired entry to refetch, calls=%d", backing.calls)
	}
}

func TestCachedDirectoryDoesNotCacheFailures(t *testing.T) {
	backing := &countingDirectory{fail: true}
	c := NewCachedDirectory(backing, time.Minute)
	ctx := context.Background()

	if _, err := c.GetUserProfile(ctx, "u1"); err == nil {
		t.Fatal("expected error")
	}
	backing.fail = false
	p, err := c.GetUserProfile(ctx, "u1")
	if err != nil || p.Name != "Asha" {
		t.Fatalf("expected recovery after failure, got %v %v", p, err)
	}
}
