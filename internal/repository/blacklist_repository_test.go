package repository

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/westservices/ticketd/internal/config"
	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/persistence"
)

func newBlacklistRepo(t *testing.T) BlacklistRepository {
	t.Helper()
	store, err := persistence.NewFileStore(config.StorageConfig{DataDir: t.TempDir()}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	repo, err := NewBlacklistRepository(store)
	if err != nil {
		t.Fatalf("NewBlacklistRepository: %v", err)
	}
	return repo
}

func TestBlacklistAddDoesNotDeduplicate(t *testing.T) {
	repo := newBlacklistRepo(t)

	entry := domain.BlacklistEntry{UserID: "user-1", Reason: "spam", AddedBy: "staff-1", AddedAt: time.Now().UTC()}
	if err := repo.Add(entry); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(entry); err != nil {
		t.Fatalf("Add repeat: %v", err)
	}

	if got := len(repo.Entries()); got != 2 {
		t.Errorf("Entries len = %d after duplicate add, want 2", got)
	}
	if !repo.Contains("user-1") {
		t.Error("Contains(user-1) = false, want true")
	}
}

func TestBlacklistRemoveDropsAllEntries(t *testing.T) {
	repo := newBlacklistRepo(t)

	for i := 0; i < 2; i++ {
		if err := repo.Add(domain.BlacklistEntry{UserID: "user-1", Reason: "spam"}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := repo.Add(domain.BlacklistEntry{UserID: "user-2", Reason: "abuse"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed, err := repo.Remove("user-1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("Remove(user-1) = false, want true")
	}
	if repo.Contains("user-1") {
		t.Error("user-1 still blacklisted after remove")
	}
	if !repo.Contains("user-2") {
		t.Error("remove dropped an unrelated user")
	}

	removed, err = repo.Remove("user-absent")
	if err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
	if removed {
		t.Error("Remove(absent) = true, want false")
	}
}
