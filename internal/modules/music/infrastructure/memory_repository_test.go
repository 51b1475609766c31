package infrastructure

import (
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

func TestMemoryRepository_Get(t *testing.T) {
	repo := NewMemoryRepository()
	guildID := snowflake.ID(123)

	// Get should return nil if session doesn't exist
	if repo.Get(guildID) != nil {
		t.Fatal("expected nil for non-existent session")
	}

	session := domain.NewSession(guildID, snowflake.ID(100), snowflake.ID(200))
	repo.Save(session)

	if got := repo.Get(guildID); got != session {
		t.Error("expected same session instance after save")
	}

	if repo.Get(snowflake.ID(456)) != nil {
		t.Error("expected nil for different guild")
	}
}

func TestMemoryRepository_Save(t *testing.T) {
	repo := NewMemoryRepository()
	guildID := snowflake.ID(123)

	session := domain.NewSession(guildID, snowflake.ID(100), snowflake.ID(200))
	repo.Save(session)

	// Save again should overwrite
	newSession := domain.NewSession(guildID, snowflake.ID(300), snowflake.ID(400))
	repo.Save(newSession)

	if got := repo.Get(guildID); got != newSession {
		t.Error("expected new session after overwrite")
	}
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	guildID := snowflake.ID(123)

	repo.Save(domain.NewSession(guildID, snowflake.ID(100), snowflake.ID(200)))
	repo.Delete(guildID)

	if repo.Get(guildID) != nil {
		t.Error("expected nil after delete")
	}
}

func TestMemoryRepository_Count(t *testing.T) {
	repo := NewMemoryRepository()

	if repo.Count() != 0 {
		t.Errorf("expected count 0, got %d", repo.Count())
	}

	repo.Save(domain.NewSession(snowflake.ID(1), snowflake.ID(100), snowflake.ID(200)))
	repo.Save(domain.NewSession(snowflake.ID(2), snowflake.ID(100), snowflake.ID(200)))
	if repo.Count() != 2 {
		t.Errorf("expected count 2, got %d", repo.Count())
	}

	repo.Delete(snowflake.ID(1))
	if repo.Count() != 1 {
		t.Errorf("expected count 1 after delete, got %d", repo.Count())
	}
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository()
	var wg sync.WaitGroup

	// Concurrent saves for different guilds
	for i := range 100 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			guildID := snowflake.ID(id)
			repo.Save(domain.NewSession(guildID, snowflake.ID(100), snowflake.ID(200)))
		}(i)
	}

	wg.Wait()

	if repo.Count() != 100 {
		t.Errorf("expected 100 sessions, got %d", repo.Count())
	}

	// Concurrent gets
	for i := range 100 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if repo.Get(snowflake.ID(id)) == nil {
				t.Errorf("expected non-nil session for guild %d", id)
			}
		}(i)
	}

	wg.Wait()
}
