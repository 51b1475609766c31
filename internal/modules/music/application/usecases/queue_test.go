package usecases

import (
	"errors"
	"testing"

	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

func newQueueFixture() (*mockRepository, *QueueService) {
	repo := newMockRepository()
	return repo, NewQueueService(repo, NewGuildLocker())
}

func TestQueueService_Add(t *testing.T) {
	guildID := snowflake.ID(1)

	t.Run("appends and returns 1-based position", func(t *testing.T) {
		repo, service := newQueueFixture()
		repo.createSession(guildID, snowflake.ID(4), snowflake.ID(3))

		pos, err := service.Add(guildID, "https://example.com/watch?v=a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pos != 1 {
			t.Errorf("expected position 1, got %d", pos)
		}

		pos, err = service.Add(guildID, "https://example.com/watch?v=b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pos != 2 {
			t.Errorf("expected position 2, got %d", pos)
		}

		queued := repo.Get(guildID).Queue.List()
		if len(queued) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(queued))
		}
		if queued[0].SourceURL != "https://example.com/watch?v=a" {
			t.Errorf("unexpected order: %v", queued)
		}
		if queued[0].Title != domain.UnknownTitle {
			t.Errorf("expected placeholder title, got %q", queued[0].Title)
		}
	})

	t.Run("no session", func(t *testing.T) {
		_, service := newQueueFixture()
		if _, err := service.Add(guildID, "https://example.com/watch?v=a"); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}

func TestQueueService_List(t *testing.T) {
	guildID := snowflake.ID(1)

	t.Run("returns tracks in playback order", func(t *testing.T) {
		repo, service := newQueueFixture()
		session := repo.createSession(guildID, snowflake.ID(4), snowflake.ID(3))
		session.Queue.Enqueue(
			domain.NewPendingTrack("https://example.com/watch?v=a", "A"),
			domain.NewPendingTrack("https://example.com/watch?v=b", "B"),
		)

		tracks, err := service.List(guildID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 || tracks[0].Title != "A" || tracks[1].Title != "B" {
			t.Errorf("unexpected list: %v", tracks)
		}
	})

	t.Run("no session", func(t *testing.T) {
		_, service := newQueueFixture()
		if _, err := service.List(guildID); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}

func TestQueueService_Remove(t *testing.T) {
	guildID := snowflake.ID(1)

	tests := []struct {
		name      string
		position  int
		wantErr   error
		wantTitle string
		wantLeft  int
	}{
		{name: "removes first", position: 1, wantTitle: "A", wantLeft: 2},
		{name: "removes last", position: 3, wantTitle: "C", wantLeft: 2},
		{name: "zero is out of range", position: 0, wantErr: ErrIndexOutOfRange},
		{name: "past the end", position: 4, wantErr: ErrIndexOutOfRange},
		{name: "negative", position: -1, wantErr: ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, service := newQueueFixture()
			session := repo.createSession(guildID, snowflake.ID(4), snowflake.ID(3))
			session.Queue.Enqueue(
				domain.NewPendingTrack("https://example.com/watch?v=a", "A"),
				domain.NewPendingTrack("https://example.com/watch?v=b", "B"),
				domain.NewPendingTrack("https://example.com/watch?v=c", "C"),
			)

			track, err := service.Remove(guildID, tt.position)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				if session.Queue.Len() != 3 {
					t.Errorf("expected queue to be unmodified, got %d", session.Queue.Len())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if track.Title != tt.wantTitle {
				t.Errorf("expected removed track %q, got %q", tt.wantTitle, track.Title)
			}
			if session.Queue.Len() != tt.wantLeft {
				t.Errorf("expected %d tracks left, got %d", tt.wantLeft, session.Queue.Len())
			}
		})
	}

	t.Run("no session", func(t *testing.T) {
		_, service := newQueueFixture()
		if _, err := service.Remove(guildID, 1); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}

func TestQueueService_Clear(t *testing.T) {
	guildID := snowflake.ID(1)

	t.Run("drops all queued tracks", func(t *testing.T) {
		repo, service := newQueueFixture()
		session := repo.createSession(guildID, snowflake.ID(4), snowflake.ID(3))
		session.SetCurrent(resolvedTrack("current"))
		session.SetPlaying(true)
		session.Queue.Enqueue(
			domain.NewPendingTrack("https://example.com/watch?v=a", ""),
			domain.NewPendingTrack("https://example.com/watch?v=b", ""),
		)

		dropped, err := service.Clear(guildID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dropped != 2 {
			t.Errorf("expected 2 dropped, got %d", dropped)
		}
		if !session.Queue.IsEmpty() {
			t.Error("expected empty queue")
		}

		// The current track is unaffected.
		if !session.IsPlaying() || session.Current() == nil {
			t.Error("expected current track to keep playing")
		}
	})

	t.Run("no session", func(t *testing.T) {
		_, service := newQueueFixture()
		if _, err := service.Clear(guildID); !errors.Is(err, ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}
