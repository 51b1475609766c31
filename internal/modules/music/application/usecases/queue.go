package usecases

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

// QueueService exposes pure queue mutations. It shares the guild locker
// with the playback controller so queue edits never race advancement.
type QueueService struct {
	repo   domain.SessionRepository
	locker *GuildLocker
}

// NewQueueService creates a QueueService.
func NewQueueService(repo domain.SessionRepository, locker *GuildLocker) *QueueService {
	return &QueueService{
		repo:   repo,
		locker: locker,
	}
}

// Add appends a track to the guild's queue and returns its 1-based
// position.
func (q *QueueService) Add(guildID snowflake.ID, url string) (int, error) {
	unlock := q.locker.Lock(guildID)
	defer unlock()

	session := q.repo.Get(guildID)
	if session == nil {
		return 0, ErrNotConnected
	}

	session.Queue.Enqueue(domain.NewPendingTrack(url, ""))

	return session.Queue.Len(), nil
}

// List returns the queued tracks in playback order.
func (q *QueueService) List(guildID snowflake.ID) ([]domain.PendingTrack, error) {
	unlock := q.locker.Lock(guildID)
	defer unlock()

	session := q.repo.Get(guildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	return session.Queue.List(), nil
}

// Remove deletes the track at the given 1-based position and returns it.
func (q *QueueService) Remove(guildID snowflake.ID, position int) (*domain.PendingTrack, error) {
	unlock := q.locker.Lock(guildID)
	defer unlock()

	session := q.repo.Get(guildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	track := session.Queue.RemoveAt(position - 1)
	if track == nil {
		return nil, ErrIndexOutOfRange
	}

	return track, nil
}

// Clear empties the queue and returns how many tracks were dropped. The
// current track keeps playing.
func (q *QueueService) Clear(guildID snowflake.ID) (int, error) {
	unlock := q.locker.Lock(guildID)
	defer unlock()

	session := q.repo.Get(guildID)
	if session == nil {
		return 0, ErrNotConnected
	}

	dropped := session.Queue.Len()
	session.Queue.Clear()

	return dropped, nil
}
