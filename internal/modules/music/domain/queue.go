package domain

// TrackQueue is the FIFO list of pending tracks awaiting playback in a
// guild. Tracks are removed as they start playing (pop-front advancement);
// loop behavior is the Session's concern, not the queue's.
type TrackQueue struct {
	tracks []PendingTrack
}

// NewTrackQueue creates an empty TrackQueue.
func NewTrackQueue() TrackQueue {
	return TrackQueue{
		tracks: make([]PendingTrack, 0),
	}
}

// IsEmpty returns true if the queue has no tracks.
func (q *TrackQueue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Len returns the number of queued tracks.
func (q *TrackQueue) Len() int {
	return len(q.tracks)
}

// Enqueue appends track(s) to the end of the queue.
func (q *TrackQueue) Enqueue(tracks ...PendingTrack) {
	q.tracks = append(q.tracks, tracks...)
}

// PopFront removes and returns the first track, or nil if the queue is
// empty.
func (q *TrackQueue) PopFront() *PendingTrack {
	if len(q.tracks) == 0 {
		return nil
	}
	track := q.tracks[0]
	q.tracks = q.tracks[1:]
	return &track
}

// RemoveAt removes and returns the track at the given 0-based index.
// Returns nil if the index is out of bounds; the queue is left unmodified.
func (q *TrackQueue) RemoveAt(index int) *PendingTrack {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	track := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	return &track
}

// List returns a copy of all queued tracks in order.
func (q *TrackQueue) List() []PendingTrack {
	result := make([]PendingTrack, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Clear removes all tracks from the queue.
func (q *TrackQueue) Clear() {
	q.tracks = make([]PendingTrack, 0)
}
