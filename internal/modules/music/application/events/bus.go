package events

import (
	"log/slog"
	"sync"

	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time check that Bus implements ports.TrackEndPublisher.
var _ ports.TrackEndPublisher = (*Bus)(nil)

// Bus is a channel-based event bus carrying stream completion events from
// the audio backend to the playback controller.
type Bus struct {
	trackEnded chan ports.TrackEndedEvent

	closed bool
	mu     sync.RWMutex
}

// NewBus creates a Bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	return &Bus{
		trackEnded: make(chan ports.TrackEndedEvent, bufferSize),
	}
}

// PublishTrackEnded publishes a TrackEndedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a
// warning.
func (b *Bus) PublishTrackEnded(event ports.TrackEndedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackEnded")
		return
	}

	select {
	case b.trackEnded <- event:
		slog.Debug("published event", "type", "TrackEnded", "guild", event.GuildID, "seq", event.Seq)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnded")
	}
}

// TrackEnded returns the channel for TrackEndedEvent.
func (b *Bus) TrackEnded() <-chan ports.TrackEndedEvent {
	return b.trackEnded
}

// Close closes the event channel. After calling Close, publishing no longer
// sends events.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.trackEnded)

	slog.Debug("event bus closed")
}
