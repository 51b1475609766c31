package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// TrackEndFunc is the controller entry point invoked for each completion
// event.
type TrackEndFunc func(ctx context.Context, guildID snowflake.ID, seq uint64, streamErr error)

// TrackEndHandler drains the bus and re-enters the playback controller so
// queue advancement happens off the audio backend's goroutine. Each event is
// dispatched on its own goroutine: advancement resolves the next track over
// the network, and one guild's slow source must not stall every other
// guild's completions. Per-guild ordering is enforced downstream by the
// guild lock and the stream sequence check.
type TrackEndHandler struct {
	onTrackEnd TrackEndFunc
	bus        *Bus

	wg   sync.WaitGroup
	done chan struct{}
}

// NewTrackEndHandler creates a TrackEndHandler.
func NewTrackEndHandler(onTrackEnd TrackEndFunc, bus *Bus) *TrackEndHandler {
	return &TrackEndHandler{
		onTrackEnd: onTrackEnd,
		bus:        bus,
		done:       make(chan struct{}),
	}
}

// Start begins consuming events in a background goroutine.
func (h *TrackEndHandler) Start(ctx context.Context) {
	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.TrackEnded():
				if !ok {
					return
				}
				h.wg.Add(1)
				go func() {
					defer h.wg.Done()
					h.onTrackEnd(ctx, event.GuildID, event.Seq, event.Err)
				}()
			}
		}
	}()

	slog.Debug("track end handler started")
}

// Stop stops the consumer and waits for it and any in-flight dispatches to
// finish.
func (h *TrackEndHandler) Stop() {
	close(h.done)
	h.wg.Wait()
	slog.Debug("track end handler stopped")
}
