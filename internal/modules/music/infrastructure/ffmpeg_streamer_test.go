package infrastructure

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
)

func TestFfmpegArgs(t *testing.T) {
	tests := []struct {
		name        string
		spec        ports.StreamSpec
		wantPrefix  []string
		wantSeek    string
		wantNoFlags []string
	}{
		{
			name: "http source gets reconnect flags",
			spec: ports.StreamSpec{URL: "https://cdn.example.com/media.webm"},
			wantPrefix: []string{
				"-reconnect", "1",
				"-reconnect_streamed", "1",
				"-reconnect_delay_max", "10",
			},
		},
		{
			name:        "local source skips reconnect flags",
			spec:        ports.StreamSpec{URL: "/tmp/sample.webm"},
			wantNoFlags: []string{"-reconnect"},
		},
		{
			name:     "offset becomes input-side seek",
			spec:     ports.StreamSpec{URL: "https://cdn.example.com/media.webm", Offset: 90 * time.Second},
			wantSeek: "90",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := ffmpegArgs(tt.spec)

			for i, want := range tt.wantPrefix {
				if args[i] != want {
					t.Fatalf("expected arg %d to be %q, got %v", i, want, args)
				}
			}
			for _, flag := range tt.wantNoFlags {
				for _, arg := range args {
					if arg == flag {
						t.Errorf("did not expect %q in %v", flag, args)
					}
				}
			}
			if tt.wantSeek != "" {
				found := false
				for i, arg := range args {
					if arg == "-ss" && i+1 < len(args) && args[i+1] == tt.wantSeek {
						found = true
					}
				}
				if !found {
					t.Errorf("expected -ss %s in %v", tt.wantSeek, args)
				}
			}

			// The output format is always pinned to 48kHz stereo s16le.
			last := args[len(args)-1]
			if last != "pipe:1" {
				t.Errorf("expected pipe:1 output, got %q", last)
			}
		})
	}
}

func TestApplyGain(t *testing.T) {
	t.Run("unity gain leaves samples alone", func(t *testing.T) {
		frame := []int16{100, -200, 32767}
		applyGain(frame, 1.0)
		if frame[0] != 100 || frame[1] != -200 || frame[2] != 32767 {
			t.Errorf("unexpected samples: %v", frame)
		}
	})

	t.Run("half gain scales samples", func(t *testing.T) {
		frame := []int16{100, -200}
		applyGain(frame, 0.5)
		if frame[0] != 50 || frame[1] != -100 {
			t.Errorf("unexpected samples: %v", frame)
		}
	})

	t.Run("zero gain silences", func(t *testing.T) {
		frame := []int16{100, -200}
		applyGain(frame, 0)
		if frame[0] != 0 || frame[1] != 0 {
			t.Errorf("unexpected samples: %v", frame)
		}
	})

	t.Run("clips at int16 range", func(t *testing.T) {
		frame := []int16{30000, -30000}
		applyGain(frame, 2.0)
		if frame[0] != math.MaxInt16 {
			t.Errorf("expected positive clip, got %d", frame[0])
		}
		if frame[1] != math.MinInt16 {
			t.Errorf("expected negative clip, got %d", frame[1])
		}
	})
}

type fakeSink struct {
	sent     int
	speaking []bool
}

func (s *fakeSink) Speaking(speaking bool) error {
	s.speaking = append(s.speaking, speaking)
	return nil
}

func (s *fakeSink) CanSend() bool { return true }

func (s *fakeSink) Send([]byte) bool {
	s.sent++
	return true
}

type capturePublisher struct {
	events chan ports.TrackEndedEvent
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{events: make(chan ports.TrackEndedEvent, 1)}
}

func (p *capturePublisher) PublishTrackEnded(event ports.TrackEndedEvent) {
	p.events <- event
}

func pcmFrames(n int) io.Reader {
	// n frames of silence, 960 samples x 2 channels x 2 bytes each.
	return bytes.NewReader(make([]byte, n*audioFrameSize*audioChannels*2))
}

func TestFFmpegStreamer_RunPublishesCompletion(t *testing.T) {
	bus := newCapturePublisher()
	streamer := NewFFmpegStreamer(nil, bus, "")
	guildID := snowflake.ID(1)
	stream := &ffmpegStream{seq: 7}
	stream.setGain(1.0)
	sink := &fakeSink{}

	streamer.run(guildID, stream, sink, pcmFrames(3))

	select {
	case event := <-bus.events:
		if event.GuildID != guildID || event.Seq != 7 {
			t.Errorf("unexpected event: %+v", event)
		}
		if event.Err != nil {
			t.Errorf("expected clean completion, got %v", event.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected completion event")
	}

	if sink.sent != 3 {
		t.Errorf("expected 3 opus frames, got %d", sink.sent)
	}
	if len(sink.speaking) != 2 || !sink.speaking[0] || sink.speaking[1] {
		t.Errorf("expected speaking on then off, got %v", sink.speaking)
	}
}

type failingReader struct {
	inner io.Reader
	err   error
}

func (r *failingReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if errors.Is(err, io.EOF) {
		return n, r.err
	}
	return n, err
}

func TestFFmpegStreamer_RunPublishesStreamError(t *testing.T) {
	bus := newCapturePublisher()
	streamer := NewFFmpegStreamer(nil, bus, "")
	stream := &ffmpegStream{seq: 2}
	stream.setGain(1.0)

	wantErr := errors.New("broken pipe")
	reader := &failingReader{inner: pcmFrames(1), err: wantErr}

	streamer.run(snowflake.ID(1), stream, &fakeSink{}, reader)

	select {
	case event := <-bus.events:
		if !errors.Is(event.Err, wantErr) {
			t.Errorf("expected stream error, got %v", event.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected completion event")
	}
}

// stuckSink refuses every frame, as a voice connection does once its send
// loop has died.
type stuckSink struct {
	fakeSink
}

func (s *stuckSink) Send([]byte) bool { return false }

func TestFFmpegStreamer_RunEndsWhenSinkStopsAcceptingFrames(t *testing.T) {
	bus := newCapturePublisher()
	streamer := NewFFmpegStreamer(nil, bus, "")
	stream := &ffmpegStream{seq: 5}
	stream.setGain(1.0)

	done := make(chan struct{})
	go func() {
		streamer.run(snowflake.ID(1), stream, &stuckSink{}, pcmFrames(3))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the sink stopped accepting frames")
	}

	select {
	case event := <-bus.events:
		if event.Seq != 5 {
			t.Errorf("unexpected event: %+v", event)
		}
		if event.Err == nil {
			t.Error("expected an error for a dead voice connection")
		}
	case <-time.After(time.Second):
		t.Fatal("expected completion event")
	}
}

func TestFFmpegStreamer_StoppedStreamStaysSilent(t *testing.T) {
	bus := newCapturePublisher()
	streamer := NewFFmpegStreamer(nil, bus, "")
	stream := &ffmpegStream{seq: 3}
	stream.setGain(1.0)
	stream.stopped.Store(true)

	streamer.run(snowflake.ID(1), stream, &fakeSink{}, pcmFrames(3))

	select {
	case event := <-bus.events:
		t.Errorf("expected no event for stopped stream, got %+v", event)
	default:
	}
}
