package infrastructure

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"layeh.com/gopus"

	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
)

const (
	audioChannels  = 2
	audioFrameRate = 48000
	audioFrameSize = 960
	maxOpusBytes   = (audioFrameSize * 2) * 2

	pausePollInterval = 100 * time.Millisecond
	frameSendTimeout  = time.Second
)

// ffmpegStream is one running decode process.
type ffmpegStream struct {
	cmd *exec.Cmd
	seq uint64

	paused  atomic.Bool
	stopped atomic.Bool // deliberate stop: suppress the completion event
	gain    atomic.Uint64
}

func (s *ffmpegStream) setGain(volume float64) {
	s.gain.Store(math.Float64bits(volume))
}

func (s *ffmpegStream) getGain() float64 {
	return math.Float64frombits(s.gain.Load())
}

// FFmpegStreamer decodes a stream URL with ffmpeg, encodes the PCM output
// to opus and feeds it to the guild's voice connection. Completion is
// reported through the event bus exactly once per stream; deliberately
// stopped streams report nothing.
type FFmpegStreamer struct {
	voice  *DiscordVoice
	bus    ports.TrackEndPublisher
	binary string

	mu      sync.Mutex
	streams map[snowflake.ID]*ffmpegStream
}

// NewFFmpegStreamer creates an FFmpegStreamer. ffmpegBinary overrides the
// binary looked up on PATH; empty means "ffmpeg".
func NewFFmpegStreamer(voice *DiscordVoice, bus ports.TrackEndPublisher, ffmpegBinary string) *FFmpegStreamer {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}

	return &FFmpegStreamer{
		voice:   voice,
		bus:     bus,
		binary:  ffmpegBinary,
		streams: make(map[snowflake.ID]*ffmpegStream),
	}
}

// ffmpegArgs builds the decode command line. Reconnect flags let ffmpeg
// ride out CDN hiccups on long tracks; the seek offset is applied on the
// input side so ffmpeg can skip without decoding the prefix.
func ffmpegArgs(spec ports.StreamSpec) []string {
	args := make([]string, 0, 20)

	if strings.HasPrefix(spec.URL, "http://") || strings.HasPrefix(spec.URL, "https://") {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "10",
		)
	}
	if spec.Offset > 0 {
		args = append(args, "-ss", strconv.FormatInt(int64(spec.Offset/time.Second), 10))
	}

	args = append(args,
		"-i", spec.URL,
		"-vn",
		"-bufsize", "1M",
		"-f", "s16le",
		"-ar", strconv.Itoa(audioFrameRate),
		"-ac", strconv.Itoa(audioChannels),
		"pipe:1",
	)

	return args
}

// voiceFrameSink is the subset of a voice connection the streamer needs.
// Send reports whether the frame was accepted; a false return means the
// connection stopped draining frames and the stream should end.
type voiceFrameSink interface {
	Speaking(speaking bool) error
	CanSend() bool
	Send(opus []byte) bool
}

type discordFrameSink struct {
	vc *discordgo.VoiceConnection
}

func (d discordFrameSink) Speaking(speaking bool) error {
	return d.vc.Speaking(speaking)
}

func (d discordFrameSink) CanSend() bool {
	return d.vc.Ready && d.vc.OpusSend != nil
}

// Send pushes one opus frame with a timeout. The connection can stop
// draining OpusSend between the CanSend check and the send (reconnect,
// kick), and a bare channel send would strand this goroutine forever.
func (d discordFrameSink) Send(opus []byte) bool {
	timer := time.NewTimer(frameSendTimeout)
	defer timer.Stop()

	select {
	case d.vc.OpusSend <- opus:
		return true
	case <-timer.C:
		return false
	}
}

// Start implements ports.AudioStreamer. The context bounds only process
// startup; the stream itself runs until completion or Stop.
func (f *FFmpegStreamer) Start(_ context.Context, guildID snowflake.ID, spec ports.StreamSpec) error {
	vc, ok := f.voice.Connection(guildID)
	if !ok {
		return errors.New("no voice connection for guild")
	}

	f.mu.Lock()
	if existing, ok := f.streams[guildID]; ok {
		existing.stopped.Store(true)
		killStream(existing)
		delete(f.streams, guildID)
	}
	f.mu.Unlock()

	cmd := exec.Command(f.binary, ffmpegArgs(spec)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	stream := &ffmpegStream{
		cmd: cmd,
		seq: spec.Seq,
	}
	stream.setGain(spec.Volume)

	f.mu.Lock()
	f.streams[guildID] = stream
	f.mu.Unlock()

	slog.Debug("stream started", "guild", guildID, "seq", spec.Seq, "offset", spec.Offset)

	go f.run(guildID, stream, discordFrameSink{vc: vc}, bufio.NewReaderSize(stdout, 16384))

	return nil
}

// Ensure FFmpegStreamer implements AudioStreamer.
var _ ports.AudioStreamer = (*FFmpegStreamer)(nil)

// Stop implements ports.AudioStreamer.
func (f *FFmpegStreamer) Stop(guildID snowflake.ID) {
	f.mu.Lock()
	stream, ok := f.streams[guildID]
	if ok {
		stream.stopped.Store(true)
		killStream(stream)
		delete(f.streams, guildID)
	}
	f.mu.Unlock()
}

// Pause implements ports.AudioStreamer.
func (f *FFmpegStreamer) Pause(guildID snowflake.ID) {
	if stream := f.current(guildID); stream != nil {
		stream.paused.Store(true)
	}
}

// Resume implements ports.AudioStreamer.
func (f *FFmpegStreamer) Resume(guildID snowflake.ID) {
	if stream := f.current(guildID); stream != nil {
		stream.paused.Store(false)
	}
}

// SetVolume implements ports.AudioStreamer.
func (f *FFmpegStreamer) SetVolume(guildID snowflake.ID, volume float64) bool {
	stream := f.current(guildID)
	if stream == nil {
		return false
	}
	stream.setGain(volume)
	return true
}

func (f *FFmpegStreamer) current(guildID snowflake.ID) *ffmpegStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[guildID]
}

// run pumps decoded frames to the voice connection until the process ends.
func (f *FFmpegStreamer) run(guildID snowflake.ID, stream *ffmpegStream, vc voiceFrameSink, pcm io.Reader) {
	var streamErr error

	_ = vc.Speaking(true)
	defer func() { _ = vc.Speaking(false) }()

	encoder, err := gopus.NewEncoder(audioFrameRate, audioChannels, gopus.Audio)
	if err != nil {
		streamErr = fmt.Errorf("failed to create opus encoder: %w", err)
		f.finish(guildID, stream, streamErr)
		return
	}

	frame := make([]int16, audioFrameSize*audioChannels)
	for {
		if stream.stopped.Load() {
			f.finish(guildID, stream, nil)
			return
		}

		for stream.paused.Load() && !stream.stopped.Load() {
			time.Sleep(pausePollInterval)
		}

		if err := binary.Read(pcm, binary.LittleEndian, &frame); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !stream.stopped.Load() {
				streamErr = err
			}
			f.finish(guildID, stream, streamErr)
			return
		}

		applyGain(frame, stream.getGain())

		opus, err := encoder.Encode(frame, audioFrameSize, maxOpusBytes)
		if err != nil {
			f.finish(guildID, stream, fmt.Errorf("opus encode failed: %w", err))
			return
		}

		if !vc.CanSend() {
			f.finish(guildID, stream, errors.New("voice connection not ready"))
			return
		}
		if !vc.Send(opus) {
			if stream.stopped.Load() {
				f.finish(guildID, stream, nil)
				return
			}
			f.finish(guildID, stream, errors.New("voice connection stopped accepting frames"))
			return
		}
	}
}

// finish reaps the process and publishes the completion event, unless the
// stream was deliberately stopped.
func (f *FFmpegStreamer) finish(guildID snowflake.ID, stream *ffmpegStream, streamErr error) {
	killStream(stream)
	if stream.cmd != nil {
		_ = stream.cmd.Wait()
	}

	f.mu.Lock()
	if f.streams[guildID] == stream {
		delete(f.streams, guildID)
	}
	f.mu.Unlock()

	if stream.stopped.Load() {
		slog.Debug("stream stopped", "guild", guildID, "seq", stream.seq)
		return
	}

	slog.Debug("stream finished", "guild", guildID, "seq", stream.seq, "error", streamErr)
	f.bus.PublishTrackEnded(ports.TrackEndedEvent{
		GuildID: guildID,
		Seq:     stream.seq,
		Err:     streamErr,
	})
}

func killStream(stream *ffmpegStream) {
	if stream.cmd != nil && stream.cmd.Process != nil {
		_ = stream.cmd.Process.Kill()
	}
}

// applyGain scales PCM samples in place, clipping at the int16 range.
func applyGain(frame []int16, gain float64) {
	if gain == 1.0 {
		return
	}
	for i, sample := range frame {
		scaled := float64(sample) * gain
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		} else if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		frame[i] = int16(scaled)
	}
}
