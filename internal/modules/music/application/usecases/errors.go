package usecases

import "errors"

// User-facing errors for the music module.
var (
	// ErrNotInVoiceChannel is returned when the requester is not in a voice channel.
	ErrNotInVoiceChannel = errors.New("you must be in a voice channel")

	// ErrNotConnected is returned when an operation requires an active session.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrConnectionFailed is returned when a voice connect attempt fails or times out.
	ErrConnectionFailed = errors.New("failed to connect to the voice channel")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrAlreadyPaused is returned when trying to pause while already paused.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrVolumeOutOfRange is returned for volume levels outside 0-100.
	ErrVolumeOutOfRange = errors.New("volume must be between 0 and 100")

	// ErrIndexOutOfRange is returned for invalid 1-based queue positions.
	ErrIndexOutOfRange = errors.New("invalid queue position")

	// ErrQueueEmpty is returned when the queue has no tracks.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrPlaybackFailed is returned when the audio backend rejects a stream start.
	ErrPlaybackFailed = errors.New("failed to start playback")
)
