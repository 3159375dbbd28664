// Package player defines the contract between a media player backend and the
// component that reacts to its lifecycle events.
package player

import (
	"context"
	"time"

	"karaoke-player/internal/playlist"
)

// EventHandler receives the lifecycle events raised by a Backend.
// Handlers run on the backend's own goroutine; a returned error stops the
// backend's run loop.
type EventHandler interface {
	OnStartedTransition(id int) error
	OnStartedSong(id int) error
	OnCouldNotPlay(id int) error
	OnFinished(id int) error
	OnPaused(id int, timing int) error
	OnResumed(id int, timing int) error
	OnError(id int, message string) error
}

// Backend plays playlist entries and the idle screen.
type Backend interface {
	// PlayEntry starts the transition screen of the entry, then its song.
	PlayEntry(entry playlist.Entry) error

	// PlayIdle replaces whatever is playing with the idle screen.
	PlayIdle() error

	// SetPause pauses or resumes the current entry.
	SetPause(paused bool) error

	// PlayingID returns the ID of the current entry, 0 when idle.
	PlayingID() int

	// Timing returns the position in the current song in seconds.
	Timing() int

	IsPaused() bool
	InTransition() bool

	SetEventHandler(h EventHandler)

	// Run drives the backend until the context is cancelled or a handler fails.
	Run(ctx context.Context) error
}

// Config holds player configuration options.
type Config struct {
	KaraFolder         string        // Root folder of the song files
	TransitionDuration time.Duration // Length of the transition screen (default: 2s)
	Fullscreen         bool
}

// DefaultConfig returns the default player configuration.
func DefaultConfig() Config {
	return Config{
		TransitionDuration: 2 * time.Second,
	}
}
