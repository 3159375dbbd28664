// Package manager binds the player backend to the remote playlist server.
//
// Player lifecycle events are forwarded to the server as status updates, and
// assignments and commands coming from the server are forwarded to the player.
// The manager keeps no playback state of its own: every call is a plain
// forward, so it can be used from the player and server goroutines at once.
package manager

import (
	"karaoke-player/internal/player"
	"karaoke-player/internal/playlist"
	"karaoke-player/internal/remote"
)

// Player is the part of the player backend the manager drives.
type Player interface {
	PlayEntry(entry playlist.Entry) error
	PlayIdle() error
	SetPause(paused bool) error
	PlayingID() int
	Timing() int
	IsPaused() bool
	InTransition() bool
	SetEventHandler(h player.EventHandler)
}

// Server is the part of the remote connection the manager reports to.
type Server interface {
	CreatePlayerError(id int, message string) error
	UpdateStartedTransition(id int) error
	UpdateStartedSong(id int) error
	UpdateCouldNotPlay(id int) error
	UpdateFinished(id int) error
	UpdatePaused(id int, timing int) error
	UpdateResumed(id int, timing int) error
	UpdateStatus(status playlist.Status) error
	SetEventHandler(h remote.EventHandler)
}

// Manager forwards events between a Player and a Server.
type Manager struct {
	player Player
	server Server
}

var (
	_ player.EventHandler = (*Manager)(nil)
	_ remote.EventHandler = (*Manager)(nil)
)

// New creates a manager and registers it as the event handler of both the
// player and the server.
func New(p Player, s Server) *Manager {
	m := &Manager{player: p, server: s}
	p.SetEventHandler(m)
	s.SetEventHandler(m)
	return m
}

// Player events

func (m *Manager) OnError(id int, message string) error {
	return m.server.CreatePlayerError(id, message)
}

func (m *Manager) OnFinished(id int) error {
	return m.server.UpdateFinished(id)
}

func (m *Manager) OnStartedTransition(id int) error {
	return m.server.UpdateStartedTransition(id)
}

func (m *Manager) OnStartedSong(id int) error {
	return m.server.UpdateStartedSong(id)
}

func (m *Manager) OnCouldNotPlay(id int) error {
	return m.server.UpdateCouldNotPlay(id)
}

func (m *Manager) OnPaused(id int, timing int) error {
	return m.server.UpdatePaused(id, timing)
}

func (m *Manager) OnResumed(id int, timing int) error {
	return m.server.UpdateResumed(id, timing)
}

// Server events

func (m *Manager) OnPlaylistEntry(entry playlist.Entry) error {
	return m.PlayEntry(entry)
}

func (m *Manager) OnIdle() error {
	return m.PlayIdle()
}

// OnConnectionLost falls back to the idle screen.
func (m *Manager) OnConnectionLost() error {
	return m.PlayIdle()
}

func (m *Manager) OnCommand(command string) error {
	return m.ExecuteCommand(command)
}

func (m *Manager) OnStatusRequest() error {
	return m.GetStatus()
}

// Actions

// PlayEntry hands the entry to the player unchanged.
func (m *Manager) PlayEntry(entry playlist.Entry) error {
	return m.player.PlayEntry(entry)
}

// PlayIdle shows the idle screen.
func (m *Manager) PlayIdle() error {
	return m.player.PlayIdle()
}

// ExecuteCommand runs one of the operator commands.
// A skip reports the current entry as finished right away and switches to the
// idle screen without waiting for the player.
func (m *Manager) ExecuteCommand(command string) error {
	if !IsCommand(command) {
		return &UnknownCommandError{Command: command}
	}

	switch Command(command) {
	case CommandPause:
		return m.player.SetPause(true)
	case CommandPlay:
		return m.player.SetPause(false)
	case CommandSkip:
		if err := m.OnFinished(m.player.PlayingID()); err != nil {
			return err
		}
		return m.PlayIdle()
	}
	return nil
}

// GetStatus sends the player's current status to the server.
func (m *Manager) GetStatus() error {
	return m.server.UpdateStatus(playlist.Status{
		PlaylistEntryID: m.player.PlayingID(),
		Timing:          m.player.Timing(),
		Paused:          m.player.IsPaused(),
		InTransition:    m.player.InTransition(),
	})
}
