// Package remote connects the player to the playlist server: status updates
// go out over HTTP, assignments and commands come in over a WebSocket.
package remote

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"karaoke-player/internal/playlist"
)

// EventHandler receives what the server asks the player to do.
type EventHandler interface {
	OnPlaylistEntry(entry playlist.Entry) error
	OnIdle() error
	OnCommand(command string) error
	OnConnectionLost() error
	OnStatusRequest() error
}

// Config holds the server connection settings.
type Config struct {
	Address           string        // host[:port], no scheme
	SSL               bool          // use https and wss
	Login             string        // player account
	Password          string        // player account password
	ReconnectInterval time.Duration // delay between WebSocket reconnections (default: 5s)
	Timeout           time.Duration // HTTP request timeout (default: 10s)
}

// DefaultConfig returns the default connection settings.
func DefaultConfig() Config {
	return Config{
		ReconnectInterval: 5 * time.Second,
		Timeout:           10 * time.Second,
	}
}

func (c Config) httpURL(path string) string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSuffix(c.Address, "/"), strings.TrimPrefix(path, "/"))
}

func (c Config) wsURL(path string) string {
	scheme := "ws"
	if c.SSL {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSuffix(c.Address, "/"), strings.TrimPrefix(path, "/"))
}

// Remote is the full server connection: the HTTP client for updates and the
// WebSocket listener for incoming events.
type Remote struct {
	*Client
	*Listener
}

// New creates the HTTP client and the WebSocket listener sharing one token.
func New(cfg Config, log logrus.FieldLogger) *Remote {
	client := NewClient(cfg, log)
	return &Remote{
		Client:   client,
		Listener: NewListener(cfg, client, log),
	}
}
