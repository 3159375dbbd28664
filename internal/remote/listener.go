package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"

	"karaoke-player/internal/playlist"
)

// Listener receives server events over a WebSocket and reconnects when the
// connection drops.
type Listener struct {
	cfg    Config
	client *Client
	log    logrus.FieldLogger

	mu      sync.RWMutex
	handler EventHandler
}

// NewListener creates a listener authenticated with the client's token.
func NewListener(cfg Config, client *Client, log logrus.FieldLogger) *Listener {
	return &Listener{
		cfg:    cfg,
		client: client,
		log:    log.WithField("component", "websocket"),
	}
}

// SetEventHandler sets who receives the server events.
func (l *Listener) SetEventHandler(h EventHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
}

func (l *Listener) eventHandler() EventHandler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.handler
}

// Run connects and dispatches events until the context is cancelled.
// When an established connection is lost the handler is notified and the
// listener reconnects. A handler error other than a failed command is returned.
func (l *Listener) Run(ctx context.Context) error {
	for {
		conn, err := l.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.log.Warnf("Unable to connect: %v", err)
		} else {
			err = l.listen(ctx, conn)
			if ctx.Err() != nil {
				return nil
			}
			var handlerErr *handlerError
			if errors.As(err, &handlerErr) {
				return handlerErr.err
			}

			l.log.Errorf("Connection lost: %v", err)
			if err := l.eventHandler().OnConnectionLost(); err != nil {
				return err
			}
		}

		l.log.Infof("Reconnecting in %s", l.cfg.ReconnectInterval)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.cfg.ReconnectInterval):
		}
	}
}

func (l *Listener) connect(ctx context.Context) (*websocket.Conn, error) {
	token := l.client.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	cfg, err := websocket.NewConfig(l.cfg.wsURL(websockPath), l.cfg.httpURL(""))
	if err != nil {
		return nil, fmt.Errorf("websocket config: %w", err)
	}
	cfg.Header.Set("Authorization", "Token "+token)

	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Location, err)
	}

	if err := websocket.JSON.Send(conn, Message{Type: MessageReady}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send ready: %w", err)
	}

	l.log.Info("Websocket connected")
	return conn, nil
}

// handlerError marks an error coming from the event handler rather than
// from the connection.
type handlerError struct {
	err error
}

func (e *handlerError) Error() string { return e.err.Error() }

func (e *handlerError) Unwrap() error { return e.err }

// listen reads messages until the connection fails or the context ends.
func (l *Listener) listen(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	for {
		var msg Message
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("closed by server")
			}
			return err
		}

		if err := l.dispatch(msg); err != nil {
			return &handlerError{err: err}
		}
	}
}

// dispatch calls the handler matching the message type.
func (l *Listener) dispatch(msg Message) error {
	handler := l.eventHandler()
	l.log.Debugf("Received message %q", msg.Type)

	switch msg.Type {
	case MessagePlaylistEntry:
		var entry playlist.Entry
		if err := json.Unmarshal(msg.Data, &entry); err != nil {
			l.log.Errorf("Invalid playlist entry: %v", err)
			return nil
		}
		l.log.Infof("New playlist entry %d: %s", entry.ID, entry.Song.Title)
		return handler.OnPlaylistEntry(entry)

	case MessageIdle:
		l.log.Info("Playlist is empty, going idle")
		return handler.OnIdle()

	case MessageCommand:
		var data commandData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			l.log.Errorf("Invalid command: %v", err)
			return nil
		}
		l.log.Infof("Received command %q", data.Command)
		if err := handler.OnCommand(data.Command); err != nil {
			l.log.Warnf("Command %q failed: %v", data.Command, err)
		}
		return nil

	case MessageStatusRequest:
		return handler.OnStatusRequest()

	default:
		l.log.Warnf("Unknown message type %q", msg.Type)
		return nil
	}
}
