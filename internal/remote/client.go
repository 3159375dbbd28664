package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"karaoke-player/internal/playlist"
)

// Client sends player updates to the server over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
	log  logrus.FieldLogger

	mu    sync.RWMutex
	token string
}

// NewClient creates a client. Authenticate must be called before any update.
func NewClient(cfg Config, log logrus.FieldLogger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout, Transport: newTransport()},
		log:  log.WithField("component", "remote"),
	}
}

// newTransport clones the default transport with tighter idle limits: the
// player talks to a single host.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 4
	return t
}

// Authenticate gets a token for the player account.
func (c *Client) Authenticate(ctx context.Context) error {
	c.log.Infof("Authenticating to %s as %s", c.cfg.Address, c.cfg.Login)

	var resp tokenResponse
	req := tokenRequest{Username: c.cfg.Login, Password: c.cfg.Password}
	if err := c.send(ctx, http.MethodPost, tokenPath, "", req, &resp); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("authenticate: empty token in response")
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	c.log.Info("Authenticated")
	return nil
}

// Token returns the current token, empty before authentication.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) CreatePlayerError(id int, message string) error {
	c.log.Debugf("Sending error for entry %d: %s", id, message)
	return c.authorized(http.MethodPost, errorsPath, playerError{
		PlaylistEntryID: id,
		ErrorMessage:    message,
	})
}

func (c *Client) UpdateStartedTransition(id int) error {
	return c.sendEvent(EventStartedTransition, id, nil)
}

func (c *Client) UpdateStartedSong(id int) error {
	return c.sendEvent(EventStartedSong, id, nil)
}

func (c *Client) UpdateCouldNotPlay(id int) error {
	return c.sendEvent(EventCouldNotPlay, id, nil)
}

func (c *Client) UpdateFinished(id int) error {
	return c.sendEvent(EventFinished, id, nil)
}

func (c *Client) UpdatePaused(id int, timing int) error {
	return c.sendEvent(EventPaused, id, &timing)
}

func (c *Client) UpdateResumed(id int, timing int) error {
	return c.sendEvent(EventResumed, id, &timing)
}

// UpdateStatus sends a full status snapshot.
func (c *Client) UpdateStatus(status playlist.Status) error {
	snapshot := statusSnapshot{
		Timing:       status.Timing,
		Paused:       status.Paused,
		InTransition: status.InTransition,
	}
	if status.PlaylistEntryID != 0 {
		id := status.PlaylistEntryID
		snapshot.PlaylistEntryID = &id
	}

	c.log.Debugf("Sending status %+v", status)
	return c.authorized(http.MethodPut, statusPath, snapshot)
}

func (c *Client) sendEvent(event string, id int, timing *int) error {
	c.log.Debugf("Sending event %s for entry %d", event, id)
	payload := statusEvent{Event: event, Timing: timing}
	// 0 means nothing was playing; the server expects null then.
	if id != 0 {
		payload.PlaylistEntryID = &id
	}
	return c.authorized(http.MethodPut, statusPath, payload)
}

func (c *Client) authorized(method, path string, body any) error {
	token := c.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	return c.send(context.Background(), method, path, token, body, nil)
}

// send performs a JSON request and decodes the JSON answer into out when set.
func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	url := c.cfg.httpURL(path)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ResponseError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: string(text)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
