package vlc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// VLC playback states as reported by the web interface.
const (
	StatePlaying = "playing"
	StatePaused  = "paused"
	StateStopped = "stopped"
)

// Status is the part of VLC's status.json the player relies on.
type Status struct {
	State   string `json:"state"`
	Time    int    `json:"time"`   // seconds
	Length  int    `json:"length"` // seconds
	Version string `json:"version"`
}

// Started reports whether VLC has media loaded and running.
func (s Status) Started() bool {
	return s.State == StatePlaying || s.State == StatePaused
}

// Client talks to VLC's HTTP interface.
type Client struct {
	baseURL  string
	password string
	http     *http.Client
}

// NewClient creates a client for the interface at baseURL (http://host:port).
func NewClient(baseURL, password string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

// Status returns the current playback status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	return c.Command(ctx, "", nil)
}

// Command runs a playlist command and returns the status that follows it.
// An empty command only reads the status.
func (c *Client) Command(ctx context.Context, command string, params url.Values) (Status, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if command != "" {
		query.Set("command", command)
	}

	endpoint := c.baseURL + "/requests/status.json"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Status{}, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth("", c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("vlc %s: %w", commandName(command), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Status{}, &HTTPError{Command: commandName(command), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("decode vlc status: %w", err)
	}
	return status, nil
}

func commandName(command string) string {
	if command == "" {
		return "status"
	}
	return command
}

// mediaURI turns a local path into the MRL VLC expects. Relative paths are
// resolved against the working directory.
func mediaURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// HTTPError is returned when the VLC interface answers with a non-200 status.
type HTTPError struct {
	Command    string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("vlc %s: unexpected status %d: %s", e.Command, e.StatusCode, e.Body)
}
