package vlc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Status(t *testing.T) {
	fake := &fakeVLC{status: Status{State: StatePlaying, Time: 12, Length: 200, Version: "3.0.20"}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	status, err := NewClient(srv.URL+"/", testPassword, time.Second).Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, fake.status, status)
	assert.True(t, status.Started())
	assert.Empty(t, fake.takeCommands())
}

func TestClient_Command(t *testing.T) {
	fake := &fakeVLC{status: Status{State: StateStopped}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	params := url.Values{"input": {"file:///a%20b.mkv"}, "option": {":a", ":b"}}
	status, err := NewClient(srv.URL, testPassword, time.Second).Command(context.Background(), "in_play", params)

	require.NoError(t, err)
	assert.False(t, status.Started())
	commands := fake.takeCommands()
	require.Len(t, commands, 1)
	assert.Equal(t, "in_play", commands[0].Get("command"))
	assert.Equal(t, "file:///a%20b.mkv", commands[0].Get("input"))
	assert.Equal(t, []string{":a", ":b"}, commands[0]["option"])
	// the caller's values are left untouched
	assert.Empty(t, params.Get("command"))
}

func TestClient_WrongPassword(t *testing.T) {
	srv := httptest.NewServer(&fakeVLC{})
	defer srv.Close()

	_, err := NewClient(srv.URL, "wrong", time.Second).Command(context.Background(), "pl_stop", nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "pl_stop", httpErr.Command)
}

func TestMediaURI(t *testing.T) {
	assert.Equal(t, "file:///karaoke/My%20Song.mkv", mediaURI("/karaoke/My Song.mkv"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	parsed, err := url.Parse(mediaURI("karaoke/song.mkv"))
	require.NoError(t, err)
	assert.Equal(t, "file", parsed.Scheme)
	assert.Empty(t, parsed.Host)
	assert.Equal(t, filepath.ToSlash(wd)+"/karaoke/song.mkv", parsed.Path)
}

func TestImageDuration(t *testing.T) {
	assert.Equal(t, 2, imageDuration(2*time.Second))
	assert.Equal(t, 2, imageDuration(1500*time.Millisecond))
	assert.Equal(t, 1, imageDuration(300*time.Millisecond))
	assert.Equal(t, 0, imageDuration(0))
}

func TestBuildArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fullscreen = true
	cfg.InstanceParameters = []string{"--no-osd"}

	args := buildArgs(cfg, 8080, "pass")

	assert.Equal(t, []string{
		"--intf", "http",
		"--http-host", "127.0.0.1",
		"--http-port", "8080",
		"--http-password", "pass",
		"--no-video-title-show",
		"--quiet",
		"--fullscreen",
		"--no-osd",
	}, args)
}

func TestStartProcess_MissingBinary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = "/nonexistent/vlc"
	cfg.HTTPPort = 65000

	_, err := StartProcess(context.Background(), cfg, newNullLogger())

	assert.ErrorContains(t, err, "start vlc")
}
