package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karaoke-player/internal/config"
	"karaoke-player/internal/player/vlc"
	"karaoke-player/internal/playlist"
	"karaoke-player/internal/remote"
	"karaoke-player/internal/textgen"
)

func TestCleanupStack_ReverseOrder(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := cleanupStack{log: log}
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		s.push(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, s.release())
	assert.Equal(t, []string{"third", "second", "first"}, order)

	// released only once
	require.NoError(t, s.release())
	assert.Len(t, order, 3)
}

func TestCleanupStack_ContinuesOnError(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := cleanupStack{log: log}
	boom := errors.New("boom")
	released := false
	s.push("first", func() error {
		released = true
		return nil
	})
	s.push("second", func() error { return boom })

	err := s.release()

	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "release second")
	assert.True(t, released)
	assert.Contains(t, hook.LastEntry().Message, "Unable to release second")
}

func TestWorker_ReleasesOnStartupFailure(t *testing.T) {
	log, _ := test.NewNullLogger()
	fsys := afero.NewMemMapFs()
	cfg := &config.Config{}
	cfg.Player.Templates = config.ScreenFiles{Directory: "/custom", Idle: "missing.ass"}

	w := New(cfg, fsys, "test", log)
	err := w.Run(context.Background())

	var notFound *textgen.TemplateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing.ass", notFound.File)

	// the temp directory was removed
	entries, err := afero.ReadDir(fsys, afero.GetTempDir(fsys, ""))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), config.AppName)
	}
}

// fakeVLC always reports a stopped player and counts loaded media.
type fakeVLC struct {
	mu      sync.Mutex
	inPlays int
}

func (f *fakeVLC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("command") == "in_play" {
		f.mu.Lock()
		f.inPlays++
		f.mu.Unlock()
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"state":"stopped","time":0,"length":0,"version":"3.0.20"}`)
}

func (f *fakeVLC) loaded() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inPlays
}

type fakeProcess struct {
	client *vlc.Client
	exited chan struct{}

	mu               sync.Mutex
	closed           int
	tempDirAtRelease bool
	tempDirExists    func() bool
}

func (p *fakeProcess) Client() *vlc.Client     { return p.client }
func (p *fakeProcess) Exited() <-chan struct{} { return p.exited }

func (p *fakeProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	p.tempDirAtRelease = p.tempDirExists()
	return nil
}

type fakeConnection struct {
	authErr error
	runErr  error
	running chan struct{}
	handler remote.EventHandler
}

func (c *fakeConnection) CreatePlayerError(int, string) error    { return nil }
func (c *fakeConnection) UpdateStartedTransition(int) error      { return nil }
func (c *fakeConnection) UpdateStartedSong(int) error            { return nil }
func (c *fakeConnection) UpdateCouldNotPlay(int) error           { return nil }
func (c *fakeConnection) UpdateFinished(int) error               { return nil }
func (c *fakeConnection) UpdatePaused(int, int) error            { return nil }
func (c *fakeConnection) UpdateResumed(int, int) error           { return nil }
func (c *fakeConnection) UpdateStatus(playlist.Status) error     { return nil }
func (c *fakeConnection) SetEventHandler(h remote.EventHandler)  { c.handler = h }
func (c *fakeConnection) Authenticate(ctx context.Context) error { return c.authErr }

func (c *fakeConnection) Run(ctx context.Context) error {
	close(c.running)
	if c.runErr != nil {
		return c.runErr
	}
	<-ctx.Done()
	return nil
}

type harness struct {
	worker  *Worker
	fs      afero.Fs
	vlc     *fakeVLC
	process *fakeProcess
	conn    *fakeConnection
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := &fakeVLC{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Player.KaraFolder = "/karaoke"
	cfg.Player.TransitionDuration = 2 * time.Second
	cfg.Player.VLC = config.VLCConfig{
		Path:           "vlc",
		PollInterval:   10 * time.Millisecond,
		StartTimeout:   time.Minute,
		RequestTimeout: time.Second,
	}

	h := &harness{
		fs:   afero.NewMemMapFs(),
		vlc:  fake,
		conn: &fakeConnection{running: make(chan struct{})},
	}
	h.process = &fakeProcess{
		client:        vlc.NewClient(srv.URL, "", time.Second),
		exited:        make(chan struct{}),
		tempDirExists: func() bool { return len(h.tempDirs(t)) > 0 },
	}

	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	h.worker = New(cfg, h.fs, "test", log)
	h.worker.startVLC = func(context.Context, vlc.Config, logrus.FieldLogger) (Process, error) {
		return h.process, nil
	}
	h.worker.connect = func(remote.Config, logrus.FieldLogger) Connection {
		return h.conn
	}
	return h
}

func (h *harness) tempDirs(t *testing.T) []string {
	t.Helper()
	entries, err := afero.ReadDir(h.fs, os.TempDir())
	if err != nil {
		return nil
	}
	var dirs []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), config.AppName+"-") {
			dirs = append(dirs, entry.Name())
		}
	}
	return dirs
}

// run starts the worker and returns a channel delivering its result.
func (h *harness) run(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.worker.Run(ctx) }()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
		return nil
	}
}

// assertReleased checks VLC was closed once, before the temp directory was
// removed.
func (h *harness) assertReleased(t *testing.T) {
	t.Helper()
	h.process.mu.Lock()
	defer h.process.mu.Unlock()
	assert.Equal(t, 1, h.process.closed)
	assert.True(t, h.process.tempDirAtRelease)
	assert.Empty(t, h.tempDirs(t))
}

func TestWorker_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := h.run(ctx)
	<-h.conn.running
	cancel()

	require.NoError(t, wait(t, done))
	h.assertReleased(t)
	assert.NotNil(t, h.conn.handler)
	assert.Equal(t, 1, h.vlc.loaded())
}

func TestWorker_ListenerErrorEndsRun(t *testing.T) {
	h := newHarness(t)
	handlerErr := errors.New("status update rejected")
	h.conn.runErr = handlerErr

	err := wait(t, h.run(context.Background()))

	assert.ErrorIs(t, err, handlerErr)
	h.assertReleased(t)
}

func TestWorker_VLCExitEndsRun(t *testing.T) {
	h := newHarness(t)
	close(h.process.exited)

	err := wait(t, h.run(context.Background()))

	assert.ErrorIs(t, err, ErrVLCExited)
	h.assertReleased(t)
}

func TestWorker_AuthenticationFailure(t *testing.T) {
	h := newHarness(t)
	h.conn.authErr = errors.New("bad credentials")

	err := wait(t, h.run(context.Background()))

	assert.ErrorContains(t, err, "bad credentials")
	h.assertReleased(t)
	assert.Zero(t, h.vlc.loaded())
}

func TestWorker_VLCStartFailure(t *testing.T) {
	h := newHarness(t)
	h.worker.startVLC = func(context.Context, vlc.Config, logrus.FieldLogger) (Process, error) {
		return nil, errors.New("start vlc: not found")
	}

	err := wait(t, h.run(context.Background()))

	assert.ErrorContains(t, err, "start vlc")
	assert.Zero(t, h.process.closed)
	assert.Empty(t, h.tempDirs(t))
}
