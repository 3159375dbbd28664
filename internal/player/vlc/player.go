// Package vlc implements player.Backend on top of VLC's HTTP interface.
//
// VLC is started as a separate process; the player sends it playlist
// commands and polls its status to detect when media starts and ends.
package vlc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"karaoke-player/internal/player"
	"karaoke-player/internal/playlist"
	"karaoke-player/internal/textgen"
)

// Config holds the VLC backend settings.
type Config struct {
	player.Config

	Path               string        // VLC binary (default: "vlc")
	InstanceParameters []string      // extra command line arguments
	MediaParameters    []string      // extra options added to every song
	HTTPPort           int           // 0 picks a free port
	PollInterval       time.Duration // status polling period (default: 250ms)
	StartTimeout       time.Duration // time allowed for media to start (default: 10s)
	RequestTimeout     time.Duration // HTTP interface timeout (default: 5s)
}

// DefaultConfig returns the default VLC settings.
func DefaultConfig() Config {
	return Config{
		Config:         player.DefaultConfig(),
		Path:           "vlc",
		PollInterval:   250 * time.Millisecond,
		StartTimeout:   10 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

// API is the part of the VLC interface the player uses.
type API interface {
	Status(ctx context.Context) (Status, error)
	Command(ctx context.Context, command string, params url.Values) (Status, error)
}

// ScreenWriter renders text screens to files.
type ScreenWriter interface {
	RenderToFile(name string, data any, path string) error
}

// BackgroundSource gives the background image of a screen.
type BackgroundSource interface {
	Path(name string) string
}

type media int

const (
	mediaNone media = iota
	mediaIdle
	mediaTransition
	mediaSong
)

func (m media) String() string {
	switch m {
	case mediaIdle:
		return "idle screen"
	case mediaTransition:
		return "transition"
	case mediaSong:
		return "song"
	default:
		return "nothing"
	}
}

// Player plays entries and the idle screen in VLC.
type Player struct {
	cfg         Config
	vlc         API
	screens     ScreenWriter
	backgrounds BackgroundSource
	fs          afero.Fs
	tempDir     string
	appVersion  string
	log         logrus.FieldLogger
	now         func() time.Time

	// cmdMu serializes VLC requests with the state changes they imply, so a
	// poll never sees the stop of a media being replaced.
	cmdMu sync.Mutex

	mu          sync.Mutex
	handler     player.EventHandler
	entry       *playlist.Entry
	media       media
	started     bool
	requestedAt time.Time
	paused      bool
	timing      int
	vlcVersion  string

	// generation counts loads; a follow-up media queued by a poll is only
	// loaded if nothing else was loaded since.
	generation uint64
	// switching is set while the follow-up of an ended media is loading.
	switching bool
}

var _ player.Backend = (*Player)(nil)

// New creates a player. Screens are written into tempDir.
func New(cfg Config, vlc API, screens ScreenWriter, backgrounds BackgroundSource, fsys afero.Fs, tempDir, appVersion string, log logrus.FieldLogger) *Player {
	return &Player{
		cfg:         cfg,
		vlc:         vlc,
		screens:     screens,
		backgrounds: backgrounds,
		fs:          fsys,
		tempDir:     tempDir,
		appVersion:  appVersion,
		log:         log.WithField("component", "player"),
		now:         time.Now,
	}
}

func (p *Player) SetEventHandler(h player.EventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

func (p *Player) eventHandler() player.EventHandler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler
}

// PlayEntry plays the transition screen of the entry; the song follows when
// the transition ends. An entry whose file is missing is reported as an
// error and as not playable, and nothing changes on screen.
func (p *Player) PlayEntry(entry playlist.Entry) error {
	songPath := filepath.Join(p.cfg.KaraFolder, entry.Song.FilePath)
	exists, err := afero.Exists(p.fs, songPath)
	if err != nil {
		return fmt.Errorf("check song file: %w", err)
	}
	if !exists {
		p.log.Warnf("Skipping playlist entry %d: file '%s' not found", entry.ID, songPath)
		handler := p.eventHandler()
		if err := handler.OnError(entry.ID, fmt.Sprintf("File not found: %s", entry.Song.FilePath)); err != nil {
			return err
		}
		return handler.OnCouldNotPlay(entry.ID)
	}

	screen := filepath.Join(p.tempDir, "transition.ass")
	if err := p.screens.RenderToFile(textgen.Transition, textgen.TransitionData{Entry: entry}, screen); err != nil {
		return err
	}

	options := []string{
		":sub-file=" + screen,
		":image-duration=" + strconv.Itoa(imageDuration(p.cfg.TransitionDuration)),
	}
	p.log.Infof("Playing transition for entry %d '%s'", entry.ID, entry.Song.Title)
	_, err = p.load(0, mediaTransition, &entry, p.backgrounds.Path(textgen.Transition), options)
	return err
}

// imageDuration converts a duration to whole seconds for VLC, rounding up so
// a short transition is never shown for 0s.
func imageDuration(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// PlayIdle shows the idle screen until something else is played.
func (p *Player) PlayIdle() error {
	return p.playIdle(0)
}

func (p *Player) playIdle(since uint64) error {
	p.mu.Lock()
	notes := []string{"karaoke-player " + p.appVersion}
	if p.vlcVersion != "" {
		notes = append(notes, "VLC "+p.vlcVersion)
	}
	p.mu.Unlock()

	screen := filepath.Join(p.tempDir, "idle.ass")
	if err := p.screens.RenderToFile(textgen.Idle, textgen.IdleData{Notes: notes}, screen); err != nil {
		return err
	}

	options := []string{
		":sub-file=" + screen,
		":image-duration=-1",
	}
	loaded, err := p.load(since, mediaIdle, nil, p.backgrounds.Path(textgen.Idle), options)
	if loaded {
		p.log.Info("Playing idle screen")
	}
	return err
}

func (p *Player) playSong(entry playlist.Entry, since uint64) error {
	path := filepath.Join(p.cfg.KaraFolder, entry.Song.FilePath)
	loaded, err := p.load(since, mediaSong, &entry, path, p.cfg.MediaParameters)
	if loaded {
		p.log.Infof("Playing song for entry %d '%s'", entry.ID, entry.Song.Title)
	}
	return err
}

// load replaces the VLC playlist with a single media. The previous media is
// dropped silently: no finished event is raised for it.
//
// A non-zero since is the generation a follow-up media was queued at; the
// load is skipped, and false returned, if another media was loaded after it.
func (p *Player) load(since uint64, kind media, entry *playlist.Entry, path string, options []string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.RequestTimeout)
	defer cancel()

	p.cmdMu.Lock()
	defer p.cmdMu.Unlock()

	if since != 0 {
		p.mu.Lock()
		stale := p.generation != since
		p.mu.Unlock()
		if stale {
			p.log.Debugf("Dropping %s: replaced while it was queued", kind)
			return false, nil
		}
	}

	if _, err := p.vlc.Command(ctx, "pl_stop", nil); err != nil {
		return false, err
	}
	if _, err := p.vlc.Command(ctx, "pl_empty", nil); err != nil {
		return false, err
	}

	params := url.Values{"input": {mediaURI(path)}}
	for _, opt := range options {
		params.Add("option", opt)
	}
	if _, err := p.vlc.Command(ctx, "in_play", params); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.switching = false
	p.entry = entry
	p.media = kind
	p.started = false
	p.requestedAt = p.now()
	p.paused = false
	p.timing = 0
	return true, nil
}

// SetPause pauses or resumes the current entry. It does nothing on the idle
// screen or when the player is already in the requested state.
func (p *Player) SetPause(paused bool) error {
	p.mu.Lock()
	if p.entry == nil {
		p.mu.Unlock()
		p.log.Debug("Nothing to pause or resume on idle screen")
		return nil
	}
	if p.paused == paused {
		p.mu.Unlock()
		return nil
	}
	id := p.entry.ID
	p.mu.Unlock()

	command := "pl_forceresume"
	if paused {
		command = "pl_forcepause"
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.RequestTimeout)
	defer cancel()

	p.cmdMu.Lock()
	status, err := p.vlc.Command(ctx, command, nil)
	if err != nil {
		p.cmdMu.Unlock()
		return err
	}
	p.mu.Lock()
	p.paused = paused
	if p.media == mediaSong {
		p.timing = status.Time
	}
	timing := p.timingLocked()
	p.mu.Unlock()
	p.cmdMu.Unlock()

	handler := p.eventHandler()
	if paused {
		p.log.Infof("Paused entry %d at %ds", id, timing)
		return handler.OnPaused(id, timing)
	}
	p.log.Infof("Resumed entry %d at %ds", id, timing)
	return handler.OnResumed(id, timing)
}

// PlayingID returns the current entry ID, 0 when nothing is playing.
func (p *Player) PlayingID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entry == nil {
		return 0
	}
	return p.entry.ID
}

// Timing returns the position in the current song, 0 outside of songs.
func (p *Player) Timing() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timingLocked()
}

func (p *Player) timingLocked() int {
	if p.media != mediaSong {
		return 0
	}
	return p.timing
}

func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Player) InTransition() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.media == mediaTransition
}

// Start reads VLC's version from its status.
func (p *Player) Start(ctx context.Context) error {
	status, err := p.vlc.Status(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.vlcVersion = status.Version
	p.mu.Unlock()
	return nil
}

// Run polls VLC until the context ends. Errors from VLC or from the event
// handler stop the loop.
func (p *Player) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// poll compares VLC's status with the expected media and raises the
// matching events.
func (p *Player) poll(ctx context.Context) error {
	step, err := p.check(ctx)
	if err != nil || step == nil {
		return err
	}
	return step()
}

// check reads the status and returns what has to be done about it.
func (p *Player) check(ctx context.Context) (func() error, error) {
	p.cmdMu.Lock()
	defer p.cmdMu.Unlock()

	status, err := p.vlc.Status(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	kind := p.media
	var entry playlist.Entry
	if p.entry != nil {
		entry = *p.entry
	}
	if kind == mediaSong && status.Started() {
		p.timing = status.Time
	}
	if kind != mediaNone && status.Started() {
		p.paused = status.State == StatePaused
	}

	var step func() error
	switch {
	case kind == mediaNone, p.switching:

	case !p.started && status.Started():
		p.started = true
		step = p.startedStep(kind, entry)

	case !p.started && p.now().Sub(p.requestedAt) > p.cfg.StartTimeout:
		p.entry = nil
		p.media = mediaNone
		step = p.failedStep(kind, entry)

	case p.started && status.State == StateStopped:
		step = p.endedStep(kind, entry)
	}
	return step, nil
}

func (p *Player) startedStep(kind media, entry playlist.Entry) func() error {
	switch kind {
	case mediaTransition:
		return func() error { return p.eventHandler().OnStartedTransition(entry.ID) }
	case mediaSong:
		return func() error { return p.eventHandler().OnStartedSong(entry.ID) }
	default:
		return nil
	}
}

func (p *Player) failedStep(kind media, entry playlist.Entry) func() error {
	if kind == mediaIdle {
		return func() error { return errors.New("vlc could not play the idle screen") }
	}

	return func() error {
		p.log.Errorf("Unable to play %s of entry %d", kind, entry.ID)
		handler := p.eventHandler()
		if err := handler.OnError(entry.ID, fmt.Sprintf("Unable to play %s", kind)); err != nil {
			return err
		}
		return handler.OnCouldNotPlay(entry.ID)
	}
}

// endedStep is called with mu held. The entry of an ended transition stays
// current until its song is loaded.
func (p *Player) endedStep(kind media, entry playlist.Entry) func() error {
	since := p.generation
	switch kind {
	case mediaTransition:
		p.switching = true
		return func() error { return p.playSong(entry, since) }
	case mediaSong:
		p.entry = nil
		p.media = mediaNone
		return func() error {
			p.log.Infof("Entry %d finished", entry.ID)
			return p.eventHandler().OnFinished(entry.ID)
		}
	case mediaIdle:
		p.switching = true
		return func() error { return p.playIdle(since) }
	default:
		return nil
	}
}
