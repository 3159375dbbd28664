// Package worker assembles the player: VLC, the server connection, the
// manager binding them and the optional control API.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"karaoke-player/internal/config"
	"karaoke-player/internal/manager"
	"karaoke-player/internal/player/vlc"
	"karaoke-player/internal/remote"
	"karaoke-player/internal/server"
	"karaoke-player/internal/textgen"
)

// ErrVLCExited is returned when VLC stops while the player is running.
var ErrVLCExited = errors.New("vlc exited unexpectedly")

// Process is a running VLC instance.
type Process interface {
	Client() *vlc.Client
	Exited() <-chan struct{}
	Close() error
}

// Connection is the link to the playlist server.
type Connection interface {
	manager.Server
	Authenticate(ctx context.Context) error
	Run(ctx context.Context) error
}

// Worker runs the player until its context ends or a component fails.
type Worker struct {
	cfg     *config.Config
	fs      afero.Fs
	version string
	log     logrus.FieldLogger

	startVLC func(ctx context.Context, cfg vlc.Config, log logrus.FieldLogger) (Process, error)
	connect  func(cfg remote.Config, log logrus.FieldLogger) Connection

	cleanup cleanupStack
}

func startVLC(ctx context.Context, cfg vlc.Config, log logrus.FieldLogger) (Process, error) {
	process, err := vlc.StartProcess(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return process, nil
}

func connect(cfg remote.Config, log logrus.FieldLogger) Connection {
	return remote.New(cfg, log)
}

func New(cfg *config.Config, fsys afero.Fs, version string, log logrus.FieldLogger) *Worker {
	log = log.WithField("component", "worker")
	return &Worker{
		cfg:      cfg,
		fs:       fsys,
		version:  version,
		log:      log,
		startVLC: startVLC,
		connect:  connect,
		cleanup:  cleanupStack{log: log},
	}
}

// Run builds every component, then blocks until ctx is cancelled or one of
// the background loops fails. Everything acquired is released on return.
func (w *Worker) Run(ctx context.Context) (err error) {
	defer func() {
		err = errors.Join(err, w.cleanup.release())
	}()

	tempDir, err := afero.TempDir(w.fs, "", config.AppName+"-")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	w.cleanup.push("temp directory", func() error { return w.fs.RemoveAll(tempDir) })
	w.log.Debugf("Working in %s", tempDir)

	playerCfg := w.cfg.Player
	screens := textgen.New(w.fs, playerCfg.Templates.Directory, playerCfg.Templates.TemplateFiles(), w.log)
	if err := screens.Load(); err != nil {
		return err
	}
	backgrounds := textgen.NewBackgrounds(w.fs, playerCfg.Backgrounds.Directory, playerCfg.Backgrounds.BackgroundFiles(), tempDir, w.log)
	if err := backgrounds.Load(); err != nil {
		return err
	}

	vlcCfg := w.cfg.VLC()
	process, err := w.startVLC(ctx, vlcCfg, w.log)
	if err != nil {
		return err
	}
	w.cleanup.push("vlc", process.Close)

	backend := vlc.New(vlcCfg, process.Client(), screens, backgrounds, w.fs, tempDir, w.version, w.log)
	if err := backend.Start(ctx); err != nil {
		return err
	}

	conn := w.connect(w.cfg.Remote(), w.log)
	if err := conn.Authenticate(ctx); err != nil {
		return err
	}

	mgr := manager.New(backend, conn)
	if err := mgr.PlayIdle(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return backend.Run(gctx) })
	g.Go(func() error { return conn.Run(gctx) })
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-process.Exited():
			return ErrVLCExited
		}
	})
	if address := w.cfg.API.Address; address != "" {
		api := server.NewAPI(mgr, backend, w.log)
		srv := server.NewServer(address, server.SetupRouter(api), w.log)
		g.Go(func() error { return srv.Run(gctx) })
	}

	w.log.Info("Player ready")
	if err := g.Wait(); err != nil {
		return err
	}
	w.log.Info("Stopping player")
	return nil
}
