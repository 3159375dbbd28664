package vlc

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	interfaceWaitRetries = 20
	interfaceWaitDelay   = 250 * time.Millisecond
)

// Process is a VLC instance controlled through its HTTP interface.
type Process struct {
	cmd    *exec.Cmd
	exited chan struct{}
	client *Client
	log    logrus.FieldLogger
}

// StartProcess launches VLC with its HTTP interface on the loopback and
// waits until the interface answers.
func StartProcess(ctx context.Context, cfg Config, log logrus.FieldLogger) (*Process, error) {
	log = log.WithField("component", "vlc")

	port := cfg.HTTPPort
	if port == 0 {
		free, err := freePort()
		if err != nil {
			return nil, fmt.Errorf("find free port: %w", err)
		}
		port = free
	}
	password := uuid.NewString()

	p := &Process{
		cmd:    exec.Command(cfg.Path, buildArgs(cfg, port, password)...),
		exited: make(chan struct{}),
		client: NewClient(fmt.Sprintf("http://127.0.0.1:%d", port), password, cfg.RequestTimeout),
		log:    log,
	}

	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start vlc: %w", err)
	}
	log.Debugf("VLC started (PID: %d, port: %d)", p.cmd.Process.Pid, port)

	// Reap the process
	go func() {
		_ = p.cmd.Wait()
		close(p.exited)
	}()

	if err := p.waitForInterface(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func buildArgs(cfg Config, port int, password string) []string {
	args := []string{
		"--intf", "http",
		"--http-host", "127.0.0.1",
		"--http-port", strconv.Itoa(port),
		"--http-password", password,
		"--no-video-title-show",
		"--quiet",
	}
	if cfg.Fullscreen {
		args = append(args, "--fullscreen")
	}
	return append(args, cfg.InstanceParameters...)
}

func (p *Process) waitForInterface(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < interfaceWaitRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.exited:
			return fmt.Errorf("vlc exited before its interface was ready")
		case <-time.After(interfaceWaitDelay):
		}

		status, err := p.client.Status(ctx)
		if err == nil {
			p.log.Infof("VLC %s ready", status.Version)
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("vlc interface not ready after %d attempts: %w", interfaceWaitRetries, lastErr)
}

// Client returns the client bound to this instance.
func (p *Process) Client() *Client {
	return p.client
}

// Exited is closed when the VLC process ends.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Close kills VLC and waits for it to exit.
func (p *Process) Close() error {
	select {
	case <-p.exited:
		return nil
	default:
	}

	if err := p.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("kill vlc: %w", err)
	}
	<-p.exited
	p.log.Debug("VLC stopped")
	return nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
