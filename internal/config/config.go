// Package config loads the player configuration from a YAML file and the
// environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"karaoke-player/internal/player"
	"karaoke-player/internal/player/vlc"
	"karaoke-player/internal/remote"
	"karaoke-player/internal/textgen"
)

const (
	AppName   = "karaoke-player"
	FileName  = AppName + ".yaml"
	EnvPrefix = "KARAOKE_PLAYER"
)

//go:embed karaoke-player.yaml
var defaultFile []byte

// ErrExists is returned when creating a config over an existing one.
var ErrExists = errors.New("config file already exists")

// Config is the whole player configuration.
type Config struct {
	LogLevel string       `mapstructure:"loglevel"`
	Player   PlayerConfig `mapstructure:"player"`
	Server   ServerConfig `mapstructure:"server"`
	API      APIConfig    `mapstructure:"api"`
}

type PlayerConfig struct {
	KaraFolder         string        `mapstructure:"kara_folder"`
	Fullscreen         bool          `mapstructure:"fullscreen"`
	TransitionDuration time.Duration `mapstructure:"transition_duration"`
	Templates          ScreenFiles   `mapstructure:"templates"`
	Backgrounds        ScreenFiles   `mapstructure:"backgrounds"`
	VLC                VLCConfig     `mapstructure:"vlc"`
}

// ScreenFiles locates custom files for the idle and transition screens.
// Empty names keep the defaults.
type ScreenFiles struct {
	Directory  string `mapstructure:"directory"`
	Idle       string `mapstructure:"idle"`
	Transition string `mapstructure:"transition"`
}

type VLCConfig struct {
	Path               string        `mapstructure:"path"`
	InstanceParameters []string      `mapstructure:"instance_parameters"`
	MediaParameters    []string      `mapstructure:"media_parameters"`
	HTTPPort           int           `mapstructure:"http_port"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	StartTimeout       time.Duration `mapstructure:"start_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

type ServerConfig struct {
	Address           string        `mapstructure:"address"`
	SSL               bool          `mapstructure:"ssl"`
	Login             string        `mapstructure:"login"`
	Password          string        `mapstructure:"password"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// APIConfig configures the local control API. An empty address disables it.
type APIConfig struct {
	Address string `mapstructure:"address"`
}

// Dir returns the directory holding the default config file.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), FileName)
}

func setDefaults(v *viper.Viper) {
	playerDefaults := player.DefaultConfig()
	vlcDefaults := vlc.DefaultConfig()
	remoteDefaults := remote.DefaultConfig()

	v.SetDefault("loglevel", "info")

	v.SetDefault("player.kara_folder", "")
	v.SetDefault("player.fullscreen", playerDefaults.Fullscreen)
	v.SetDefault("player.transition_duration", playerDefaults.TransitionDuration)
	for _, section := range []string{"templates", "backgrounds"} {
		v.SetDefault("player."+section+".directory", "")
		v.SetDefault("player."+section+".idle", "")
		v.SetDefault("player."+section+".transition", "")
	}
	v.SetDefault("player.vlc.path", vlcDefaults.Path)
	v.SetDefault("player.vlc.instance_parameters", []string{})
	v.SetDefault("player.vlc.media_parameters", []string{})
	v.SetDefault("player.vlc.http_port", vlcDefaults.HTTPPort)
	v.SetDefault("player.vlc.poll_interval", vlcDefaults.PollInterval)
	v.SetDefault("player.vlc.start_timeout", vlcDefaults.StartTimeout)
	v.SetDefault("player.vlc.request_timeout", vlcDefaults.RequestTimeout)

	v.SetDefault("server.address", "")
	v.SetDefault("server.ssl", false)
	v.SetDefault("server.login", "")
	v.SetDefault("server.password", "")
	v.SetDefault("server.reconnect_interval", remoteDefaults.ReconnectInterval)
	v.SetDefault("server.timeout", remoteDefaults.Timeout)

	v.SetDefault("api.address", "")
}

// Load reads the config file at path, or the default file when path is
// empty. Environment variables (KARAOKE_PLAYER_SERVER_PASSWORD...) override
// file values.
func Load(fsys afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fsys)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the mandatory values are set.
func (c *Config) Validate() error {
	required := map[string]string{
		"server.address":    c.Server.Address,
		"server.login":      c.Server.Login,
		"player.kara_folder": c.Player.KaraFolder,
	}
	missing := lo.Keys(lo.PickByValues(required, []string{""}))
	if len(missing) > 0 {
		return &InvalidError{Missing: missing}
	}
	return nil
}

// InvalidError lists the mandatory keys missing from the config.
type InvalidError struct {
	Missing []string
}

func (e *InvalidError) Error() string {
	missing := slices.Clone(e.Missing)
	slices.Sort(missing)
	return fmt.Sprintf("invalid config: missing %s", strings.Join(missing, ", "))
}

// VLC returns the VLC backend settings.
func (c *Config) VLC() vlc.Config {
	cfg := vlc.DefaultConfig()
	cfg.KaraFolder = c.Player.KaraFolder
	cfg.Fullscreen = c.Player.Fullscreen
	cfg.TransitionDuration = c.Player.TransitionDuration
	cfg.Path = c.Player.VLC.Path
	cfg.InstanceParameters = c.Player.VLC.InstanceParameters
	cfg.MediaParameters = c.Player.VLC.MediaParameters
	cfg.HTTPPort = c.Player.VLC.HTTPPort
	cfg.PollInterval = c.Player.VLC.PollInterval
	cfg.StartTimeout = c.Player.VLC.StartTimeout
	cfg.RequestTimeout = c.Player.VLC.RequestTimeout
	return cfg
}

// Remote returns the server connection settings.
func (c *Config) Remote() remote.Config {
	return remote.Config{
		Address:           c.Server.Address,
		SSL:               c.Server.SSL,
		Login:             c.Server.Login,
		Password:          c.Server.Password,
		ReconnectInterval: c.Server.ReconnectInterval,
		Timeout:           c.Server.Timeout,
	}
}

// TemplateFiles returns the template file of each screen.
func (f ScreenFiles) TemplateFiles() map[string]string {
	return f.merge(textgen.DefaultFilenames())
}

// BackgroundFiles returns the background file of each screen.
func (f ScreenFiles) BackgroundFiles() map[string]string {
	return f.merge(textgen.DefaultBackgroundFilenames())
}

func (f ScreenFiles) merge(defaults map[string]string) map[string]string {
	custom := lo.OmitByValues(map[string]string{
		textgen.Idle:       f.Idle,
		textgen.Transition: f.Transition,
	}, []string{""})
	return lo.Assign(defaults, custom)
}

// WriteDefault writes the default config file to path. An existing file is
// only replaced when force is set.
func WriteDefault(fsys afero.Fs, path string, force bool) error {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return err
	}
	if exists && !force {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := afero.WriteFile(fsys, path, defaultFile, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
