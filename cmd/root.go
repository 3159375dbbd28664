// Package cmd implements the command-line interface of karaoke-player.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"karaoke-player/internal/config"
	"karaoke-player/internal/logging"
	"karaoke-player/internal/worker"
	"karaoke-player/pkg/deps"
)

var (
	configPath string
	debug      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	lo.Must0(rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml"))
}

var rootCmd = &cobra.Command{
	Use:           config.AppName,
	Short:         "Karaoke player driving VLC from a playlist server",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys := afero.NewOsFs()
		cfg, err := config.Load(fsys, configPath)
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if debug {
			level = "debug"
		}
		log, err := logging.New(level)
		if err != nil {
			return err
		}

		if err := deps.NewChecker(cfg.Player.VLC.Path).CheckAndLog(log); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Infof("Starting %s %s", config.AppName, Version)
		return worker.New(cfg, fsys, Version, log).Run(ctx)
	},
}

// Execute runs the command line.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:       rootCmd,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic + cc.HiBlue,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
