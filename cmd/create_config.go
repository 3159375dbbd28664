package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"karaoke-player/internal/config"
)

var forceCreate bool

func init() {
	createConfigCmd.Flags().BoolVarP(&forceCreate, "force", "f", false, "Overwrite an existing config file")
	rootCmd.AddCommand(createConfigCmd)
}

var createConfigCmd = &cobra.Command{
	Use:   "create-config",
	Short: "Write the default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}

		if err := config.WriteDefault(afero.NewOsFs(), path, forceCreate); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config created in %s\nEdit it before running the player.\n", path)
		return nil
	},
}
