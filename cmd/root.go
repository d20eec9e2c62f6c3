package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfigPath = "./config.yaml"

func Execute() error {
	return newRootCmd().Execute()
}

// newRootCmd builds the command tree. Flags are bound through viper so every
// one of them can also come from a KIOSK_* environment variable
// (KIOSK_CONFIG, KIOSK_LOG_LEVEL).
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "kiosk",
		Short:         "Info kiosk: rotating weather, news, prayer times and alerts",
		Long:          "kiosk drives an unattended information display: it refreshes its data sources on their own schedules, rotates the slides, watches connectivity and reboots the box when it has to.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	flags := rootCmd.PersistentFlags()
	flags.String("config", defaultConfigPath, "path to the config file (json, yaml or toml)")
	flags.String("log-level", "", "override logging.level (debug, info, warn, error)")
	if err := v.BindPFlags(flags); err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(v),
		newCheckConfigCmd(v),
	)

	return rootCmd
}
