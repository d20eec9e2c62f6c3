package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"infokiosk/internal/app"
)

func newCheckConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the config file and print the resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := v.GetString("config")
			st, err := app.CheckConfig(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: %s\n", path)
			fmt.Fprintf(out, "tick: %s\n", st.Tick)
			fmt.Fprintf(out, "order: %s\n", strings.Join(st.Order, ", "))
			if st.Watchdog.Enabled {
				fmt.Fprintf(out, "watchdog: %s every %s (reconnect after %d, reboot after %d)\n",
					st.Watchdog.Target, st.Watchdog.Interval, st.Watchdog.ReconnectAfter, st.Watchdog.RebootAfter)
			} else {
				fmt.Fprintln(out, "watchdog: disabled")
			}
			if st.RebootHours > 0 {
				fmt.Fprintf(out, "reboot: after %gh uptime\n", st.RebootHours)
			} else {
				fmt.Fprintln(out, "reboot: disabled")
			}
			return nil
		},
	}
}
