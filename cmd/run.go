package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"infokiosk/internal/app"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the kiosk until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := app.NewApp(v.GetString("config"), app.Options{LogLevel: v.GetString("log-level")})
			if err != nil {
				return err
			}
			err = a.Run(ctx)
			var fe *app.FatalError
			if errors.As(err, &fe) && fe.Dump != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "diagnostic dump written to %s\n", fe.Dump)
			}
			return err
		},
	}
}

// signalContext cancels with the StopReason of the first SIGINT/SIGTERM so
// the shutdown log says which one it was.
func signalContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			cancel(app.ReasonForSignal(sig))
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigs)
		cancel(nil)
	}
}
