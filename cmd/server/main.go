package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/urlstore/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:          "urlstore",
		Short:        "urlstore shortens URLs and tracks their clicks.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind host (overrides SERVER_HOST)")
	cmd.Flags().StringVar(&port, "port", "", "bind port (overrides SERVER_PORT)")

	return cmd
}

func run(ctx context.Context, host, port string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.New(ctx, &app.Options{Host: host, Port: port})
	if err != nil {
		return err
	}
	defer application.Shutdown()

	// Start server (blocks until shutdown)
	return application.Start(ctx)
}
