// Command ticketd serves the in-memory train ticketing API that the
// traintalk agent talks to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"traintalk/internal/logging"
	"traintalk/internal/ticketd"
)

func main() {
	var (
		flagAddr    string
		flagVerbose bool
		flagEmpty   bool
	)

	rootCmd := &cobra.Command{
		Use:           "ticketd",
		Short:         "In-memory train ticketing service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if flagVerbose {
				level = "debug"
			}
			logger, err := logging.New(level, "")
			if err != nil {
				return err
			}
			defer logger.Sync()

			store := ticketd.NewSeededStore()
			if flagEmpty {
				store = ticketd.NewStore()
			}
			srv := &http.Server{
				Addr:         flagAddr,
				Handler:      ticketd.NewServer(store, logger).Handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("ticketd listening", zap.String("addr", flagAddr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	rootCmd.Flags().StringVarP(&flagAddr, "addr", "a", ":8080", "listen address")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagEmpty, "empty", false, "start with an empty catalog")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
