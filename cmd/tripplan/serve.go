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

	"trip-planner-rag/internal/app"
	"trip-planner-rag/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	port         int
	buildMissing bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trip planning HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, closeFn, err := newPlanner(ctx, cfg, buildMissing)
		if err != nil {
			return err
		}
		defer closeFn()

		srv := server.New(p, app.NewConverter(cfg), log).Create(cfg.Server.Addr())

		errCh := make(chan error, 1)
		go func() {
			log.Infof("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	},
}

var convertCmd = &cobra.Command{
	Use:     "convert <amount> <from> <to>",
	Short:   "Convert an amount between two currencies",
	Example: "tripplan convert 100 USD EUR",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var amount float64
		if _, err := fmt.Sscanf(args[0], "%g", &amount); err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		conv, err := app.NewConverter(cfg).Convert(cmd.Context(), amount, args[1], args[2])
		if err != nil {
			return err
		}

		fmt.Println(conv.Summary)
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 8000, "port to listen on")
	serveCmd.Flags().BoolVar(&buildMissing, "build-missing", false, "build the vector index from the knowledge base when it does not exist")
}
