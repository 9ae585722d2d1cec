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

	"github.com/hupe1980/deliberate"
	"github.com/hupe1980/deliberate/core"
	"github.com/hupe1980/deliberate/store"
	"github.com/hupe1980/deliberate/web"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the discussion API over HTTP",
	Long: `Start an HTTP server exposing discussions as JSON and live progress
events over a websocket at /ws. POST /discussions runs a deliberation and
returns the concluded record.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	panel, err := buildParticipants()
	if err != nil {
		return err
	}

	gateway, err := store.NewSQLite(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer gateway.Close()

	logger := newCLILogger()

	// The server's progress sink is wired into the engine so websocket
	// clients see rounds as they complete. The closure resolves the server
	// lazily; no event fires before a discussion is posted.
	var server *web.Server
	d, err := deliberate.New(panel, func(o *deliberate.Options) {
		o.Config = buildConfig()
		o.Gateway = gateway
		o.Logger = logger
		o.Progress = func(ev core.ProgressEvent) { server.Progress()(ev) }
	})
	if err != nil {
		return err
	}
	server = web.NewServer(d, gateway, logger)

	httpServer := &http.Server{
		Addr:              viper.GetString("addr"),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Println(titleStyle.Render("Listening on " + httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
