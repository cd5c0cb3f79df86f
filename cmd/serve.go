package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeboard/importer"
	"timeboard/web"

	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveDBPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local JSON API",
	Long: `Start a local HTTP server exposing sync, entry, summary, status and import endpoints.

The server has no authentication and is meant to listen on a trusted machine only.`,
	Example: `
  # Start on the configured port (server.port, default 8080)
  timeboard serve

  # Start on a custom port with an explicit database
  timeboard serve --port 9090 --db ./timeboard.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(serveDBPath)
		if err != nil {
			return err
		}
		defer app.Close()

		registry, err := buildRegistry(app.cfg, app.store, app.logger)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = app.cfg.Server.Port
		}

		handler := web.NewServer(app.store, registry, web.Options{
			Location: app.location,
			Importer: importer.Options{
				Location:         app.location,
				MatrixDateLayout: app.cfg.Import.MatrixDateLayout,
			},
			Logger: app.logger,
		})

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		fmt.Printf("Listening on http://localhost:%d (providers: %v)\n", port, registry.Names())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default: server.port from config)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to SQLite database (default: database.path from config)")
}
