package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/armatrix/claude-agent-runtime/server"
)

var (
	serveAddr string
	serveCORS bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions over HTTP",
	Long: `Start an HTTP server exposing session initialization, batch and
streamed (Server-Sent Events) runs, abort, and file listing.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "127.0.0.1:8080", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveCORS, "cors", true, "Enable permissive CORS")
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.Addr = serveAddr
	cfg.EnableCORS = serveCORS
	srv := server.New(cfg, rt.agent, rt.log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	rt.log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		rt.log.Error().Err(err).Msg("shutdown")
		return err
	}
	return nil
}
