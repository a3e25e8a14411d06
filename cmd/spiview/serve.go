package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/spiview/internal/api"
	"github.com/banshee-data/spiview/internal/db"
	"github.com/banshee-data/spiview/internal/pipeline"
	"github.com/banshee-data/spiview/internal/security"
)

type serveOptions struct {
	listen    string
	historyDB string
	noHistory bool
	roots     []string
}

func newServeCmd(a *app) *cobra.Command {
	o := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the viewer API, renders and event stream",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var initial string
			if len(args) == 1 {
				initial = args[0]
			}
			return a.runServe(cmd.Context(), o, initial)
		},
	}
	cmd.Flags().StringVar(&o.listen, "listen", "", "Listen address (overrides the config)")
	cmd.Flags().StringVar(&o.historyDB, "db", "", "Run history database (overrides the config)")
	cmd.Flags().StringSliceVar(&o.roots, "root", nil, "Directory /api/load may read from, repeatable (defaults to the working and temp directories)")
	cmd.Flags().BoolVar(&o.noHistory, "no-history", false, "Do not record ingest runs")
	return cmd
}

func (a *app) runServe(ctx context.Context, o *serveOptions, initial string) error {
	listen := a.cfg.GetListen()
	if o.listen != "" {
		listen = o.listen
	}

	var (
		history *db.DB
		rec     pipeline.RunRecorder
		runs    api.RunLister
	)
	if !o.noHistory {
		path := a.cfg.GetHistoryDB()
		if o.historyDB != "" {
			path = o.historyDB
		}
		var err error
		history, err = db.NewDB(path)
		if err != nil {
			return err
		}
		defer history.Close()
		rec, runs = history, history
	}

	v := a.newViewer(rec)
	defer v.Close()

	roots := o.roots
	if len(roots) == 0 {
		var err error
		if roots, err = security.DefaultRoots(); err != nil {
			return err
		}
	}
	srv := api.NewServer(v, runs)
	srv.SetRoots(roots)
	mux := srv.ServeMux()
	if history != nil {
		if err := history.AttachAdminRoutes(mux); err != nil {
			return err
		}
	}
	if initial != "" {
		abs, err := filepath.Abs(initial)
		if err != nil {
			return err
		}
		if err := v.Load(abs); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with the command context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("listening", "addr", listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("failed to shut down cleanly", "error", err)
	}
	a.log.Info("server stopped")
	return nil
}
