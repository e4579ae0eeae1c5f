package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"procintel/internal/importer"
	"procintel/internal/logging"
	"procintel/internal/server"
	"procintel/internal/watch"
)

var (
	serveAddr  string
	serveWatch string
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP API backed by the local database.

Endpoints:
  POST /api/ask       {"query": "...", "think": true}
  GET  /api/summary   general summary
  GET  /api/history   recently answered questions
  PUT  /api/processes/:key                add or replace a process
  POST /api/processes/:key/complete       {"exit_date": "YYYY-MM-DD"}
  DELETE /api/processes/:key
  PUT  /api/biddings/:key/status          {"status": "..."}
  DELETE /api/biddings/:key
  GET  /healthz

:key is a record ID or SEI code.

With --watch the given sheet is re-imported whenever it changes.`,
	RunE: runServe,
}

// watchCmd re-imports a sheet on change
var watchCmd = &cobra.Command{
	Use:   "watch [file.csv]",
	Short: "Re-import a sheet into the database whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveWatch, "watch", "", "CSV sheet to keep imported")
}

func runServe(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	scfg := cfg.Server
	if serveAddr != "" {
		scfg.Addr = serveAddr
	}
	srv := server.New(newEngine(), st,
		server.WithQueryLog(st),
		server.WithRecords(st),
		server.WithConfig(scfg),
	)

	var w *watch.Watcher
	if serveWatch != "" {
		im, err := importer.FromConfig(cfg.Import)
		if err != nil {
			return err
		}
		if w, err = watch.New(serveWatch, im, st); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return srv.Run(ctx) })
	if w != nil {
		g.Go(func() error {
			if err := w.Start(ctx); err != nil {
				w.Stop()
				return err
			}
			<-ctx.Done()
			w.Stop()
			return nil
		})
	}
	return g.Wait()
}

func runWatch(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	im, err := importer.FromConfig(cfg.Import)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	w, err := watch.New(args[0], im, st, watch.OnReload(func(r *importer.Result) {
		fmt.Fprintf(out, "Recarregado: %d linhas, %d avisos\n", r.Rows, len(r.Warnings))
	}))
	if err != nil {
		return err
	}
	if err := w.Start(cmd.Context()); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(out, "Monitorando %s (Ctrl+C para sair)\n", w.Path())
	<-cmd.Context().Done()
	logging.Watch("Interrupted")
	return nil
}
