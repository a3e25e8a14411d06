package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/spiview/internal/db"
	"github.com/banshee-data/spiview/internal/httputil"
	"github.com/banshee-data/spiview/internal/pipeline"
)

type runsOptions struct {
	limit     int
	server    string
	historyDB string
}

func newRunsCmd(a *app) *cobra.Command {
	o := &runsOptions{}
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ingest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := a.fetchRuns(cmd.Context(), o)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVar(&o.limit, "limit", 20, "Number of runs to list")
	cmd.Flags().StringVar(&o.server, "server", "", "Ask a running server (e.g. http://localhost:8090) instead of the local database")
	cmd.Flags().StringVar(&o.historyDB, "db", "", "Run history database (overrides the config)")
	return cmd
}

func (a *app) fetchRuns(ctx context.Context, o *runsOptions) ([]pipeline.Run, error) {
	if o.limit < 1 {
		return nil, fmt.Errorf("--limit must be positive, got %d", o.limit)
	}
	if o.server != "" {
		var runs []pipeline.Run
		q := url.Values{"limit": {strconv.Itoa(o.limit)}}
		if err := httputil.NewClient(o.server).GetJSON(ctx, "/api/runs?"+q.Encode(), &runs); err != nil {
			return nil, err
		}
		return runs, nil
	}

	path := a.cfg.GetHistoryDB()
	if o.historyDB != "" {
		path = o.historyDB
	}
	history, err := db.NewDB(path)
	if err != nil {
		return nil, err
	}
	defer history.Close()
	return history.Runs(ctx, o.limit)
}

func printRuns(w io.Writer, runs []pipeline.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tCOMPONENTS\tDURATION\tCACHE\tPATH")
	for _, r := range runs {
		status := string(r.Status)
		if r.ErrorKind != "" {
			status += " (" + string(r.ErrorKind) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%t\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), status, r.Components,
			r.Duration().Round(time.Millisecond), r.FromCache, r.Path)
	}
	return tw.Flush()
}
