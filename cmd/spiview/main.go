// Command spiview loads solder-paste-inspection exports, projects them onto a
// canvas and serves the resulting layers.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/banshee-data/spiview/internal/config"
	"github.com/banshee-data/spiview/internal/fsutil"
	"github.com/banshee-data/spiview/internal/ingest"
	"github.com/banshee-data/spiview/internal/monitoring"
	"github.com/banshee-data/spiview/internal/pipeline"
	"github.com/banshee-data/spiview/internal/version"
	"github.com/banshee-data/spiview/internal/viewer"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg *config.ViewerConfig
	log hclog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "spiview",
		Short:         "Visualise solder paste inspection exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a JSON viewer config (defaults to "+config.DefaultConfigPath+" when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newLoadCmd(a),
		newServeCmd(a),
		newRunsCmd(a),
		newMigrateCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup installs the logger and resolves the config: the stock defaults,
// overridden by the config file if one is given or found.
func (a *app) setup(stderr io.Writer) error {
	level := hclog.LevelFromString(a.logLevel)
	if level == hclog.NoLevel {
		return fmt.Errorf("invalid --log-level %q", a.logLevel)
	}
	a.log = hclog.New(&hclog.LoggerOptions{
		Name:   "spiview",
		Level:  level,
		Output: stderr,
	})
	monitoring.UseHCLog(a.log)

	path := a.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			path = config.DefaultConfigPath
		}
	}
	a.cfg = config.DefaultViewerConfig()
	if path != "" {
		loaded, err := config.LoadViewerConfig(path)
		if err != nil {
			return err
		}
		a.cfg = a.cfg.Merge(loaded)
		a.log.Debug("loaded config", "path", path)
	}
	return a.cfg.Validate()
}

func (a *app) loader() pipeline.Loader {
	if a.cfg.GetSnapshotCache() {
		return ingest.NewLoader()
	}
	return &ingest.Loader{FS: fsutil.OSFileSystem{}}
}

func (a *app) newViewer(rec pipeline.RunRecorder) *viewer.Viewer {
	return viewer.New(viewer.Options{
		Settings:      a.cfg.CanvasConfig(),
		Loader:        a.loader(),
		FS:            fsutil.OSFileSystem{},
		Recorder:      rec,
		ProgressEvery: a.cfg.GetProgressEvery(),
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "spiview:", err)
		os.Exit(1)
	}
}
