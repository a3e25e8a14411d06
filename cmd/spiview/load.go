package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/spiview/internal/canvas"
	"github.com/banshee-data/spiview/internal/layer"
	"github.com/banshee-data/spiview/internal/pipeline"
	"github.com/banshee-data/spiview/internal/render"
	"github.com/banshee-data/spiview/internal/spi"
	"github.com/banshee-data/spiview/internal/viewer"
)

type loadOptions struct {
	by       string
	pngPath  string
	htmlPath string
	lineID   string
	panelID  string
}

func newLoadCmd(a *app) *cobra.Command {
	o := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Parse and project one export, then print its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLoad(cmd, args[0], o)
		},
	}
	cmd.Flags().StringVar(&o.by, "by", string(layer.ModeSize), "Grouping to print and show (size or id)")
	cmd.Flags().StringVar(&o.pngPath, "png", "", "Write a PNG preview of the visible layers")
	cmd.Flags().StringVar(&o.htmlPath, "html", "", "Write an interactive HTML page of every layer")
	cmd.Flags().StringVar(&o.lineID, "line", "", "Only show layers of this line id")
	cmd.Flags().StringVar(&o.panelID, "panel", "", "Only show layers of this panel id")
	return cmd
}

func (a *app) runLoad(cmd *cobra.Command, path string, o *loadOptions) error {
	mode, err := layer.ParseMode(o.by)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	v := a.newViewer(nil)
	defer v.Close()

	if err := v.Load(abs); err != nil {
		return err
	}
	if err := v.Wait(cmd.Context()); err != nil {
		return err
	}
	s := v.Summary()
	if s.State == pipeline.StateFailed {
		return errors.New(s.Error)
	}

	if err := v.SetMode(mode); err != nil {
		return err
	}
	if err := v.SetFilter(o.lineID, o.panelID); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: project %d %q, %d components, %d layers\n",
		filepath.Base(abs), s.Idno, s.ProductName, s.Components, s.Layers)
	if err := printStructure(out, v.Structure(mode)); err != nil {
		return err
	}

	ro := render.Options{Title: s.ProductName}
	if o.pngPath != "" {
		if err := writeRender(o.pngPath, v, ro, render.PNG); err != nil {
			return err
		}
		a.log.Info("wrote preview", "path", o.pngPath)
	}
	if o.htmlPath != "" {
		if err := writeRender(o.htmlPath, v, ro, render.HTML); err != nil {
			return err
		}
		a.log.Info("wrote page", "path", o.htmlPath)
	}
	return nil
}

func printStructure(w io.Writer, entries []spi.StructureEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tKEY\tCOUNT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.ComponentType, e.Key, e.Count)
	}
	return tw.Flush()
}

type renderFunc func(io.Writer, *layer.Index, *canvas.Config, render.Options) error

func writeRender(path string, v *viewer.Viewer, o render.Options, fn renderFunc) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f, v.Index(), v.Canvas(), o)
}
