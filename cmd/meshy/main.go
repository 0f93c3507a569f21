// Command meshy slices STL meshes for 3D printing, generates support
// structures and closes holes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/soypat/meshy"
	"github.com/soypat/meshy/render"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	config  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:           "meshy",
		Short:         "Slice meshes, generate supports and repair holes",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.verbose {
				meshy.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}
	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug information to stderr")
	root.AddCommand(
		newInfoCmd(&flags),
		newSliceCmd(&flags),
		newSupportCmd(&flags),
		newRepairCmd(&flags),
		newPreviewCmd(&flags),
		newMirrorCmd(),
		newRotateCmd(),
		newConfigCmd(),
	)
	return root
}

// readMesh loads and welds an STL file. Mismatched normals are logged and
// otherwise ignored.
func readMesh(path string) (*meshy.Mesh, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	tris, err := render.ReadSTL(fp)
	if errors.Is(err, render.ErrNormalMismatch) {
		meshy.Logger().Warn("ignoring STL normals", "file", path, "err", err)
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m := meshy.FromTriangles(tris, 0)
	if m.NumFaces() == 0 {
		return nil, fmt.Errorf("%s has no faces", path)
	}
	return m, nil
}

// create opens path for writing. The returned function closes the file and
// reports the first error.
func create(path string) (io.Writer, func() error, error) {
	fp, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return fp, fp.Close, nil
}
