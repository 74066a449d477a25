package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/railsweep/pkg/mesh"
	"github.com/chazu/railsweep/pkg/meshio"
)

var (
	outPath     string
	format      string
	metricsPath string
)

var generateCmd = &cobra.Command{
	Use:   "generate <layout>",
	Short: "Generate the swept meshes of a layout",
	Long: `Connect the nodes of a layout, sweep every enabled profile along the
chain and write the meshes.

The format defaults to the output file extension, or obj.

Examples:
  railsweep generate examples/straight.rail --out straight.obj
  railsweep generate examples/loop.rail --out loop.stl
  railsweep generate examples/loop.rail --format json --metrics -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(format, outPath)
		if err != nil {
			return err
		}
		if metricsPath == "-" && outPath == "" && f != "stl" {
			return fmt.Errorf("--metrics - needs --out, the %s mesh is already written to stdout", f)
		}

		a, src, err := loadLayout(args[0])
		if err != nil {
			return err
		}
		res, err := a.Evaluate(src)
		if err != nil {
			return err
		}
		if err := scriptErrors(args[0], res); err != nil {
			return err
		}
		for _, pf := range res.Sweep.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", pf)
		}

		meshes := res.Meshes()
		if len(meshes) == 0 {
			return fmt.Errorf("%s: no meshes generated", args[0])
		}
		if err := writeMeshes(cmd.OutOrStdout(), f, outPath, meshes); err != nil {
			return err
		}

		st := res.Sweep.Stats
		fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %d meshes, %d vertices, %d triangles in %s\n",
			st.RunID, st.MeshCount, st.VertexCount, st.TriangleCount, st.Elapsed)

		switch metricsPath {
		case "":
			return nil
		case "-":
			return a.Metrics().WriteText(cmd.OutOrStdout())
		default:
			mf, err := os.Create(metricsPath)
			if err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			if err := a.Metrics().WriteText(mf); err != nil {
				mf.Close()
				return fmt.Errorf("write metrics: %w", err)
			}
			return mf.Close()
		}
	},
}

func init() {
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (stdout for obj and json when empty)")
	generateCmd.Flags().StringVarP(&format, "format", "f", "", "output format: obj, stl or json")
	generateCmd.Flags().StringVar(&metricsPath, "metrics", "", "write run metrics in Prometheus text format (- for stdout)")
	rootCmd.AddCommand(generateCmd)
}

func outputFormat(flag, out string) (string, error) {
	f := strings.ToLower(flag)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	}
	if f == "" {
		f = "obj"
	}
	switch f {
	case "obj", "stl", "json":
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q, expected obj, stl or json", f)
}

// writeMeshes writes to stdout unless out names a file. stl always needs a
// file.
func writeMeshes(stdout io.Writer, f, out string, meshes []*mesh.Mesh) error {
	if f == "stl" {
		if out == "" {
			return fmt.Errorf("stl output needs --out")
		}
		return meshio.SaveSTL(out, meshes...)
	}
	if out == "" {
		return encodeMeshes(stdout, f, meshes)
	}

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("write %s: %w", f, err)
	}
	if err := encodeMeshes(file, f, meshes); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

func encodeMeshes(w io.Writer, f string, meshes []*mesh.Mesh) error {
	if f == "json" {
		return meshio.WriteJSON(w, meshes...)
	}
	return meshio.WriteOBJ(w, meshes...)
}
