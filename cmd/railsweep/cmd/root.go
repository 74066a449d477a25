package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chazu/railsweep/pkg/app"
	"github.com/chazu/railsweep/pkg/config"
	"github.com/chazu/railsweep/pkg/diag"
)

var (
	configPath string
	verbose    bool

	settings config.Settings
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "railsweep",
	Short: "Build track curves and swept meshes from layout scripts",
	Long: `railsweep connects the control nodes declared in a layout script into a
chain of Bézier segments, resamples them at an even spacing and sweeps every
declared profile along the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelInfo
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		if configPath == "" {
			settings = config.Default()
			return nil
		}
		s, err := config.Load(configPath)
		if err != nil {
			return err
		}
		settings = s
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log informational diagnostics")
}

// loadLayout reads a layout script and builds an App that resolves mesh
// files next to it.
func loadLayout(path string) (*app.App, string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read layout: %w", err)
	}
	a := app.New(settings,
		app.WithSink(diag.NewLogSink(logger)),
		app.WithBaseDir(filepath.Dir(path)),
	)
	return a, string(src), nil
}

// scriptErrors turns evaluation errors into a single command error.
func scriptErrors(path string, res *app.Result) error {
	if len(res.Errors) == 0 {
		return nil
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, e)
	}
	return fmt.Errorf("%s: %d evaluation errors", path, len(res.Errors))
}
