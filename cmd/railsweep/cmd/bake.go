package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bakeCmd = &cobra.Command{
	Use:   "bake <layout>",
	Short: "Re-bake every curve of a connected layout",
	Long: `Connect the nodes of a layout, then re-bake every non-end segment and
print the point statistics. Fails when a normal node has nothing to bake
towards.

Example:
  railsweep bake examples/loop.rail`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, src, err := loadLayout(args[0])
		if err != nil {
			return err
		}
		res, err := a.Bake(src)
		if err != nil {
			return err
		}
		if err := scriptErrors(args[0], res); err != nil {
			return err
		}

		s := res.Connect
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "action:  %s\n", s.LastAction)
		fmt.Fprintf(out, "time:    %s\n", s.Elapsed)
		fmt.Fprintf(out, "points:  %d\n", s.PointCount)
		fmt.Fprintf(out, "length:  %.3f m\n", s.TotalLength)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bakeCmd)
}
