package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect <layout>",
	Short: "Connect and bake the nodes of a layout",
	Long: `Connect the nodes of a layout into a chain, bake every segment and
print the connection statistics.

Example:
  railsweep connect examples/straight.rail`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, src, err := loadLayout(args[0])
		if err != nil {
			return err
		}
		res, err := a.Connect(src)
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
		fmt.Fprintf(out, "nodes:   %d\n", s.NodeCount)
		fmt.Fprintf(out, "links:   %d\n", s.Links)
		fmt.Fprintf(out, "points:  %d\n", s.PointCount)
		fmt.Fprintf(out, "length:  %.3f m\n", s.TotalLength)

		path, _ := res.Network.Path()
		for i, pt := range path {
			if i%10 != 0 && i != len(path)-1 {
				continue
			}
			p := pt.Position
			fmt.Fprintf(out, "  %4d  %9.3f %9.3f %9.3f\n", i, p.X, p.Y, p.Z)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
