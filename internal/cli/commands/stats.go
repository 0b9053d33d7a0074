package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command
func NewStatsCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(g, commandOptions(cmd)...)
		},
	}
}

func runStats(g *GlobalOptions, opts ...Option) error {
	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	if err := r.auth.RequireSession(r.ctx); err != nil {
		return explain(err)
	}

	dash, err := r.api.Dashboard(r.ctx)
	if err != nil {
		return explain(err)
	}

	fmt.Fprintf(r.out, "Users:     %d\n", dash.TotalUsers)
	fmt.Fprintf(r.out, "Materials: %d\n", dash.TotalMaterials)
	return nil
}
